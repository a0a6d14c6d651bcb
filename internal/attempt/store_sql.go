package attempt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db  *sql.DB
	now Clock
}

func NewSQLStore(db *sql.DB, now Clock) *SQLStore {
	if now == nil {
		now = time.Now
	}
	return &SQLStore{db: db, now: now}
}

// GetOrCreate inserts and, on a (user_id, test_id) conflict, fetches the existing row.
func (s *SQLStore) GetOrCreate(ctx context.Context, userID, testID string) (TestAttempt, error) {
	_, err := s.db.ExecContext(ctx, `INSERT INTO attempts (id,user_id,test_id,version,started_at)
		VALUES ($1,$2,$3,0,$4)
		ON CONFLICT (user_id, test_id) DO NOTHING`,
		uuid.NewString(), userID, testID, stamp(s.now).UnixMilli())
	if err != nil {
		return TestAttempt{}, unavailable("create attempt", err)
	}
	return s.Find(ctx, userID, testID)
}

// TryAppendAnswer runs in one transaction:
//  1. bump version on the attempt row if it is not completed (row lock, CAS)
//  2. insert the answer unless (attempt_id, question_id) already exists
//  3. stamp completed_at once the answer count reaches the total
//
// Any step that does not apply rolls the whole transaction back.
func (s *SQLStore) TryAppendAnswer(ctx context.Context, in Append) (TestAttempt, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TestAttempt{}, false, unavailable("begin", err)
	}
	applied, err := s.appendTx(ctx, tx, in)
	if err != nil {
		_ = tx.Rollback()
		return TestAttempt{}, false, err
	}
	if !applied {
		_ = tx.Rollback()
		a, err := s.Get(ctx, in.AttemptID)
		return a, false, err
	}
	// read back inside the transaction: once committed, nothing else can fail
	a, err := s.load(ctx, tx, tx.QueryRowContext(ctx,
		`SELECT `+attemptCols+` FROM attempts WHERE id=$1`, in.AttemptID))
	if err != nil {
		_ = tx.Rollback()
		return TestAttempt{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return TestAttempt{}, false, unavailable("commit", err)
	}
	return a, true, nil
}

func (s *SQLStore) appendTx(ctx context.Context, tx *sql.Tx, in Append) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE attempts SET version=version+1 WHERE id=$1 AND completed_at IS NULL`, in.AttemptID)
	if err != nil {
		return false, unavailable("lock attempt", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, unavailable("rows affected", err)
	} else if n == 0 {
		// completed, or missing: Get reports which
		return false, nil
	}

	now := stamp(s.now).UnixMilli()
	res, err = tx.ExecContext(ctx, `INSERT INTO question_attempts (attempt_id,question_id,is_right,answered_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (attempt_id, question_id) DO NOTHING`,
		in.AttemptID, in.QuestionID, in.IsRight, now)
	if err != nil {
		return false, unavailable("insert answer", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, unavailable("rows affected", err)
	} else if n == 0 {
		return false, nil
	}

	if in.TotalQuestions <= 0 {
		return true, nil
	}
	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM question_attempts WHERE attempt_id=$1`, in.AttemptID).Scan(&count); err != nil {
		return false, unavailable("count answers", err)
	}
	if count >= in.TotalQuestions {
		if _, err := tx.ExecContext(ctx,
			`UPDATE attempts SET completed_at=$1 WHERE id=$2 AND completed_at IS NULL`, now, in.AttemptID); err != nil {
			return false, unavailable("complete attempt", err)
		}
	}
	return true, nil
}

const attemptCols = `id,user_id,test_id,version,started_at,completed_at`

func (s *SQLStore) Get(ctx context.Context, attemptID string) (TestAttempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attemptCols+` FROM attempts WHERE id=$1`, attemptID)
	return s.load(ctx, s.db, row)
}

func (s *SQLStore) Find(ctx context.Context, userID, testID string) (TestAttempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+attemptCols+` FROM attempts WHERE user_id=$1 AND test_id=$2`, userID, testID)
	return s.load(ctx, s.db, row)
}

// querier is *sql.DB or *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLStore) load(ctx context.Context, q querier, row *sql.Row) (TestAttempt, error) {
	a, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TestAttempt{}, ErrAttemptNotFound
		}
		return TestAttempt{}, unavailable("get attempt", err)
	}
	if a.QuestionsAttended, err = s.answers(ctx, q, a.ID); err != nil {
		return TestAttempt{}, err
	}
	return a, nil
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]TestAttempt, error) {
	var where []string
	var args []any
	if opts.UserID != "" {
		args = append(args, opts.UserID)
		where = append(where, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if opts.TestID != "" {
		args = append(args, opts.TestID)
		where = append(where, fmt.Sprintf("test_id=$%d", len(args)))
	}
	q := `SELECT ` + attemptCols + ` FROM attempts`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY started_at DESC, id ASC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
		if opts.Offset > 0 {
			args = append(args, opts.Offset)
			q += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, unavailable("list attempts", err)
	}
	out := []TestAttempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			rows.Close()
			return nil, unavailable("list attempts", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, unavailable("list attempts", err)
	}
	rows.Close()

	// answers are loaded after rows is closed: sqlite runs on a single connection
	for i := range out {
		if out[i].QuestionsAttended, err = s.answers(ctx, s.db, out[i].ID); err != nil {
			return nil, err
		}
	}
	if opts.Limit <= 0 && opts.Offset > 0 {
		out = page(out, 0, opts.Offset)
	}
	return out, nil
}

func (s *SQLStore) answers(ctx context.Context, q querier, attemptID string) ([]QuestionAttempt, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT question_id,is_right,answered_at FROM question_attempts WHERE attempt_id=$1 ORDER BY id`, attemptID)
	if err != nil {
		return nil, unavailable("load answers", err)
	}
	defer rows.Close()
	out := []QuestionAttempt{}
	for rows.Next() {
		var qa QuestionAttempt
		var at int64
		if err := rows.Scan(&qa.QuestionID, &qa.IsRight, &at); err != nil {
			return nil, unavailable("load answers", err)
		}
		qa.AnsweredAt = time.UnixMilli(at).UTC()
		out = append(out, qa)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("load answers", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(sc scanner) (TestAttempt, error) {
	var a TestAttempt
	var started int64
	var completed sql.NullInt64
	if err := sc.Scan(&a.ID, &a.UserID, &a.TestID, &a.Version, &started, &completed); err != nil {
		return TestAttempt{}, err
	}
	a.StartedAt = time.UnixMilli(started).UTC()
	if completed.Valid {
		t := time.UnixMilli(completed.Int64).UTC()
		a.CompletedAt = &t
	}
	return a, nil
}
