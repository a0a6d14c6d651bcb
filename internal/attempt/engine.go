// Package attempt records answers to a test's questions and derives score,
// progress and completion from them.
//
// Every question counts at most once per attempt: the Store's TryAppendAnswer
// is the single atomic write path, so duplicate or retried submissions are
// no-ops rather than errors.
package attempt

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/mind-engage/testseries/internal/catalog"
	syncx "github.com/mind-engage/testseries/internal/sync"
)

// EventSink receives audit events after an answer has been committed.
type EventSink interface {
	Record(ctx context.Context, typ, key string, data any) error
}

type Engine struct {
	Catalog catalog.Catalog
	Store   Store
	Events  EventSink
}

func NewEngine(cat catalog.Catalog, st Store, events EventSink) *Engine {
	return &Engine{Catalog: cat, Store: st, Events: events}
}

type SubmitInput struct {
	UserID         string `json:"user_id"`
	TestID         string `json:"test_id"`
	QuestionID     string `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

func (e *Engine) StartOrResume(ctx context.Context, userID, testID string) (AttemptView, error) {
	if strings.TrimSpace(userID) == "" {
		return AttemptView{}, ErrMissingUser
	}
	t, err := e.test(ctx, testID)
	if err != nil {
		return AttemptView{}, err
	}
	a, err := e.Store.GetOrCreate(ctx, userID, testID)
	if err != nil {
		return AttemptView{}, err
	}
	return buildView(t, a), nil
}

// SubmitAnswer scores selectedOption against the catalog and records it once.
// applied is false when the question was already answered or the attempt is
// completed; the returned view is then the current, unchanged state.
func (e *Engine) SubmitAnswer(ctx context.Context, in SubmitInput) (view AttemptView, applied bool, err error) {
	if strings.TrimSpace(in.UserID) == "" {
		return AttemptView{}, false, ErrMissingUser
	}
	t, err := e.test(ctx, in.TestID)
	if err != nil {
		return AttemptView{}, false, err
	}
	q, ok := t.Question(in.QuestionID)
	if !ok {
		return AttemptView{}, false, ErrInvalidQuestion
	}

	// past validation the write runs to completion even if the caller goes away
	ctx = context.WithoutCancel(ctx)
	a, err := e.Store.GetOrCreate(ctx, in.UserID, in.TestID)
	if err != nil {
		return AttemptView{}, false, err
	}

	isRight := in.SelectedOption == q.RightOption
	updated, applied, err := e.Store.TryAppendAnswer(ctx, Append{
		AttemptID:      a.ID,
		QuestionID:     q.ID,
		IsRight:        isRight,
		TotalQuestions: t.TotalQuestions(),
	})
	if err != nil {
		return AttemptView{}, false, err
	}
	if applied {
		e.emit(ctx, t, updated, q.ID, isRight)
	}
	return buildView(t, updated), applied, nil
}

// GetResults is read only; a user who never opened the test gets a not_started view.
func (e *Engine) GetResults(ctx context.Context, userID, testID string) (ResultView, error) {
	if strings.TrimSpace(userID) == "" {
		return ResultView{}, ErrMissingUser
	}
	t, err := e.test(ctx, testID)
	if err != nil {
		return ResultView{}, err
	}
	a, err := e.Store.Find(ctx, userID, testID)
	if errors.Is(err, ErrAttemptNotFound) {
		return notStartedResult(t), nil
	}
	if err != nil {
		return ResultView{}, err
	}
	return buildResult(t, a), nil
}

// ListAttempts summarizes attempts; tests missing from the catalog report a zero total.
func (e *Engine) ListAttempts(ctx context.Context, opts ListOpts) ([]Summary, error) {
	list, err := e.Store.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	totals := map[string]int{}
	out := make([]Summary, 0, len(list))
	for _, a := range list {
		total, ok := totals[a.TestID]
		if !ok {
			t, err := e.test(ctx, a.TestID)
			switch {
			case err == nil:
				total = t.TotalQuestions()
			case errors.Is(err, ErrTestNotFound):
			default:
				return nil, err
			}
			totals[a.TestID] = total
		}
		out = append(out, buildSummary(a, total))
	}
	return out, nil
}

// GetTest returns a test with the engine's error mapping applied.
func (e *Engine) GetTest(ctx context.Context, testID string) (catalog.Test, error) {
	return e.test(ctx, testID)
}

func (e *Engine) test(ctx context.Context, testID string) (catalog.Test, error) {
	t, err := e.Catalog.GetTest(ctx, testID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.Test{}, ErrTestNotFound
		}
		return catalog.Test{}, unavailable("catalog", err)
	}
	return t, nil
}

func (e *Engine) emit(ctx context.Context, t catalog.Test, a TestAttempt, questionID string, isRight bool) {
	if e.Events == nil {
		return
	}
	if err := e.Events.Record(ctx, syncx.TypeAnswerRecorded, a.ID, map[string]any{
		"user_id":     a.UserID,
		"test_id":     a.TestID,
		"question_id": questionID,
		"is_right":    isRight,
	}); err != nil {
		log.Printf("attempt %s: record answer event: %v", a.ID, err)
	}
	// appends are rejected once completed, so the completing answer is the last one
	n := len(a.QuestionsAttended)
	if a.CompletedAt == nil || n == 0 || a.QuestionsAttended[n-1].QuestionID != questionID {
		return
	}
	m := ComputeMetrics(a, t.TotalQuestions())
	if err := e.Events.Record(ctx, syncx.TypeAttemptCompleted, a.ID, map[string]any{
		"user_id":          a.UserID,
		"test_id":          a.TestID,
		"score":            m.Score,
		"total_questions":  m.TotalQuestions,
		"percentage_score": m.PercentageScore,
		"completed_at":     a.CompletedAt,
	}); err != nil {
		log.Printf("attempt %s: record completion event: %v", a.ID, err)
	}
}
