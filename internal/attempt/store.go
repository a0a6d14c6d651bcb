package attempt

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns every write to attempt state. TryAppendAnswer is the only path
// that touches QuestionsAttended and must be atomic.
type Store interface {
	GetOrCreate(ctx context.Context, userID, testID string) (TestAttempt, error)
	TryAppendAnswer(ctx context.Context, in Append) (TestAttempt, bool, error)
	Get(ctx context.Context, attemptID string) (TestAttempt, error)
	Find(ctx context.Context, userID, testID string) (TestAttempt, error)
	List(ctx context.Context, opts ListOpts) ([]TestAttempt, error)
}

type memoryStore struct {
	mu       sync.RWMutex
	now      Clock
	attempts map[string]TestAttempt
	byOwner  map[ownerKey]string
}

type ownerKey struct{ userID, testID string }

func NewInMemoryStore(now Clock) Store {
	if now == nil {
		now = time.Now
	}
	return &memoryStore{
		now:      now,
		attempts: map[string]TestAttempt{},
		byOwner:  map[ownerKey]string{},
	}
}

func (m *memoryStore) GetOrCreate(_ context.Context, userID, testID string) (TestAttempt, error) {
	k := ownerKey{userID, testID}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byOwner[k]; ok {
		return m.attempts[id].clone(), nil
	}
	a := TestAttempt{
		ID:                uuid.NewString(),
		UserID:            userID,
		TestID:            testID,
		QuestionsAttended: []QuestionAttempt{},
		StartedAt:         stamp(m.now),
	}
	m.attempts[a.ID] = a
	m.byOwner[k] = a.ID
	return a.clone(), nil
}

func (m *memoryStore) TryAppendAnswer(_ context.Context, in Append) (TestAttempt, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[in.AttemptID]
	if !ok {
		return TestAttempt{}, false, ErrAttemptNotFound
	}
	if a.CompletedAt != nil {
		return a.clone(), false, nil
	}
	if _, dup := a.Answer(in.QuestionID); dup {
		return a.clone(), false, nil
	}
	now := stamp(m.now)
	a = a.clone()
	a.QuestionsAttended = append(a.QuestionsAttended, QuestionAttempt{
		QuestionID: in.QuestionID,
		IsRight:    in.IsRight,
		AnsweredAt: now,
	})
	a.Version++
	if in.TotalQuestions > 0 && len(a.QuestionsAttended) >= in.TotalQuestions {
		a.CompletedAt = &now
	}
	m.attempts[a.ID] = a
	return a.clone(), true, nil
}

func (m *memoryStore) Get(_ context.Context, attemptID string) (TestAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return TestAttempt{}, ErrAttemptNotFound
	}
	return a.clone(), nil
}

func (m *memoryStore) Find(_ context.Context, userID, testID string) (TestAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byOwner[ownerKey{userID, testID}]
	if !ok {
		return TestAttempt{}, ErrAttemptNotFound
	}
	return m.attempts[id].clone(), nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]TestAttempt, error) {
	m.mu.RLock()
	out := make([]TestAttempt, 0, len(m.attempts))
	for _, a := range m.attempts {
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.TestID != "" && a.TestID != opts.TestID {
			continue
		}
		out = append(out, a.clone())
	}
	m.mu.RUnlock()

	// same order as the SQL store: newest first
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func page(xs []TestAttempt, limit, offset int) []TestAttempt {
	if offset >= len(xs) {
		return []TestAttempt{}
	}
	xs = xs[offset:]
	if limit > 0 && limit < len(xs) {
		xs = xs[:limit]
	}
	return xs
}
