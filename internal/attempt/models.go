package attempt

import "time"

// QuestionAttempt is one scored answer. There is at most one per (attempt, question).
type QuestionAttempt struct {
	QuestionID string    `json:"question_id"`
	IsRight    bool      `json:"is_right"`
	AnsweredAt time.Time `json:"answered_at"`
}

// TestAttempt is a user's pass through one test. QuestionsAttended keeps insertion order.
type TestAttempt struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	TestID            string            `json:"test_id"`
	QuestionsAttended []QuestionAttempt `json:"questions_attended"`
	StartedAt         time.Time         `json:"started_at"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	Version           int64             `json:"-"`
}

func (a TestAttempt) Answer(questionID string) (QuestionAttempt, bool) {
	for _, qa := range a.QuestionsAttended {
		if qa.QuestionID == questionID {
			return qa, true
		}
	}
	return QuestionAttempt{}, false
}

func (a TestAttempt) clone() TestAttempt {
	out := a
	out.QuestionsAttended = make([]QuestionAttempt, len(a.QuestionsAttended))
	copy(out.QuestionsAttended, a.QuestionsAttended)
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// Append is the input of Store.TryAppendAnswer. TotalQuestions lets the store
// stamp completion in the same atomic step.
type Append struct {
	AttemptID      string
	QuestionID     string
	IsRight        bool
	TotalQuestions int
}

type ListOpts struct {
	TestID string
	UserID string
	Limit  int
	Offset int
}

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Clock func() time.Time

// stamp normalizes to UTC milliseconds, the resolution the SQL store keeps.
func stamp(now Clock) time.Time {
	return now().UTC().Truncate(time.Millisecond)
}
