package attempt

import (
	"time"

	"github.com/mind-engage/testseries/internal/catalog"
)

type QuestionState struct {
	QuestionID string `json:"question_id"`
	Answered   bool   `json:"answered"`
	Correct    bool   `json:"correct"`
}

// AttemptView is what a test taker sees while working through a test.
// AnsweredQuestionIDs and PerQuestionCorrectness are parallel, in answer order;
// Questions follows the test's canonical order.
type AttemptView struct {
	AttemptID              string          `json:"attempt_id"`
	TestID                 string          `json:"test_id"`
	AnsweredQuestionIDs    []string        `json:"answered_question_ids"`
	PerQuestionCorrectness []bool          `json:"per_question_correctness"`
	Questions              []QuestionState `json:"questions"`
	Score                  int             `json:"score"`
	AnsweredCount          int             `json:"answered_count"`
	TotalQuestions         int             `json:"total_questions"`
	Progress               float64         `json:"progress"`
	Completed              bool            `json:"completed"`
	Status                 Status          `json:"status"`
}

type ResultView struct {
	AttemptID         string            `json:"attempt_id,omitempty"`
	TestID            string            `json:"test_id"`
	Score             int               `json:"score"`
	AnsweredCount     int               `json:"answered_count"`
	TotalQuestions    int               `json:"total_questions"`
	Progress          float64           `json:"progress"`
	PercentageScore   float64           `json:"percentage_score"`
	Completed         bool              `json:"completed"`
	Status            Status            `json:"status"`
	StartedAt         *time.Time        `json:"started_at,omitempty"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	QuestionsAttended []QuestionAttempt `json:"questions_attended"`
}

// Summary is one row of an attempt listing.
type Summary struct {
	AttemptID   string     `json:"attempt_id"`
	UserID      string     `json:"user_id"`
	TestID      string     `json:"test_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      Status     `json:"status"`
	Metrics
}

func buildView(t catalog.Test, a TestAttempt) AttemptView {
	m := ComputeMetrics(a, t.TotalQuestions())
	v := AttemptView{
		AttemptID:              a.ID,
		TestID:                 t.ID,
		AnsweredQuestionIDs:    make([]string, 0, len(a.QuestionsAttended)),
		PerQuestionCorrectness: make([]bool, 0, len(a.QuestionsAttended)),
		Questions:              make([]QuestionState, 0, len(t.Questions)),
		Score:                  m.Score,
		AnsweredCount:          m.AnsweredCount,
		TotalQuestions:         m.TotalQuestions,
		Progress:               m.Progress,
		Completed:              m.Completed,
		Status:                 m.Status(),
	}
	for _, qa := range a.QuestionsAttended {
		v.AnsweredQuestionIDs = append(v.AnsweredQuestionIDs, qa.QuestionID)
		v.PerQuestionCorrectness = append(v.PerQuestionCorrectness, qa.IsRight)
	}
	for _, q := range t.Questions {
		qa, ok := a.Answer(q.ID)
		v.Questions = append(v.Questions, QuestionState{QuestionID: q.ID, Answered: ok, Correct: ok && qa.IsRight})
	}
	return v
}

func buildResult(t catalog.Test, a TestAttempt) ResultView {
	m := ComputeMetrics(a, t.TotalQuestions())
	started := a.StartedAt
	qs := make([]QuestionAttempt, len(a.QuestionsAttended))
	copy(qs, a.QuestionsAttended)
	return ResultView{
		AttemptID:         a.ID,
		TestID:            t.ID,
		Score:             m.Score,
		AnsweredCount:     m.AnsweredCount,
		TotalQuestions:    m.TotalQuestions,
		Progress:          m.Progress,
		PercentageScore:   m.PercentageScore,
		Completed:         m.Completed,
		Status:            m.Status(),
		StartedAt:         &started,
		CompletedAt:       a.CompletedAt,
		QuestionsAttended: qs,
	}
}

func notStartedResult(t catalog.Test) ResultView {
	return ResultView{
		TestID:            t.ID,
		TotalQuestions:    t.TotalQuestions(),
		Status:            StatusNotStarted,
		QuestionsAttended: []QuestionAttempt{},
	}
}

func buildSummary(a TestAttempt, total int) Summary {
	m := ComputeMetrics(a, total)
	return Summary{
		AttemptID:   a.ID,
		UserID:      a.UserID,
		TestID:      a.TestID,
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
		Status:      m.Status(),
		Metrics:     m,
	}
}
