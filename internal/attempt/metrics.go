package attempt

import "math"

type Metrics struct {
	Score           int     `json:"score"`
	AnsweredCount   int     `json:"answered_count"`
	TotalQuestions  int     `json:"total_questions"`
	Progress        float64 `json:"progress"`
	PercentageScore float64 `json:"percentage_score"`
	Completed       bool    `json:"completed"`
}

// ComputeMetrics derives score and progress from the recorded answers.
// A zero-question test reports 0 progress and is never completed.
func ComputeMetrics(a TestAttempt, total int) Metrics {
	m := Metrics{TotalQuestions: total, AnsweredCount: len(a.QuestionsAttended)}
	for _, qa := range a.QuestionsAttended {
		if qa.IsRight {
			m.Score++
		}
	}
	if total > 0 {
		m.Progress = percent(m.AnsweredCount, total)
		m.PercentageScore = percent(m.Score, total)
	}
	m.Completed = total > 0 && (m.AnsweredCount >= total || a.CompletedAt != nil)
	return m
}

func percent(n, total int) float64 {
	p := float64(n) / float64(total) * 100
	if p > 100 {
		p = 100
	}
	return math.Round(p*100) / 100
}

func (m Metrics) Status() Status {
	if m.Completed {
		return StatusCompleted
	}
	return StatusInProgress
}
