package catalog

import (
	"errors"
	"fmt"
	"strings"
)

type Question struct {
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Options     []string `json:"options"`
	RightOption string   `json:"right_option,omitempty"`
}

type Test struct {
	ID        string     `json:"id"`
	Owner     string     `json:"owner,omitempty"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

func (t Test) TotalQuestions() int { return len(t.Questions) }

// Question looks up a question by id. Order in Questions is only used for navigation.
func (t Test) Question(id string) (Question, bool) {
	for _, q := range t.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Public returns a copy safe to hand to test takers (no right options).
func (t Test) Public() Test {
	out := t
	out.Questions = make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		q.RightOption = ""
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	return out
}

var ErrInvalidTest = errors.New("invalid test")

// Validate checks the invariants the attempt engine relies on.
func (t Test) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: id required", ErrInvalidTest)
	}
	seen := make(map[string]struct{}, len(t.Questions))
	for i, q := range t.Questions {
		if strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("%w: question %d has no id", ErrInvalidTest, i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidTest, q.ID)
		}
		seen[q.ID] = struct{}{}
		if !containsString(q.Options, q.RightOption) {
			return fmt.Errorf("%w: question %q right option is not one of its options", ErrInvalidTest, q.ID)
		}
	}
	return nil
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
