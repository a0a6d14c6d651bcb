package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/testseries/internal/attempt"
	authmw "github.com/mind-engage/testseries/internal/auth/middleware"
)

// POST /tests/{testID}/attempt
func StartAttemptHandler(eng *attempt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID := strings.TrimSpace(chi.URLParam(r, "testID"))
		v, err := eng.StartOrResume(r.Context(), authmw.SubjectFromContext(r.Context()), testID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

type submitAnswerReq struct {
	QuestionID     string `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

type submitAnswerResp struct {
	attempt.AttemptView
	Applied bool `json:"applied"`
}

// POST /tests/{testID}/attempt/answers  { "question_id": "...", "selected_option": "..." }
// Correctness is always derived server side; any client-sent flag is ignored.
func SubmitAnswerHandler(eng *attempt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitAnswerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.QuestionID) == "" {
			http.Error(w, "question_id required", http.StatusBadRequest)
			return
		}
		v, applied, err := eng.SubmitAnswer(r.Context(), attempt.SubmitInput{
			UserID:         authmw.SubjectFromContext(r.Context()),
			TestID:         strings.TrimSpace(chi.URLParam(r, "testID")),
			QuestionID:     req.QuestionID,
			SelectedOption: req.SelectedOption,
		})
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, submitAnswerResp{AttemptView: v, Applied: applied})
	}
}

// GET /tests/{testID}/results
func GetResultsHandler(eng *attempt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID := strings.TrimSpace(chi.URLParam(r, "testID"))
		res, err := eng.GetResults(r.Context(), authmw.SubjectFromContext(r.Context()), testID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
