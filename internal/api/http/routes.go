package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/testseries/internal/attempt"
	"github.com/mind-engage/testseries/internal/rbac"
)

// MountAttempts registers the test-taking API on an authenticated router.
func MountAttempts(r chi.Router, eng *attempt.Engine) {
	r.Route("/tests/{testID}", func(tr chi.Router) {
		tr.With(rbac.Require("test:view")).Get("/", GetTestHandler(eng))
		tr.With(rbac.Require("attempt:create")).Post("/attempt", StartAttemptHandler(eng))
		tr.With(rbac.Require("attempt:answer")).Post("/attempt/answers", SubmitAnswerHandler(eng))
		tr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).Get("/results", GetResultsHandler(eng))
	})
	r.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
		Get("/attempts", ListAttemptsHandler(eng))
}
