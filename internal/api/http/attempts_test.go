package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/mind-engage/testseries/internal/api/http"
	"github.com/mind-engage/testseries/internal/attempt"
	authmw "github.com/mind-engage/testseries/internal/auth/middleware"
	"github.com/mind-engage/testseries/internal/catalog"
)

type harness struct {
	t       *testing.T
	router  chi.Router
	authSvc *authmw.AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cat := catalog.NewInMemory()
	require.NoError(t, cat.PutTest(context.Background(), catalog.Test{
		ID:    "t1",
		Title: "Basics",
		Questions: []catalog.Question{
			{ID: "q1", Options: []string{"A", "B"}, RightOption: "A"},
			{ID: "q2", Options: []string{"A", "B"}, RightOption: "B"},
		},
	}))
	eng := attempt.NewEngine(cat, attempt.NewInMemoryStore(nil), nil)
	authSvc := authmw.NewAuthService("test-secret")

	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))
		api.MountAttempts(pr, eng)
	})
	return &harness{t: t, router: r, authSvc: authSvc}
}

func (h *harness) do(method, path, sub, role, body string) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sub != "" {
		tok, err := h.authSvc.IssueJWT(sub, role)
		require.NoError(h.t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type submitResp struct {
	attempt.AttemptView
	Applied bool `json:"applied"`
}

func TestAttemptFlow(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/tests/t1/attempt", "amy", "student", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	start := decode[attempt.AttemptView](t, rec)
	assert.Equal(t, 2, start.TotalQuestions)
	assert.Equal(t, []string{}, start.AnsweredQuestionIDs)

	rec = h.do(http.MethodPost, "/tests/t1/attempt/answers", "amy", "student", `{"question_id":"q1","selected_option":"A","is_right":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[submitResp](t, rec)
	assert.True(t, first.Applied)
	assert.Equal(t, 1, first.Score, "client supplied correctness is ignored")
	assert.Equal(t, 50.0, first.Progress)

	rec = h.do(http.MethodPost, "/tests/t1/attempt/answers", "amy", "student", `{"question_id":"q1","selected_option":"B"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	dup := decode[submitResp](t, rec)
	assert.False(t, dup.Applied)
	assert.Equal(t, 1, dup.Score)
	assert.Equal(t, start.AttemptID, dup.AttemptID)

	rec = h.do(http.MethodPost, "/tests/t1/attempt/answers", "amy", "student", `{"question_id":"q2","selected_option":"A"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	last := decode[submitResp](t, rec)
	assert.True(t, last.Completed)

	rec = h.do(http.MethodGet, "/tests/t1/results", "amy", "student", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[attempt.ResultView](t, rec)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 50.0, res.PercentageScore)
	assert.Equal(t, attempt.StatusCompleted, res.Status)
	assert.NotNil(t, res.CompletedAt)
	assert.Len(t, res.QuestionsAttended, 2)
}

func TestAttemptErrors(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/tests/t1/attempt", "", "", "").Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/tests/t1/attempt", "amy", "visitor", "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/tests/nope/attempt", "amy", "student", "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/tests/t1/attempt/answers", "amy", "student", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/tests/t1/attempt/answers", "amy", "student", `{"selected_option":"A"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, h.do(http.MethodPost, "/tests/t1/attempt/answers", "amy", "student", `{"question_id":"q9","selected_option":"A"}`).Code)

	// nothing above created an attempt
	rec := h.do(http.MethodGet, "/tests/t1/results", "amy", "student", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, attempt.StatusNotStarted, decode[attempt.ResultView](t, rec).Status)
}

func TestGetTestHidesAnswers(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/tests/t1", "amy", "student", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "right_option")
	got := decode[catalog.Test](t, rec)
	assert.Len(t, got.Questions, 2)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/tests/nope", "amy", "student", "").Code)
}

func TestListAttemptsScoping(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/tests/t1/attempt", "amy", "student", "").Code)
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/tests/t1/attempt", "ben", "student", "").Code)

	rec := h.do(http.MethodGet, "/attempts?user_id=ben", "amy", "student", "")
	require.Equal(t, http.StatusOK, rec.Code)
	own := decode[[]attempt.Summary](t, rec)
	require.Len(t, own, 1)
	assert.Equal(t, "amy", own[0].UserID)

	rec = h.do(http.MethodGet, "/attempts?test_id=t1", "tess", "teacher", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]attempt.Summary](t, rec), 2)

	rec = h.do(http.MethodGet, "/attempts?user_id=ben", "tess", "teacher", "")
	require.Equal(t, http.StatusOK, rec.Code)
	onlyBen := decode[[]attempt.Summary](t, rec)
	require.Len(t, onlyBen, 1)
	assert.Equal(t, "ben", onlyBen[0].UserID)
}

func TestListAttemptsClampsLimit(t *testing.T) {
	h := newHarness(t)
	for _, u := range []string{"amy", "ben", "cat"} {
		require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/tests/t1/attempt", u, "student", "").Code)
	}

	rec := h.do(http.MethodGet, "/attempts?limit=0", "tess", "teacher", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]attempt.Summary](t, rec), 1)

	rec = h.do(http.MethodGet, "/attempts?limit=100000", "tess", "teacher", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]attempt.Summary](t, rec), 3)
}

type downCatalog struct{}

func (downCatalog) GetTest(context.Context, string) (catalog.Test, error) {
	return catalog.Test{}, errors.New("dial tcp: connection refused")
}

func TestCatalogFailureIsUnavailable(t *testing.T) {
	authSvc := authmw.NewAuthService("test-secret")
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))
		api.MountAttempts(pr, attempt.NewEngine(downCatalog{}, attempt.NewInMemoryStore(nil), nil))
	})
	h := &harness{t: t, router: r, authSvc: authSvc}

	rec := h.do(http.MethodGet, "/tests/t1", "amy", "student", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
