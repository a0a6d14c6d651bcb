package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckerHas(t *testing.T) {
	c := NewChecker(map[string][]string{
		"student": {"attempt:view-own"},
		"grader":  {"attempt:*"},
		"root":    {"*"},
	})
	assert.True(t, c.Has("student", "attempt:view-own"))
	assert.False(t, c.Has("student", "attempt:view-all"))
	assert.True(t, c.Has("grader", "attempt:view-all"))
	assert.False(t, c.Has("grader", "test:view"))
	assert.True(t, c.Has("root", "anything"))
	assert.False(t, c.Has("nobody", "test:view"))
	assert.True(t, c.Any("student", "attempt:view-all", "attempt:view-own"))
}

func TestDefaultPolicy(t *testing.T) {
	student := WithRole(context.Background(), "student")
	assert.True(t, Can(student, "attempt:answer"))
	assert.False(t, Can(student, "attempt:view-all"))
	assert.True(t, Can(WithRole(context.Background(), "teacher"), "attempt:view-all"))
	assert.True(t, Can(WithRole(context.Background(), "admin"), "attempt:view-all"))
	assert.False(t, Can(context.Background(), "test:view"))
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require("attempt:view-all")(ok)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "student")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "teacher")))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	RequireAny("attempt:view-all", "attempt:view-own")(ok).ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "student")))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
