package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/foodatlas/internal/middleware"
	"github.com/hitoshi/foodatlas/internal/model"
)

func TestMeHandler_ReflectsIdentity(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	ident := &model.Identity{
		SubjectID: "uid-123",
		Email:     "admin@example.com",
		Role:      model.RoleAdmin,
		IssuedAt:  issuedAt,
	}

	h := NewMeHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), ident))
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["uid"] != "uid-123" {
		t.Errorf("uid = %q, want %q", resp["uid"], "uid-123")
	}
	if resp["email"] != "admin@example.com" {
		t.Errorf("email = %q, want %q", resp["email"], "admin@example.com")
	}
	if resp["role"] != "admin" {
		t.Errorf("role = %q, want %q", resp["role"], "admin")
	}
	if resp["issued_at"] != "2024-05-01T09:30:00Z" {
		t.Errorf("issued_at = %q, want RFC3339 timestamp", resp["issued_at"])
	}
}

func TestMeHandler_MissingIdentity(t *testing.T) {
	h := NewMeHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
