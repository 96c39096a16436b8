package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/cardwatch/cardwatch/internal/domain"
	"github.com/cardwatch/cardwatch/internal/logger"
)

var testLog = logger.NewWithWriter(io.Discard)

type stubVerifier struct {
	subject string
	err     error
}

func (s *stubVerifier) Verify(string) (string, error) { return s.subject, s.err }

type stubUsers struct {
	user *domain.User
	err  error
}

func (s *stubUsers) GetUserByUsername(context.Context, string) (*domain.User, error) {
	return s.user, s.err
}

func TestAuth(t *testing.T) {
	activeUser := &domain.User{ID: uuid.New(), Username: "alice", IsActive: true}

	tests := []struct {
		name       string
		authHeader string
		verifier   *stubVerifier
		users      *stubUsers
		wantStatus int
		wantUser   bool
	}{
		{
			name:       "valid token",
			authHeader: "Bearer good",
			verifier:   &stubVerifier{subject: "alice"},
			users:      &stubUsers{user: activeUser},
			wantStatus: http.StatusOK,
			wantUser:   true,
		},
		{
			name:       "missing header",
			authHeader: "",
			verifier:   &stubVerifier{},
			users:      &stubUsers{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not a bearer token",
			authHeader: "Basic dXNlcjpwYXNz",
			verifier:   &stubVerifier{},
			users:      &stubUsers{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer bad",
			verifier:   &stubVerifier{err: errors.New("invalid token")},
			users:      &stubUsers{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown subject",
			authHeader: "Bearer good",
			verifier:   &stubVerifier{subject: "ghost"},
			users:      &stubUsers{err: domain.ErrUserNotFound},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "inactive account",
			authHeader: "Bearer good",
			verifier:   &stubVerifier{subject: "alice"},
			users:      &stubUsers{user: &domain.User{Username: "alice", IsActive: false}},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser *domain.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			Auth(tt.verifier, tt.users, testLog)(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantUser && gotUser == nil {
				t.Error("handler did not receive the authenticated user")
			}
			if !tt.wantUser && gotUser != nil {
				t.Error("handler received a user on a rejected request")
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	Recovery(testLog)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestCORS_Preflight(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("preflight should not reach the handler")
	})

	rec := httptest.NewRecorder()
	CORS(next).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/transactions", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS headers")
	}
}
