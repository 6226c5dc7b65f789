package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/homedash/internal/application"
)

type fakeSessionValidator struct {
	principal application.Principal
	err       error
	gotToken  string
}

func (f *fakeSessionValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	f.gotToken = token
	return f.principal, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireSession_RejectsMissingToken(t *testing.T) {
	validator := &fakeSessionValidator{}
	handler := RequireSession(validator, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run without a token")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/boards", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", recorder.Code)
	}
}

func TestRequireSession_RejectsInvalidSessions(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode string
	}{
		{name: "unknown token", err: application.ErrUnauthorized, expectedCode: "AUTH_UNAUTHORIZED"},
		{name: "expired", err: application.ErrSessionExpired, expectedCode: "AUTH_SESSION_EXPIRED"},
		{name: "revoked", err: application.ErrSessionRevoked, expectedCode: "AUTH_SESSION_REVOKED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := &fakeSessionValidator{err: tt.err}
			handler := RequireSession(validator, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler should not run for an invalid session")
			}))

			req := httptest.NewRequest(http.MethodGet, "/boards", nil)
			req.Header.Set("Authorization", "Bearer bad-token")
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			if recorder.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", recorder.Code)
			}
			var resp errorResponse
			if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error body: %v", err)
			}
			if resp.ErrorCode != tt.expectedCode {
				t.Errorf("Expected error code %s, got %s", tt.expectedCode, resp.ErrorCode)
			}
		})
	}
}

func TestRequireSession_AttachesPrincipal(t *testing.T) {
	validator := &fakeSessionValidator{
		principal: application.Principal{UserID: "user1", IsAdmin: true},
	}

	var captured application.Principal
	handler := RequireSession(validator, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Fatal("Expected principal in request context")
		}
		captured = principal
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/boards", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", recorder.Code)
	}
	if validator.gotToken != "cookie-token" {
		t.Errorf("Expected token from cookie, got %q", validator.gotToken)
	}
	if captured.UserID != "user1" || !captured.IsAdmin {
		t.Errorf("Unexpected principal: %+v", captured)
	}
}

func TestRequireSession_PrefersBearerHeader(t *testing.T) {
	validator := &fakeSessionValidator{principal: application.Principal{UserID: "user1"}}
	handler := RequireSession(validator, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/boards", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if validator.gotToken != "header-token" {
		t.Errorf("Expected Authorization header to win, got %q", validator.gotToken)
	}
}

func TestRequestLogger_AttachesContextLogger(t *testing.T) {
	var sawLogger bool
	handler := RequestLogger(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/boards", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", recorder.Code)
	}
	if !sawLogger {
		t.Error("Expected a logger attached to the request context")
	}
}
