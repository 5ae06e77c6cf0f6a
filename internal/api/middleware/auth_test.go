package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret, subject string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestPatientJWT(t *testing.T) {
	const secret = "test-secret"
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SubjectMatches(r.Context(), "pat-1") {
			t.Error("expected subject pat-1 in context")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	handler := PatientJWT(secret)(next)

	tests := []struct {
		name string
		auth string
		want int
	}{
		{"valid token", "Bearer " + signToken(t, secret, "pat-1", time.Now().Add(time.Hour)), http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", "pat-1", time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, secret, "pat-1", time.Now().Add(-time.Hour)), http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("got %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestPatientJWTDisabledWithoutSecret(t *testing.T) {
	handler := PatientJWT("")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("handler must not run without a configured secret")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "x", "pat-1", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want 401", rec.Code)
	}
}

func TestSubjectMatchesWithoutClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if SubjectMatches(req.Context(), "pat-1") {
		t.Error("no claims must never match")
	}
}
