package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"postboard/internal/auth"
)

func TestSanitizePath(t *testing.T) {
	tests := map[string]string{
		"/resetPassword/abc/eyJhbGciOi.x.y": "/resetPassword/abc/***",
		"/resetPassword/abc":                "/resetPassword/abc",
		"/getPost":                          "/getPost",
		"/resetPassword/abc/":               "/resetPassword/abc/",
	}
	for in, want := range tests {
		if got := sanitizePath(in); got != want {
			t.Fatalf("sanitizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRequestLoggerMasksToken(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/resetPassword/u1/secret-token", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if strings.Contains(out, "secret-token") {
		t.Fatalf("token leaked into log: %s", out)
	}
	if !strings.Contains(out, "status=418") {
		t.Fatalf("expected status in log: %s", out)
	}
	if !strings.Contains(out, "level=WARN") {
		t.Fatalf("expected warn level for 4xx: %s", out)
	}
}

func newSessionIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer("test-secret", 0)
}

func TestBearerSessionPassesThroughWithoutHeader(t *testing.T) {
	called := false
	h := BearerSession(newSessionIssuer())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := EmailFromContext(r.Context()); ok {
			t.Fatalf("no email expected in context")
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/userData", nil))
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestBearerSessionStoresEmail(t *testing.T) {
	issuer := newSessionIssuer()
	token, err := issuer.IssueSession("a@example.com")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	var got string
	h := BearerSession(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = EmailFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/userData", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "a@example.com" {
		t.Fatalf("expected email in context, got %q", got)
	}
}

func TestBearerSessionRejectsBadTokens(t *testing.T) {
	other := auth.NewTokenIssuer("other-secret", 0)
	foreign, _ := other.IssueSession("a@example.com")

	expired := auth.NewTokenIssuer("test-secret", time.Minute).
		WithClock(func() time.Time { return time.Now().Add(-time.Hour) })
	stale, _ := expired.IssueSession("a@example.com")

	headers := []string{
		"Basic abc",
		"Bearer ",
		"Bearer not-a-jwt",
		"Bearer " + foreign,
		"Bearer " + stale,
	}

	for _, hdr := range headers {
		h := BearerSession(newSessionIssuer())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatalf("next handler must not run for %q", hdr)
		}))
		req := httptest.NewRequest(http.MethodPost, "/userData", nil)
		req.Header.Set("Authorization", hdr)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401 got %d", hdr, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "invalid_token") {
			t.Fatalf("%q: unexpected body %s", hdr, rr.Body.String())
		}
	}
}
