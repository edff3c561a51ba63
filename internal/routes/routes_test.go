package routes

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"postboard/internal/auth"
	"postboard/internal/config"
	"postboard/internal/db"
	"postboard/internal/repository"
	"postboard/internal/services"
)

type healthResp struct {
	Status string `json:"status"`
	Store  struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	} `json:"store"`
}

type nopMailer struct{}

func (nopMailer) Dispatch(context.Context, services.Message) <-chan error {
	ch := make(chan error, 1)
	ch <- nil
	close(ch)
	return ch
}

func testDeps(store Pinger) Deps {
	return Deps{
		Config: &config.Config{
			ResetPassURL:       "http://localhost:3000",
			CORSAllowedOrigins: []string{"*"},
			MaxUploadBytes:     1 << 20,
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:  store,
		Users:  repository.NewMemoryUserRepository(),
		Posts:  repository.NewMemoryPostRepository(),
		Tokens: auth.NewTokenIssuer("dev", 0),
		Mailer: nopMailer{},
	}
}

func okStore() Pinger {
	return PingerFunc(func(context.Context) error { return nil })
}

func TestRootReturnsJSON(t *testing.T) {
	r := SetupRoutes(testDeps(okStore()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["message"] == "" {
		t.Fatalf("expected message, got %v", body)
	}
}

func TestHealthDBOK(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectPing()

	r := SetupRoutes(testDeps(&db.Database{DB: sqlDB}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp healthResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Store.Status != "ok" {
		t.Fatalf("expected store ok, got %+v", resp)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHealthDBDown(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectPing().WillReturnError(sql.ErrConnDone)

	r := SetupRoutes(testDeps(&db.Database{DB: sqlDB}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d (%s)", w.Code, w.Body.String())
	}
	var resp healthResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Store.Status != "down" {
		t.Fatalf("expected store down, got %+v", resp)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEndpointsAreMounted(t *testing.T) {
	r := SetupRoutes(testDeps(okStore()))

	routes := []struct {
		method, path string
	}{
		{http.MethodPost, "/registerUser"},
		{http.MethodPost, "/loginUser"},
		{http.MethodPost, "/userData"},
		{http.MethodPost, "/forgotPassword"},
		{http.MethodGet, "/resetPassword/abc/tok"},
		{http.MethodPost, "/resetPassword/abc/tok"},
		{http.MethodPost, "/uploadPost"},
		{http.MethodGet, "/getPost"},
		{http.MethodPost, "/deletePost"},
		{http.MethodPost, "/editPost"},
	}
	for _, rt := range routes {
		req := httptest.NewRequest(rt.method, rt.path, bytes.NewReader([]byte("{}")))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code == http.StatusNotFound && !strings.Contains(w.Body.String(), "status") {
			t.Fatalf("%s %s not mounted", rt.method, rt.path)
		}
		if w.Code == http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: method not allowed", rt.method, rt.path)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	r := SetupRoutes(testDeps(okStore()))

	req := httptest.NewRequest(http.MethodOptions, "/loginUser", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}

func TestSwaggerDocListsRoutes(t *testing.T) {
	r := SetupRoutes(testDeps(okStore()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}

	var doc struct {
		Swagger string                                `json:"swagger"`
		Paths   map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not valid json: %v", err)
	}
	if doc.Swagger != "2.0" {
		t.Fatalf("unexpected swagger version %q", doc.Swagger)
	}
	reset, ok := doc.Paths["/resetPassword/{id}/{token}"]
	if !ok {
		t.Fatalf("reset route missing from doc: %v", doc.Paths)
	}
	if _, ok := reset["get"]; !ok {
		t.Fatal("reset GET missing from doc")
	}
	if _, ok := reset["post"]; !ok {
		t.Fatal("reset POST missing from doc")
	}

	err := chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if route == "/" || strings.HasPrefix(route, "/swagger") {
			return nil
		}
		if _, ok := doc.Paths[route][strings.ToLower(method)]; !ok {
			t.Errorf("%s %s is not documented", method, route)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
}

func TestSwaggerRedirectsToUI(t *testing.T) {
	r := SetupRoutes(testDeps(okStore()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger", nil))
	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("expected 301 got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/swagger/index.html" {
		t.Fatalf("unexpected redirect %q", loc)
	}
}
