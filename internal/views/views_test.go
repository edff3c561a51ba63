package views

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRenderResetVerifiedShowsForm(t *testing.T) {
	rr := httptest.NewRecorder()
	if err := RenderReset(rr, http.StatusOK, ResetPage{Email: "a@example.com", Status: StatusVerified}); err != nil {
		t.Fatalf("RenderReset: %v", err)
	}

	body := rr.Body.String()
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(body, `name="password"`) {
		t.Fatalf("expected password form, got %s", body)
	}
	if !strings.Contains(body, "a@example.com") {
		t.Fatalf("expected email in page")
	}
}

func TestRenderResetUpdatedShowsConfirmation(t *testing.T) {
	rr := httptest.NewRecorder()
	if err := RenderReset(rr, http.StatusOK, ResetPage{Email: "a@example.com", Status: StatusVerifiedWithUpdatedPass}); err != nil {
		t.Fatalf("RenderReset: %v", err)
	}

	body := rr.Body.String()
	if strings.Contains(body, "<form") {
		t.Fatalf("confirmation page must not include the form")
	}
	if !strings.Contains(body, "Password updated") {
		t.Fatalf("expected confirmation, got %s", body)
	}
}

func TestRenderResetEscapesEmail(t *testing.T) {
	rr := httptest.NewRecorder()
	if err := RenderReset(rr, http.StatusOK, ResetPage{Email: "<script>x</script>", Status: StatusVerified}); err != nil {
		t.Fatalf("RenderReset: %v", err)
	}
	if strings.Contains(rr.Body.String(), "<script>x</script>") {
		t.Fatalf("email was not escaped")
	}
}
