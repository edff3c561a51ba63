package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
)

const (
	statusOK = "ok"
	// formBodyLimit caps the small JSON and form bodies of the account and
	// delete endpoints.
	formBodyLimit = 1 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONOK(w http.ResponseWriter, status int, data any) {
	body := map[string]any{"status": statusOK}
	if data != nil {
		body["data"] = data
	}
	writeJSON(w, status, body)
}

func writeJSONErrorResponse(w http.ResponseWriter, status int, code string, message string) {
	body := map[string]any{"status": "error", "error": code}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, status, body)
}

// writeJSONStatus is used where the "status" field itself carries the
// failure text, as the reset flow does.
func writeJSONStatus(w http.ResponseWriter, status int, statusText, code string) {
	writeJSON(w, status, map[string]any{"status": statusText, "error": code})
}

var errUnsupportedBody = errors.New("unsupported request body")

// decodeFormOrJSON fills dst from a JSON body, or calls fromForm with the
// parsed values of a url-encoded or multipart form. The body is capped at
// limit bytes.
func decodeFormOrJSON(w http.ResponseWriter, r *http.Request, dst any, fromForm func(url.Values), limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return err
		}
		fromForm(r.PostForm)
		return nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(limit); err != nil {
			return err
		}
		fromForm(url.Values(r.MultipartForm.Value))
		return nil
	case "", "application/json":
		return json.NewDecoder(r.Body).Decode(dst)
	default:
		return errUnsupportedBody
	}
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSONErrorResponse(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
		return
	}
	writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
}
