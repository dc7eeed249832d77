package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestError_WritesDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	Error(rr, http.StatusTeapot, "short and stout")

	if rr.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var body ErrorBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Detail != "short and stout" {
		t.Errorf("Expected detail, got %q", body.Detail)
	}
}

func TestRaw_WritesBodyUnchanged(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := []byte(`{"a":[1,2,3],  "b":null}`)
	Raw(rr, http.StatusOK, payload)

	if rr.Body.String() != string(payload) {
		t.Errorf("Expected body %s, got %s", payload, rr.Body.String())
	}
}

func TestJSON_UnencodableValue(t *testing.T) {
	rr := httptest.NewRecorder()
	err := JSON(rr, http.StatusOK, map[string]any{"ch": make(chan int)})
	if err == nil {
		t.Fatal("Expected an encode error")
	}

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rr.Code)
	}
	var body ErrorBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Detail != "Internal server error" {
		t.Errorf("Expected internal error detail, got %q", body.Detail)
	}
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestJSON_ReturnsWriteError(t *testing.T) {
	w := brokenWriter{httptest.NewRecorder()}
	err := JSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	if err == nil || !strings.Contains(err.Error(), "broken pipe") {
		t.Fatalf("Expected write error, got %v", err)
	}
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 to be sent, got %d", w.Code)
	}
}

func TestJSON_NullBody(t *testing.T) {
	rr := httptest.NewRecorder()
	if err := JSON(rr, http.StatusOK, nil); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if rr.Body.String() != "null\n" {
		t.Errorf("Expected null body, got %q", rr.Body.String())
	}
}
