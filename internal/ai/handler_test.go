package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type mockGenerator struct {
	generateFunc func(ctx context.Context, data map[string]any) (*Response, error)
}

func (m *mockGenerator) GenerateInsights(ctx context.Context, data map[string]any) (*Response, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, data)
	}
	return nil, errors.New("not implemented")
}

type recordedCall struct {
	operation string
	status    int
}

type mockMetrics struct {
	calls []recordedCall
}

func (m *mockMetrics) RecordAIRequest(_ context.Context, operation string, statusCode int, _ float64) {
	m.calls = append(m.calls, recordedCall{operation, statusCode})
}

func detail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Detail
}

func TestGenerateInsights_RelaysUpstreamBody(t *testing.T) {
	upstream := `{"candidates":[{"content":{"parts":[{"text":"Stay hydrated"}]}}]}`
	metrics := &mockMetrics{}
	h := NewHandler(&mockGenerator{
		generateFunc: func(_ context.Context, data map[string]any) (*Response, error) {
			if data["name"] != "Tom" {
				t.Errorf("data = %v", data)
			}
			return &Response{StatusCode: http.StatusOK, Body: []byte(upstream)}, nil
		},
	}, metrics, zerolog.Nop())

	rr := httptest.NewRecorder()
	h.GenerateInsights(rr, httptest.NewRequest(http.MethodPost, "/ai/generate-insights", strings.NewReader(`{"name":"Tom"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Body.String() != upstream {
		t.Errorf("body = %s", rr.Body.String())
	}
	if len(metrics.calls) != 1 || metrics.calls[0].status != http.StatusOK {
		t.Errorf("metrics = %+v", metrics.calls)
	}
}

func TestGenerateInsights_UpstreamStatusPropagates(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		h := NewHandler(&mockGenerator{
			generateFunc: func(context.Context, map[string]any) (*Response, error) {
				return &Response{StatusCode: status, Body: []byte(`{"error":"x"}`)}, nil
			},
		}, nil, zerolog.Nop())

		rr := httptest.NewRecorder()
		h.GenerateInsights(rr, httptest.NewRequest(http.MethodPost, "/ai/generate-insights", strings.NewReader(`{}`)))
		if rr.Code != status {
			t.Errorf("status = %d, want %d", rr.Code, status)
		}
		if got := detail(t, rr); got != "Failed to generate insights" {
			t.Errorf("detail = %q", got)
		}
	}
}

func TestGenerateInsights_NetworkFailure(t *testing.T) {
	h := NewHandler(&mockGenerator{
		generateFunc: func(context.Context, map[string]any) (*Response, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}, nil, zerolog.Nop())

	rr := httptest.NewRecorder()
	h.GenerateInsights(rr, httptest.NewRequest(http.MethodPost, "/ai/generate-insights", strings.NewReader(`{}`)))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := detail(t, rr); !strings.Contains(got, "connection refused") {
		t.Errorf("detail = %q", got)
	}
}

func TestGenerateInsights_UnreachableUpstream(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	h := NewHandler(NewClient(testConfig(url), zerolog.Nop()), nil, zerolog.Nop())
	rr := httptest.NewRecorder()
	h.GenerateInsights(rr, httptest.NewRequest(http.MethodPost, "/ai/generate-insights", strings.NewReader(`{"a":1}`)))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := detail(t, rr); got == "" {
		t.Error("expected error text in detail")
	}
}

func TestGenerateInsights_MalformedInput(t *testing.T) {
	h := NewHandler(&mockGenerator{}, nil, zerolog.Nop())
	rr := httptest.NewRecorder()
	h.GenerateInsights(rr, httptest.NewRequest(http.MethodPost, "/ai/generate-insights", strings.NewReader(`{not json`)))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestGenerateInsights_NonJSONUpstream(t *testing.T) {
	h := NewHandler(&mockGenerator{
		generateFunc: func(context.Context, map[string]any) (*Response, error) {
			return &Response{StatusCode: http.StatusOK, Body: []byte("<html>")}, nil
		},
	}, nil, zerolog.Nop())

	rr := httptest.NewRecorder()
	h.GenerateInsights(rr, httptest.NewRequest(http.MethodPost, "/ai/generate-insights", strings.NewReader(`{}`)))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestSummarizeHistory(t *testing.T) {
	h := NewHandler(&mockGenerator{}, nil, zerolog.Nop())

	rr := httptest.NewRecorder()
	h.SummarizeHistory(rr, httptest.NewRequest(http.MethodPost, "/ai/summarize-history", strings.NewReader(`{"conditions":["asthma"]}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "null" {
		t.Errorf("body = %q", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.SummarizeHistory(rr, httptest.NewRequest(http.MethodPost, "/ai/summarize-history", strings.NewReader(`[1,2]`)))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}
