package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/astviz/astviz/pkg/astgraph"
	apperrors "github.com/astviz/astviz/pkg/errors"
	"github.com/astviz/astviz/pkg/pipeline"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	runner := pipeline.NewRunner(nil, nil, nil)
	t.Cleanup(func() { _ = runner.Close() })
	return New(Config{Runner: runner})
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRenderJSON(t *testing.T) {
	s := testServer(t)

	rec := postJSON(t, s, "/api/render", renderRequest{Source: "x = 1\n"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}

	g, err := astgraph.Read(rec.Body)
	if err != nil {
		t.Fatalf("response is not a valid graph: %v", err)
	}
	root, ok := g.Root()
	if !ok || root.Label != "module" {
		t.Errorf("root = %+v, want module", root)
	}
}

func TestRenderDOT(t *testing.T) {
	s := testServer(t)

	rec := postJSON(t, s, "/api/render", renderRequest{Source: "x = 1\n", Format: "dot"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "digraph G {") {
		t.Errorf("DOT response malformed: %s", rec.Body)
	}
}

func TestRenderOptimizedMode(t *testing.T) {
	s := testServer(t)

	rawRec := postJSON(t, s, "/api/render", renderRequest{Source: "x = 1\n", Mode: "raw"})
	optRec := postJSON(t, s, "/api/render", renderRequest{Source: "x = 1\n", Mode: "optimized"})
	if rawRec.Code != http.StatusOK || optRec.Code != http.StatusOK {
		t.Fatalf("statuses = %d/%d, want 200", rawRec.Code, optRec.Code)
	}

	raw, err := astgraph.Read(rawRec.Body)
	if err != nil {
		t.Fatal(err)
	}
	opt, err := astgraph.Read(optRec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if len(opt.Nodes) >= len(raw.Nodes) {
		t.Errorf("optimized graph has %d nodes, raw has %d; want fewer", len(opt.Nodes), len(raw.Nodes))
	}
}

func TestRenderErrors(t *testing.T) {
	s := testServer(t)

	tests := []struct {
		name       string
		req        renderRequest
		wantStatus int
		wantCode   string
	}{
		{"empty source", renderRequest{}, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad mode", renderRequest{Source: "x = 1\n", Mode: "fancy"}, http.StatusBadRequest, "INVALID_MODE"},
		{"bad context", renderRequest{Source: "x = 1\n", Context: "exec"}, http.StatusBadRequest, "INVALID_MODE"},
		{"bad format", renderRequest{Source: "x = 1\n", Format: "yaml"}, http.StatusBadRequest, "INVALID_FORMAT"},
		{"syntax error", renderRequest{Source: "def f(:\n"}, http.StatusUnprocessableEntity, "PARSE_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, s, "/api/render", tt.req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}

			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("error body not JSON: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if resp.Message == "" {
				t.Error("error response has no message")
			}
		})
	}
}

func TestRenderSourceTooLarge(t *testing.T) {
	runner := pipeline.NewRunner(nil, nil, nil)
	t.Cleanup(func() { _ = runner.Close() })
	s := New(Config{Runner: runner, MaxSourceBytes: 16})

	rec := postJSON(t, s, "/api/render", renderRequest{Source: strings.Repeat("x = 1\n", 100)})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestRenderBadBody(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response missing generated X-Request-ID")
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "upstream-id" {
		t.Errorf("X-Request-ID = %q, want upstream id preserved", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"INVALID_INPUT", http.StatusBadRequest},
		{"INVALID_MODE", http.StatusBadRequest},
		{"INVALID_FORMAT", http.StatusBadRequest},
		{"INVALID_STYLE", http.StatusBadRequest},
		{"SOURCE_TOO_LARGE", http.StatusRequestEntityTooLarge},
		{"PARSE_ERROR", http.StatusUnprocessableEntity},
		{"RECURSION_LIMIT_EXCEEDED", http.StatusUnprocessableEntity},
		{"UNSUPPORTED_NODE_KIND", http.StatusUnprocessableEntity},
		{"MALFORMED_TREE", http.StatusInternalServerError},
		{"INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(apperrors.Code(tt.code)); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
