package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hugo-lorenzo-mato/gripro/internal/config"
	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/engine"
	"github.com/hugo-lorenzo-mato/gripro/internal/logging"
	"github.com/hugo-lorenzo-mato/gripro/internal/testutil"
)

// newTestServer builds a server around an initialized engine with injected
// dependencies. A nil store runs without persistence.
func newTestServer(t *testing.T, store core.Store, executors map[core.ProviderID]core.Executor) *Server {
	t.Helper()

	eng := engine.New(&config.Config{}, logging.NewNop(),
		engine.WithStore(store),
		engine.WithExecutors(executors),
	)
	if err := eng.Setup(context.Background()); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	t.Cleanup(func() {
		if err := eng.Teardown(); err != nil {
			t.Errorf("Teardown() error = %v", err)
		}
	})

	return NewServer(eng, WithLogger(logging.NewNop()))
}

// testExecutors returns fakes for all three providers sharing one response.
func testExecutors(response string) map[core.ProviderID]core.Executor {
	return map[core.ProviderID]core.Executor{
		core.ProviderClaude: testutil.NewFakeExecutor(core.ProviderClaude).WithResponse(response),
		core.ProviderGemini: testutil.NewFakeExecutor(core.ProviderGemini).WithResponse(response),
		core.ProviderOpenAI: testutil.NewFakeExecutor(core.ProviderOpenAI).WithResponse(response),
	}
}

// errorBody decodes the standard error envelope.
func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp["error"]
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, testExecutors("ok"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp["status"] != "healthy" {
		t.Errorf("expected status 'healthy', got '%v'", resp["status"])
	}
	if resp["ready"] != true {
		t.Errorf("expected ready true, got %v", resp["ready"])
	}
}

func TestHealthEndpointEngineNotReady(t *testing.T) {
	eng := engine.New(&config.Config{}, logging.NewNop())
	srv := NewServer(eng, WithLogger(logging.NewNop()))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp["ready"] != false {
		t.Errorf("expected ready false before Setup, got %v", resp["ready"])
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, nil, testExecutors("ok"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestOperationsOnUninitializedEngine(t *testing.T) {
	eng := engine.New(&config.Config{}, logging.NewNop())
	srv := NewServer(eng, WithLogger(logging.NewNop()))

	paths := []string{
		"/api/v1/agents",
		"/api/v1/agents/validate",
		"/api/v1/providers",
		"/api/v1/routes",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()

		srv.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("GET %s on uninitialized engine: expected status %d, got %d",
				path, http.StatusConflict, w.Code)
		}
	}
}
