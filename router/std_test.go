package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/apienvelope/envelope"
)

const widgetSpec = `{
  "openapi": "3.0.3",
  "info": {"title": "widgets", "version": "1.0.0"},
  "paths": {
    "/widgets": {
      "post": {
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["name"],
                "properties": {"name": {"type": "string"}}
              }
            }
          }
        },
        "responses": {"201": {"description": "created"}}
      }
    }
  }
}`

type testEnvelope struct {
	Status  string  `json:"status"`
	Code    int     `json:"code"`
	Message *string `json:"message"`
	Data    any     `json:"data"`
}

func decodeTestEnvelope(t *testing.T, body []byte) testEnvelope {
	t.Helper()

	var env testEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("failed to decode envelope: %v (body: %s)", err, string(body))
	}
	return env
}

func TestNewAllowsMiddlewareOverride(t *testing.T) {
	var order []string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	mux := New(handler, WithMiddlewareChain(
		recordingMiddleware("one", &order),
		recordingMiddleware("two", &order),
	))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	expected := []string{"one-before", "two-before", "handler", "two-after", "one-after"}
	if !reflect.DeepEqual(order, expected) {
		t.Fatalf("unexpected middleware order: got %v, want %v", order, expected)
	}

	if rr.Code != http.StatusTeapot {
		t.Fatalf("unexpected response code: got %d want %d", rr.Code, http.StatusTeapot)
	}
}

func TestNewSupportsPrependAndAppendMiddlewares(t *testing.T) {
	var order []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusNoContent)
	})

	mux := New(
		handler,
		WithoutOpenAPIValidation(),
		WithoutCORSMiddleware(),
		WithoutTimeoutMiddleware(),
		WithoutLoggingMiddleware(),
		WithMiddlewares(recordingMiddleware("outer", &order)),
		WithTrailingMiddlewares(recordingMiddleware("inner", &order)),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	expected := []string{"outer-before", "inner-before", "handler", "inner-after", "outer-after"}
	if !reflect.DeepEqual(order, expected) {
		t.Fatalf("unexpected middleware order: got %v want %v", order, expected)
	}

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected response code: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestNewAppliesCORSEnforcementFromConfig(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux := New(
		handler,
		WithConfigMutator(func(cfg *Config) {
			cfg.CORS = CORSConfig{
				Origins:          []string{"https://example.com"},
				Methods:          []string{http.MethodGet, http.MethodPost},
				Headers:          []string{"Content-Type"},
				AllowCredentials: true,
			}
		}),
	)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://example.com")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status code: got %d want %d", rr.Code, http.StatusOK)
	}

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("unexpected access-control-allow-origin: got %q want %q", got, "https://example.com")
	}

	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "GET,POST" {
		t.Fatalf("unexpected access-control-allow-methods: got %q want %q", got, "GET,POST")
	}

	if got := rr.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
		t.Fatalf("unexpected access-control-allow-headers: got %q want %q", got, "Content-Type")
	}

	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("unexpected access-control-allow-credentials: got %q want %q", got, "true")
	}
}

func TestWithoutCORSMiddlewareSkipsHeaders(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux := New(
		handler,
		WithConfigMutator(func(cfg *Config) {
			cfg.CORS = CORSConfig{
				Origins: []string{"https://example.com"},
				Methods: []string{http.MethodGet},
				Headers: []string{"Authorization"},
			}
		}),
		WithoutCORSMiddleware(),
	)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://example.com")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("expected CORS headers to be skipped when middleware disabled")
	}

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status code: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestTimeoutMiddlewareCanBeDisabled(t *testing.T) {
	longHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	withTimeout := New(
		longHandler,
		WithConfig(Config{Timeout: 1 * time.Millisecond}),
	)

	withoutTimeout := New(
		longHandler,
		WithConfig(Config{Timeout: 1 * time.Millisecond}),
		WithoutTimeoutMiddleware(),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rrTimeout := httptest.NewRecorder()
	withTimeout.ServeHTTP(rrTimeout, req)
	if rrTimeout.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected timeout handler to fire, got %d", rrTimeout.Code)
	}

	rrNoTimeout := httptest.NewRecorder()
	withoutTimeout.ServeHTTP(rrNoTimeout, req)
	if rrNoTimeout.Code != http.StatusOK {
		t.Fatalf("expected handler to complete when timeout disabled, got %d", rrNoTimeout.Code)
	}
}

func TestNewPanicsWhenHandlerNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when handler is nil")
		}
	}()

	New(nil)
}

func recordingMiddleware(label string, sink *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*sink = append(*sink, label+"-before")
			next.ServeHTTP(w, r)
			*sink = append(*sink, label+"-after")
		})
	}
}

func TestWithRendererEnvelopesJSONResponses(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"widget 7 not found","id":7}`)
	})

	mux := New(handler, WithRenderer(envelope.NewRenderer()), WithoutLoggingMiddleware())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/widgets/7", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status code: got %d want %d", rr.Code, http.StatusNotFound)
	}
	env := decodeTestEnvelope(t, rr.Body.Bytes())
	if env.Status != "client_error" || env.Code != http.StatusNotFound {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Message == nil || *env.Message != "widget 7 not found" {
		t.Fatalf("unexpected message: %v", env.Message)
	}
	data, ok := env.Data.(map[string]any)
	if !ok || len(data) != 1 || data["id"] != float64(7) {
		t.Fatalf("unexpected data: %#v", env.Data)
	}
}

func TestWithRendererEnvelopesTimeouts(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	mux := New(
		slow,
		WithRenderer(envelope.NewRenderer()),
		WithConfig(Config{Timeout: time.Millisecond}),
		WithoutLoggingMiddleware(),
	)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected timeout status, got %d", rr.Code)
	}
	env := decodeTestEnvelope(t, rr.Body.Bytes())
	if env.Status != "server_error" || env.Message == nil || *env.Message != "Timeout" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestWithRendererEnvelopesValidationFailures(t *testing.T) {
	swagger, err := openapi3.NewLoader().LoadFromData([]byte(widgetSpec))
	if err != nil {
		t.Fatalf("failed to load spec: %v", err)
	}

	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	})

	mux := New(
		handler,
		WithSwagger(swagger),
		WithRenderer(envelope.NewRenderer()),
		WithoutLoggingMiddleware(),
	)

	req := httptest.NewRequest(http.MethodPost, "/widgets", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if called {
		t.Fatal("expected handler not to run for an invalid request")
	}
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status code: got %d want %d", rr.Code, http.StatusBadRequest)
	}
	env := decodeTestEnvelope(t, rr.Body.Bytes())
	if env.Status != "client_error" || env.Message == nil || !strings.Contains(*env.Message, "request body has an error") {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	valid := httptest.NewRequest(http.MethodPost, "/widgets", strings.NewReader(`{"name":"gear"}`))
	valid.Header.Set("Content-Type", "application/json")
	validRec := httptest.NewRecorder()
	mux.ServeHTTP(validRec, valid)

	if !called || validRec.Code != http.StatusCreated {
		t.Fatalf("expected valid request to reach handler, got %d", validRec.Code)
	}
	env = decodeTestEnvelope(t, validRec.Body.Bytes())
	if env.Status != "success" || env.Data != nil {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestLoggingMiddlewareRecordsResponseCategory(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	mux := New(
		handler,
		WithLogger(logger),
		WithConfig(Config{HideHeaders: []string{"Authorization"}, QuietdownRoutes: []string{"/healthz"}}),
	)

	req := httptest.NewRequest(http.MethodGet, "/widgets", nil)
	req.Header.Set("Authorization", "Bearer secret")
	mux.ServeHTTP(httptest.NewRecorder(), req)

	out := logs.String()
	for _, want := range []string{`"Category":"server_error"`, `"Status":502`, "[REDACTED - 13 bytes]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log output to contain %s, got %s", want, out)
		}
	}
	if strings.Contains(out, "Bearer secret") {
		t.Fatal("expected authorization header to be redacted")
	}

	logs.Reset()
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if strings.Contains(logs.String(), `"msg":"Request"`) {
		t.Fatalf("expected quiet route to skip logging, got %s", logs.String())
	}
}

func TestWithoutEnvelopeLeavesHandlerBodies(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":1}`)
	})
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
	})

	opts := []Option{WithRenderer(envelope.NewRenderer()), WithoutEnvelope(), WithoutLoggingMiddleware()}

	rr := httptest.NewRecorder()
	New(handler, opts...).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/widgets/1", nil))
	if got := rr.Body.String(); got != `{"id":1}` {
		t.Fatalf("expected raw handler body, got %s", got)
	}

	timedOut := httptest.NewRecorder()
	New(slow, append(opts, WithConfig(Config{Timeout: time.Millisecond}))...).
		ServeHTTP(timedOut, httptest.NewRequest(http.MethodGet, "/widgets/1", nil))
	if got := timedOut.Body.String(); got != `{"detail":"Timeout"}` {
		t.Fatalf("expected detail payload for timeouts, got %s", got)
	}
}

func TestMiddlewareChainStageOrder(t *testing.T) {
	swagger, err := openapi3.NewLoader().LoadFromData([]byte(widgetSpec))
	if err != nil {
		t.Fatalf("failed to load spec: %v", err)
	}

	o := defaultOptions()
	for _, opt := range []Option{
		WithRenderer(envelope.NewRenderer()),
		WithSwagger(swagger),
		WithConfigMutator(func(cfg *Config) { cfg.CORS.Origins = []string{"*"} }),
		WithMiddlewares(recordingMiddleware("outer", new([]string))),
		WithTrailingMiddlewares(recordingMiddleware("inner", new([]string))),
	} {
		opt(o)
	}
	if got := len(o.middlewareChain()); got != 7 {
		t.Fatalf("expected outer, five default stages and inner, got %d middlewares", got)
	}

	WithoutCORSMiddleware()(o)
	WithLogger(nil)(o)
	if got := len(o.middlewareChain()); got != 5 {
		t.Fatalf("expected skipped stages to be dropped, got %d middlewares", got)
	}
}
