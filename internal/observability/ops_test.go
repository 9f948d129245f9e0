package observability_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"velvetdown/internal/observability"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecoverer(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantPanic  any
		wantStatus int
	}{
		{
			name: "no panic",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "string panic",
			handler: func(_ http.ResponseWriter, _ *http.Request) {
				panic("scrape panic")
			},
		},
		{
			name: "error panic",
			handler: func(_ http.ResponseWriter, _ *http.Request) {
				panic(errors.New("scrape error panic"))
			},
		},
		{
			name: "http.ErrAbortHandler re-panic",
			handler: func(_ http.ResponseWriter, _ *http.Request) {
				panic(http.ErrAbortHandler)
			},
			wantPanic: http.ErrAbortHandler,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true

				tt.handler(w, r)
			})

			mw := observability.Recoverer(testLogger(), next)
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			rec := httptest.NewRecorder()

			if tt.wantPanic != nil {
				defer func() {
					recovered := recover()
					if recovered != tt.wantPanic {
						t.Errorf("got panic %v, want %v", recovered, tt.wantPanic)
					}
				}()
			}

			mw.ServeHTTP(rec, req)

			if !called {
				t.Error("next handler was not called")
			}

			if tt.wantStatus != 0 {
				if got := rec.Result().StatusCode; got != tt.wantStatus {
					t.Errorf("got status %v, want %v", got, tt.wantStatus)
				}
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer

	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`done`))
	})

	mw := observability.RequestLogger(log, next)

	req := httptest.NewRequest(http.MethodPost, "http://example.com/metrics?debug=1", nil)
	req.RemoteAddr = "1.2.3.4:1234"
	req.ContentLength = 123

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if !called {
		t.Error("next handler was not called")
	}

	if body := rec.Body.String(); body != "done" {
		t.Errorf("got body %q, want %q", body, "done")
	}

	var logEntry struct {
		Level   string                   `json:"level"`
		Msg     string                   `json:"msg"`
		Request observability.RequestLog `json:"request"`
	}

	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}

	if logEntry.Level != "DEBUG" {
		t.Errorf("got level %q, want %q", logEntry.Level, "DEBUG")
	}

	if logEntry.Msg != "ops request" {
		t.Errorf("got msg %q, want %q", logEntry.Msg, "ops request")
	}

	if logEntry.Request.Method != http.MethodPost {
		t.Errorf("got method %q, want %q", logEntry.Request.Method, http.MethodPost)
	}

	if logEntry.Request.URI != "http://example.com/metrics?debug=1" {
		t.Errorf("got uri %q, want the full request URI", logEntry.Request.URI)
	}

	if logEntry.Request.RemoteAddr != "1.2.3.4:1234" {
		t.Errorf("got remote addr %q, want %q", logEntry.Request.RemoteAddr, "1.2.3.4:1234")
	}

	if logEntry.Request.ContentLength != 123 {
		t.Errorf("got content length %d, want %d", logEntry.Request.ContentLength, 123)
	}
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name        string
		headerValue string
		validateID  func(string) bool
	}{
		{
			name:        "existing request id kept",
			headerValue: "scrape-1234",
			validateID:  func(id string) bool { return id == "scrape-1234" },
		},
		{
			name:        "missing request id minted",
			headerValue: "",
			validateID: func(id string) bool {
				_, err := uuid.Parse(id)

				return err == nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctxChecked := false

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reqID, ok := r.Context().Value(observability.RequestIDKey).(string)
				if !ok {
					t.Error("request id missing in context")
				}

				if !tt.validateID(reqID) {
					t.Errorf("request id in context is invalid: %s", reqID)
				}

				ctxChecked = true

				_, _ = w.Write([]byte("ok"))
			})

			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.headerValue != "" {
				req.Header.Set("X-Request-ID", tt.headerValue)
			}

			rec := httptest.NewRecorder()
			mw := observability.RequestID(next)
			mw.ServeHTTP(rec, req)

			if !ctxChecked {
				t.Error("next handler was not called")
			}

			resID := rec.Result().Header.Get("X-Request-ID")
			if !tt.validateID(resID) {
				t.Errorf("X-Request-ID response header is invalid: %q", resID)
			}
		})
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	srv := httptest.NewServer(observability.Handler(testLogger()))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want %d", res.StatusCode, http.StatusOK)
	}

	if res.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing on scrape response")
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read metrics body: %v", err)
	}

	if len(body) == 0 {
		t.Error("scrape returned an empty exposition")
	}
}
