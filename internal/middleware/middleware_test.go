package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	t.Parallel()

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := ErrorHandler(zap.NewNop())(panicking)

	req := httptest.NewRequest("GET", "/api/assignments/alice", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Error("success = true in panic response")
	}
	if resp.Error != "Internal Server Error" {
		t.Errorf("error = %q", resp.Error)
	}
	if resp.Path != "/api/assignments/alice" {
		t.Errorf("path = %q", resp.Path)
	}
	if strings.Contains(resp.Message, "boom") {
		t.Error("panic detail leaked to the client")
	}
}

func TestErrorHandlerPassthrough(t *testing.T) {
	t.Parallel()

	handler := ErrorHandler(zap.NewNop())(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestLoggingCapturesStatus(t *testing.T) {
	t.Parallel()

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	var captured int
	probe := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		notFound.ServeHTTP(w, r)
		if rw, ok := w.(*responseWriter); ok {
			captured = rw.statusCode
		}
	})

	handler := Logging(zap.NewNop())(probe)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if captured != http.StatusNotFound {
		t.Errorf("wrapped writer recorded %d, want 404", captured)
	}
}

func TestLoggingDefaultsToOK(t *testing.T) {
	t.Parallel()

	// Handlers that never call WriteHeader should still log 200
	implicit := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("implicit"))
	})

	var captured int
	probe := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		implicit.ServeHTTP(w, r)
		if rw, ok := w.(*responseWriter); ok {
			captured = rw.statusCode
		}
	})

	handler := Logging(zap.NewNop())(probe)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if captured != http.StatusOK {
		t.Errorf("wrapped writer recorded %d, want 200", captured)
	}
}

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	t.Run("declared oversize rejected early", func(t *testing.T) {
		t.Parallel()

		handler := MaxRequestSize(100)(okHandler())
		req := httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 200)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})

	t.Run("small body passes", func(t *testing.T) {
		t.Parallel()

		handler := MaxRequestSize(100)(okHandler())
		req := httptest.NewRequest("POST", "/", strings.NewReader("small"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	handler := SecurityHeaders()(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": "default-src 'none'",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}
