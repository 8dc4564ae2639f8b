package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"innkeep/pkg/logger"

	"go.opentelemetry.io/otel/trace"
)

func okHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestRequestLogging_RequestIDAndTraceID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Output: &buf})

	var seen string
	h := RequestLogging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hotels", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if seen != "req-42" {
		t.Errorf("expected inbound request id to be reused, got %q", seen)
	}
	if w.Header().Get(RequestIDHeader) != "req-42" {
		t.Errorf("expected request id echoed in response header")
	}
	if !strings.Contains(buf.String(), "4bf92f3577b34da6a3ce929d0e0e4736") {
		t.Errorf("expected trace id in log output, got %s", buf.String())
	}
}

func TestRequestLogging_GeneratesRequestID(t *testing.T) {
	h := RequestLogging(logger.Discard())(okHandler(http.StatusOK, "{}"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if len(w.Header().Get(RequestIDHeader)) != 36 {
		t.Errorf("expected generated uuid request id, got %q", w.Header().Get(RequestIDHeader))
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestRequestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		time.Sleep(5 * time.Millisecond)
		w.WriteHeader(http.StatusCreated)
	})
	w := httptest.NewRecorder()
	RequestTimeout(20*time.Millisecond)(slow).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 on timeout, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	RequestTimeout(time.Second)(okHandler(http.StatusCreated, `{"ok":true}`)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	if w.Code != http.StatusCreated || w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected fast handler response to pass through, got %d %v", w.Code, w.Header())
	}
}

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(logger.Discard())(okHandler(http.StatusOK, "{}"))

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{"json body", http.MethodPost, `{}`, "application/json; charset=utf-8", http.StatusOK},
		{"form body", http.MethodPost, `a=b`, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"missing header", http.MethodPut, `{}`, "", http.StatusUnsupportedMediaType},
		{"bodiless command", http.MethodPost, ``, "", http.StatusOK},
		{"get", http.MethodGet, ``, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/bookings", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	h := MaxRequestSize(8)(okHandler(http.StatusOK, "{}"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"too":"large"}`)))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

func TestUserRateLimiter(t *testing.T) {
	limiter := NewUserRateLimiter(2, time.Minute, nil, logger.Discard())
	defer limiter.Stop()

	h := RateLimit(limiter)(okHandler(http.StatusOK, "{}"))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", "u-1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected codes %v", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "u-2")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("other users must not share a bucket, got %d", w.Code)
	}
}

func TestUserRateLimiter_WindowSlides(t *testing.T) {
	limiter := NewUserRateLimiter(1, time.Minute, nil, logger.Discard())
	defer limiter.Stop()

	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("k") || limiter.Allow("k") {
		t.Fatal("expected one request per window")
	}
	now = now.Add(61 * time.Second)
	if !limiter.Allow("k") {
		t.Error("expected request to be allowed after the window passed")
	}
}

func TestIdempotency_ReplaysSuccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls int32
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"b-1"}}`))
	}))

	send := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`))
		req.Header.Set(DefaultIdempotencyHeader, "key-1")
		req.Header.Set("X-User-ID", user)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req.WithContext(context.Background()))
		return w
	}

	first := send("u-1")
	second := send("u-1")
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Errorf("expected identical replay, got %d %s", second.Code, second.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("expected replay marker header")
	}

	send("u-2")
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("keys must be scoped per user, handler ran %d times", calls)
	}
}
