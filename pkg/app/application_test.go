package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"innkeep/pkg/client"
	"innkeep/pkg/config"
	"innkeep/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routeHandler struct {
	path string
}

func (h routeHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET(h.path, func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusTeapot)
	})
}

type countingWorker struct {
	started atomic.Int32
	stopped atomic.Int32
}

func (w *countingWorker) Name() string { return "counting" }

func (w *countingWorker) Start(ctx context.Context) {
	w.started.Add(1)
	<-ctx.Done()
	w.stopped.Add(1)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func testConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1 << 20,
		ShutdownTimeout:   time.Second,
		Log:               logger.Discard(),
		Client:            client.NewClient(),
	}
}

func TestSetApp_RoutesHealthAndAppHandlers(t *testing.T) {
	a := NewApplication(testConfig())
	a.SetApp(routeHandler{path: "/health"}, routeHandler{path: "/api/v1/hotels"}, routeHandler{path: "/api/v1/bookings"})
	defer a.gracefulShutdown()

	for _, path := range []string{"/health", "/api/v1/hotels", "/api/v1/bookings"} {
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorkers_StopOnShutdown(t *testing.T) {
	a := NewApplication(testConfig())
	a.SetApp(routeHandler{path: "/health"})

	w := &countingWorker{}
	a.AddWorker(w)

	var closed atomic.Bool
	a.AddCloser(closerFunc(func() error {
		closed.Store(true)
		return nil
	}))

	a.startWorkers()
	require.Eventually(t, func() bool { return w.started.Load() == 1 }, time.Second, 5*time.Millisecond)

	a.gracefulShutdown()
	assert.Equal(t, int32(1), w.stopped.Load())
	assert.True(t, closed.Load())
}
