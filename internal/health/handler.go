package health

import (
	"context"
	"net/http"
	"time"

	"innkeep/pkg/client"
	httputil "innkeep/pkg/http"
	kafka_middleware "innkeep/pkg/kafka/middleware"
	"innkeep/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const readyTimeout = 2 * time.Second

type HealthResponse struct {
	Status       string                     `json:"status"`
	Dependencies map[string]string          `json:"dependencies,omitempty"`
	Kafka        *kafka_middleware.Snapshot `json:"kafka,omitempty"`
}

// Pinger is a backing service the instance cannot serve without.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	pingers map[string]Pinger
	metrics *kafka_middleware.Metrics
	log     *logger.Logger
}

func NewHealthHandler(pingers map[string]Pinger, metrics *kafka_middleware.Metrics, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		pingers: pingers,
		metrics: metrics,
		log:     log,
	}
}

// PingersFor returns a pinger for every connection the client holds.
func PingersFor(c *client.Client) map[string]Pinger {
	pingers := make(map[string]Pinger)
	if c.Mongo != nil {
		pingers["mongo"] = func(ctx context.Context) error {
			return c.Mongo.Ping(ctx, nil)
		}
	}
	if c.Postgres != nil {
		pingers["postgres"] = c.Postgres.PingContext
	}
	if c.Redis != nil {
		pingers["redis"] = func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		}
	}
	return pingers
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	response := HealthResponse{
		Status:       "ready",
		Dependencies: make(map[string]string, len(h.pingers)),
	}
	status := http.StatusOK

	for name, ping := range h.pingers {
		if err := ping(ctx); err != nil {
			h.log.Error("Dependency health check failed",
				"dependency", name,
				"error", err,
				"path", r.URL.Path,
			)
			response.Dependencies[name] = "error"
			response.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Dependencies[name] = "ok"
	}

	if h.metrics != nil {
		snapshot := h.metrics.Snapshot()
		response.Kafka = &snapshot
	}

	if err := httputil.WriteJSON(w, status, response); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
