package handler

import (
	"context"
	"net/http"
	"time"

	httputil "detailbook/pkg/http"
	"detailbook/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"
)

const readinessTimeout = 2 * time.Second

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Cache    string `json:"cache,omitempty"`
}

// Pinger is satisfied by adapters over the Mongo and Redis clients.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	database Pinger
	cache    Pinger
	log      *logger.Logger
}

// NewHealthHandler checks Mongo always and Redis when a client is given.
func NewHealthHandler(mongoClient *mongo.Client, redisClient *redis.Client, log *logger.Logger) *HealthHandler {
	h := &HealthHandler{
		database: func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
		log:      log,
	}
	if redisClient != nil {
		h.cache = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	return h
}

func newHealthHandler(database, cache Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{database: database, cache: cache, log: log}
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	response := HealthResponse{Status: "ready", Database: "ok"}
	status := http.StatusOK

	if err := h.database(ctx); err != nil {
		h.log.Error("Database health check failed", "error", err, "path", r.URL.Path)
		response.Database = "error"
		status = http.StatusServiceUnavailable
	}
	if h.cache != nil {
		response.Cache = "ok"
		if err := h.cache(ctx); err != nil {
			h.log.Error("Cache health check failed", "error", err, "path", r.URL.Path)
			response.Cache = "error"
			status = http.StatusServiceUnavailable
		}
	}
	if status != http.StatusOK {
		response.Status = "unavailable"
	}

	if err := httputil.WriteJSON(w, status, response); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
