package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"avidoc/internal/bootstrap"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

// Check reports dependency liveness. Optional dependencies that are not
// configured count as healthy.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{
		"mysql":        h.checkMySQL(ctx),
		"vector_store": h.checkVectorStore(ctx),
	}
	allOK := deps["mysql"].(dependencyStatus).OK && deps["vector_store"].(dependencyStatus).OK

	if h.app.Config.Redis.Enabled {
		status := h.checkRedis(ctx)
		deps["redis"] = status
		allOK = allOK && status.OK
	}
	if h.app.Config.RabbitMQ.Enabled {
		status := h.checkRabbitMQ()
		deps["rabbitmq"] = status
		allOK = allOK && status.OK
	}

	statusCode := http.StatusOK
	if !allOK {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"app":          h.app.Config.App.Name,
		"env":          h.app.Config.App.Env,
		"uptime_sec":   int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": deps,
	})
}

// Info summarizes corpus size for quick operational checks.
func (h *HealthHandler) Info(c *gin.Context) {
	docCount, err := h.app.DocRepo.Count()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count documents failed"})
		return
	}
	chunkCount, err := h.app.ChunkRepo.Count()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count chunks failed"})
		return
	}
	vectorCount, err := h.app.VectorStore.Count(c.Request.Context())
	if err != nil {
		vectorCount = -1
	}

	c.JSON(http.StatusOK, gin.H{
		"app":         h.app.Config.App.Name,
		"documents":   docCount,
		"chunks":      chunkCount,
		"vectors":     vectorCount,
		"graph_nodes": h.app.Graph.NodeCount(),
		"graph_edges": h.app.Graph.EdgeCount(),
	})
}

func (h *HealthHandler) checkMySQL(ctx context.Context) dependencyStatus {
	sqlDB, err := h.app.MySQL.DB()
	if err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkVectorStore(ctx context.Context) dependencyStatus {
	if _, err := h.app.VectorStore.Count(ctx); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyStatus {
	if h.app.Redis == nil {
		return dependencyStatus{OK: false, Message: "not connected"}
	}
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkRabbitMQ() dependencyStatus {
	if h.app.MQConn == nil || h.app.MQConn.IsClosed() {
		return dependencyStatus{OK: false, Message: "connection closed"}
	}
	return dependencyStatus{OK: true}
}
