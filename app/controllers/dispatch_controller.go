package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/requests"
	"github.com/maxparsons123/happy-ride-helper-sub002/app/responses"
	"github.com/maxparsons123/happy-ride-helper-sub002/app/services"
)

// DispatchController handles the resolution endpoint and health checks.
type DispatchController struct {
	dispatchService *services.DispatchService
	logger          *zap.Logger
}

func NewDispatchController(dispatchService *services.DispatchService, logger *zap.Logger) *DispatchController {
	return &DispatchController{dispatchService: dispatchService, logger: logger}
}

// Resolve runs one pickup/drop-off resolution.
func (dc *DispatchController) Resolve(c *gin.Context) {
	var req requests.ResolveDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	start := time.Now()
	result, cacheHit, err := dc.dispatchService.Resolve(c.Request.Context(), req.Query(), req.Options.UseCache)
	if err != nil {
		// The result still carries status "error" and a speakable
		// message; the conversation layer wants both.
		dc.logger.Error("resolution failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, responses.ResolveDispatchResponse{
			Result:           result,
			DatasetVersion:   dc.dispatchService.DatasetVersion(),
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.ResolveDispatchResponse{
		Result:           result,
		DatasetVersion:   dc.dispatchService.DatasetVersion(),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		CacheHit:         cacheHit,
	})
}

// HealthCheck reports liveness.
func (dc *DispatchController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:  "ok",
		Version: dc.dispatchService.DatasetVersion(),
		Services: map[string]string{
			"pipeline": "up",
		},
	})
}
