package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/requests"
	"github.com/maxparsons123/happy-ride-helper-sub002/app/responses"
	"github.com/maxparsons123/happy-ride-helper-sub002/app/services"
)

// AdminController handles the operator endpoints: dataset seeding,
// cache invalidation and counters.
type AdminController struct {
	adminService    *services.AdminService
	dispatchService *services.DispatchService
	logger          *zap.Logger
}

func NewAdminController(adminService *services.AdminService, dispatchService *services.DispatchService, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService:    adminService,
		dispatchService: dispatchService,
		logger:          logger,
	}
}

// SeedReference loads a curated dataset revision.
func (ac *AdminController) SeedReference(c *gin.Context) {
	var req requests.SeedReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	start := time.Now()
	seeded, err := ac.adminService.SeedReference(c.Request.Context(), req.DatasetVersion, req.Entries)
	if err != nil {
		if errors.Is(err, services.ErrNoReferenceIndex) {
			c.JSON(http.StatusConflict, responses.ErrorResponse{
				Error:   "NO_REFERENCE_INDEX",
				Message: err.Error(),
			})
			return
		}
		ac.logger.Error("seed failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "SEED_ERROR",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SeedReferenceResponse{
		DatasetVersion:   req.DatasetVersion,
		EntriesSeeded:    seeded,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Message:          "reference dataset seeded",
	})
}

// InvalidateCache drops every cached resolution.
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	if err := ac.adminService.InvalidateCache(c.Request.Context()); err != nil {
		ac.logger.Error("cache invalidation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "CACHE_ERROR",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "resolution cache cleared",
	})
}

// GetStats reports request and cache counters.
func (ac *AdminController) GetStats(c *gin.Context) {
	svc := ac.dispatchService.Stats()
	cache, err := ac.adminService.CacheStats(c.Request.Context())
	if err != nil {
		ac.logger.Warn("cache stats unavailable", zap.Error(err))
		cache = &services.CacheStats{}
	}

	c.JSON(http.StatusOK, responses.StatsResponse{
		TotalResolved:       svc.TotalResolved,
		TotalClarifications: svc.TotalClarifications,
		TotalErrors:         svc.TotalErrors,
		HistoryMatches:      svc.HistoryMatches,
		CacheHitRate:        cache.HitRate,
		CacheTotalHits:      cache.TotalHits,
		CacheTotalMiss:      cache.TotalMiss,
		CacheTotalItems:     cache.TotalItems,
		DatasetVersion:      ac.dispatchService.DatasetVersion(),
		UptimeSeconds:       svc.UptimeSeconds,
	})
}
