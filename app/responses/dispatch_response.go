package responses

import "github.com/maxparsons123/happy-ride-helper-sub002/app/models"

// ResolveDispatchResponse wraps one resolution result with the call
// metadata the conversation layer logs.
type ResolveDispatchResponse struct {
	Result           *models.DispatchResult `json:"result"`
	DatasetVersion   string                 `json:"dataset_version"`
	ProcessingTimeMs int64                  `json:"processing_time_ms"`
	CacheHit         bool                   `json:"cache_hit"`
}

// SeedReferenceResponse reports one dataset load.
type SeedReferenceResponse struct {
	DatasetVersion   string `json:"dataset_version"`
	EntriesSeeded    int    `json:"entries_seeded"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	Message          string `json:"message"`
}

// StatsResponse is the admin view of service counters.
type StatsResponse struct {
	TotalResolved       int64   `json:"total_resolved"`
	TotalClarifications int64   `json:"total_clarifications"`
	TotalErrors         int64   `json:"total_errors"`
	HistoryMatches      int64   `json:"history_matches"`
	CacheHitRate        float64 `json:"cache_hit_rate"`
	CacheTotalHits      int64   `json:"cache_total_hits"`
	CacheTotalMiss      int64   `json:"cache_total_miss"`
	CacheTotalItems     int64   `json:"cache_total_items"`
	DatasetVersion      string  `json:"dataset_version"`
	UptimeSeconds       int64   `json:"uptime_seconds"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse is the uniform success envelope for admin actions.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthCheckResponse reports per-dependency health.
type HealthCheckResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}
