package models

import "time"

// SystemMetrics is a lightweight snapshot of process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	AccountsDeleted          uint64    `json:"accounts_deleted"`
	PartialDeletions         uint64    `json:"partial_deletions"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// Delete outcomes reported by the privileged delete function.
const (
	DeleteOutcomeDeleted = "deleted"
	DeleteOutcomePartial = "partial"
)

// DeleteUserResult reports how far an account deletion got.
type DeleteUserResult struct {
	UserID  string `json:"user_id"`
	Outcome string `json:"outcome"`
	Warning string `json:"warning,omitempty"`
}
