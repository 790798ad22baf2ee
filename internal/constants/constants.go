package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	ReconcileTimeout   = 2 * time.Minute
	ReindexTimeout     = 10 * time.Minute
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	// Transient provider failures are retried with a flat backoff; permanent
	// failures (4xx, malformed payload) are not.
	FeedRetryAttempts = 3
	FeedRetryBackoff  = 2 * time.Second
)

const (
	// Reconciliation runs before the reindex on purpose: matching reads the
	// current index state, and the rebuild should not churn concurrently.
	ReconcileHour   = 4
	ReconcileMinute = 0
	ReindexHour     = 4
	ReindexMinute   = 30
)

const (
	ReindexPageSize  = 500
	ReindexBatchSize = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	RecentDatesDefaultLimit = 7
	RecentDatesMaxLimit     = 60
)
