// internal/domain/notification/run.go
package notification

import (
	"database/sql"
	"time"
)

// RunKind identifies what a dispatch run processed.
type RunKind string

const (
	RunKindDailyCheck    RunKind = "DAILY_CHECK"
	RunKindNewCommitment RunKind = "NEW_COMMITMENT"
	RunKindManual        RunKind = "MANUAL"
)

// Run is the audit record of one dispatch run (e.g. the daily check of 2025-05-14).
// Corresponds to the 'notification_runs' table.
type Run struct {
	ID         int64
	RunDate    time.Time // Date part only
	Kind       RunKind
	Sent       int
	Failed     int
	StartedAt  time.Time
	FinishedAt sql.NullTime
}
