package shared

import (
	"context"
	"time"
)

// AuditLevel classifies the severity of an audit entry
type AuditLevel string

const (
	AuditLevelInfo  AuditLevel = "INFO"
	AuditLevelWarn  AuditLevel = "WARN"
	AuditLevelError AuditLevel = "ERROR"
)

// AuditStatus records whether the audited action succeeded
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "SUCCESS"
	AuditStatusFailed  AuditStatus = "FAILED"
)

// AuditEntry is a structured record of a mutation attempt
type AuditEntry struct {
	Actor         string
	Action        string
	Summary       string
	Level         AuditLevel
	Status        AuditStatus
	CorrelationID string
	OccurredAt    time.Time
}

// AuditRecorder receives audit entries for every mutation attempt.
// Implementations may buffer and persist asynchronously; callers must not
// depend on delivery.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// NopAuditRecorder discards all entries
type NopAuditRecorder struct{}

// Record implements AuditRecorder
func (NopAuditRecorder) Record(ctx context.Context, entry AuditEntry) {}
