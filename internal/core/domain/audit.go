package domain

import "time"

// AuditAction categorises actions recorded in the audit trail.
type AuditAction string

const (
	AuditActionAccess AuditAction = "ACCESS"
	AuditActionAdd    AuditAction = "ADD"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

// AuditOutcome records whether the attempted action succeeded.
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "SUCCESS"
	AuditOutcomeFailure AuditOutcome = "FAILURE"
)

// AuditLog is one entry in the back-office audit trail. Every guard failure
// and every successful transition produces exactly one entry.
type AuditLog struct {
	ID          int64        `json:"id"`
	Action      AuditAction  `json:"action"`
	Outcome     AuditOutcome `json:"outcome"`
	Module      string       `json:"module"` // e.g. "Merchants", "AliasGeneration"
	Description string       `json:"description"`
	EntityName  string       `json:"entity_name"`
	OldValue    string       `json:"old_value,omitempty"`
	NewValue    string       `json:"new_value,omitempty"`
	ActorID     *int64       `json:"actor_id,omitempty"` // nil for system actions
	CreatedAt   time.Time    `json:"created_at"`
}
