package domain

import (
	"time"
)

// RegistrationStatus represents the lifecycle state of a merchant record.
type RegistrationStatus string

const (
	StatusDraft                  RegistrationStatus = "Draft"
	StatusReview                 RegistrationStatus = "Review"
	StatusWaitingAliasGeneration RegistrationStatus = "WaitingAliasGeneration"
	StatusApproved               RegistrationStatus = "Approved"
	StatusRejected               RegistrationStatus = "Rejected"
	StatusReverted               RegistrationStatus = "Reverted"
)

// AllowedTransitions maps each status to the statuses it may move to.
// Terminal statuses map to an empty slice.
var AllowedTransitions = map[RegistrationStatus][]RegistrationStatus{
	StatusDraft:                  {StatusReview},
	StatusReview:                 {StatusWaitingAliasGeneration, StatusRejected, StatusReverted},
	StatusWaitingAliasGeneration: {StatusApproved},
	StatusApproved:               {},
	StatusRejected:               {},
	StatusReverted:               {},
}

// CanTransition reports whether a status move follows the registration graph.
func CanTransition(from, to RegistrationStatus) bool {
	for _, next := range AllowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DFSP is the tenant organization a merchant and its portal users belong to.
type DFSP struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CheckoutCounter is a payment-alias slot owned by a merchant. AliasValue
// starts empty and is set exactly once from the registry reply.
type CheckoutCounter struct {
	ID          int64  `json:"id"`
	MerchantID  int64  `json:"merchant_id"`
	Description string `json:"description,omitempty"`
	AliasValue  string `json:"alias_value"`
}

// Merchant represents a merchant record moving through the maker-checker
// registration workflow.
type Merchant struct {
	ID                       int64              `json:"id"`
	TradingName              string             `json:"trading_name"`
	RegistrationStatus       RegistrationStatus `json:"registration_status"`
	RegistrationStatusReason string             `json:"registration_status_reason"`
	CreatedBy                int64              `json:"created_by"` // maker, immutable after creation
	CheckedBy                *int64             `json:"checked_by,omitempty"`
	DFSPs                    []DFSP             `json:"dfsps"`
	CheckoutCounters         []CheckoutCounter  `json:"checkout_counters"`
	CreatedAt                time.Time          `json:"created_at"`
	UpdatedAt                time.Time          `json:"updated_at"`
}

// BelongsToDFSP reports whether the given DFSP id is one of the merchant's
// affiliations.
func (m *Merchant) BelongsToDFSP(dfspID int64) bool {
	for _, d := range m.DFSPs {
		if d.ID == dfspID {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the merchant can no longer move through the
// checker workflow.
func (m *Merchant) IsTerminal() bool {
	return len(AllowedTransitions[m.RegistrationStatus]) == 0
}
