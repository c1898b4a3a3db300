package dto

import (
	"time"

	"merchant-acquirer/internal/core/domain"
)

// RegisterUserRequest is the request body for portal user registration.
type RegisterUserRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	UserType string `json:"user_type" binding:"required,oneof=dfsp hub"`
	DFSPID   *int64 `json:"dfsp_id,omitempty"`
}

// LoginRequest is the request body for portal login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// UserResponse is the response body for successful registration.
type UserResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
	DFSPID   *int64 `json:"dfsp_id,omitempty"`
}

// CreateMerchantRequest is the request body for drafting a merchant.
type CreateMerchantRequest struct {
	TradingName      string   `json:"trading_name" binding:"required,min=1,max=100"`
	DFSPID           int64    `json:"dfsp_id" binding:"required,gt=0"`
	CheckoutCounters []string `json:"checkout_counters" binding:"required,min=1,max=50,dive,max=100"`
}

// BulkTransitionRequest is the request body for the checker batch endpoints.
// Reason is required for reject and revert; the service enforces that.
type BulkTransitionRequest struct {
	IDs    []int64 `json:"ids" binding:"required,min=1,max=100"`
	Reason string  `json:"reason"`
}

// RegisterEndpointRequest asks the alias registry to register a DFSP endpoint.
type RegisterEndpointRequest struct {
	DFSPID      int64  `json:"dfsp_id" binding:"required,gt=0"`
	DFSPName    string `json:"dfsp_name" binding:"required,min=1,max=100"`
	EndpointURL string `json:"endpoint_url" binding:"required,safe_url"`
}

// CheckoutCounterResponse is one payment-alias slot in merchant responses.
type CheckoutCounterResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description,omitempty"`
	AliasValue  string `json:"alias_value"`
}

// DFSPResponse is one tenant affiliation in merchant responses.
type DFSPResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MerchantResponse is the response body for merchant reads.
type MerchantResponse struct {
	ID                       int64                     `json:"id"`
	TradingName              string                    `json:"trading_name"`
	RegistrationStatus       string                    `json:"registration_status"`
	RegistrationStatusReason string                    `json:"registration_status_reason"`
	CreatedBy                int64                     `json:"created_by"`
	CheckedBy                *int64                    `json:"checked_by,omitempty"`
	DFSPs                    []DFSPResponse            `json:"dfsps"`
	CheckoutCounters         []CheckoutCounterResponse `json:"checkout_counters"`
	CreatedAt                string                    `json:"created_at"`
	UpdatedAt                string                    `json:"updated_at"`
}

// FromMerchant maps a domain merchant to its response shape.
func FromMerchant(m *domain.Merchant) MerchantResponse {
	dfsps := make([]DFSPResponse, 0, len(m.DFSPs))
	for _, d := range m.DFSPs {
		dfsps = append(dfsps, DFSPResponse{ID: d.ID, Name: d.Name})
	}
	counters := make([]CheckoutCounterResponse, 0, len(m.CheckoutCounters))
	for _, cc := range m.CheckoutCounters {
		counters = append(counters, CheckoutCounterResponse{
			ID:          cc.ID,
			Description: cc.Description,
			AliasValue:  cc.AliasValue,
		})
	}
	return MerchantResponse{
		ID:                       m.ID,
		TradingName:              m.TradingName,
		RegistrationStatus:       string(m.RegistrationStatus),
		RegistrationStatusReason: m.RegistrationStatusReason,
		CreatedBy:                m.CreatedBy,
		CheckedBy:                m.CheckedBy,
		DFSPs:                    dfsps,
		CheckoutCounters:         counters,
		CreatedAt:                m.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:                m.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// MerchantListResponse wraps a paginated merchant listing.
type MerchantListResponse struct {
	Items    []MerchantResponse `json:"items"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// AuditEntryResponse is one audit trail entry.
type AuditEntryResponse struct {
	ID          int64  `json:"id"`
	Action      string `json:"action"`
	Outcome     string `json:"outcome"`
	Module      string `json:"module"`
	Description string `json:"description"`
	EntityName  string `json:"entity_name"`
	OldValue    string `json:"old_value,omitempty"`
	NewValue    string `json:"new_value,omitempty"`
	ActorID     *int64 `json:"actor_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// FromAuditLog maps a domain audit entry to its response shape.
func FromAuditLog(e *domain.AuditLog) AuditEntryResponse {
	return AuditEntryResponse{
		ID:          e.ID,
		Action:      string(e.Action),
		Outcome:     string(e.Outcome),
		Module:      e.Module,
		Description: e.Description,
		EntityName:  e.EntityName,
		OldValue:    e.OldValue,
		NewValue:    e.NewValue,
		ActorID:     e.ActorID,
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// AuditListResponse wraps a paginated audit listing.
type AuditListResponse struct {
	Items    []AuditEntryResponse `json:"items"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}
