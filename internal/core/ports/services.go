package ports

import (
	"context"
	"time"

	"merchant-acquirer/internal/core/domain"
)

// Actor is the authorization context of the portal user performing a request.
// It is built from JWT claims by the auth middleware.
type Actor struct {
	ID       int64
	DFSPID   *int64 // nil for hub users
	UserType domain.UserType
}

// IsHub reports whether the actor bypasses tenant checks.
func (a Actor) IsHub() bool {
	return a.UserType == domain.UserTypeHub
}

// CreateMerchantRequest holds validated input for drafting a merchant.
type CreateMerchantRequest struct {
	TradingName      string
	DFSPID           int64
	CheckoutCounters []string // counter descriptions; alias values start empty
}

// RegistrationService drives the merchant registration state machine.
type RegistrationService interface {
	CreateDraft(ctx context.Context, actor Actor, req CreateMerchantRequest) (*domain.Merchant, error)
	// ReadyToReview moves a Draft merchant to Review. Only the maker may call
	// it.
	ReadyToReview(ctx context.Context, actor Actor, merchantID int64) (*domain.Merchant, error)
	// BulkTransition validates every merchant in the batch before mutating any
	// of them; the first guard failure aborts the whole call. On Approve the
	// batch is handed to the alias channel after the status update commits.
	BulkTransition(ctx context.Context, actor Actor, ids []int64, kind domain.TransitionKind, reason string) error
	GetMerchant(ctx context.Context, actor Actor, merchantID int64) (*domain.Merchant, error)
	ListMerchants(ctx context.Context, actor Actor, params MerchantListParams) ([]domain.Merchant, error)
	// RegisterDFSPEndpoint asks the registry to register a DFSP endpoint on
	// the same request/reply channel. Hub users only.
	RegisterDFSPEndpoint(ctx context.Context, actor Actor, reg domain.EndpointRegistration) error
}

// AuditService records audit trail entries, fire-and-forget.
type AuditService interface {
	Record(ctx context.Context, entry *domain.AuditLog)
	List(ctx context.Context, params AuditListParams) ([]domain.AuditLog, error)
}

// AuthService defines portal user authentication.
type AuthService interface {
	Register(ctx context.Context, req RegisterUserRequest) (*domain.PortalUser, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterUserRequest holds input for portal user registration.
type RegisterUserRequest struct {
	Name     string
	Email    string
	Password string
	UserType domain.UserType
	DFSPID   *int64
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(user *domain.PortalUser) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID   int64
	DFSPID   *int64
	UserType domain.UserType
}
