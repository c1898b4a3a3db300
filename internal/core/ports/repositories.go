package ports

import (
	"context"

	"merchant-acquirer/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// StatusUpdate carries the fields stamped onto merchants by a transition.
type StatusUpdate struct {
	Status    domain.RegistrationStatus
	Reason    string
	CheckedBy *int64 // nil for maker-side transitions
}

// MerchantRepository defines persistence operations for merchants.
type MerchantRepository interface {
	// Create inserts the merchant, its DFSP links and checkout counters inside
	// the given transaction and fills in generated ids.
	Create(ctx context.Context, tx pgx.Tx, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id int64) (*domain.Merchant, error)
	// GetManyByIDs loads all merchants for the given ids in one fetch,
	// including DFSP affiliations and checkout counters. Missing ids are
	// simply absent from the result.
	GetManyByIDs(ctx context.Context, ids []int64) ([]domain.Merchant, error)
	List(ctx context.Context, params MerchantListParams) ([]domain.Merchant, error)
	// BulkUpdateStatus applies the update to every listed merchant whose
	// current status equals expected, and returns the number of rows changed.
	// A result lower than len(ids) means a concurrent writer won on the rest.
	BulkUpdateStatus(ctx context.Context, ids []int64, expected domain.RegistrationStatus, upd StatusUpdate) (int64, error)
}

// MerchantListParams holds filter + pagination for listing merchants.
type MerchantListParams struct {
	DFSPID   *int64 // nil = all tenants (hub users only)
	Status   *domain.RegistrationStatus
	Page     int
	PageSize int
}

// CheckoutCounterRepository defines persistence for payment-alias slots.
type CheckoutCounterRepository interface {
	ListByMerchant(ctx context.Context, merchantID int64) ([]domain.CheckoutCounter, error)
	// UpdateAliasValue is a keyed write; re-applying the same value is a no-op.
	UpdateAliasValue(ctx context.Context, counterID int64, aliasValue string) error
}

// PortalUserRepository defines persistence for back-office users.
type PortalUserRepository interface {
	Create(ctx context.Context, user *domain.PortalUser) error
	GetByID(ctx context.Context, id int64) (*domain.PortalUser, error)
	GetByEmail(ctx context.Context, email string) (*domain.PortalUser, error)
}

// AuditRepository defines persistence for audit trail entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, params AuditListParams) ([]domain.AuditLog, error)
}

// AuditListParams holds filter + pagination for listing audit entries.
type AuditListParams struct {
	ActorID  *int64
	Module   *string
	Page     int
	PageSize int
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
