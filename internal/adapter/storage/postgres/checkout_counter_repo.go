package postgres

import (
	"context"
	"fmt"

	"merchant-acquirer/internal/core/domain"
)

// CheckoutCounterRepo implements ports.CheckoutCounterRepository.
type CheckoutCounterRepo struct {
	pool Pool
}

// NewCheckoutCounterRepo creates a new CheckoutCounterRepo.
func NewCheckoutCounterRepo(pool Pool) *CheckoutCounterRepo {
	return &CheckoutCounterRepo{pool: pool}
}

// ListByMerchant fetches all checkout counters of one merchant.
func (r *CheckoutCounterRepo) ListByMerchant(ctx context.Context, merchantID int64) ([]domain.CheckoutCounter, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, merchant_id, description, alias_value
		 FROM checkout_counters WHERE merchant_id = $1 ORDER BY id`, merchantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list checkout counters: %w", err)
	}
	defer rows.Close()

	var counters []domain.CheckoutCounter
	for rows.Next() {
		var c domain.CheckoutCounter
		if err := rows.Scan(&c.ID, &c.MerchantID, &c.Description, &c.AliasValue); err != nil {
			return nil, fmt.Errorf("scan checkout counter: %w", err)
		}
		counters = append(counters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkout counters: %w", err)
	}
	return counters, nil
}

// UpdateAliasValue stores the registry-generated alias for one counter. It is
// a keyed write: re-applying the same value is a no-op.
func (r *CheckoutCounterRepo) UpdateAliasValue(ctx context.Context, counterID int64, aliasValue string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE checkout_counters SET alias_value = $1 WHERE id = $2`,
		aliasValue, counterID,
	)
	if err != nil {
		return fmt.Errorf("update alias value: %w", err)
	}
	return nil
}
