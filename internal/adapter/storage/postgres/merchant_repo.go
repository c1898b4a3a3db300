package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/core/ports"
)

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

const merchantColumns = `id, trading_name, registration_status, registration_status_reason, created_by, checked_by, created_at, updated_at`

// Create inserts the merchant, its DFSP links and checkout counters inside
// the given transaction and fills in the generated ids.
func (r *MerchantRepo) Create(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO merchants (trading_name, registration_status, registration_status_reason, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		m.TradingName, m.RegistrationStatus, m.RegistrationStatusReason,
		m.CreatedBy, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}

	for _, dfsp := range m.DFSPs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO merchant_dfsps (merchant_id, dfsp_id) VALUES ($1, $2)`,
			m.ID, dfsp.ID,
		); err != nil {
			return fmt.Errorf("insert merchant dfsp link: %w", err)
		}
	}

	for i := range m.CheckoutCounters {
		c := &m.CheckoutCounters[i]
		c.MerchantID = m.ID
		if err := tx.QueryRow(ctx,
			`INSERT INTO checkout_counters (merchant_id, description, alias_value) VALUES ($1, $2, $3) RETURNING id`,
			c.MerchantID, c.Description, c.AliasValue,
		).Scan(&c.ID); err != nil {
			return fmt.Errorf("insert checkout counter: %w", err)
		}
	}
	return nil
}

// GetByID fetches one merchant with its DFSP affiliations and checkout
// counters. Returns (nil, nil) when the merchant does not exist.
func (r *MerchantRepo) GetByID(ctx context.Context, id int64) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE id = $1`, id,
	).Scan(
		&m.ID, &m.TradingName, &m.RegistrationStatus, &m.RegistrationStatusReason,
		&m.CreatedBy, &m.CheckedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get merchant by id: %w", err)
	}

	if err := r.loadAssociations(ctx, []*domain.Merchant{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// GetManyByIDs loads all merchants for the given ids in one fetch. Missing
// ids are simply absent from the result.
func (r *MerchantRepo) GetManyByIDs(ctx context.Context, ids []int64) ([]domain.Merchant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE id = ANY($1) ORDER BY id`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("get merchants by ids: %w", err)
	}
	merchants, err := scanMerchants(rows)
	if err != nil {
		return nil, err
	}

	refs := make([]*domain.Merchant, len(merchants))
	for i := range merchants {
		refs[i] = &merchants[i]
	}
	if err := r.loadAssociations(ctx, refs); err != nil {
		return nil, err
	}
	return merchants, nil
}

// List fetches a page of merchants matching the filter.
func (r *MerchantRepo) List(ctx context.Context, params ports.MerchantListParams) ([]domain.Merchant, error) {
	query := `SELECT m.id, m.trading_name, m.registration_status, m.registration_status_reason, m.created_by, m.checked_by, m.created_at, m.updated_at
		FROM merchants m`
	args := []any{}
	where := ""

	if params.DFSPID != nil {
		query += ` JOIN merchant_dfsps md ON md.merchant_id = m.id`
		args = append(args, *params.DFSPID)
		where = fmt.Sprintf(" WHERE md.dfsp_id = $%d", len(args))
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		if where == "" {
			where = fmt.Sprintf(" WHERE m.registration_status = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND m.registration_status = $%d", len(args))
		}
	}
	query += where + " ORDER BY m.id DESC"

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	args = append(args, pageSize, (page-1)*pageSize)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list merchants: %w", err)
	}
	merchants, err := scanMerchants(rows)
	if err != nil {
		return nil, err
	}

	refs := make([]*domain.Merchant, len(merchants))
	for i := range merchants {
		refs[i] = &merchants[i]
	}
	if err := r.loadAssociations(ctx, refs); err != nil {
		return nil, err
	}
	return merchants, nil
}

// BulkUpdateStatus applies the update to every listed merchant whose current
// status equals expected, and returns the number of rows changed. The status
// check makes the update conditional: rows a concurrent writer already moved
// are left untouched and excluded from the count.
func (r *MerchantRepo) BulkUpdateStatus(ctx context.Context, ids []int64, expected domain.RegistrationStatus, upd ports.StatusUpdate) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE merchants
		 SET registration_status = $1,
		     registration_status_reason = $2,
		     checked_by = COALESCE($3, checked_by),
		     updated_at = NOW()
		 WHERE id = ANY($4) AND registration_status = $5`,
		upd.Status, upd.Reason, upd.CheckedBy, ids, expected,
	)
	if err != nil {
		return 0, fmt.Errorf("bulk update merchant status: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanMerchants(rows pgx.Rows) ([]domain.Merchant, error) {
	defer rows.Close()

	var merchants []domain.Merchant
	for rows.Next() {
		var m domain.Merchant
		if err := rows.Scan(
			&m.ID, &m.TradingName, &m.RegistrationStatus, &m.RegistrationStatusReason,
			&m.CreatedBy, &m.CheckedBy, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan merchant: %w", err)
		}
		merchants = append(merchants, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merchants: %w", err)
	}
	return merchants, nil
}

// loadAssociations fills in DFSP affiliations and checkout counters for the
// given merchants with two batched queries.
func (r *MerchantRepo) loadAssociations(ctx context.Context, merchants []*domain.Merchant) error {
	if len(merchants) == 0 {
		return nil
	}
	ids := make([]int64, len(merchants))
	byID := make(map[int64]*domain.Merchant, len(merchants))
	for i, m := range merchants {
		ids[i] = m.ID
		byID[m.ID] = m
	}

	rows, err := r.pool.Query(ctx,
		`SELECT md.merchant_id, d.id, d.name
		 FROM merchant_dfsps md JOIN dfsps d ON d.id = md.dfsp_id
		 WHERE md.merchant_id = ANY($1) ORDER BY md.merchant_id, d.id`, ids,
	)
	if err != nil {
		return fmt.Errorf("load merchant dfsps: %w", err)
	}
	for rows.Next() {
		var merchantID int64
		var dfsp domain.DFSP
		if err := rows.Scan(&merchantID, &dfsp.ID, &dfsp.Name); err != nil {
			rows.Close()
			return fmt.Errorf("scan merchant dfsp: %w", err)
		}
		byID[merchantID].DFSPs = append(byID[merchantID].DFSPs, dfsp)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate merchant dfsps: %w", err)
	}

	rows, err = r.pool.Query(ctx,
		`SELECT id, merchant_id, description, alias_value
		 FROM checkout_counters WHERE merchant_id = ANY($1) ORDER BY id`, ids,
	)
	if err != nil {
		return fmt.Errorf("load checkout counters: %w", err)
	}
	for rows.Next() {
		var c domain.CheckoutCounter
		if err := rows.Scan(&c.ID, &c.MerchantID, &c.Description, &c.AliasValue); err != nil {
			rows.Close()
			return fmt.Errorf("scan checkout counter: %w", err)
		}
		byID[c.MerchantID].CheckoutCounters = append(byID[c.MerchantID].CheckoutCounters, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate checkout counters: %w", err)
	}
	return nil
}
