package postgres

import (
	"context"
	"fmt"

	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/core/ports"
)

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct {
	pool Pool
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(pool Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Create inserts one audit entry.
func (r *AuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO audit_logs (action, outcome, module, description, entity_name, old_value, new_value, actor_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		entry.Action, entry.Outcome, entry.Module, entry.Description,
		entry.EntityName, entry.OldValue, entry.NewValue, entry.ActorID, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List fetches a page of audit entries, newest first.
func (r *AuditRepo) List(ctx context.Context, params ports.AuditListParams) ([]domain.AuditLog, error) {
	query := `SELECT id, action, outcome, module, description, entity_name, old_value, new_value, actor_id, created_at
		FROM audit_logs`
	args := []any{}
	where := ""

	if params.ActorID != nil {
		args = append(args, *params.ActorID)
		where = fmt.Sprintf(" WHERE actor_id = $%d", len(args))
	}
	if params.Module != nil {
		args = append(args, *params.Module)
		if where == "" {
			where = fmt.Sprintf(" WHERE module = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND module = $%d", len(args))
		}
	}
	query += where + " ORDER BY id DESC"

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
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditLog
	for rows.Next() {
		var e domain.AuditLog
		if err := rows.Scan(
			&e.ID, &e.Action, &e.Outcome, &e.Module, &e.Description,
			&e.EntityName, &e.OldValue, &e.NewValue, &e.ActorID, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
