package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"merchant-acquirer/internal/core/domain"
)

// PortalUserRepo implements ports.PortalUserRepository.
type PortalUserRepo struct {
	pool Pool
}

// NewPortalUserRepo creates a new PortalUserRepo.
func NewPortalUserRepo(pool Pool) *PortalUserRepo {
	return &PortalUserRepo{pool: pool}
}

const portalUserColumns = `id, name, email, password_hash, user_type, dfsp_id, created_at, updated_at`

// Create inserts a new portal user and fills in the generated id.
func (r *PortalUserRepo) Create(ctx context.Context, u *domain.PortalUser) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO portal_users (name, email, password_hash, user_type, dfsp_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		u.Name, u.Email, u.PasswordHash, u.UserType, u.DFSPID, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("insert portal user: %w", err)
	}
	return nil
}

// GetByID fetches a portal user by id. Returns (nil, nil) when absent.
func (r *PortalUserRepo) GetByID(ctx context.Context, id int64) (*domain.PortalUser, error) {
	u := &domain.PortalUser{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+portalUserColumns+` FROM portal_users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.UserType, &u.DFSPID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get portal user by id: %w", err)
	}
	return u, nil
}

// GetByEmail fetches a portal user by email. Returns (nil, nil) when absent.
func (r *PortalUserRepo) GetByEmail(ctx context.Context, email string) (*domain.PortalUser, error) {
	u := &domain.PortalUser{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+portalUserColumns+` FROM portal_users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.UserType, &u.DFSPID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get portal user by email: %w", err)
	}
	return u, nil
}
