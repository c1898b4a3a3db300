package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/core/ports"
	"merchant-acquirer/pkg/apperror"
)

// AuthServiceImpl implements ports.AuthService for portal users.
type AuthServiceImpl struct {
	users  ports.PortalUserRepository
	hasher ports.HashService
	tokens ports.TokenService
	audit  ports.AuditService
	log    zerolog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users ports.PortalUserRepository,
	hasher ports.HashService,
	tokens ports.TokenService,
	audit ports.AuditService,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		audit:  audit,
		log:    log.With().Str("component", "auth_service").Logger(),
	}
}

// Register creates a new portal user account.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterUserRequest) (*domain.PortalUser, error) {
	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to check existing email")
		return nil, apperror.InternalError(err)
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	if req.UserType == domain.UserTypeDFSP && req.DFSPID == nil {
		return nil, apperror.Validation("dfsp_id is required for DFSP users")
	}
	if req.UserType == domain.UserTypeHub && req.DFSPID != nil {
		return nil, apperror.Validation("hub users cannot belong to a DFSP")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		return nil, apperror.InternalError(err)
	}

	now := time.Now()
	user := &domain.PortalUser{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		UserType:     req.UserType,
		DFSPID:       req.DFSPID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		s.log.Error().Err(err).Msg("failed to create portal user")
		return nil, apperror.InternalError(err)
	}

	s.audit.Record(ctx, &domain.AuditLog{
		Action:      domain.AuditActionAdd,
		Outcome:     domain.AuditOutcomeSuccess,
		Module:      "PortalUsers",
		Description: "Portal user registered",
		EntityName:  user.Email,
		ActorID:     &user.ID,
	})

	s.log.Info().Int64("user_id", user.ID).Str("user_type", string(user.UserType)).Msg("portal user registered")

	return user, nil
}

// Login authenticates a portal user and issues a JWT.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to look up portal user")
		return "", time.Time{}, apperror.InternalError(err)
	}
	if user == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to verify password")
		return "", time.Time{}, apperror.InternalError(err)
	}
	if !ok {
		s.audit.Record(ctx, &domain.AuditLog{
			Action:      domain.AuditActionAccess,
			Outcome:     domain.AuditOutcomeFailure,
			Module:      "PortalUsers",
			Description: "Invalid login attempt",
			EntityName:  email,
		})
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokens.Generate(user)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to generate token")
		return "", time.Time{}, apperror.InternalError(err)
	}

	s.audit.Record(ctx, &domain.AuditLog{
		Action:      domain.AuditActionAccess,
		Outcome:     domain.AuditOutcomeSuccess,
		Module:      "PortalUsers",
		Description: "Portal user logged in",
		EntityName:  email,
		ActorID:     &user.ID,
	})

	return token, expiresAt, nil
}
