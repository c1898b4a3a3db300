package service

import (
	"context"
	"time"

	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/core/ports"

	"github.com/rs/zerolog"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService creates a new audit service.
// If repo is nil, audit entries are only written to the logger.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists an audit entry asynchronously (fire-and-forget). The
// calling transition has already committed or failed; auditing must not block
// or fail the request.
func (s *auditService) Record(ctx context.Context, entry *domain.AuditLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	go func() {
		s.log.Info().
			Str("action", string(entry.Action)).
			Str("outcome", string(entry.Outcome)).
			Str("module", entry.Module).
			Str("entity", entry.EntityName).
			Str("description", entry.Description).
			Msg("audit")

		if s.repo != nil {
			if err := s.repo.Create(context.Background(), entry); err != nil {
				s.log.Warn().Err(err).Str("module", entry.Module).Msg("failed to persist audit entry")
			}
		}
	}()
}

func (s *auditService) List(ctx context.Context, params ports.AuditListParams) ([]domain.AuditLog, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.List(ctx, params)
}
