package service

import (
	"context"
	"encoding/json"
	"fmt"

	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/core/ports"
)

// handleRegistryReply is the one-shot handler invoked by the channel when the
// reply for a published request arrives. Commands are matched exhaustively so
// an unhandled command is loud rather than silently dropped.
func (s *RegistrationServiceImpl) handleRegistryReply(ctx context.Context, command string, raw []byte) {
	switch command {
	case domain.CommandGenerateAlias:
		var record domain.AliasReplyRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			s.log.Error().Err(err).Msg("malformed generateAlias reply payload")
			return
		}
		s.applyAliasReply(ctx, []domain.AliasReplyRecord{record})

	case domain.CommandBulkGenerateAlias:
		var records []domain.AliasReplyRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			s.log.Error().Err(err).Msg("malformed bulkGenerateAlias reply payload")
			return
		}
		s.applyAliasReply(ctx, records)

	case domain.CommandRegisterEndpointDFSP:
		s.log.Info().Msg("registry acknowledged DFSP endpoint registration")

	default:
		s.log.Warn().Str("command", command).Msg("unexpected reply command")
	}
}

// applyAliasReply applies each reply record independently: a failing sibling
// does not stop the rest. Both writes are idempotent keyed writes, which makes
// at-least-once redelivery safe.
func (s *RegistrationServiceImpl) applyAliasReply(ctx context.Context, records []domain.AliasReplyRecord) {
	applied := 0
	for _, r := range records {
		if err := s.counters.UpdateAliasValue(ctx, r.CheckoutCounterID, r.AliasValue); err != nil {
			s.log.Error().Err(err).Int64("checkout_counter_id", r.CheckoutCounterID).
				Msg("failed to store alias value")
			continue
		}

		upd := ports.StatusUpdate{Status: domain.StatusApproved, Reason: "Approved"}
		affected, err := s.merchants.BulkUpdateStatus(ctx, []int64{r.MerchantID}, domain.StatusWaitingAliasGeneration, upd)
		if err != nil {
			s.log.Error().Err(err).Int64("merchant_id", r.MerchantID).
				Msg("failed to approve merchant after alias reply")
			continue
		}
		if affected == 0 {
			// Already Approved: a redelivered reply re-applied the same
			// record. The alias write above was a keyed no-op.
			s.log.Debug().Int64("merchant_id", r.MerchantID).Msg("duplicate alias reply record ignored")
		}
		applied++
	}

	s.metrics.RecordAliasReply("matched")
	s.audit.Record(ctx, &domain.AuditLog{
		Action:      domain.AuditActionUpdate,
		Outcome:     domain.AuditOutcomeSuccess,
		Module:      moduleAlias,
		Description: fmt.Sprintf("Applied %d of %d alias reply records", applied, len(records)),
		EntityName:  "alias registry reply",
		NewValue:    string(domain.StatusApproved),
	})
}

// handleAliasTimeout runs when a pending alias request outlives its TTL
// without a registry reply. The batch is flagged rather than leaked: it goes
// back to Review with a system reason so a checker can retry.
func (s *RegistrationServiceImpl) handleAliasTimeout(ctx context.Context, ids []int64) {
	s.metrics.RecordAliasReply("expired")
	s.log.Error().Ints64("merchant_ids", ids).
		Msg("alias request expired without a registry reply, reverting batch to Review")
	s.audit.Record(ctx, &domain.AuditLog{
		Action:      domain.AuditActionUpdate,
		Outcome:     domain.AuditOutcomeFailure,
		Module:      moduleAlias,
		Description: reasonAliasTimeout,
		EntityName:  fmt.Sprintf("merchants %v", ids),
		OldValue:    string(domain.StatusWaitingAliasGeneration),
		NewValue:    string(domain.StatusReview),
	})
	s.revertToReview(ctx, ids, reasonAliasTimeout)
}

func (s *RegistrationServiceImpl) revertToReview(ctx context.Context, ids []int64, reason string) {
	upd := ports.StatusUpdate{Status: domain.StatusReview, Reason: reason}
	if _, err := s.merchants.BulkUpdateStatus(ctx, ids, domain.StatusWaitingAliasGeneration, upd); err != nil {
		s.log.Error().Err(err).Ints64("merchant_ids", ids).Msg("failed to revert batch to Review")
	}
}
