package service

import (
	"context"
	"fmt"
	"time"

	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/core/ports"
	"merchant-acquirer/internal/metrics"
	"merchant-acquirer/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	moduleMerchants = "Merchants"
	moduleAlias     = "AliasGeneration"

	reasonReadyToReview = "Ready to Review"
	reasonApproved      = "Approved, waiting for alias generation"
	reasonAliasTimeout  = "Alias generation timed out"
	reasonPublishFailed = "Alias request could not be published"
)

// RegistrationServiceImpl implements ports.RegistrationService.
type RegistrationServiceImpl struct {
	merchants  ports.MerchantRepository
	counters   ports.CheckoutCounterRepository
	audit      ports.AuditService
	channel    ports.AliasChannel
	pending    ports.PendingAliasStore // may be nil
	pendingTTL time.Duration
	transactor ports.DBTransactor
	metrics    *metrics.RegistrationMetrics
	log        zerolog.Logger
}

// NewRegistrationService creates a new RegistrationServiceImpl. The pending
// store is optional; when set, in-flight alias batches are mirrored there for
// the lifetime of the request.
func NewRegistrationService(
	merchants ports.MerchantRepository,
	counters ports.CheckoutCounterRepository,
	audit ports.AuditService,
	channel ports.AliasChannel,
	transactor ports.DBTransactor,
	m *metrics.RegistrationMetrics,
	log zerolog.Logger,
) *RegistrationServiceImpl {
	return &RegistrationServiceImpl{
		merchants:  merchants,
		counters:   counters,
		audit:      audit,
		channel:    channel,
		transactor: transactor,
		metrics:    m,
		log:        log,
	}
}

// WithPendingStore attaches a store that mirrors in-flight alias batches.
func (s *RegistrationServiceImpl) WithPendingStore(store ports.PendingAliasStore, ttl time.Duration) *RegistrationServiceImpl {
	s.pending = store
	s.pendingTTL = ttl
	return s
}

// CreateDraft registers a new merchant in Draft status owned by the acting
// user. Non-hub actors can only draft merchants for their own DFSP.
func (s *RegistrationServiceImpl) CreateDraft(ctx context.Context, actor ports.Actor, req ports.CreateMerchantRequest) (*domain.Merchant, error) {
	if req.TradingName == "" {
		return nil, apperror.Validation("trading name is required")
	}
	if req.DFSPID <= 0 {
		return nil, apperror.Validation("dfsp id is required")
	}
	if !actor.IsHub() && (actor.DFSPID == nil || *actor.DFSPID != req.DFSPID) {
		err := apperror.ErrCrossTenantAccess(0)
		s.auditFailure(ctx, actor, domain.AuditActionAdd, req.TradingName, err)
		return nil, err
	}

	now := time.Now().UTC()
	merchant := &domain.Merchant{
		TradingName:              req.TradingName,
		RegistrationStatus:       domain.StatusDraft,
		RegistrationStatusReason: "Draft",
		CreatedBy:                actor.ID,
		DFSPs:                    []domain.DFSP{{ID: req.DFSPID}},
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	for _, desc := range req.CheckoutCounters {
		merchant.CheckoutCounters = append(merchant.CheckoutCounters, domain.CheckoutCounter{Description: desc})
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.merchants.Create(ctx, dbTx, merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create merchant: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit merchant: %w", err))
	}

	s.audit.Record(ctx, &domain.AuditLog{
		Action:      domain.AuditActionAdd,
		Outcome:     domain.AuditOutcomeSuccess,
		Module:      moduleMerchants,
		Description: fmt.Sprintf("Merchant %d drafted", merchant.ID),
		EntityName:  merchant.TradingName,
		NewValue:    string(domain.StatusDraft),
		ActorID:     &actor.ID,
	})

	return merchant, nil
}

// ReadyToReview moves a Draft merchant to Review. Only the maker may call it.
func (s *RegistrationServiceImpl) ReadyToReview(ctx context.Context, actor ports.Actor, merchantID int64) (*domain.Merchant, error) {
	merchant, err := s.merchants.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load merchant %d: %w", merchantID, err))
	}

	if guardErr := CheckTransition(merchant, merchantID, actor, domain.TransitionReadyToReview, ""); guardErr != nil {
		s.auditFailure(ctx, actor, domain.AuditActionUpdate, fmt.Sprintf("merchant %d", merchantID), guardErr)
		s.metrics.RecordTransition(string(domain.TransitionReadyToReview), "rejected")
		return nil, guardErr
	}

	upd := ports.StatusUpdate{Status: domain.StatusReview, Reason: reasonReadyToReview}
	affected, err := s.merchants.BulkUpdateStatus(ctx, []int64{merchantID}, domain.StatusDraft, upd)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update merchant %d: %w", merchantID, err))
	}
	if affected == 0 {
		// A concurrent writer moved the merchant out of Draft between the
		// guard and the update.
		return nil, apperror.ErrStatusConflict(1, 0)
	}

	s.audit.Record(ctx, &domain.AuditLog{
		Action:      domain.AuditActionUpdate,
		Outcome:     domain.AuditOutcomeSuccess,
		Module:      moduleMerchants,
		Description: fmt.Sprintf("Merchant %d submitted for review", merchantID),
		EntityName:  merchant.TradingName,
		OldValue:    string(domain.StatusDraft),
		NewValue:    string(domain.StatusReview),
		ActorID:     &actor.ID,
	})
	s.metrics.RecordTransition(string(domain.TransitionReadyToReview), "applied")

	merchant.RegistrationStatus = domain.StatusReview
	merchant.RegistrationStatusReason = reasonReadyToReview
	return merchant, nil
}

// BulkTransition applies a checker-side transition to a batch of merchants.
// Every merchant is validated before any is mutated; the first guard failure
// aborts the whole batch with that merchant's specific error. On Approve the
// updated batch is handed to the alias channel after the status update
// commits; the caller does not wait for the registry reply.
func (s *RegistrationServiceImpl) BulkTransition(ctx context.Context, actor ports.Actor, ids []int64, kind domain.TransitionKind, reason string) error {
	if !kind.CheckerSide() {
		return apperror.Validation(fmt.Sprintf("transition %q is not a bulk operation", kind))
	}
	if guardErr := ValidateIDs(ids); guardErr != nil {
		s.auditFailure(ctx, actor, domain.AuditActionUpdate, "merchant batch", guardErr)
		s.metrics.RecordTransition(string(kind), "rejected")
		return guardErr
	}

	merchants, err := s.merchants.GetManyByIDs(ctx, ids)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("load merchants: %w", err))
	}
	byID := make(map[int64]*domain.Merchant, len(merchants))
	for i := range merchants {
		byID[merchants[i].ID] = &merchants[i]
	}

	// Validate-all-then-apply-all: no merchant is mutated until every one in
	// the batch has passed the guard.
	for _, id := range ids {
		if guardErr := CheckTransition(byID[id], id, actor, kind, reason); guardErr != nil {
			s.auditFailure(ctx, actor, domain.AuditActionUpdate, fmt.Sprintf("merchant %d", id), guardErr)
			s.metrics.RecordTransition(string(kind), "rejected")
			return guardErr
		}
	}

	stamped := reason
	if stamped == "" && kind == domain.TransitionApprove {
		stamped = reasonApproved
	}
	upd := ports.StatusUpdate{Status: kind.Target(), Reason: stamped, CheckedBy: &actor.ID}
	affected, err := s.merchants.BulkUpdateStatus(ctx, ids, domain.StatusReview, upd)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("bulk update: %w", err))
	}
	if affected != int64(len(ids)) {
		// A concurrent bulk call won on some of the batch. Nothing to roll
		// back: the conditional update only touched rows still in Review.
		s.metrics.RecordTransition(string(kind), "conflict")
		return apperror.ErrStatusConflict(len(ids), affected)
	}

	s.audit.Record(ctx, &domain.AuditLog{
		Action:      domain.AuditActionUpdate,
		Outcome:     domain.AuditOutcomeSuccess,
		Module:      moduleMerchants,
		Description: fmt.Sprintf("%d merchants moved to %s", len(ids), kind.Target()),
		EntityName:  fmt.Sprintf("merchants %v", ids),
		OldValue:    string(domain.StatusReview),
		NewValue:    string(kind.Target()),
		ActorID:     &actor.ID,
	})
	s.metrics.RecordTransition(string(kind), "applied")

	if kind == domain.TransitionApprove {
		s.publishAliasRequests(ctx, actor, merchants)
	}
	return nil
}

// GetMerchant loads one merchant, enforcing tenant isolation for non-hub
// actors.
func (s *RegistrationServiceImpl) GetMerchant(ctx context.Context, actor ports.Actor, merchantID int64) (*domain.Merchant, error) {
	merchant, err := s.merchants.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load merchant %d: %w", merchantID, err))
	}
	if merchant == nil {
		return nil, apperror.ErrMerchantNotFound(merchantID)
	}
	if !actor.IsHub() {
		if actor.DFSPID == nil || !merchant.BelongsToDFSP(*actor.DFSPID) {
			return nil, apperror.ErrCrossTenantAccess(merchantID)
		}
	}
	return merchant, nil
}

// ListMerchants lists merchants visible to the actor. Non-hub actors are
// always scoped to their own DFSP regardless of the requested filter.
func (s *RegistrationServiceImpl) ListMerchants(ctx context.Context, actor ports.Actor, params ports.MerchantListParams) ([]domain.Merchant, error) {
	if !actor.IsHub() {
		if actor.DFSPID == nil {
			return nil, apperror.ErrCrossTenantAccess(0)
		}
		params.DFSPID = actor.DFSPID
	}
	result, err := s.merchants.List(ctx, params)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list merchants: %w", err))
	}
	return result, nil
}

// RegisterDFSPEndpoint publishes an endpoint registration command for the
// registry. Only hub operators may manage DFSP endpoints.
func (s *RegistrationServiceImpl) RegisterDFSPEndpoint(ctx context.Context, actor ports.Actor, reg domain.EndpointRegistration) error {
	if !actor.IsHub() {
		return apperror.ErrCrossTenantAccess(0)
	}
	if reg.DFSPID <= 0 || reg.EndpointURL == "" {
		return apperror.Validation("dfsp id and endpoint url are required")
	}

	onReply := func(ctx context.Context, _, command string, raw []byte) {
		s.handleRegistryReply(ctx, command, raw)
	}
	onExpire := func(ctx context.Context, _ string) {
		s.log.Warn().Int64("dfsp_id", reg.DFSPID).Msg("endpoint registration expired without a registry reply")
	}

	correlationID, accepted := s.channel.Publish(ctx, domain.CommandRegisterEndpointDFSP, reg, onReply, onExpire)
	if !accepted {
		return apperror.ErrTransportRejected(nil)
	}

	s.audit.Record(ctx, &domain.AuditLog{
		Action:      domain.AuditActionAdd,
		Outcome:     domain.AuditOutcomeSuccess,
		Module:      moduleAlias,
		Description: fmt.Sprintf("DFSP %d endpoint registration published (%s)", reg.DFSPID, correlationID),
		EntityName:  reg.DFSPName,
		ActorID:     &actor.ID,
	})
	return nil
}

// publishAliasRequests hands the approved batch to the alias channel. The
// status update has already committed; a rejected publish is remediated by
// flipping the batch back to Review so it does not sit in
// WaitingAliasGeneration with no request in flight.
func (s *RegistrationServiceImpl) publishAliasRequests(ctx context.Context, actor ports.Actor, merchants []domain.Merchant) {
	batch := make([]domain.AliasRequestMerchant, 0, len(merchants))
	ids := make([]int64, 0, len(merchants))
	for _, m := range merchants {
		var dfspID int64
		if len(m.DFSPs) > 0 {
			dfspID = m.DFSPs[0].ID
		}
		batch = append(batch, domain.AliasRequestMerchant{
			ID:               m.ID,
			TradingName:      m.TradingName,
			DFSPID:           dfspID,
			CheckoutCounters: m.CheckoutCounters,
		})
		ids = append(ids, m.ID)
	}

	command := domain.CommandBulkGenerateAlias
	var data any = batch
	if len(batch) == 1 {
		command = domain.CommandGenerateAlias
		data = batch[0]
	}

	started := time.Now()
	onReply := func(ctx context.Context, correlationID, replyCommand string, raw []byte) {
		s.metrics.RecordAliasRoundTrip(time.Since(started).Seconds())
		s.clearPending(ctx, correlationID)
		s.handleRegistryReply(ctx, replyCommand, raw)
	}
	onExpire := func(ctx context.Context, correlationID string) {
		s.clearPending(ctx, correlationID)
		s.handleAliasTimeout(ctx, ids)
	}

	correlationID, accepted := s.channel.Publish(ctx, command, data, onReply, onExpire)
	if !accepted {
		s.metrics.RecordAliasRequest("rejected")
		s.log.Error().Str("command", command).Ints64("merchant_ids", ids).
			Msg("alias request rejected by transport, reverting batch to Review")
		s.auditFailure(ctx, actor, domain.AuditActionUpdate,
			fmt.Sprintf("merchants %v", ids), apperror.ErrTransportRejected(nil))
		s.revertToReview(ctx, ids, reasonPublishFailed)
		return
	}
	s.metrics.RecordAliasRequest("accepted")
	if s.pending != nil {
		if err := s.pending.Set(ctx, correlationID, ids, s.pendingTTL); err != nil {
			s.log.Warn().Err(err).Str("correlation_id", correlationID).
				Msg("failed to mirror pending alias batch")
		}
	}
	s.log.Info().Str("command", command).Str("correlation_id", correlationID).
		Ints64("merchant_ids", ids).Msg("alias request published")
}

func (s *RegistrationServiceImpl) clearPending(ctx context.Context, correlationID string) {
	if s.pending == nil || correlationID == "" {
		return
	}
	if err := s.pending.Delete(ctx, correlationID); err != nil {
		s.log.Warn().Err(err).Str("correlation_id", correlationID).
			Msg("failed to clear pending alias batch")
	}
}

func (s *RegistrationServiceImpl) auditFailure(ctx context.Context, actor ports.Actor, action domain.AuditAction, entity string, cause error) {
	s.audit.Record(ctx, &domain.AuditLog{
		Action:      action,
		Outcome:     domain.AuditOutcomeFailure,
		Module:      moduleMerchants,
		Description: cause.Error(),
		EntityName:  entity,
		ActorID:     &actor.ID,
	})
}
