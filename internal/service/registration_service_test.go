package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/core/ports"
	"merchant-acquirer/internal/core/ports/mocks"
	"merchant-acquirer/internal/metrics"
	"merchant-acquirer/pkg/apperror"
)

type regServiceFixture struct {
	svc        *RegistrationServiceImpl
	merchants  *mocks.MockMerchantRepository
	counters   *mocks.MockCheckoutCounterRepository
	channel    *mocks.MockAliasChannel
	audit      *mocks.MockAuditService
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

func setupRegService(t *testing.T) *regServiceFixture {
	ctrl := gomock.NewController(t)
	merchantRepo := mocks.NewMockMerchantRepository(ctrl)
	counterRepo := mocks.NewMockCheckoutCounterRepository(ctrl)
	channel := mocks.NewMockAliasChannel(ctrl)
	auditSvc := mocks.NewMockAuditService(ctrl)
	transactor := mocks.NewMockDBTransactor(ctrl)
	auditSvc.EXPECT().Record(gomock.Any(), gomock.Any()).AnyTimes()

	svc := NewRegistrationService(
		merchantRepo, counterRepo, auditSvc, channel, transactor,
		metrics.New(prometheus.NewRegistry()), zerolog.Nop(),
	)
	return &regServiceFixture{
		svc:        svc,
		merchants:  merchantRepo,
		counters:   counterRepo,
		channel:    channel,
		audit:      auditSvc,
		transactor: transactor,
		ctrl:       ctrl,
	}
}

func reviewBatch(ids []int64, maker int64, dfspID int64) []domain.Merchant {
	out := make([]domain.Merchant, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Merchant{
			ID:                 id,
			TradingName:        "Shop",
			RegistrationStatus: domain.StatusReview,
			CreatedBy:          maker,
			DFSPs:              []domain.DFSP{{ID: dfspID}},
			CheckoutCounters:   []domain.CheckoutCounter{{ID: id * 10, MerchantID: id}},
		})
	}
	return out
}

func asAppError(t *testing.T, err error) *apperror.AppError {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected *apperror.AppError, got %v", err)
	return appErr
}

func TestRegistrationService_CreateDraft_Success(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	actor := dfspActor(1, 3)
	req := ports.CreateMerchantRequest{
		TradingName:      "Corner Shop",
		DFSPID:           3,
		CheckoutCounters: []string{"till 1", "till 2"},
	}

	tx := &mockTx{}
	f.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	f.merchants.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, m *domain.Merchant) error {
			m.ID = 101
			return nil
		})

	merchant, err := f.svc.CreateDraft(ctx, actor, req)
	require.NoError(t, err)
	require.NotNil(t, merchant)
	assert.Equal(t, int64(101), merchant.ID)
	assert.Equal(t, domain.StatusDraft, merchant.RegistrationStatus)
	assert.Equal(t, int64(1), merchant.CreatedBy)
	assert.Len(t, merchant.CheckoutCounters, 2)
}

func TestRegistrationService_CreateDraft_CrossTenant(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	actor := dfspActor(1, 3)
	req := ports.CreateMerchantRequest{TradingName: "Other Shop", DFSPID: 9}

	_, err := f.svc.CreateDraft(context.Background(), actor, req)
	require.Error(t, err)
	assert.Equal(t, "REG_002", asAppError(t, err).Code)
}

func TestRegistrationService_CreateDraft_HubMayDraftAnywhere(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	f.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	f.merchants.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	_, err := f.svc.CreateDraft(ctx, hubActor(1), ports.CreateMerchantRequest{TradingName: "Hub Draft", DFSPID: 9})
	require.NoError(t, err)
}

func TestRegistrationService_ReadyToReview_Success(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	actor := dfspActor(1, 10)
	merchant := draftMerchant()

	f.merchants.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	f.merchants.EXPECT().BulkUpdateStatus(ctx, []int64{merchant.ID}, domain.StatusDraft,
		ports.StatusUpdate{Status: domain.StatusReview, Reason: "Ready to Review"}).Return(int64(1), nil)

	updated, err := f.svc.ReadyToReview(ctx, actor, merchant.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReview, updated.RegistrationStatus)
	assert.Equal(t, "Ready to Review", updated.RegistrationStatusReason)
}

func TestRegistrationService_ReadyToReview_WrongActor(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	merchant := draftMerchant() // created by user 1

	f.merchants.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)

	_, err := f.svc.ReadyToReview(ctx, dfspActor(2, 10), merchant.ID)
	require.Error(t, err)
	assert.Equal(t, "REG_003", asAppError(t, err).Code)
}

func TestRegistrationService_ReadyToReview_ConcurrentConflict(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	merchant := draftMerchant()

	f.merchants.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	f.merchants.EXPECT().BulkUpdateStatus(ctx, []int64{merchant.ID}, domain.StatusDraft, gomock.Any()).
		Return(int64(0), nil)

	_, err := f.svc.ReadyToReview(ctx, dfspActor(1, 10), merchant.ID)
	require.Error(t, err)
	assert.Equal(t, "REG_008", asAppError(t, err).Code)
}

func TestRegistrationService_BulkTransition_ApprovePublishesBulkCommand(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	checker := dfspActor(2, 3)
	ids := []int64{10, 11}
	batch := reviewBatch(ids, 1, 3)

	f.merchants.EXPECT().GetManyByIDs(ctx, ids).Return(batch, nil)
	f.merchants.EXPECT().BulkUpdateStatus(ctx, ids, domain.StatusReview,
		ports.StatusUpdate{
			Status:    domain.StatusWaitingAliasGeneration,
			Reason:    "Approved, waiting for alias generation",
			CheckedBy: &checker.ID,
		}).Return(int64(2), nil)
	f.channel.EXPECT().Publish(ctx, domain.CommandBulkGenerateAlias, gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, data any, _ ports.ReplyHandler, _ ports.ExpiryHandler) (string, bool) {
			payload, ok := data.([]domain.AliasRequestMerchant)
			require.True(t, ok)
			require.Len(t, payload, 2)
			assert.Equal(t, int64(10), payload[0].ID)
			assert.Equal(t, int64(3), payload[0].DFSPID)
			return "corr-1", true
		})

	err := f.svc.BulkTransition(ctx, checker, ids, domain.TransitionApprove, "")
	require.NoError(t, err)
}

func TestRegistrationService_BulkTransition_SingleApproveUsesSingleCommand(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	checker := dfspActor(2, 3)
	ids := []int64{10}
	batch := reviewBatch(ids, 1, 3)

	f.merchants.EXPECT().GetManyByIDs(ctx, ids).Return(batch, nil)
	f.merchants.EXPECT().BulkUpdateStatus(ctx, ids, domain.StatusReview, gomock.Any()).Return(int64(1), nil)
	f.channel.EXPECT().Publish(ctx, domain.CommandGenerateAlias, gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, data any, _ ports.ReplyHandler, _ ports.ExpiryHandler) (string, bool) {
			_, ok := data.(domain.AliasRequestMerchant)
			require.True(t, ok, "single approve should publish one merchant, not a batch")
			return "corr-1", true
		})

	require.NoError(t, f.svc.BulkTransition(ctx, checker, ids, domain.TransitionApprove, ""))
}

func TestRegistrationService_BulkTransition_SameActorAbortsWholeBatch(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	ids := []int64{10, 11}
	batch := reviewBatch(ids, 1, 3)
	batch[1].CreatedBy = 2 // second merchant drafted by the checker

	f.merchants.EXPECT().GetManyByIDs(ctx, ids).Return(batch, nil)
	// No BulkUpdateStatus and no Publish: nothing is mutated.

	err := f.svc.BulkTransition(ctx, dfspActor(2, 3), ids, domain.TransitionApprove, "")
	require.Error(t, err)

	appErr := asAppError(t, err)
	assert.Equal(t, "REG_005", appErr.Code)
	assert.Equal(t, "Merchant 11 cannot be approved by the same user who submitted it.", appErr.Message)
}

func TestRegistrationService_BulkTransition_CrossTenantMerchant(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	ids := []int64{10, 11}
	batch := reviewBatch(ids, 1, 3)
	batch[1].DFSPs = []domain.DFSP{{ID: 9}}

	f.merchants.EXPECT().GetManyByIDs(ctx, ids).Return(batch, nil)

	err := f.svc.BulkTransition(ctx, dfspActor(2, 3), ids, domain.TransitionApprove, "")
	require.Error(t, err)
	assert.Equal(t, "REG_002", asAppError(t, err).Code)
}

func TestRegistrationService_BulkTransition_MissingMerchant(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	ids := []int64{10, 99}
	batch := reviewBatch([]int64{10}, 1, 3)

	f.merchants.EXPECT().GetManyByIDs(ctx, ids).Return(batch, nil)

	err := f.svc.BulkTransition(ctx, dfspActor(2, 3), ids, domain.TransitionApprove, "")
	require.Error(t, err)
	assert.Equal(t, "REG_001", asAppError(t, err).Code)
}

func TestRegistrationService_BulkTransition_RejectRequiresReason(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	ids := []int64{10}
	batch := reviewBatch(ids, 1, 3)

	f.merchants.EXPECT().GetManyByIDs(ctx, ids).Return(batch, nil)

	err := f.svc.BulkTransition(ctx, dfspActor(2, 3), ids, domain.TransitionReject, "")
	require.Error(t, err)

	appErr := asAppError(t, err)
	assert.Equal(t, "REG_006", appErr.Code)
	assert.Equal(t, "Reason is required", appErr.Message)
}

func TestRegistrationService_BulkTransition_RejectDoesNotPublish(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	checker := dfspActor(2, 3)
	ids := []int64{10, 11}
	batch := reviewBatch(ids, 1, 3)

	f.merchants.EXPECT().GetManyByIDs(ctx, ids).Return(batch, nil)
	f.merchants.EXPECT().BulkUpdateStatus(ctx, ids, domain.StatusReview,
		ports.StatusUpdate{Status: domain.StatusRejected, Reason: "documents incomplete", CheckedBy: &checker.ID}).
		Return(int64(2), nil)
	// No Publish expectation: rejected merchants never reach the registry.

	require.NoError(t, f.svc.BulkTransition(ctx, checker, ids, domain.TransitionReject, "documents incomplete"))
}

func TestRegistrationService_BulkTransition_ConcurrentConflict(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	ids := []int64{10, 11, 12}
	batch := reviewBatch(ids, 1, 3)

	f.merchants.EXPECT().GetManyByIDs(ctx, ids).Return(batch, nil)
	// A concurrent checker won on one row: only 2 of 3 still in Review.
	f.merchants.EXPECT().BulkUpdateStatus(ctx, ids, domain.StatusReview, gomock.Any()).Return(int64(2), nil)

	err := f.svc.BulkTransition(ctx, dfspActor(2, 3), ids, domain.TransitionApprove, "")
	require.Error(t, err)
	assert.Equal(t, "REG_008", asAppError(t, err).Code)
}

func TestRegistrationService_BulkTransition_MalformedIDs(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	for name, ids := range map[string][]int64{
		"empty":     {},
		"negative":  {10, -1},
		"duplicate": {10, 10},
	} {
		t.Run(name, func(t *testing.T) {
			err := f.svc.BulkTransition(context.Background(), dfspActor(2, 3), ids, domain.TransitionApprove, "")
			require.Error(t, err)
			assert.Equal(t, "REG_007", asAppError(t, err).Code)
		})
	}
}

func TestRegistrationService_BulkTransition_ReadyToReviewNotBulk(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	err := f.svc.BulkTransition(context.Background(), dfspActor(1, 3), []int64{10}, domain.TransitionReadyToReview, "")
	require.Error(t, err)
	assert.Equal(t, "REG_007", asAppError(t, err).Code)
}

func TestRegistrationService_PublishRejected_RevertsBatchToReview(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	checker := dfspActor(2, 3)
	ids := []int64{10, 11}
	batch := reviewBatch(ids, 1, 3)

	f.merchants.EXPECT().GetManyByIDs(ctx, ids).Return(batch, nil)
	f.merchants.EXPECT().BulkUpdateStatus(ctx, ids, domain.StatusReview, gomock.Any()).Return(int64(2), nil)
	f.channel.EXPECT().Publish(ctx, domain.CommandBulkGenerateAlias, gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", false)
	f.merchants.EXPECT().BulkUpdateStatus(ctx, ids, domain.StatusWaitingAliasGeneration,
		ports.StatusUpdate{Status: domain.StatusReview, Reason: "Alias request could not be published"}).
		Return(int64(2), nil)

	// The transition itself succeeded: remediation is asynchronous state, not
	// a caller error.
	require.NoError(t, f.svc.BulkTransition(ctx, checker, ids, domain.TransitionApprove, ""))
}

func TestRegistrationService_AliasReply_ApprovesEachRecord(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	checker := dfspActor(2, 3)
	ids := []int64{10, 11}
	batch := reviewBatch(ids, 1, 3)

	var captured ports.ReplyHandler
	f.merchants.EXPECT().GetManyByIDs(ctx, ids).Return(batch, nil)
	f.merchants.EXPECT().BulkUpdateStatus(ctx, ids, domain.StatusReview, gomock.Any()).Return(int64(2), nil)
	f.channel.EXPECT().Publish(ctx, domain.CommandBulkGenerateAlias, gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ any, onReply ports.ReplyHandler, _ ports.ExpiryHandler) (string, bool) {
			captured = onReply
			return "corr-1", true
		})

	require.NoError(t, f.svc.BulkTransition(ctx, checker, ids, domain.TransitionApprove, ""))
	require.NotNil(t, captured)

	records := []domain.AliasReplyRecord{
		{MerchantID: 10, CheckoutCounterID: 100, AliasValue: "0037010"},
		{MerchantID: 11, CheckoutCounterID: 110, AliasValue: "0037011"},
	}
	raw, err := json.Marshal(records)
	require.NoError(t, err)

	f.counters.EXPECT().UpdateAliasValue(gomock.Any(), int64(100), "0037010").Return(nil)
	f.merchants.EXPECT().BulkUpdateStatus(gomock.Any(), []int64{10}, domain.StatusWaitingAliasGeneration,
		ports.StatusUpdate{Status: domain.StatusApproved, Reason: "Approved"}).Return(int64(1), nil)
	f.counters.EXPECT().UpdateAliasValue(gomock.Any(), int64(110), "0037011").Return(nil)
	f.merchants.EXPECT().BulkUpdateStatus(gomock.Any(), []int64{11}, domain.StatusWaitingAliasGeneration,
		ports.StatusUpdate{Status: domain.StatusApproved, Reason: "Approved"}).Return(int64(1), nil)

	captured(ctx, "corr-1", domain.CommandBulkGenerateAlias, raw)
}

func TestRegistrationService_PendingStore_MirrorsInFlightBatch(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	checker := dfspActor(2, 3)
	ids := []int64{10}
	batch := reviewBatch(ids, 1, 3)

	store := mocks.NewMockPendingAliasStore(f.ctrl)
	f.svc.WithPendingStore(store, 30*time.Second)

	var captured ports.ReplyHandler
	f.merchants.EXPECT().GetManyByIDs(ctx, ids).Return(batch, nil)
	f.merchants.EXPECT().BulkUpdateStatus(ctx, ids, domain.StatusReview, gomock.Any()).Return(int64(1), nil)
	f.channel.EXPECT().Publish(ctx, domain.CommandGenerateAlias, gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ any, onReply ports.ReplyHandler, _ ports.ExpiryHandler) (string, bool) {
			captured = onReply
			return "corr-7", true
		})
	store.EXPECT().Set(ctx, "corr-7", ids, 30*time.Second).Return(nil)

	require.NoError(t, f.svc.BulkTransition(ctx, checker, ids, domain.TransitionApprove, ""))

	store.EXPECT().Delete(gomock.Any(), "corr-7").Return(nil)
	f.counters.EXPECT().UpdateAliasValue(gomock.Any(), int64(100), "0037010").Return(nil)
	f.merchants.EXPECT().BulkUpdateStatus(gomock.Any(), []int64{10}, domain.StatusWaitingAliasGeneration, gomock.Any()).
		Return(int64(1), nil)

	raw, err := json.Marshal(domain.AliasReplyRecord{MerchantID: 10, CheckoutCounterID: 100, AliasValue: "0037010"})
	require.NoError(t, err)
	captured(context.Background(), "corr-7", domain.CommandGenerateAlias, raw)
}

func TestRegistrationService_PendingStore_ReplyBeforePublishReturns(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	checker := dfspActor(2, 3)
	ids := []int64{10}
	batch := reviewBatch(ids, 1, 3)

	store := mocks.NewMockPendingAliasStore(f.ctrl)
	f.svc.WithPendingStore(store, 30*time.Second)

	raw, err := json.Marshal(domain.AliasReplyRecord{MerchantID: 10, CheckoutCounterID: 100, AliasValue: "0037010"})
	require.NoError(t, err)

	f.merchants.EXPECT().GetManyByIDs(ctx, ids).Return(batch, nil)
	f.merchants.EXPECT().BulkUpdateStatus(ctx, ids, domain.StatusReview, gomock.Any()).Return(int64(1), nil)

	// The registry answers while Publish is still returning: the handler must
	// know its own correlation id instead of reading it from the publish path.
	f.channel.EXPECT().Publish(ctx, domain.CommandGenerateAlias, gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ any, onReply ports.ReplyHandler, _ ports.ExpiryHandler) (string, bool) {
			go onReply(ctx, "corr-9", domain.CommandGenerateAlias, raw)
			return "corr-9", true
		})
	store.EXPECT().Set(ctx, "corr-9", ids, 30*time.Second).Return(nil)

	cleared := make(chan struct{})
	store.EXPECT().Delete(gomock.Any(), "corr-9").DoAndReturn(func(context.Context, string) error {
		close(cleared)
		return nil
	})
	f.counters.EXPECT().UpdateAliasValue(gomock.Any(), int64(100), "0037010").Return(nil)
	f.merchants.EXPECT().BulkUpdateStatus(gomock.Any(), []int64{10}, domain.StatusWaitingAliasGeneration, gomock.Any()).
		Return(int64(1), nil)

	require.NoError(t, f.svc.BulkTransition(ctx, checker, ids, domain.TransitionApprove, ""))

	select {
	case <-cleared:
	case <-time.After(2 * time.Second):
		t.Fatal("pending mirror was never cleared")
	}
}

func TestRegistrationService_AliasReply_DuplicateRecordIsIdempotent(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	record := domain.AliasReplyRecord{MerchantID: 10, CheckoutCounterID: 100, AliasValue: "0037010"}
	raw, err := json.Marshal(record)
	require.NoError(t, err)

	// Re-applying the same record: keyed alias write is a no-op, conditional
	// status flip affects zero rows. No error surfaces.
	f.counters.EXPECT().UpdateAliasValue(gomock.Any(), int64(100), "0037010").Return(nil)
	f.merchants.EXPECT().BulkUpdateStatus(gomock.Any(), []int64{10}, domain.StatusWaitingAliasGeneration, gomock.Any()).
		Return(int64(0), nil)

	f.svc.handleRegistryReply(ctx, domain.CommandGenerateAlias, raw)
}

func TestRegistrationService_AliasReply_FailingSiblingDoesNotStopRest(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	records := []domain.AliasReplyRecord{
		{MerchantID: 10, CheckoutCounterID: 100, AliasValue: "0037010"},
		{MerchantID: 11, CheckoutCounterID: 110, AliasValue: "0037011"},
	}
	raw, err := json.Marshal(records)
	require.NoError(t, err)

	f.counters.EXPECT().UpdateAliasValue(gomock.Any(), int64(100), "0037010").Return(errors.New("db down"))
	f.counters.EXPECT().UpdateAliasValue(gomock.Any(), int64(110), "0037011").Return(nil)
	f.merchants.EXPECT().BulkUpdateStatus(gomock.Any(), []int64{11}, domain.StatusWaitingAliasGeneration, gomock.Any()).
		Return(int64(1), nil)

	f.svc.handleRegistryReply(ctx, domain.CommandBulkGenerateAlias, raw)
}

func TestRegistrationService_AliasReply_MalformedPayloadDropped(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	// No repository expectations: a malformed payload never reaches storage.
	f.svc.handleRegistryReply(context.Background(), domain.CommandBulkGenerateAlias, []byte("{not json"))
}

func TestRegistrationService_AliasTimeout_RevertsBatchToReview(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	checker := dfspActor(2, 3)
	ids := []int64{10}
	batch := reviewBatch(ids, 1, 3)

	var captured ports.ExpiryHandler
	f.merchants.EXPECT().GetManyByIDs(ctx, ids).Return(batch, nil)
	f.merchants.EXPECT().BulkUpdateStatus(ctx, ids, domain.StatusReview, gomock.Any()).Return(int64(1), nil)
	f.channel.EXPECT().Publish(ctx, domain.CommandGenerateAlias, gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ any, _ ports.ReplyHandler, onExpire ports.ExpiryHandler) (string, bool) {
			captured = onExpire
			return "corr-1", true
		})

	require.NoError(t, f.svc.BulkTransition(ctx, checker, ids, domain.TransitionApprove, ""))
	require.NotNil(t, captured)

	f.merchants.EXPECT().BulkUpdateStatus(gomock.Any(), ids, domain.StatusWaitingAliasGeneration,
		ports.StatusUpdate{Status: domain.StatusReview, Reason: "Alias generation timed out"}).
		Return(int64(1), nil)

	captured(ctx, "corr-1")
}

func TestRegistrationService_GetMerchant_NotFound(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	f.merchants.EXPECT().GetByID(ctx, int64(77)).Return(nil, nil)

	_, err := f.svc.GetMerchant(ctx, hubActor(1), 77)
	require.Error(t, err)
	assert.Equal(t, "REG_001", asAppError(t, err).Code)
}

func TestRegistrationService_GetMerchant_CrossTenant(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	merchant := reviewMerchant() // DFSP 10

	f.merchants.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)

	_, err := f.svc.GetMerchant(ctx, dfspActor(1, 9), merchant.ID)
	require.Error(t, err)
	assert.Equal(t, "REG_002", asAppError(t, err).Code)
}

func TestRegistrationService_ListMerchants_ScopesToOwnDFSP(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	actor := dfspActor(1, 3)
	other := int64(9)

	f.merchants.EXPECT().List(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.MerchantListParams) ([]domain.Merchant, error) {
			require.NotNil(t, params.DFSPID)
			assert.Equal(t, int64(3), *params.DFSPID, "requested filter must be overridden by the actor's tenant")
			return nil, nil
		})

	_, err := f.svc.ListMerchants(ctx, actor, ports.MerchantListParams{DFSPID: &other})
	require.NoError(t, err)
}

func TestRegistrationService_RegisterDFSPEndpoint_HubOnly(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	reg := domain.EndpointRegistration{DFSPID: 3, DFSPName: "DFSP A", EndpointURL: "https://dfsp-a.example/fsp"}

	err := f.svc.RegisterDFSPEndpoint(context.Background(), dfspActor(1, 3), reg)
	require.Error(t, err)
	assert.Equal(t, "REG_002", asAppError(t, err).Code)
}

func TestRegistrationService_RegisterDFSPEndpoint_Publishes(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	reg := domain.EndpointRegistration{DFSPID: 3, DFSPName: "DFSP A", EndpointURL: "https://dfsp-a.example/fsp"}

	f.channel.EXPECT().Publish(ctx, domain.CommandRegisterEndpointDFSP, reg, gomock.Any(), gomock.Any()).
		Return("corr-9", true)

	require.NoError(t, f.svc.RegisterDFSPEndpoint(ctx, hubActor(1), reg))
}

func TestRegistrationService_RegisterDFSPEndpoint_TransportRejected(t *testing.T) {
	f := setupRegService(t)
	defer f.ctrl.Finish()

	ctx := context.Background()
	reg := domain.EndpointRegistration{DFSPID: 3, DFSPName: "DFSP A", EndpointURL: "https://dfsp-a.example/fsp"}

	f.channel.EXPECT().Publish(ctx, domain.CommandRegisterEndpointDFSP, reg, gomock.Any(), gomock.Any()).
		Return("", false)

	err := f.svc.RegisterDFSPEndpoint(ctx, hubActor(1), reg)
	require.Error(t, err)
	assert.Equal(t, "MQ_001", asAppError(t, err).Code)
}
