package handler

import (
	"strconv"

	"merchant-acquirer/internal/adapter/http/dto"
	"merchant-acquirer/internal/adapter/http/middleware"
	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/core/ports"
	"merchant-acquirer/pkg/apperror"
	"merchant-acquirer/pkg/response"

	"github.com/gin-gonic/gin"
)

// MerchantHandler handles merchant registration endpoints.
type MerchantHandler struct {
	regSvc ports.RegistrationService
}

// NewMerchantHandler creates a new merchant handler.
func NewMerchantHandler(regSvc ports.RegistrationService) *MerchantHandler {
	return &MerchantHandler{regSvc: regSvc}
}

// Create handles POST /api/v1/merchants. The merchant starts in Draft with
// the requesting user as maker.
func (h *MerchantHandler) Create(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant, err := h.regSvc.CreateDraft(c.Request.Context(), actor, ports.CreateMerchantRequest{
		TradingName:      req.TradingName,
		DFSPID:           req.DFSPID,
		CheckoutCounters: req.CheckoutCounters,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromMerchant(merchant))
}

// Get handles GET /api/v1/merchants/:id.
func (h *MerchantHandler) Get(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	merchant, err := h.regSvc.GetMerchant(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromMerchant(merchant))
}

// List handles GET /api/v1/merchants. DFSP users only ever see their own
// tenant; the service enforces the scoping.
func (h *MerchantHandler) List(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	params := ports.MerchantListParams{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if s := c.Query("status"); s != "" {
		status := domain.RegistrationStatus(s)
		params.Status = &status
	}

	merchants, err := h.regSvc.ListMerchants(c.Request.Context(), actor, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.MerchantResponse, 0, len(merchants))
	for i := range merchants {
		items = append(items, dto.FromMerchant(&merchants[i]))
	}

	response.OK(c, dto.MerchantListResponse{
		Items:    items,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}

// ReadyToReview handles PUT /api/v1/merchants/:id/ready.
func (h *MerchantHandler) ReadyToReview(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	merchant, err := h.regSvc.ReadyToReview(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromMerchant(merchant))
}

// BulkApprove handles PUT /api/v1/registration/bulk-approve.
func (h *MerchantHandler) BulkApprove(c *gin.Context) {
	h.bulkTransition(c, domain.TransitionApprove)
}

// BulkReject handles PUT /api/v1/registration/bulk-reject.
func (h *MerchantHandler) BulkReject(c *gin.Context) {
	h.bulkTransition(c, domain.TransitionReject)
}

// BulkRevert handles PUT /api/v1/registration/bulk-revert.
func (h *MerchantHandler) BulkRevert(c *gin.Context) {
	h.bulkTransition(c, domain.TransitionRevert)
}

func (h *MerchantHandler) bulkTransition(c *gin.Context, kind domain.TransitionKind) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.BulkTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if err := h.regSvc.BulkTransition(c.Request.Context(), actor, req.IDs, kind, req.Reason); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"message": "transition applied", "ids": req.IDs})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ErrMalformedIDList("id must be a positive integer")
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil || v < 1 {
		return def
	}
	return v
}
