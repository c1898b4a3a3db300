package handler

import (
	"strconv"

	"merchant-acquirer/internal/adapter/http/dto"
	"merchant-acquirer/internal/core/ports"
	"merchant-acquirer/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuditHandler exposes the audit trail to portal operators.
type AuditHandler struct {
	auditSvc ports.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(auditSvc ports.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// List handles GET /api/v1/audits.
func (h *AuditHandler) List(c *gin.Context) {
	params := ports.AuditListParams{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if raw := c.Query("actor_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			params.ActorID = &id
		}
	}
	if m := c.Query("module"); m != "" {
		params.Module = &m
	}

	entries, err := h.auditSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.FromAuditLog(&entries[i]))
	}

	response.OK(c, dto.AuditListResponse{
		Items:    items,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}
