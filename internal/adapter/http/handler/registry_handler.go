package handler

import (
	"merchant-acquirer/internal/adapter/http/dto"
	"merchant-acquirer/internal/adapter/http/middleware"
	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/core/ports"
	"merchant-acquirer/pkg/apperror"
	"merchant-acquirer/pkg/response"

	"github.com/gin-gonic/gin"
)

// RegistryHandler handles hub-side commands to the alias registry.
type RegistryHandler struct {
	regSvc ports.RegistrationService
}

// NewRegistryHandler creates a new registry handler.
func NewRegistryHandler(regSvc ports.RegistrationService) *RegistryHandler {
	return &RegistryHandler{regSvc: regSvc}
}

// RegisterEndpoint handles POST /api/v1/registry/endpoints. Hub users only.
func (h *RegistryHandler) RegisterEndpoint(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.RegisterEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	err := h.regSvc.RegisterDFSPEndpoint(c.Request.Context(), actor, domain.EndpointRegistration{
		DFSPID:      req.DFSPID,
		DFSPName:    req.DFSPName,
		EndpointURL: req.EndpointURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"message": "endpoint registration submitted"})
}
