package service

import (
	"fmt"
	"strings"

	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/core/ports"
	"merchant-acquirer/pkg/apperror"
)

// CheckTransition decides whether the actor may apply the requested transition
// to the merchant. It is a pure predicate: no side effects, identical inputs
// yield identical results.
//
// Checks run in a fixed order so the reported error is deterministic:
//  1. merchant exists
//  2. tenant isolation (skipped for hub users)
//  3. ReadyToReview: actor is the maker, status is Draft
//  4. Approve/Reject/Revert: status is Review
//  5. Approve/Reject/Revert: actor is not the maker
//  6. Reject/Revert: reason is non-empty
//
// merchantID is used for the NotFound message when m is nil.
func CheckTransition(m *domain.Merchant, merchantID int64, actor ports.Actor, kind domain.TransitionKind, reason string) *apperror.AppError {
	if m == nil {
		return apperror.ErrMerchantNotFound(merchantID)
	}

	if !actor.IsHub() {
		if actor.DFSPID == nil || !m.BelongsToDFSP(*actor.DFSPID) {
			return apperror.ErrCrossTenantAccess(m.ID)
		}
	}

	switch kind {
	case domain.TransitionReadyToReview:
		if actor.ID != m.CreatedBy {
			return apperror.ErrWrongActor(m.ID)
		}
		if m.RegistrationStatus != domain.StatusDraft {
			return apperror.ErrNotInDraft(m.ID)
		}

	case domain.TransitionApprove, domain.TransitionReject, domain.TransitionRevert:
		if m.RegistrationStatus != domain.StatusReview {
			return apperror.ErrNotInReview(m.ID)
		}
		if actor.ID == m.CreatedBy {
			return apperror.ErrSameActorConflict(m.ID, kind.Verb())
		}
		if kind.RequiresReason() && strings.TrimSpace(reason) == "" {
			return apperror.ErrReasonRequired()
		}

	default:
		return apperror.Validation(fmt.Sprintf("unknown transition kind %q", kind))
	}

	return nil
}

// ValidateIDs checks the shape of a bulk id list before any merchant is
// loaded: non-empty, positive, no duplicates. A malformed element fails the
// whole call.
func ValidateIDs(ids []int64) *apperror.AppError {
	if len(ids) == 0 {
		return apperror.ErrMalformedIDList("list is empty")
	}
	seen := make(map[int64]struct{}, len(ids))
	for i, id := range ids {
		if id <= 0 {
			return apperror.ErrMalformedIDList(fmt.Sprintf("id at index %d is not a positive integer", i))
		}
		if _, dup := seen[id]; dup {
			return apperror.ErrMalformedIDList(fmt.Sprintf("id %d appears more than once", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}
