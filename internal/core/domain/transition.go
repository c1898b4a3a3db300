package domain

// TransitionKind identifies a requested registration transition.
type TransitionKind string

const (
	TransitionReadyToReview TransitionKind = "ReadyToReview"
	TransitionApprove       TransitionKind = "Approve"
	TransitionReject        TransitionKind = "Reject"
	TransitionRevert        TransitionKind = "Revert"
)

// Target returns the status a successful transition of this kind lands on.
func (k TransitionKind) Target() RegistrationStatus {
	switch k {
	case TransitionReadyToReview:
		return StatusReview
	case TransitionApprove:
		return StatusWaitingAliasGeneration
	case TransitionReject:
		return StatusRejected
	case TransitionRevert:
		return StatusReverted
	}
	return ""
}

// Verb returns the past-tense verb used in checker-side error messages.
func (k TransitionKind) Verb() string {
	switch k {
	case TransitionApprove:
		return "approved"
	case TransitionReject:
		return "rejected"
	case TransitionRevert:
		return "reverted"
	}
	return "submitted"
}

// RequiresReason reports whether the transition must carry a non-empty reason.
func (k TransitionKind) RequiresReason() bool {
	return k == TransitionReject || k == TransitionRevert
}

// CheckerSide reports whether the transition is performed by a checker, which
// enforces maker-checker separation.
func (k TransitionKind) CheckerSide() bool {
	return k == TransitionApprove || k == TransitionReject || k == TransitionRevert
}
