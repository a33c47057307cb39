package workflow

import "dnsapply/internal/model"

// Transition is one of the operations that may change an application's
// status.
type Transition string

const (
	TransitionSubmit   Transition = "submit"
	TransitionApprove  Transition = "approve"
	TransitionAccept   Transition = "accept"
	TransitionReject   Transition = "reject"
	TransitionRevoke   Transition = "revoke"
	TransitionComplete Transition = "complete"
)

// transitionSpec lists the legal source statuses and the resulting status
// for a transition. The table is the single source of truth for the
// lifecycle graph:
//
//	PENDING -> APPROVED -> ACCEPTED -> COMPLETED
//	PENDING/APPROVED -> REJECTED
//	PENDING/APPROVED -> REVOKED
type transitionSpec struct {
	from []model.ApplicationStatus
	to   model.ApplicationStatus
}

var transitions = map[Transition]transitionSpec{
	TransitionApprove: {
		from: []model.ApplicationStatus{model.StatusPending},
		to:   model.StatusApproved,
	},
	TransitionAccept: {
		from: []model.ApplicationStatus{model.StatusApproved},
		to:   model.StatusAccepted,
	},
	TransitionReject: {
		from: []model.ApplicationStatus{model.StatusPending, model.StatusApproved},
		to:   model.StatusRejected,
	},
	TransitionRevoke: {
		from: []model.ApplicationStatus{model.StatusPending, model.StatusApproved},
		to:   model.StatusRevoked,
	},
	TransitionComplete: {
		from: []model.ApplicationStatus{model.StatusAccepted},
		to:   model.StatusCompleted,
	},
}

// SourceStatuses returns the statuses from which t may legally be applied.
func SourceStatuses(t Transition) []model.ApplicationStatus {
	return transitions[t].from
}

// TargetStatus returns the status t transitions an application into.
func TargetStatus(t Transition) model.ApplicationStatus {
	return transitions[t].to
}

// CanTransition reports whether t is legal from the given status.
func CanTransition(from model.ApplicationStatus, t Transition) bool {
	for _, s := range transitions[t].from {
		if s == from {
			return true
		}
	}
	return false
}
