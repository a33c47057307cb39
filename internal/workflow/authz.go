package workflow

import "dnsapply/internal/model"

// Decision is the outcome of an authorization check. Unauthenticated is
// resolved before any role or ownership rule, and authorization always
// runs before status preconditions.
type Decision int

const (
	Allowed Decision = iota
	Forbidden
	Unauthenticated
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Forbidden:
		return "forbidden"
	case Unauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// authzRule decides whether actor may request a transition on app. The
// whole role/ownership matrix lives in the rules table below rather than
// in per-endpoint conditionals.
type authzRule func(actor *model.User, app *model.Application) bool

var rules = map[Transition]authzRule{
	// Anyone authenticated may file an application; the submitter's role
	// only decides the auto-transition applied afterwards.
	TransitionSubmit: func(actor *model.User, app *model.Application) bool {
		return true
	},
	// Only the assigned approver may approve.
	TransitionApprove: func(actor *model.User, app *model.Application) bool {
		return actor.ID == app.ApproverID
	},
	// Acceptance is a DNS team action.
	TransitionAccept: func(actor *model.User, app *model.Application) bool {
		return actor.Role == model.RoleDnsTa
	},
	// The assigned approver or the DNS team may reject.
	TransitionReject: func(actor *model.User, app *model.Application) bool {
		return actor.ID == app.ApproverID || actor.Role == model.RoleDnsTa
	},
	// Only the applicant may withdraw their own request.
	TransitionRevoke: func(actor *model.User, app *model.Application) bool {
		return actor.ID == app.ApplicantID
	},
	// Execution is a DNS team action.
	TransitionComplete: func(actor *model.User, app *model.Application) bool {
		return actor.Role == model.RoleDnsTa
	},
}

// Authorize resolves the decision for (actor, app, transition). A nil
// actor is always Unauthenticated; an unknown transition is Forbidden.
func Authorize(actor *model.User, app *model.Application, t Transition) Decision {
	if actor == nil {
		return Unauthenticated
	}
	rule, ok := rules[t]
	if !ok || !rule(actor, app) {
		return Forbidden
	}
	return Allowed
}

// CanViewApplication reports whether actor may read a single application.
// The DNS team sees everything; an applicant sees only their own.
func CanViewApplication(actor *model.User, app *model.Application) bool {
	if actor == nil {
		return false
	}
	return actor.Role == model.RoleDnsTa || actor.ID == app.ApplicantID
}

// CanListApplications reports whether actor may list the whole
// application collection. Approvers have no listing capability.
func CanListApplications(actor *model.User) bool {
	return actor != nil && actor.Role == model.RoleDnsTa
}

// CanListUserApplications reports whether actor may list the applications
// filed by userID.
func CanListUserApplications(actor *model.User, userID string) bool {
	if actor == nil {
		return false
	}
	return actor.Role == model.RoleDnsTa || actor.ID.String() == userID
}

// CanViewRecords reports whether actor may read materialized records.
func CanViewRecords(actor *model.User) bool {
	return actor != nil && actor.Role == model.RoleDnsTa
}
