package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dnsapply/internal/model"
)

func TestTransitionGraph(t *testing.T) {
	assert.Equal(t, model.StatusApproved, TargetStatus(TransitionApprove))
	assert.Equal(t, model.StatusAccepted, TargetStatus(TransitionAccept))
	assert.Equal(t, model.StatusRejected, TargetStatus(TransitionReject))
	assert.Equal(t, model.StatusRevoked, TargetStatus(TransitionRevoke))
	assert.Equal(t, model.StatusCompleted, TargetStatus(TransitionComplete))

	assert.Equal(t, []model.ApplicationStatus{model.StatusPending}, SourceStatuses(TransitionApprove))
	assert.Equal(t, []model.ApplicationStatus{model.StatusApproved}, SourceStatuses(TransitionAccept))
	assert.Equal(t, []model.ApplicationStatus{model.StatusPending, model.StatusApproved}, SourceStatuses(TransitionReject))
	assert.Equal(t, []model.ApplicationStatus{model.StatusPending, model.StatusApproved}, SourceStatuses(TransitionRevoke))
	assert.Equal(t, []model.ApplicationStatus{model.StatusAccepted}, SourceStatuses(TransitionComplete))
}

func TestCanTransition(t *testing.T) {
	all := []model.ApplicationStatus{
		model.StatusPending, model.StatusApproved, model.StatusAccepted,
		model.StatusRejected, model.StatusRevoked, model.StatusCompleted,
	}

	legal := map[Transition]map[model.ApplicationStatus]bool{
		TransitionApprove:  {model.StatusPending: true},
		TransitionAccept:   {model.StatusApproved: true},
		TransitionReject:   {model.StatusPending: true, model.StatusApproved: true},
		TransitionRevoke:   {model.StatusPending: true, model.StatusApproved: true},
		TransitionComplete: {model.StatusAccepted: true},
	}

	for transition, sources := range legal {
		for _, status := range all {
			assert.Equal(t, sources[status], CanTransition(status, transition),
				"%s from %s", transition, status)
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	terminal := []model.ApplicationStatus{
		model.StatusRejected, model.StatusRevoked, model.StatusCompleted,
	}
	for _, status := range terminal {
		for transition := range transitions {
			assert.False(t, CanTransition(status, transition),
				"%s must not leave terminal status %s", transition, status)
		}
	}
}
