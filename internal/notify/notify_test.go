package notify

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnsapply/internal/model"
)

const alias = "dnsta@example.edu"

func sampleEvent(from, to model.ApplicationStatus, actorRole model.Role) Event {
	applicant := &model.User{ID: uuid.New(), Name: "Alice", Email: "alice@example.edu", Role: model.RoleApplicant}
	approver := &model.User{ID: uuid.New(), Name: "Prof. Chen", Email: "chen@example.edu", Role: model.RoleApprover}
	return Event{
		Application: &model.Application{
			ID:          uuid.New(),
			ApplicantID: applicant.ID,
			ApproverID:  approver.ID,
			Action:      model.ActionAdd,
			RecordName:  "www.cs.example.edu",
			RecordType:  model.TypeA,
			RecordData:  "192.0.2.10",
			OfficeRoom:  "EC318",
			OfficeExt:   "54707",
			Status:      to,
		},
		From:      from,
		To:        to,
		ActorRole: actorRole,
		Applicant: applicant,
		Approver:  approver,
	}
}

func TestMessagesRecipientMatrix(t *testing.T) {
	tests := []struct {
		name     string
		ev       Event
		wantKind Kind
		wantTo   string
		wantCc   []string
	}{
		{
			name:     "applicant submit notifies approver",
			ev:       sampleEvent("", model.StatusPending, model.RoleApplicant),
			wantKind: KindApproverAfterSubmit,
			wantTo:   "chen@example.edu",
			wantCc:   []string{"alice@example.edu"},
		},
		{
			name:     "approver submit notifies dnsta alias",
			ev:       sampleEvent("", model.StatusApproved, model.RoleApprover),
			wantKind: KindDnsTaAfterApproverSubmit,
			wantTo:   alias,
			wantCc:   nil,
		},
		{
			name:     "accept notifies applicant with approver and alias in cc",
			ev:       sampleEvent(model.StatusApproved, model.StatusAccepted, model.RoleDnsTa),
			wantKind: KindApplicantAfterAccept,
			wantTo:   "alice@example.edu",
			wantCc:   []string{"chen@example.edu", alias},
		},
		{
			name:     "reject by approver carbon-copies the alias",
			ev:       sampleEvent(model.StatusPending, model.StatusRejected, model.RoleApprover),
			wantKind: KindRejectedByApprover,
			wantTo:   "alice@example.edu",
			wantCc:   []string{"chen@example.edu", alias},
		},
		{
			name:     "reject by dnsta omits the alias",
			ev:       sampleEvent(model.StatusApproved, model.StatusRejected, model.RoleDnsTa),
			wantKind: KindRejectedByDnsTa,
			wantTo:   "alice@example.edu",
			wantCc:   []string{"chen@example.edu"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msgs := Messages(tc.ev, alias)
			require.Len(t, msgs, 1)
			assert.Equal(t, tc.wantKind, msgs[0].Kind)
			assert.Equal(t, tc.wantTo, msgs[0].To)
			assert.Equal(t, tc.wantCc, msgs[0].Cc)
			assert.NotEmpty(t, msgs[0].Subject)
			assert.Contains(t, msgs[0].Body, "www.cs.example.edu")
		})
	}
}

func TestMessagesApproveProducesTwo(t *testing.T) {
	ev := sampleEvent(model.StatusPending, model.StatusApproved, model.RoleApprover)
	msgs := Messages(ev, alias)
	require.Len(t, msgs, 2)

	assert.Equal(t, KindDnsTaAfterApprove, msgs[0].Kind)
	assert.Equal(t, alias, msgs[0].To)
	assert.Empty(t, msgs[0].Cc)

	assert.Equal(t, KindApplicantAfterApprove, msgs[1].Kind)
	assert.Equal(t, "alice@example.edu", msgs[1].To)
	assert.Equal(t, []string{"chen@example.edu"}, msgs[1].Cc)
}

func TestMessagesSilentTransitions(t *testing.T) {
	silent := []Event{
		sampleEvent(model.StatusPending, model.StatusRevoked, model.RoleApplicant),
		sampleEvent(model.StatusApproved, model.StatusRevoked, model.RoleApplicant),
		sampleEvent(model.StatusAccepted, model.StatusCompleted, model.RoleDnsTa),
	}
	for _, ev := range silent {
		assert.Empty(t, Messages(ev, alias), "%s -> %s", ev.From, ev.To)
	}
}

func TestMessagesRemarkInBody(t *testing.T) {
	ev := sampleEvent(model.StatusPending, model.StatusRejected, model.RoleApprover)
	ev.Remark = "Record already delegated elsewhere"

	msgs := Messages(ev, alias)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Body, "Record already delegated elsewhere")
	assert.Contains(t, msgs[0].Body, "Prof. Chen")
}

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (s *recordingSender) Send(m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, m)
	return nil
}

func TestDispatcherDeliversAsynchronously(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, alias, 8)

	d.Dispatch(sampleEvent("", model.StatusPending, model.RoleApplicant))
	d.Dispatch(sampleEvent(model.StatusPending, model.StatusApproved, model.RoleApprover))
	d.Close()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.sent, 3)
	assert.Equal(t, KindApproverAfterSubmit, sender.sent[0].Kind)
	assert.Equal(t, KindDnsTaAfterApprove, sender.sent[1].Kind)
	assert.Equal(t, KindApplicantAfterApprove, sender.sent[2].Kind)
}

func TestDispatcherSurvivesSenderFailure(t *testing.T) {
	sender := &recordingSender{err: fmt.Errorf("smtp unreachable")}
	d := NewDispatcher(sender, alias, 8)

	d.Dispatch(sampleEvent("", model.StatusPending, model.RoleApplicant))
	d.Close()
	// Delivery failure must not panic or block shutdown.
}
