package notify

import (
	"log"
	"sync"

	"dnsapply/internal/model"
)

// Kind identifies a mail template. One kind exists per notification the
// lifecycle can produce.
type Kind string

const (
	KindApproverAfterSubmit      Kind = "approver_after_submit"
	KindDnsTaAfterApproverSubmit Kind = "dnsta_after_approver_submit"
	KindDnsTaAfterApprove        Kind = "dnsta_after_approve"
	KindApplicantAfterApprove    Kind = "applicant_after_approve"
	KindApplicantAfterAccept     Kind = "applicant_after_accept"
	KindRejectedByApprover       Kind = "rejected_by_approver"
	KindRejectedByDnsTa          Kind = "rejected_by_dnsta"
)

// Event describes a completed status transition. From is empty when the
// transition happened as part of the initial submit.
type Event struct {
	Application *model.Application
	From        model.ApplicationStatus
	To          model.ApplicationStatus
	ActorRole   model.Role
	Remark      string
	Applicant   *model.User
	Approver    *model.User
}

// Message is a single queued notification.
type Message struct {
	Kind    Kind
	To      string
	Cc      []string
	Subject string
	Body    string
}

// Sender delivers a message. Delivery failures never propagate back into
// the transition that triggered the message.
type Sender interface {
	Send(m Message) error
}

// Dispatcher turns transition events into queued messages and delivers
// them on a background worker. Dispatch never blocks the caller.
type Dispatcher struct {
	dnstaAlias string
	queue      chan Message
	sender     Sender
	wg         sync.WaitGroup
}

func NewDispatcher(sender Sender, dnstaAlias string, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		dnstaAlias: dnstaAlias,
		queue:      make(chan Message, queueSize),
		sender:     sender,
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for m := range d.queue {
		if err := d.sender.Send(m); err != nil {
			log.Printf("notify: failed to send %s to %s: %v", m.Kind, m.To, err)
		}
	}
}

// Dispatch queues the messages for ev. If the queue is full the message
// is dropped with a log line rather than stalling the transition.
func (d *Dispatcher) Dispatch(ev Event) {
	for _, m := range Messages(ev, d.dnstaAlias) {
		select {
		case d.queue <- m:
		default:
			log.Printf("notify: queue full, dropping %s to %s", m.Kind, m.To)
		}
	}
}

// Close drains the queue and stops the worker.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}

// Messages computes the exact message set for a transition event. The
// recipient matrix is an invariant of the lifecycle, not a default:
//
//	submit by applicant  -> approver (cc applicant)
//	submit by approver   -> dnsta alias
//	submit by dnsta      -> none (implicit completion)
//	approve              -> dnsta alias; applicant (cc approver)
//	accept               -> applicant (cc approver, dnsta alias)
//	reject by approver   -> applicant (cc approver, dnsta alias)
//	reject by dnsta      -> applicant (cc approver); no self-cc
//	revoke, complete     -> none
func Messages(ev Event, dnstaAlias string) []Message {
	switch {
	case ev.From == "" && ev.To == model.StatusPending:
		return []Message{render(KindApproverAfterSubmit, ev.Approver.Email, []string{ev.Applicant.Email}, ev)}

	case ev.From == "" && ev.To == model.StatusApproved:
		return []Message{render(KindDnsTaAfterApproverSubmit, dnstaAlias, nil, ev)}

	case ev.From == model.StatusPending && ev.To == model.StatusApproved:
		return []Message{
			render(KindDnsTaAfterApprove, dnstaAlias, nil, ev),
			render(KindApplicantAfterApprove, ev.Applicant.Email, []string{ev.Approver.Email}, ev),
		}

	case ev.To == model.StatusAccepted:
		return []Message{render(KindApplicantAfterAccept, ev.Applicant.Email, []string{ev.Approver.Email, dnstaAlias}, ev)}

	case ev.To == model.StatusRejected:
		if ev.ActorRole == model.RoleDnsTa {
			return []Message{render(KindRejectedByDnsTa, ev.Applicant.Email, []string{ev.Approver.Email}, ev)}
		}
		return []Message{render(KindRejectedByApprover, ev.Applicant.Email, []string{ev.Approver.Email, dnstaAlias}, ev)}
	}
	return nil
}
