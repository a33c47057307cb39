package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"dnsapply/internal/model"
	"dnsapply/internal/notify"
)

// PublishFunc pushes a newly activated record to the DNS zone backend.
// It runs inside the completing transaction: a publish failure aborts
// the whole transition.
type PublishFunc func(ctx context.Context, rec *model.Record) error

// ApplicationStore is the persistence contract the state machine runs
// against. Transition and Complete perform conditional writes: they
// return false without mutating anything when the application is no
// longer in one of the expected source statuses, which serializes
// concurrent transitions against the same row.
type ApplicationStore interface {
	Create(ctx context.Context, app *model.Application) error
	CreateCompleted(ctx context.Context, app *model.Application, rec *model.Record, publish PublishFunc) error
	Get(ctx context.Context, id uuid.UUID) (*model.Application, error)
	List(ctx context.Context, f ApplicationFilter) ([]model.Application, int, error)
	Transition(ctx context.Context, id uuid.UUID, from []model.ApplicationStatus, to model.ApplicationStatus, remark string) (bool, error)
	Complete(ctx context.Context, id uuid.UUID, rec *model.Record, publish PublishFunc) (bool, error)
}

type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Notifier consumes transition events. Dispatch must not block and its
// failures are invisible to the transition.
type Notifier interface {
	Dispatch(ev notify.Event)
}

type ApplicationFilter struct {
	ApplicantID *uuid.UUID
	Status      model.ApplicationStatus
	Page        int
	PerPage     int
}

type SubmitRequest struct {
	Action     model.ApplicationAction
	RecordName string
	RecordType model.RecordType
	RecordData string
	OfficeRoom string
	OfficeExt  string
	Remark     string
	ApproverID uuid.UUID
}

// Service owns the application lifecycle: it gates every transition
// through the authorization rules, enforces the status graph via
// conditional store writes, materializes records on completion and
// emits notification events.
type Service struct {
	apps     ApplicationStore
	users    UserStore
	notifier Notifier
	publish  PublishFunc
}

func NewService(apps ApplicationStore, users UserStore, notifier Notifier, publish PublishFunc) *Service {
	return &Service{apps: apps, users: users, notifier: notifier, publish: publish}
}

// Submit files a new application. The submitter's role decides the
// status the application lands in:
//
//	dnsta     -> completed immediately, record created and activated
//	approver  -> approved (no separate approval step)
//	applicant -> pending, assigned approver is notified
func (s *Service) Submit(ctx context.Context, actor *model.User, req SubmitRequest) (*model.Application, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	approver, err := s.users.GetUser(ctx, req.ApproverID)
	if err != nil {
		return nil, fmt.Errorf("load approver: %w", err)
	}
	if approver == nil {
		return nil, fmt.Errorf("%w: approver does not exist", ErrValidation)
	}
	if approver.Role == model.RoleApplicant {
		return nil, fmt.Errorf("%w: assigned approver cannot approve applications", ErrValidation)
	}

	app := &model.Application{
		ID:          uuid.New(),
		ApplicantID: actor.ID,
		ApproverID:  approver.ID,
		Action:      req.Action,
		RecordName:  req.RecordName,
		RecordType:  req.RecordType,
		RecordData:  req.RecordData,
		OfficeRoom:  req.OfficeRoom,
		OfficeExt:   req.OfficeExt,
		Remark:      req.Remark,
		Status:      model.StatusPending,
	}

	switch actor.Role {
	case model.RoleDnsTa:
		// Implicit completion: no approval, acceptance or notification.
		app.Status = model.StatusCompleted
		rec := s.derivedRecord(app)
		if err := s.apps.CreateCompleted(ctx, app, rec, s.publish); err != nil {
			return nil, fmt.Errorf("create completed application: %w", err)
		}
		return app, nil

	case model.RoleApprover:
		app.Status = model.StatusApproved
		if err := s.apps.Create(ctx, app); err != nil {
			return nil, fmt.Errorf("create application: %w", err)
		}
		s.dispatch(notify.Event{
			Application: app,
			To:          model.StatusApproved,
			ActorRole:   actor.Role,
			Applicant:   actor,
			Approver:    approver,
		})
		return app, nil

	default:
		if err := s.apps.Create(ctx, app); err != nil {
			return nil, fmt.Errorf("create application: %w", err)
		}
		s.dispatch(notify.Event{
			Application: app,
			To:          model.StatusPending,
			ActorRole:   actor.Role,
			Applicant:   actor,
			Approver:    approver,
		})
		return app, nil
	}
}

// Approve moves a pending application to approved. Only the assigned
// approver may do this.
func (s *Service) Approve(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Application, error) {
	return s.transition(ctx, actor, id, TransitionApprove, "")
}

// Accept moves an approved application to accepted (DNS team only).
func (s *Service) Accept(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Application, error) {
	return s.transition(ctx, actor, id, TransitionAccept, "")
}

// Reject moves a pending or approved application to rejected. The
// remark is embedded verbatim into the notification body.
func (s *Service) Reject(ctx context.Context, actor *model.User, id uuid.UUID, remark string) (*model.Application, error) {
	return s.transition(ctx, actor, id, TransitionReject, remark)
}

// Revoke lets the applicant withdraw their own pending or approved
// application. No notification is sent.
func (s *Service) Revoke(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Application, error) {
	return s.transition(ctx, actor, id, TransitionRevoke, "")
}

// Complete executes an accepted application (DNS team only). For ADD
// the derived record is created and activated in the same transaction
// as the status change; if the record cannot be created the transition
// is not committed.
func (s *Service) Complete(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Application, error) {
	app, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	switch Authorize(actor, app, TransitionComplete) {
	case Unauthenticated:
		return nil, ErrUnauthenticated
	case Forbidden:
		return nil, ErrForbidden
	}

	var rec *model.Record
	if app.Action == model.ActionAdd {
		rec = s.derivedRecord(app)
	}

	ok, err := s.apps.Complete(ctx, id, rec, s.publish)
	if err != nil {
		return nil, fmt.Errorf("complete application: %w", err)
	}
	if !ok {
		return nil, ErrPreconditionFailed
	}

	app.Status = model.StatusCompleted
	if rec != nil {
		app.RecordID = &rec.ID
	}
	return app, nil
}

// Get returns a single application, subject to visibility: the DNS team
// sees everything, an applicant only their own.
func (s *Service) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Application, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}
	if app == nil {
		return nil, ErrNotFound
	}
	if !CanViewApplication(actor, app) {
		return nil, ErrForbidden
	}
	return app, nil
}

// List returns the whole application collection (DNS team only).
func (s *Service) List(ctx context.Context, actor *model.User, f ApplicationFilter) ([]model.Application, int, error) {
	if actor == nil {
		return nil, 0, ErrUnauthenticated
	}
	if !CanListApplications(actor) {
		return nil, 0, ErrForbidden
	}
	apps, total, err := s.apps.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	return apps, total, nil
}

// ListByUser returns the applications filed by userID, visible to that
// user and to the DNS team.
func (s *Service) ListByUser(ctx context.Context, actor *model.User, userID uuid.UUID, f ApplicationFilter) ([]model.Application, int, error) {
	if actor == nil {
		return nil, 0, ErrUnauthenticated
	}
	if !CanListUserApplications(actor, userID.String()) {
		return nil, 0, ErrForbidden
	}
	f.ApplicantID = &userID
	apps, total, err := s.apps.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	return apps, total, nil
}

func (s *Service) transition(ctx context.Context, actor *model.User, id uuid.UUID, t Transition, remark string) (*model.Application, error) {
	app, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	switch Authorize(actor, app, t) {
	case Unauthenticated:
		return nil, ErrUnauthenticated
	case Forbidden:
		return nil, ErrForbidden
	}

	from := app.Status
	ok, err := s.apps.Transition(ctx, id, SourceStatuses(t), TargetStatus(t), remark)
	if err != nil {
		return nil, fmt.Errorf("%s application: %w", t, err)
	}
	if !ok {
		return nil, ErrPreconditionFailed
	}

	app.Status = TargetStatus(t)
	if remark != "" {
		app.Remark = remark
	}

	if ev, ok := s.event(ctx, actor, app, from, remark); ok {
		s.dispatch(ev)
	}
	return app, nil
}

// load resolves the actor before the application so an unauthenticated
// caller never learns whether an id exists.
func (s *Service) load(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Application, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}
	if app == nil {
		return nil, ErrNotFound
	}
	return app, nil
}

func (s *Service) event(ctx context.Context, actor *model.User, app *model.Application, from model.ApplicationStatus, remark string) (notify.Event, bool) {
	applicant, err := s.users.GetUser(ctx, app.ApplicantID)
	if err != nil || applicant == nil {
		return notify.Event{}, false
	}
	approver, err := s.users.GetUser(ctx, app.ApproverID)
	if err != nil || approver == nil {
		return notify.Event{}, false
	}
	return notify.Event{
		Application: app,
		From:        from,
		To:          app.Status,
		ActorRole:   actor.Role,
		Remark:      remark,
		Applicant:   applicant,
		Approver:    approver,
	}, true
}

func (s *Service) dispatch(ev notify.Event) {
	if s.notifier != nil {
		s.notifier.Dispatch(ev)
	}
}

func (s *Service) derivedRecord(app *model.Application) *model.Record {
	rec := &model.Record{
		ID:            uuid.New(),
		Name:          app.RecordName,
		Type:          app.RecordType,
		Data:          app.RecordData,
		Status:        model.RecordActive,
		ApplicationID: app.ID,
	}
	app.RecordID = &rec.ID
	return rec
}
