package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"dnsapply/internal/auth"
	"dnsapply/internal/database"
	"dnsapply/internal/model"
	"dnsapply/internal/util"
	"dnsapply/internal/workflow"
)

type ApplicationHandler struct {
	svc        *workflow.Service
	sessionMgr *auth.SessionManager
	db         *database.DB
}

func NewApplicationHandler(svc *workflow.Service, sm *auth.SessionManager, db *database.DB) *ApplicationHandler {
	return &ApplicationHandler{svc: svc, sessionMgr: sm, db: db}
}

type applicationJSON struct {
	ID          string    `json:"id"`
	ApplicantID string    `json:"applicant_id"`
	ApproverID  string    `json:"approver_id"`
	Action      string    `json:"action"`
	RecordName  string    `json:"record_name"`
	RecordType  string    `json:"record_type"`
	RecordData  string    `json:"record_data"`
	OfficeRoom  string    `json:"office_room"`
	OfficeExt   string    `json:"office_ext"`
	Remark      string    `json:"remark,omitempty"`
	Status      string    `json:"status"`
	RecordID    *string   `json:"record_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toApplicationJSON(a *model.Application) applicationJSON {
	out := applicationJSON{
		ID:          a.ID.String(),
		ApplicantID: a.ApplicantID.String(),
		ApproverID:  a.ApproverID.String(),
		Action:      string(a.Action),
		RecordName:  a.RecordName,
		RecordType:  string(a.RecordType),
		RecordData:  a.RecordData,
		OfficeRoom:  a.OfficeRoom,
		OfficeExt:   a.OfficeExt,
		Remark:      a.Remark,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.RecordID != nil {
		id := a.RecordID.String()
		out.RecordID = &id
	}
	return out
}

func toApplicationList(apps []model.Application) []applicationJSON {
	out := make([]applicationJSON, 0, len(apps))
	for i := range apps {
		out = append(out, toApplicationJSON(&apps[i]))
	}
	return out
}

type submitRequest struct {
	Action     string `json:"action"`
	RecordName string `json:"record_name"`
	RecordType string `json:"record_type"`
	RecordData string `json:"record_data"`
	OfficeRoom string `json:"office_room"`
	OfficeExt  string `json:"office_ext"`
	Remark     string `json:"remark"`
	ApproverID string `json:"approver_id"`
}

func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor := h.sessionMgr.CurrentUser(r)

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", workflow.ErrValidation))
		return
	}
	approverID, err := uuid.Parse(req.ApproverID)
	if err != nil {
		writeError(w, fmt.Errorf("%w: approver_id must be a uuid", workflow.ErrValidation))
		return
	}

	app, err := h.svc.Submit(r.Context(), actor, workflow.SubmitRequest{
		Action:     model.ApplicationAction(req.Action),
		RecordName: req.RecordName,
		RecordType: model.RecordType(req.RecordType),
		RecordData: req.RecordData,
		OfficeRoom: req.OfficeRoom,
		OfficeExt:  req.OfficeExt,
		Remark:     req.Remark,
		ApproverID: approverID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.audit(r, actor, "submit_application", app)
	writeData(w, http.StatusCreated, toApplicationJSON(app))
}

func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := h.sessionMgr.CurrentUser(r)
	page, perPage := pageParams(r)

	f := workflow.ApplicationFilter{
		Status:  model.ApplicationStatus(r.URL.Query().Get("status")),
		Page:    page,
		PerPage: perPage,
	}
	apps, total, err := h.svc.List(r.Context(), actor, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writePage(w, toApplicationList(apps), meta{Total: total, Page: page, PerPage: perPage})
}

func (h *ApplicationHandler) Show(w http.ResponseWriter, r *http.Request) {
	actor := h.sessionMgr.CurrentUser(r)
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, workflow.ErrNotFound)
		return
	}
	app, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toApplicationJSON(app))
}

func (h *ApplicationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "approve_application", func(actor *model.User, id uuid.UUID) (*model.Application, error) {
		return h.svc.Approve(r.Context(), actor, id)
	})
}

func (h *ApplicationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "accept_application", func(actor *model.User, id uuid.UUID) (*model.Application, error) {
		return h.svc.Accept(r.Context(), actor, id)
	})
}

func (h *ApplicationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Remark string `json:"remark"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	h.transition(w, r, "reject_application", func(actor *model.User, id uuid.UUID) (*model.Application, error) {
		return h.svc.Reject(r.Context(), actor, id, body.Remark)
	})
}

func (h *ApplicationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "revoke_application", func(actor *model.User, id uuid.UUID) (*model.Application, error) {
		return h.svc.Revoke(r.Context(), actor, id)
	})
}

func (h *ApplicationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "complete_application", func(actor *model.User, id uuid.UUID) (*model.Application, error) {
		return h.svc.Complete(r.Context(), actor, id)
	})
}

func (h *ApplicationHandler) transition(w http.ResponseWriter, r *http.Request, action string, op func(*model.User, uuid.UUID) (*model.Application, error)) {
	actor := h.sessionMgr.CurrentUser(r)
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, workflow.ErrNotFound)
		return
	}

	app, err := op(actor, id)
	if err != nil {
		writeError(w, err)
		return
	}

	h.audit(r, actor, action, app)
	writeData(w, http.StatusOK, toApplicationJSON(app))
}

func (h *ApplicationHandler) audit(r *http.Request, actor *model.User, action string, app *model.Application) {
	username := ""
	if actor != nil {
		username = actor.Username
	}
	_ = h.db.LogAudit(model.AuditEntry{
		Username:      username,
		Action:        action,
		ApplicationID: app.ID.String(),
		RecordName:    app.RecordName,
		RecordType:    string(app.RecordType),
		Detail:        fmt.Sprintf("status=%s", app.Status),
		IPAddress:     util.GetClientIP(r),
	})
}
