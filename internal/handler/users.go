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
	"dnsapply/internal/workflow"
)

type UserHandler struct {
	svc        *workflow.Service
	sessionMgr *auth.SessionManager
	db         *database.DB
}

func NewUserHandler(svc *workflow.Service, sm *auth.SessionManager, db *database.DB) *UserHandler {
	return &UserHandler{svc: svc, sessionMgr: sm, db: db}
}

type userJSON struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	OfficeRoom     string     `json:"office_room"`
	OfficeExt      string     `json:"office_ext"`
	LastLoggedInAt *time.Time `json:"last_logged_in_at,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// toUserJSON renders the public view of a user. Timestamps are exposed
// to the DNS team only.
func toUserJSON(u *model.User, full bool) userJSON {
	out := userJSON{
		ID:         u.ID.String(),
		Username:   u.Username,
		Name:       u.Name,
		Email:      u.Email,
		Role:       string(u.Role),
		OfficeRoom: u.OfficeRoom,
		OfficeExt:  u.OfficeExt,
	}
	if full {
		out.LastLoggedInAt = u.LastLoggedInAt
		out.CreatedAt = &u.CreatedAt
		out.UpdatedAt = &u.UpdatedAt
	}
	return out
}

// ListApprovers returns the approver directory for the submit form.
func (h *UserHandler) ListApprovers(w http.ResponseWriter, r *http.Request) {
	actor := h.sessionMgr.CurrentUser(r)
	if actor == nil {
		writeError(w, workflow.ErrUnauthenticated)
		return
	}

	approvers, err := h.db.ListApprovers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	full := actor.Role == model.RoleDnsTa
	out := make([]userJSON, 0, len(approvers))
	for i := range approvers {
		out = append(out, toUserJSON(&approvers[i], full))
	}
	writeData(w, http.StatusOK, out)
}

// Update lets a user change their own office contact fields.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := h.sessionMgr.CurrentUser(r)
	if actor == nil {
		writeError(w, workflow.ErrUnauthenticated)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, workflow.ErrNotFound)
		return
	}
	if actor.ID != id {
		writeError(w, workflow.ErrForbidden)
		return
	}

	var body struct {
		OfficeRoom string `json:"office_room"`
		OfficeExt  string `json:"office_ext"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", workflow.ErrValidation))
		return
	}

	user, err := h.db.UpdateUserProfile(r.Context(), id, body.OfficeRoom, body.OfficeExt)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, workflow.ErrNotFound)
		return
	}
	writeData(w, http.StatusOK, toUserJSON(user, false))
}

// ListApplications returns the applications filed by a user, visible to
// that user and the DNS team.
func (h *UserHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	actor := h.sessionMgr.CurrentUser(r)
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, workflow.ErrNotFound)
		return
	}

	page, perPage := pageParams(r)
	apps, total, err := h.svc.ListByUser(r.Context(), actor, userID, workflow.ApplicationFilter{
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writePage(w, toApplicationList(apps), meta{Total: total, Page: page, PerPage: perPage})
}
