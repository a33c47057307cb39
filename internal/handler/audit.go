package handler

import (
	"net/http"
	"time"

	"dnsapply/internal/auth"
	"dnsapply/internal/database"
	"dnsapply/internal/model"
	"dnsapply/internal/workflow"
)

// AuditHandler exposes the audit trail to the DNS team.
type AuditHandler struct {
	db         *database.DB
	sessionMgr *auth.SessionManager
}

func NewAuditHandler(db *database.DB, sm *auth.SessionManager) *AuditHandler {
	return &AuditHandler{db: db, sessionMgr: sm}
}

type auditJSON struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Action        string    `json:"action"`
	ApplicationID string    `json:"application_id,omitempty"`
	RecordName    string    `json:"record_name,omitempty"`
	RecordType    string    `json:"record_type,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	IPAddress     string    `json:"ip_address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := h.sessionMgr.CurrentUser(r)
	if actor == nil {
		writeError(w, workflow.ErrUnauthenticated)
		return
	}
	if actor.Role != model.RoleDnsTa {
		writeError(w, workflow.ErrForbidden)
		return
	}

	page, perPage := pageParams(r)
	entries, total, err := h.db.ListAuditLog(perPage, (page-1)*perPage)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]auditJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditJSON{
			ID:            e.ID,
			Username:      e.Username,
			Action:        e.Action,
			ApplicationID: e.ApplicationID,
			RecordName:    e.RecordName,
			RecordType:    e.RecordType,
			Detail:        e.Detail,
			IPAddress:     e.IPAddress,
			CreatedAt:     e.CreatedAt,
		})
	}
	writePage(w, out, meta{Total: total, Page: page, PerPage: perPage})
}
