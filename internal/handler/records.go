package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"dnsapply/internal/auth"
	"dnsapply/internal/database"
	"dnsapply/internal/model"
	"dnsapply/internal/workflow"
)

// RecordHandler exposes materialized DNS records, visible to the DNS
// team only.
type RecordHandler struct {
	db         *database.DB
	sessionMgr *auth.SessionManager
}

func NewRecordHandler(db *database.DB, sm *auth.SessionManager) *RecordHandler {
	return &RecordHandler{db: db, sessionMgr: sm}
}

type recordJSON struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Data          string    `json:"data"`
	Status        string    `json:"status"`
	ApplicationID string    `json:"application_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func toRecordJSON(rec *model.Record) recordJSON {
	return recordJSON{
		ID:            rec.ID.String(),
		Name:          rec.Name,
		Type:          string(rec.Type),
		Data:          rec.Data,
		Status:        string(rec.Status),
		ApplicationID: rec.ApplicationID.String(),
		CreatedAt:     rec.CreatedAt,
	}
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := h.sessionMgr.CurrentUser(r)
	if actor == nil {
		writeError(w, workflow.ErrUnauthenticated)
		return
	}
	if !workflow.CanViewRecords(actor) {
		writeError(w, workflow.ErrForbidden)
		return
	}

	page, perPage := pageParams(r)
	status := model.RecordStatus(r.URL.Query().Get("status"))

	records, total, err := h.db.ListRecords(r.Context(), status, perPage, (page-1)*perPage)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]recordJSON, 0, len(records))
	for i := range records {
		out = append(out, toRecordJSON(&records[i]))
	}
	writePage(w, out, meta{Total: total, Page: page, PerPage: perPage})
}

func (h *RecordHandler) Show(w http.ResponseWriter, r *http.Request) {
	actor := h.sessionMgr.CurrentUser(r)
	if actor == nil {
		writeError(w, workflow.ErrUnauthenticated)
		return
	}
	if !workflow.CanViewRecords(actor) {
		writeError(w, workflow.ErrForbidden)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, workflow.ErrNotFound)
		return
	}
	rec, err := h.db.GetRecord(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if rec == nil {
		writeError(w, workflow.ErrNotFound)
		return
	}
	writeData(w, http.StatusOK, toRecordJSON(rec))
}
