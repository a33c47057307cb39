package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"dnsapply/internal/workflow"
)

type meta struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("handler: encode response: %v", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"data": data})
}

func writePage(w http.ResponseWriter, data any, m meta) {
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "meta": m})
}

// writeError maps workflow errors onto HTTP statuses. A status-mismatch
// transition is a plain 400, matching precondition semantics.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workflow.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, workflow.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, workflow.ErrPreconditionFailed):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrValidation):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		log.Printf("handler: internal error: %v", err)
		writeJSON(w, status, map[string]any{"error": "internal server error"})
		return
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func pageParams(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
