package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"dnsapply/internal/database"
	"dnsapply/internal/model"
	"dnsapply/internal/workflow"
)

// SetupHandler bootstraps the first local DNS team account. It only
// answers while the user table is empty.
type SetupHandler struct {
	db *database.DB
}

func NewSetupHandler(db *database.DB) *SetupHandler {
	return &SetupHandler{db: db}
}

func (h *SetupHandler) Setup(w http.ResponseWriter, r *http.Request) {
	hasUsers, _ := h.db.HasUsers()
	if hasUsers {
		http.NotFound(w, r)
		return
	}

	var body struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", workflow.ErrValidation))
		return
	}

	if body.Username == "" {
		writeError(w, fmt.Errorf("%w: username is required", workflow.ErrValidation))
		return
	}
	if len(body.Password) < 6 {
		writeError(w, fmt.Errorf("%w: password must be at least 6 characters", workflow.ErrValidation))
		return
	}

	if err := h.db.CreateUser(body.Username, body.Name, body.Email, body.Password, model.RoleDnsTa); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, map[string]string{"username": body.Username})
}
