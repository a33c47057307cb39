package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"dnsapply/internal/auth"
	"dnsapply/internal/database"
	"dnsapply/internal/model"
	"dnsapply/internal/util"
	"dnsapply/internal/workflow"
)

type AuthHandler struct {
	db         *database.DB
	sessionMgr *auth.SessionManager
	ldap       *auth.LDAPClient
}

func NewAuthHandler(db *database.DB, sm *auth.SessionManager, ldap *auth.LDAPClient) *AuthHandler {
	return &AuthHandler{db: db, sessionMgr: sm, ldap: ldap}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", workflow.ErrValidation))
		return
	}

	var user *model.User
	var authMethod string

	// Try LDAP first (if enabled)
	if h.ldap != nil {
		result, err := h.ldap.Authenticate(body.Username, body.Password)
		if err == nil && result != nil {
			role, allowed := h.ldap.ResolveRole(result.Groups)
			if !allowed {
				// User authenticated but is not in any mapped group
				writeJSON(w, http.StatusForbidden, map[string]any{
					"error": "access denied: you are not in an authorized group",
				})
				return
			}

			// Auto-provision or update user
			_ = h.db.CreateLDAPUser(result.Username, result.Name, result.Email, role)
			user, _ = h.db.GetUserByUsername(result.Username)
			authMethod = "ldap"
		}
	}

	// Local fallback: only for dnsta accounts when LDAP is enabled
	if user == nil {
		u, err := h.db.AuthenticateUser(body.Username, body.Password)
		if err == nil && u != nil {
			if h.ldap != nil && u.Role != model.RoleDnsTa {
				writeJSON(w, http.StatusForbidden, map[string]any{
					"error": "local login is disabled, use LDAP credentials",
				})
				return
			}
			user = u
			authMethod = "local"
		}
	}

	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
		return
	}

	csrfToken := h.sessionMgr.CreateSession(w, user.Username)
	_ = h.db.TouchLastLogin(user.Username)

	_ = h.db.LogAudit(model.AuditEntry{
		Username:  user.Username,
		Action:    "login",
		Detail:    fmt.Sprintf("auth=%s", authMethod),
		IPAddress: util.GetClientIP(r),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"data":       toUserJSON(user, user.Role == model.RoleDnsTa),
		"csrf_token": csrfToken,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	username, _ := h.sessionMgr.GetUsername(r)

	h.sessionMgr.DestroySession(w, r)

	if username != "" {
		_ = h.db.LogAudit(model.AuditEntry{
			Username:  username,
			Action:    "logout",
			IPAddress: util.GetClientIP(r),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": "logged out"})
}
