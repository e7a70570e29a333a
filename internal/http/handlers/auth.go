package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"resto-admin-services/internal/auth"
	"resto-admin-services/internal/middleware"
	"resto-admin-services/internal/store"
	"resto-admin-services/pkg/response"

	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) AuthLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body loginRequest
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	email := strings.TrimSpace(body.Email)
	if email == "" || body.Password == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required")
		return
	}

	user, err := h.Store.FindUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.Logger.Error("login lookup failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}
	if err != nil || auth.CheckPassword(user.PasswordHash, body.Password) != nil {
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}
	if !user.IsActive {
		response.Error(w, http.StatusForbidden, "ACCOUNT_DISABLED", "This account has been disabled")
		return
	}
	role := auth.UserRole(user.Role)
	if !role.Valid() {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return
	}

	expiresAt := time.Now().Add(time.Duration(h.Config.JWTExpirySeconds) * time.Second)
	sessionID, err := h.Store.CreateSession(ctx, user.ID, expiresAt)
	if err != nil {
		h.Logger.Error("create session failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}

	token, err := auth.IssueAccessToken(h.Config.JWTSecret, user.ID, sessionID, role, user.Email, expiresAt)
	if err != nil {
		h.Logger.Error("issue token failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}

	permissions := user.Permissions
	if permissions == nil {
		permissions = []string{}
	}

	h.Logger.Info("admin login", zap.Int64("userId", user.ID), zap.Int64("sessionId", sessionID))
	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"accessToken": token,
			"expiresAt":   expiresAt.UTC(),
			"user": map[string]any{
				"id":          user.ID,
				"email":       user.Email,
				"name":        user.Name,
				"role":        user.Role,
				"permissions": permissions,
			},
		},
		"message": "Login successful",
	})
}

func (h *Handler) AuthLogout(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	if err := h.Store.RevokeSession(r.Context(), authCtx.SessionID); err != nil {
		h.Logger.Error("revoke session failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign out")
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out",
	})
}
