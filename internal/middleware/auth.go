package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"resto-admin-services/internal/auth"
	"resto-admin-services/internal/store"
)

type contextKey string

const authContextKey contextKey = "authContext"

// AuthContext is the request-scoped identity every admin handler receives.
type AuthContext struct {
	UserID      int64
	SessionID   int64
	Role        auth.UserRole
	Email       string
	Permissions []string
}

func (a *AuthContext) IsAdmin() bool {
	return a.Role == auth.RoleAdmin
}

func (a *AuthContext) Can(perm auth.StaffPermission) bool {
	return a.IsAdmin() || auth.HasPermission(a.Permissions, perm)
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	value := ctx.Value(authContextKey)
	if value == nil {
		return nil, false
	}
	ac, ok := value.(*AuthContext)
	return ac, ok
}

type SessionStore interface {
	GetActiveSession(ctx context.Context, sessionID, userID int64) (store.Session, error)
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	writeAuthErrorDebug(w, status, message, "")
}

func writeAuthErrorDebug(w http.ResponseWriter, status int, message string, debug string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	code := "UNAUTHORIZED"
	if status == http.StatusForbidden {
		code = "FORBIDDEN"
	}
	payload := map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	}

	if os.Getenv("APP_ENV") == "development" && strings.TrimSpace(debug) != "" {
		payload["debug"] = debug
	}

	_ = json.NewEncoder(w).Encode(payload)
}

// requestToken reads the bearer token. Websocket upgrades may pass it as
// ?token= because browsers cannot set headers on them.
func requestToken(r *http.Request) string {
	if token := auth.ParseBearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if r.Method == http.MethodGet && strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return strings.TrimSpace(r.URL.Query().Get("token"))
	}
	return ""
}

func AdminAuth(sessions SessionStore, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := auth.VerifyAccessToken(requestToken(r), jwtSecret)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Authorization token required", err.Error())
				return
			}

			userID, err := strconv.ParseInt(claims.UserID, 10, 64)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			sessionID, err := strconv.ParseInt(claims.SessionID, 10, 64)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			// Role and permissions come from the database so revocations apply immediately.
			session, err := sessions.GetActiveSession(r.Context(), sessionID, userID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeAuthError(w, http.StatusUnauthorized, "Session expired")
					return
				}
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Session check failed", err.Error())
				return
			}

			role := auth.UserRole(session.Role)
			if !role.Valid() {
				writeAuthError(w, http.StatusForbidden, "Admin access required")
				return
			}

			if role == auth.RoleStaff {
				if perms := auth.GetPermissionForAPI(r.URL.Path, r.Method); perms != nil && !auth.HasAnyPermission(session.Permissions, perms) {
					writeAuthError(w, http.StatusForbidden, "You do not have permission to access this resource")
					return
				}
			}

			authCtx := &AuthContext{
				UserID:      userID,
				SessionID:   sessionID,
				Role:        role,
				Email:       session.Email,
				Permissions: session.Permissions,
			}

			ctx := WithAuthContext(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
