package response

import (
	"encoding/json"
	"net/http"

	"resto-admin-services/internal/billing"
)

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    data,
	})
}

func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	})
}

func ErrorWithDetails(w http.ResponseWriter, status int, code string, message string, details map[string]any) {
	payload := map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	}
	if len(details) > 0 {
		payload["details"] = details
	}
	JSON(w, status, payload)
}

// FromError writes billing errors with their own status, code and details.
// Anything else is reported as a generic 500. It returns the status written.
func FromError(w http.ResponseWriter, err error) int {
	if be, ok := billing.AsError(err); ok {
		status := be.StatusCode
		if status == 0 {
			status = http.StatusBadRequest
		}
		if be.Code == billing.CodeInvariantViolation {
			Error(w, status, string(be.Code), "Internal billing error")
			return status
		}
		ErrorWithDetails(w, status, string(be.Code), be.Message, be.Details)
		return status
	}
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	return http.StatusInternalServerError
}
