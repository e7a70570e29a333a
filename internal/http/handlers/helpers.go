package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resto-admin-services/internal/queue"
	"resto-admin-services/internal/store"
	"resto-admin-services/internal/utils"
	"resto-admin-services/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var errMissingParam = errors.New("missing param")

func zapError(err error) zap.Field {
	return zap.Error(err)
}

func readPathString(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func readPathInt64(r *http.Request, key string) (int64, error) {
	value := readPathString(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	var out int64
	if _, err := fmt.Sscan(value, &out); err != nil {
		return 0, err
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return out, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func money(value decimal.Decimal) string {
	return utils.MoneyString(value)
}

func (h *Handler) location() *time.Location {
	if h.Location != nil {
		return h.Location
	}
	return time.UTC
}

// writeError maps store sentinels and billing errors onto the response
// envelope and logs anything that ends up as a 5xx.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", notFoundMessage)
		return
	case errors.Is(err, store.ErrAlreadyPaid):
		response.Error(w, http.StatusConflict, "ALREADY_PAID", "Order has already been paid")
		return
	case errors.Is(err, store.ErrConflict):
		response.Error(w, http.StatusConflict, "CONFLICT", "The record was changed by another request")
		return
	case errors.Is(err, context.Canceled):
		return
	}

	if status := response.FromError(w, err); status >= http.StatusInternalServerError {
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zapError(err),
		)
	}
}

// publish emits an event after the change has committed. Failures are logged
// and never undo the request.
func (h *Handler) publish(ctx context.Context, evt queue.Event, err error) {
	if h.Events == nil {
		return
	}
	if err == nil {
		err = h.Events.Publish(context.WithoutCancel(ctx), evt)
	}
	if err != nil {
		h.Logger.Warn("event publish failed", zap.String("type", evt.Type), zapError(err))
	}
}
