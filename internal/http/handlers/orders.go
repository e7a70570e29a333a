package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"resto-admin-services/internal/billing"
	"resto-admin-services/internal/middleware"
	"resto-admin-services/internal/queue"
	"resto-admin-services/internal/store"
	"resto-admin-services/pkg/response"
)

func (h *Handler) AdminOrdersList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.OrderFilter{
		TableNumber: strings.TrimSpace(query.Get("table")),
		Unpaid:      query.Get("unpaid") == "1" || strings.EqualFold(query.Get("unpaid"), "true"),
		Limit:       100,
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := billing.ParseStatus(raw)
		if err != nil {
			response.FromError(w, err)
			return
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > 500 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be between 1 and 500")
			return
		}
		filter.Limit = limit
	}

	orders, err := h.Store.ListOrders(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err, "Orders not found")
		return
	}

	out := make([]OrderSummaryView, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderSummaryView(o))
	}
	response.Success(w, out)
}

func (h *Handler) AdminOrderDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	order, err := h.Store.GetOrder(ctx, orderID)
	if err != nil {
		h.writeError(w, r, err, "Order not found")
		return
	}
	cfg, err := h.Store.GetTaxConfig(ctx)
	if err != nil {
		h.writeError(w, r, err, "Tax settings are not configured")
		return
	}

	subtotal, err := order.Bill().Subtotal()
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	breakdown, err := billing.ApplyTax(subtotal, cfg)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}

	response.Success(w, orderDetailView(order, breakdown))
}

type updateOrderStatusRequest struct {
	Status string  `json:"status"`
	Note   *string `json:"note"`
}

func (h *Handler) AdminOrderUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	var body updateOrderStatusRequest
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	next, err := billing.ParseStatus(body.Status)
	if err != nil {
		response.FromError(w, err)
		return
	}

	change, err := h.Store.UpdateOrderStatus(ctx, orderID, next, trimmedPtr(body.Note))
	if err != nil {
		h.writeError(w, r, err, "Order not found")
		return
	}

	evt, evtErr := queue.NewEvent(queue.EventOrderStatusUpdated, map[string]any{
		"orderNumber": change.OrderNumber,
		"tableNumber": change.TableNumber,
		"from":        string(change.From),
		"to":          string(change.To),
	})
	h.publish(ctx, evt.WithOrder(change.OrderID).WithUser(userID(r)), evtErr)

	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"orderId":     change.OrderID,
			"orderNumber": change.OrderNumber,
			"from":        string(change.From),
			"status":      string(change.To),
			"changedAt":   change.ChangedAt,
		},
		"message": "Order status updated",
	})
}

type cancelItemRequest struct {
	Reason *string `json:"reason"`
}

func (h *Handler) AdminOrderCancelItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}
	itemID, err := readPathInt64(r, "itemId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Item ID is required")
		return
	}

	// The reason is optional, so an empty body is fine.
	var body cancelItemRequest
	if err := decodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	cancelled, err := h.Store.CancelOrderItem(ctx, orderID, itemID, trimmedPtr(body.Reason), userID(r))
	if err != nil {
		h.writeError(w, r, err, "Order not found")
		return
	}

	evt, evtErr := queue.NewEvent(queue.EventOrderItemCancelled, map[string]any{
		"orderNumber": cancelled.OrderNumber,
		"itemId":      cancelled.Item.ID,
		"itemName":    cancelled.Item.Name,
		"quantity":    cancelled.Item.Quantity,
		"subtotal":    money(cancelled.Subtotal),
	})
	h.publish(ctx, evt.WithOrder(cancelled.OrderID).WithUser(userID(r)), evtErr)

	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"orderId":     cancelled.OrderID,
			"item":        orderItemView(cancelled.Item),
			"subtotal":    money(cancelled.Subtotal),
			"cancelledAt": cancelled.CancelledAt,
		},
		"message": "Item cancelled",
	})
}

func userID(r *http.Request) int64 {
	if authCtx, ok := middleware.GetAuthContext(r.Context()); ok {
		return authCtx.UserID
	}
	return 0
}
