package handlers

import (
	"context"
	"net/http"

	"resto-admin-services/internal/billing"
	"resto-admin-services/internal/queue"
	"resto-admin-services/pkg/response"
)

func (h *Handler) AdminKitchenTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.Store.ListKitchenTickets(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Kitchen tickets not found")
		return
	}
	response.Success(w, ticketViews(tickets))
}

// KitchenSnapshot is the initial state pushed to a newly connected display.
func (h *Handler) KitchenSnapshot(ctx context.Context) (any, error) {
	tickets, err := h.Store.ListKitchenTickets(ctx)
	if err != nil {
		return nil, err
	}
	return ticketViews(tickets), nil
}

type updateTicketStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) AdminKitchenTicketStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticketID, err := readPathInt64(r, "ticketId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Ticket ID is required")
		return
	}

	var body updateTicketStatusRequest
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	next, err := billing.ParseStatus(body.Status)
	if err != nil {
		response.FromError(w, err)
		return
	}

	change, err := h.Store.UpdateTicketStatus(ctx, ticketID, next)
	if err != nil {
		h.writeError(w, r, err, "Kitchen ticket not found")
		return
	}

	view := ticketView(change.Ticket)
	evt, evtErr := queue.NewEvent(queue.EventKitchenTicketUpdate, map[string]any{
		"ticket":        view,
		"from":          string(change.From),
		"orderAdvanced": change.OrderAdvanced,
	})
	h.publish(ctx, evt.WithOrder(change.Ticket.OrderID).WithUser(userID(r)), evtErr)

	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"ticket":        view,
			"from":          string(change.From),
			"orderAdvanced": change.OrderAdvanced,
		},
		"message": "Ticket updated",
	})
}
