package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"resto-admin-services/internal/billing"
	"resto-admin-services/internal/queue"
	"resto-admin-services/internal/reports"
	"resto-admin-services/internal/store"
	"resto-admin-services/pkg/response"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxOrdersPerPayment = 20

type paymentPreviewRequest struct {
	OrderIDs []int64 `json:"orderIds"`
}

type recordPaymentRequest struct {
	OrderIDs       []int64          `json:"orderIds"`
	Method         string           `json:"method"`
	AmountTendered *decimal.Decimal `json:"amountTendered"`
}

func validateOrderIDs(ids []int64) error {
	if len(ids) == 0 {
		return billing.ValidationError("At least one order is required", nil)
	}
	if len(ids) > maxOrdersPerPayment {
		return billing.ValidationError(fmt.Sprintf("At most %d orders can be paid together", maxOrdersPerPayment), map[string]any{"count": len(ids)})
	}
	for _, id := range ids {
		if id <= 0 {
			return billing.ValidationError("Order IDs must be positive", map[string]any{"orderId": id})
		}
	}
	return nil
}

// AdminPaymentPreview shows the merged bill under the current tax settings
// without persisting anything.
func (h *Handler) AdminPaymentPreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body paymentPreviewRequest
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if err := validateOrderIDs(body.OrderIDs); err != nil {
		response.FromError(w, err)
		return
	}

	orders, err := h.Store.LoadBills(ctx, body.OrderIDs)
	if err != nil {
		h.writeError(w, r, err, "Order not found")
		return
	}
	for _, o := range orders {
		if o.PaymentID != nil {
			response.Error(w, http.StatusConflict, "ALREADY_PAID", fmt.Sprintf("Order %s has already been paid", o.OrderNumber))
			return
		}
	}
	cfg, err := h.Store.GetTaxConfig(ctx)
	if err != nil {
		h.writeError(w, r, err, "Tax settings are not configured")
		return
	}

	bills := make([]billing.Bill, 0, len(orders))
	items := make([]OrderItemView, 0)
	for _, o := range orders {
		bills = append(bills, o.Bill())
		for _, item := range o.Items {
			items = append(items, orderItemView(item))
		}
	}
	merged, breakdown, err := billing.SettleBills(bills, cfg)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}

	response.Success(w, map[string]any{
		"orderIds":  merged.BillIDs,
		"items":     items,
		"breakdown": breakdownView(breakdown),
		"taxConfig": taxConfigView(cfg),
	})
}

func (h *Handler) AdminPaymentRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body recordPaymentRequest
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if err := validateOrderIDs(body.OrderIDs); err != nil {
		response.FromError(w, err)
		return
	}
	method, ok := store.ParsePaymentMethod(strings.ToUpper(strings.TrimSpace(body.Method)))
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Payment method must be CASH, CARD or EWALLET")
		return
	}
	if body.AmountTendered != nil {
		if err := billing.ValidateAmount(*body.AmountTendered); err != nil {
			response.FromError(w, err)
			return
		}
	}

	now := time.Now()
	payment, err := h.Store.RecordPayment(ctx, store.RecordPaymentParams{
		OrderIDs:       body.OrderIDs,
		Method:         method,
		AmountTendered: body.AmountTendered,
		CashierUserID:  userID(r),
		ReceiptNumber:  newReceiptNumber(now.In(h.location())),
		PaidAt:         now,
	})
	if err != nil {
		h.writeError(w, r, err, "Order not found")
		return
	}

	h.Logger.Info("payment recorded",
		zap.Int64("paymentId", payment.ID),
		zap.String("receiptNumber", payment.ReceiptNumber),
		zap.Int64s("orderIds", payment.OrderIDs),
		zap.String("amount", money(payment.Amount)),
	)

	evt, evtErr := queue.NewEvent(queue.EventPaymentRecorded, map[string]any{
		"receiptNumber": payment.ReceiptNumber,
		"orderIds":      payment.OrderIDs,
		"tableNumbers":  payment.TableNumbers,
		"method":        string(payment.Method),
		"amount":        money(payment.Amount),
	})
	h.publish(ctx, evt.WithPayment(payment.ID).WithUser(userID(r)), evtErr)

	response.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    paymentView(payment),
		"message": "Payment recorded",
	})
}

func (h *Handler) AdminPaymentDetail(w http.ResponseWriter, r *http.Request) {
	paymentID, err := readPathInt64(r, "paymentId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Payment ID is required")
		return
	}
	payment, err := h.Store.GetPayment(r.Context(), paymentID)
	if err != nil {
		h.writeError(w, r, err, "Payment not found")
		return
	}
	response.Success(w, paymentView(payment))
}

func (h *Handler) AdminPaymentReceipt(w http.ResponseWriter, r *http.Request) {
	paymentID, err := readPathInt64(r, "paymentId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Payment ID is required")
		return
	}
	payment, err := h.Store.GetPayment(r.Context(), paymentID)
	if err != nil {
		h.writeError(w, r, err, "Payment not found")
		return
	}

	pdf, err := reports.RenderReceipt(payment, h.Config.RestaurantName, h.location())
	if err != nil {
		h.Logger.Error("render receipt failed", zap.Int64("paymentId", paymentID), zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "receipt-"+payment.ReceiptNumber+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func newReceiptNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "RC" + now.Format("20060102") + "-" + suffix
}
