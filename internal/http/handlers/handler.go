package handlers

import (
	"context"
	"time"

	"resto-admin-services/internal/billing"
	"resto-admin-services/internal/config"
	"resto-admin-services/internal/queue"
	"resto-admin-services/internal/storage"
	"resto-admin-services/internal/store"

	"go.uber.org/zap"
)

// Store is the persistence surface the admin handlers need. *store.Store
// implements it.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (store.User, error)
	CreateSession(ctx context.Context, userID int64, expiresAt time.Time) (int64, error)
	RevokeSession(ctx context.Context, sessionID int64) error

	ListOrders(ctx context.Context, filter store.OrderFilter) ([]store.OrderSummary, error)
	GetOrder(ctx context.Context, orderID int64) (store.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, next billing.Status, note *string) (store.StatusChange, error)
	CancelOrderItem(ctx context.Context, orderID, itemID int64, reason *string, userID int64) (store.ItemCancellation, error)

	ListKitchenTickets(ctx context.Context) ([]store.KitchenTicket, error)
	UpdateTicketStatus(ctx context.Context, ticketID int64, next billing.Status) (store.TicketChange, error)

	LoadBills(ctx context.Context, orderIDs []int64) ([]store.Order, error)
	RecordPayment(ctx context.Context, params store.RecordPaymentParams) (store.Payment, error)
	GetPayment(ctx context.Context, paymentID int64) (store.Payment, error)

	ListTables(ctx context.Context) ([]store.Table, error)

	GetTaxConfig(ctx context.Context) (billing.TaxConfig, error)
	UpdateTaxConfig(ctx context.Context, cfg billing.TaxConfig, userID int64) error

	ListPaymentsBetween(ctx context.Context, from, to time.Time) ([]store.Payment, error)
	CountOrdersByStatus(ctx context.Context, from, to time.Time) (map[billing.Status]int, error)
}

type ReportArchiver interface {
	ArchiveReport(ctx context.Context, fileName string, body []byte, contentType string) (storage.Archive, error)
}

type Handler struct {
	Store  Store
	Events queue.Publisher
	// Archive is nil when no object store is configured.
	Archive  ReportArchiver
	Logger   *zap.Logger
	Config   config.Config
	Location *time.Location
}
