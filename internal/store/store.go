package store

import (
	"context"
	"errors"
	"time"

	"resto-admin-services/internal/billing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyPaid = errors.New("order already paid")
	ErrConflict    = errors.New("conflict")
)

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

type txQuery interface {
	Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) withTx(ctx context.Context, fn func(ctx context.Context, tx txQuery) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type OrderFilter struct {
	Status      *billing.Status
	TableNumber string
	Unpaid      bool
	Limit       int
}

type OrderItem struct {
	ID         int64
	MenuItemID *int64
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	// Kitchen ticket attached to the item, if any.
	TicketID     *int64
	TicketStatus *billing.Status
}

type Order struct {
	ID           int64
	OrderNumber  string
	TableNumber  string
	Status       billing.Status
	Subtotal     decimal.Decimal
	Note         *string
	CancelReason *string
	PaymentID    *int64
	PaidAt       *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []OrderItem
}

// Bill converts the order into the billing engine's view of it.
func (o Order) Bill() billing.Bill {
	items := make([]billing.LineItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, billing.LineItem{
			ID:        item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return billing.Bill{ID: o.ID, TableNumber: o.TableNumber, Status: o.Status, Items: items}
}

type OrderSummary struct {
	ID          int64
	OrderNumber string
	TableNumber string
	Status      billing.Status
	Subtotal    decimal.Decimal
	ItemCount   int
	PaymentID   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type StatusChange struct {
	OrderID     int64
	OrderNumber string
	TableNumber string
	From        billing.Status
	To          billing.Status
	ChangedAt   time.Time
}

type ItemCancellation struct {
	OrderID     int64
	OrderNumber string
	Item        OrderItem
	Subtotal    decimal.Decimal
	CancelledAt time.Time
}

type KitchenTicket struct {
	ID          int64
	OrderID     int64
	OrderNumber string
	TableNumber string
	OrderStatus billing.Status
	ItemID      int64
	ItemName    string
	Quantity    int
	Status      billing.Status
	UpdatedAt   time.Time
}

type TicketChange struct {
	Ticket        KitchenTicket
	From          billing.Status
	OrderAdvanced bool
}

type Table struct {
	ID              int64
	Number          string
	Seats           int
	Status          string
	OpenOrders      int
	ReadyOrderIDs   []int64
	ReadySubtotal   decimal.Decimal
	OldestOpenSince *time.Time
}

type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "CASH"
	PaymentCard    PaymentMethod = "CARD"
	PaymentEWallet PaymentMethod = "EWALLET"
)

func ParsePaymentMethod(value string) (PaymentMethod, bool) {
	switch PaymentMethod(value) {
	case PaymentCash, PaymentCard, PaymentEWallet:
		return PaymentMethod(value), true
	}
	return "", false
}

type RecordPaymentParams struct {
	OrderIDs       []int64
	Method         PaymentMethod
	AmountTendered *decimal.Decimal
	CashierUserID  int64
	ReceiptNumber  string
	PaidAt         time.Time
}

type PaymentLine struct {
	OrderID     int64
	OrderItemID *int64
	Name        string
	Quantity    int
	UnitPrice   decimal.Decimal
}

type Payment struct {
	ID                 int64
	ReceiptNumber      string
	Method             PaymentMethod
	OrderIDs           []int64
	TableNumbers       []string
	Subtotal           decimal.Decimal
	TaxAmount          decimal.Decimal
	ServiceTaxAmount   decimal.Decimal
	RoundingAdjustment decimal.Decimal
	Amount             decimal.Decimal
	AmountTendered     *decimal.Decimal
	ChangeAmount       decimal.Decimal
	TaxConfig          billing.TaxConfig
	CashierUserID      *int64
	CashierName        string
	PaidAt             time.Time
	Lines              []PaymentLine
	// RawLines holds the legacy "qty:price||..." encoding for imported payments.
	RawLines *string
}

type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Permissions  []string
	IsActive     bool
}

type Session struct {
	ID          int64
	UserID      int64
	Role        string
	Email       string
	Permissions []string
	ExpiresAt   time.Time
}

type ActivityLog struct {
	EventID   string
	EventType string
	OrderID   *int64
	PaymentID *int64
	UserID    *int64
	Payload   []byte
	CreatedAt time.Time
}
