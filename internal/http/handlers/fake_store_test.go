package handlers

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"resto-admin-services/internal/billing"
	"resto-admin-services/internal/queue"
	"resto-admin-services/internal/storage"
	"resto-admin-services/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// fakeStore keeps orders in memory and applies the billing rules the same way
// the Postgres store does.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]store.User
	orders   map[int64]*store.Order
	tickets  map[int64]*store.KitchenTicket
	payments map[int64]store.Payment
	tax      billing.TaxConfig
	revoked  []int64
	nextID   int64
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]store.User{},
		orders:   map[int64]*store.Order{},
		tickets:  map[int64]*store.KitchenTicket{},
		payments: map[int64]store.Payment{},
		tax:      billing.TaxConfig{TaxRate: d("0.06"), ServiceTaxRate: d("0"), TaxName: "SST", CurrencySymbol: "RM"},
		nextID:   1000,
	}
}

func (f *fakeStore) addOrder(id int64, table string, status billing.Status, items ...store.OrderItem) {
	f.orders[id] = &store.Order{
		ID:          id,
		OrderNumber: fmt.Sprintf("ORD-%d", id),
		TableNumber: table,
		Status:      status,
		Items:       items,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func (f *fakeStore) FindUserByEmail(_ context.Context, email string) (store.User, error) {
	u, ok := f.users[email]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) CreateSession(context.Context, int64, time.Time) (int64, error) {
	f.nextID++
	return f.nextID, nil
}

func (f *fakeStore) RevokeSession(_ context.Context, sessionID int64) error {
	f.revoked = append(f.revoked, sessionID)
	return nil
}

func (f *fakeStore) ListOrders(_ context.Context, filter store.OrderFilter) ([]store.OrderSummary, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]store.OrderSummary, 0)
	for _, o := range f.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		subtotal, _ := o.Bill().Subtotal()
		out = append(out, store.OrderSummary{ID: o.ID, OrderNumber: o.OrderNumber, TableNumber: o.TableNumber, Status: o.Status, Subtotal: subtotal, ItemCount: len(o.Items)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetOrder(_ context.Context, orderID int64) (store.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	return *o, nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, orderID int64, next billing.Status, _ *string) (store.StatusChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return store.StatusChange{}, store.ErrNotFound
	}
	if err := billing.Transition(o.Status, next); err != nil {
		return store.StatusChange{}, err
	}
	change := store.StatusChange{OrderID: o.ID, OrderNumber: o.OrderNumber, TableNumber: o.TableNumber, From: o.Status, To: next, ChangedAt: time.Now()}
	o.Status = next
	return change, nil
}

func (f *fakeStore) CancelOrderItem(_ context.Context, orderID, itemID int64, _ *string, _ int64) (store.ItemCancellation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return store.ItemCancellation{}, store.ErrNotFound
	}
	_, subtotal, err := billing.CancelItem(o.Bill(), itemID)
	if err != nil {
		return store.ItemCancellation{}, err
	}
	var removed store.OrderItem
	kept := o.Items[:0:0]
	for _, item := range o.Items {
		if item.ID == itemID {
			removed = item
			continue
		}
		kept = append(kept, item)
	}
	o.Items = kept
	o.Subtotal = subtotal
	return store.ItemCancellation{OrderID: o.ID, OrderNumber: o.OrderNumber, Item: removed, Subtotal: subtotal, CancelledAt: time.Now()}, nil
}

func (f *fakeStore) ListKitchenTickets(context.Context) ([]store.KitchenTicket, error) {
	out := make([]store.KitchenTicket, 0, len(f.tickets))
	for _, t := range f.tickets {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateTicketStatus(_ context.Context, ticketID int64, next billing.Status) (store.TicketChange, error) {
	t, ok := f.tickets[ticketID]
	if !ok {
		return store.TicketChange{}, store.ErrNotFound
	}
	if err := billing.Transition(t.Status, next); err != nil {
		return store.TicketChange{}, err
	}
	change := store.TicketChange{From: t.Status}
	t.Status = next
	if o := f.orders[t.OrderID]; o != nil && next == billing.StatusProcessing && o.Status == billing.StatusPending {
		o.Status = billing.StatusProcessing
		t.OrderStatus = o.Status
		change.OrderAdvanced = true
	}
	change.Ticket = *t
	return change, nil
}

func (f *fakeStore) LoadBills(ctx context.Context, orderIDs []int64) ([]store.Order, error) {
	out := make([]store.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		o, err := f.GetOrder(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", id, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeStore) RecordPayment(_ context.Context, params store.RecordPaymentParams) (store.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bills := make([]billing.Bill, 0, len(params.OrderIDs))
	for _, id := range params.OrderIDs {
		o, ok := f.orders[id]
		if !ok {
			return store.Payment{}, fmt.Errorf("order %d: %w", id, store.ErrNotFound)
		}
		if o.PaymentID != nil {
			return store.Payment{}, fmt.Errorf("order %d: %w", id, store.ErrAlreadyPaid)
		}
		bills = append(bills, o.Bill())
	}
	_, breakdown, err := billing.SettleBills(bills, f.tax)
	if err != nil {
		return store.Payment{}, err
	}
	change := decimal.Zero
	if params.Method == store.PaymentCash {
		if params.AmountTendered == nil || params.AmountTendered.LessThan(breakdown.Total) {
			return store.Payment{}, billing.ValidationError("Amount tendered is less than the total", nil)
		}
		change = params.AmountTendered.Sub(breakdown.Total)
	}

	f.nextID++
	payment := store.Payment{
		ID:                 f.nextID,
		ReceiptNumber:      params.ReceiptNumber,
		Method:             params.Method,
		OrderIDs:           params.OrderIDs,
		Subtotal:           breakdown.Subtotal,
		TaxAmount:          breakdown.TaxAmount,
		ServiceTaxAmount:   breakdown.ServiceTaxAmount,
		RoundingAdjustment: breakdown.RoundingAdjustment,
		Amount:             breakdown.Total,
		AmountTendered:     params.AmountTendered,
		ChangeAmount:       change,
		TaxConfig:          f.tax,
		PaidAt:             params.PaidAt,
	}
	for _, id := range params.OrderIDs {
		pid := payment.ID
		o := f.orders[id]
		o.PaymentID = &pid
		if !slices.Contains(payment.TableNumbers, o.TableNumber) {
			payment.TableNumbers = append(payment.TableNumbers, o.TableNumber)
		}
		for _, item := range o.Items {
			itemID := item.ID
			payment.Lines = append(payment.Lines, store.PaymentLine{OrderID: id, OrderItemID: &itemID, Name: item.Name, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
		}
	}
	f.payments[payment.ID] = payment
	return payment, nil
}

func (f *fakeStore) GetPayment(_ context.Context, paymentID int64) (store.Payment, error) {
	p, ok := f.payments[paymentID]
	if !ok {
		return store.Payment{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) ListTables(context.Context) ([]store.Table, error) {
	return []store.Table{{ID: 1, Number: "T1", Seats: 4, Status: "occupied", OpenOrders: 1, ReadySubtotal: d("10.00")}}, nil
}

func (f *fakeStore) GetTaxConfig(context.Context) (billing.TaxConfig, error) {
	return f.tax, nil
}

func (f *fakeStore) UpdateTaxConfig(_ context.Context, cfg billing.TaxConfig, _ int64) error {
	f.tax = cfg
	return nil
}

func (f *fakeStore) ListPaymentsBetween(context.Context, time.Time, time.Time) ([]store.Payment, error) {
	out := make([]store.Payment, 0, len(f.payments))
	for _, p := range f.payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CountOrdersByStatus(context.Context, time.Time, time.Time) (map[billing.Status]int, error) {
	out := map[billing.Status]int{}
	for _, o := range f.orders {
		out[o.Status]++
	}
	return out, nil
}

type recordingPublisher struct {
	events []queue.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt queue.Event) error {
	p.events = append(p.events, evt)
	return nil
}

type fakeArchive struct {
	names []string
}

func (a *fakeArchive) ArchiveReport(_ context.Context, fileName string, _ []byte, _ string) (storage.Archive, error) {
	a.names = append(a.names, fileName)
	return storage.Archive{Key: "reports/" + fileName, URL: "https://example.test/" + fileName}, nil
}

func newTestHandler(st *fakeStore) (*Handler, *recordingPublisher) {
	events := &recordingPublisher{}
	return &Handler{
		Store:    st,
		Events:   events,
		Logger:   zap.NewNop(),
		Location: time.UTC,
	}, events
}
