package handlers

import (
	"time"

	"resto-admin-services/internal/billing"
	"resto-admin-services/internal/reports"
	"resto-admin-services/internal/store"
)

type OrderItemView struct {
	ID           int64   `json:"id"`
	MenuItemID   *int64  `json:"menuItemId"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	UnitPrice    string  `json:"unitPrice"`
	Amount       string  `json:"amount"`
	TicketID     *int64  `json:"ticketId"`
	TicketStatus *string `json:"ticketStatus"`
}

type BreakdownView struct {
	Subtotal           string `json:"subtotal"`
	TaxAmount          string `json:"taxAmount"`
	ServiceTaxAmount   string `json:"serviceTaxAmount"`
	RoundingAdjustment string `json:"roundingAdjustment"`
	Total              string `json:"total"`
}

type OrderSummaryView struct {
	ID          int64     `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	TableNumber string    `json:"tableNumber"`
	Status      string    `json:"status"`
	Subtotal    string    `json:"subtotal"`
	ItemCount   int       `json:"itemCount"`
	Paid        bool      `json:"paid"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type OrderDetailView struct {
	ID           int64           `json:"id"`
	OrderNumber  string          `json:"orderNumber"`
	TableNumber  string          `json:"tableNumber"`
	Status       string          `json:"status"`
	Note         *string         `json:"note"`
	CancelReason *string         `json:"cancelReason"`
	PaymentID    *int64          `json:"paymentId"`
	PaidAt       *time.Time      `json:"paidAt"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Items        []OrderItemView `json:"items"`
	Breakdown    BreakdownView   `json:"breakdown"`
}

type TicketView struct {
	ID          int64     `json:"id"`
	OrderID     int64     `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	TableNumber string    `json:"tableNumber"`
	OrderStatus string    `json:"orderStatus"`
	ItemID      int64     `json:"itemId"`
	ItemName    string    `json:"itemName"`
	Quantity    int       `json:"quantity"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type TableView struct {
	ID              int64      `json:"id"`
	Number          string     `json:"number"`
	Seats           int        `json:"seats"`
	Status          string     `json:"status"`
	OpenOrders      int        `json:"openOrders"`
	ReadyOrderIDs   []int64    `json:"readyOrderIds"`
	ReadySubtotal   string     `json:"readySubtotal"`
	OldestOpenSince *time.Time `json:"oldestOpenSince"`
}

type TaxConfigView struct {
	TaxRate        string `json:"taxRate"`
	ServiceTaxRate string `json:"serviceTaxRate"`
	TaxName        string `json:"taxName"`
	CurrencySymbol string `json:"currencySymbol"`
}

type PaymentLineView struct {
	OrderID     int64  `json:"orderId"`
	OrderItemID *int64 `json:"orderItemId"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Amount      string `json:"amount"`
}

type PaymentView struct {
	ID             int64             `json:"id"`
	ReceiptNumber  string            `json:"receiptNumber"`
	Method         string            `json:"method"`
	OrderIDs       []int64           `json:"orderIds"`
	TableNumbers   []string          `json:"tableNumbers"`
	Breakdown      BreakdownView     `json:"breakdown"`
	AmountTendered *string           `json:"amountTendered"`
	ChangeAmount   string            `json:"changeAmount"`
	TaxConfig      TaxConfigView     `json:"taxConfig"`
	CashierName    string            `json:"cashierName,omitempty"`
	PaidAt         time.Time         `json:"paidAt"`
	Lines          []PaymentLineView `json:"lines"`
}

type PaymentRowView struct {
	PaymentID     int64         `json:"paymentId"`
	ReceiptNumber string        `json:"receiptNumber"`
	PaidAt        time.Time     `json:"paidAt"`
	Method        string        `json:"method"`
	OrderCount    int           `json:"orderCount"`
	Source        string        `json:"source"`
	Recalculated  BreakdownView `json:"recalculated"`
	StoredAmount  string        `json:"storedAmount"`
	Mismatch      bool          `json:"mismatch"`
}

type MethodTotalView struct {
	Method string `json:"method"`
	Count  int    `json:"count"`
	Amount string `json:"amount"`
}

type SalesReportView struct {
	From           time.Time         `json:"from"`
	To             time.Time         `json:"to"`
	PaymentCount   int               `json:"paymentCount"`
	Subtotal       string            `json:"subtotal"`
	TaxAmount      string            `json:"taxAmount"`
	ServiceAmount  string            `json:"serviceTaxAmount"`
	Rounding       string            `json:"roundingAdjustment"`
	Revenue        string            `json:"revenue"`
	Mismatches     int               `json:"mismatches"`
	ByMethod       []MethodTotalView `json:"byMethod"`
	OrdersByStatus map[string]int    `json:"ordersByStatus"`
	Payments       []PaymentRowView  `json:"payments"`
}

func breakdownView(b billing.TaxBreakdown) BreakdownView {
	return BreakdownView{
		Subtotal:           money(b.Subtotal),
		TaxAmount:          money(b.TaxAmount),
		ServiceTaxAmount:   money(b.ServiceTaxAmount),
		RoundingAdjustment: money(b.RoundingAdjustment),
		Total:              money(b.Total),
	}
}

func orderSummaryView(o store.OrderSummary) OrderSummaryView {
	return OrderSummaryView{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		TableNumber: o.TableNumber,
		Status:      string(o.Status),
		Subtotal:    money(o.Subtotal),
		ItemCount:   o.ItemCount,
		Paid:        o.PaymentID != nil,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func orderItemView(item store.OrderItem) OrderItemView {
	view := OrderItemView{
		ID:         item.ID,
		MenuItemID: item.MenuItemID,
		Name:       item.Name,
		Quantity:   item.Quantity,
		UnitPrice:  money(item.UnitPrice),
		Amount:     money(billing.LineItem{Quantity: item.Quantity, UnitPrice: item.UnitPrice}.Amount()),
		TicketID:   item.TicketID,
	}
	if item.TicketStatus != nil {
		status := string(*item.TicketStatus)
		view.TicketStatus = &status
	}
	return view
}

func orderDetailView(o store.Order, breakdown billing.TaxBreakdown) OrderDetailView {
	items := make([]OrderItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemView(item))
	}
	return OrderDetailView{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		TableNumber:  o.TableNumber,
		Status:       string(o.Status),
		Note:         o.Note,
		CancelReason: o.CancelReason,
		PaymentID:    o.PaymentID,
		PaidAt:       o.PaidAt,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		Items:        items,
		Breakdown:    breakdownView(breakdown),
	}
}

func ticketView(t store.KitchenTicket) TicketView {
	return TicketView{
		ID:          t.ID,
		OrderID:     t.OrderID,
		OrderNumber: t.OrderNumber,
		TableNumber: t.TableNumber,
		OrderStatus: string(t.OrderStatus),
		ItemID:      t.ItemID,
		ItemName:    t.ItemName,
		Quantity:    t.Quantity,
		Status:      string(t.Status),
		UpdatedAt:   t.UpdatedAt,
	}
}

func ticketViews(tickets []store.KitchenTicket) []TicketView {
	out := make([]TicketView, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, ticketView(t))
	}
	return out
}

func tableView(t store.Table) TableView {
	ready := t.ReadyOrderIDs
	if ready == nil {
		ready = []int64{}
	}
	return TableView{
		ID:              t.ID,
		Number:          t.Number,
		Seats:           t.Seats,
		Status:          t.Status,
		OpenOrders:      t.OpenOrders,
		ReadyOrderIDs:   ready,
		ReadySubtotal:   money(t.ReadySubtotal),
		OldestOpenSince: t.OldestOpenSince,
	}
}

func taxConfigView(c billing.TaxConfig) TaxConfigView {
	return TaxConfigView{
		TaxRate:        c.TaxRate.String(),
		ServiceTaxRate: c.ServiceTaxRate.String(),
		TaxName:        c.TaxName,
		CurrencySymbol: c.CurrencySymbol,
	}
}

func paymentView(p store.Payment) PaymentView {
	lines := make([]PaymentLineView, 0, len(p.Lines))
	for _, line := range p.Lines {
		lines = append(lines, PaymentLineView{
			OrderID:     line.OrderID,
			OrderItemID: line.OrderItemID,
			Name:        line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   money(line.UnitPrice),
			Amount:      money(billing.LineItem{Quantity: line.Quantity, UnitPrice: line.UnitPrice}.Amount()),
		})
	}
	view := PaymentView{
		ID:            p.ID,
		ReceiptNumber: p.ReceiptNumber,
		Method:        string(p.Method),
		OrderIDs:      p.OrderIDs,
		TableNumbers:  p.TableNumbers,
		Breakdown: BreakdownView{
			Subtotal:           money(p.Subtotal),
			TaxAmount:          money(p.TaxAmount),
			ServiceTaxAmount:   money(p.ServiceTaxAmount),
			RoundingAdjustment: money(p.RoundingAdjustment),
			Total:              money(p.Amount),
		},
		ChangeAmount: money(p.ChangeAmount),
		TaxConfig:    taxConfigView(p.TaxConfig),
		CashierName:  p.CashierName,
		PaidAt:       p.PaidAt,
		Lines:        lines,
	}
	if p.AmountTendered != nil {
		tendered := money(*p.AmountTendered)
		view.AmountTendered = &tendered
	}
	return view
}

func salesReportView(s reports.SalesSummary) SalesReportView {
	byMethod := make([]MethodTotalView, 0, len(s.ByMethod))
	for _, mt := range s.ByMethod {
		byMethod = append(byMethod, MethodTotalView{Method: string(mt.Method), Count: mt.Count, Amount: money(mt.Amount)})
	}
	counts := make(map[string]int, len(s.OrdersByStatus))
	for status, n := range s.OrdersByStatus {
		counts[string(status)] = n
	}
	rows := make([]PaymentRowView, 0, len(s.Rows))
	for _, row := range s.Rows {
		rows = append(rows, PaymentRowView{
			PaymentID:     row.PaymentID,
			ReceiptNumber: row.ReceiptNumber,
			PaidAt:        row.PaidAt,
			Method:        string(row.Method),
			OrderCount:    row.OrderCount,
			Source:        row.Source,
			Recalculated:  breakdownView(row.Breakdown),
			StoredAmount:  money(row.StoredAmount),
			Mismatch:      row.Mismatch,
		})
	}
	return SalesReportView{
		From:           s.From,
		To:             s.To,
		PaymentCount:   s.PaymentCount,
		Subtotal:       money(s.Subtotal),
		TaxAmount:      money(s.TaxAmount),
		ServiceAmount:  money(s.ServiceAmount),
		Rounding:       money(s.Rounding),
		Revenue:        money(s.Revenue),
		Mismatches:     s.Mismatches,
		ByMethod:       byMethod,
		OrdersByStatus: counts,
		Payments:       rows,
	}
}
