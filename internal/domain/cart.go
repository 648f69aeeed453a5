package domain

import "time"

// CartLine is one product in a terminal cart. StockQty is the stock the
// catalog reported when the line was added.
type CartLine struct {
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Qty            int    `json:"qty"`
	StockQty       int    `json:"stock_qty"`
}

type DiscountSelection struct {
	Rule               string  `json:"rule,omitempty"`
	Percent            float64 `json:"percent,omitempty"`
	ManualCents        int64   `json:"manual_cents,omitempty"`
	MaxPercent         float64 `json:"max_percent,omitempty"`
	SupervisorOverride bool    `json:"supervisor_override,omitempty"`
}

type ExchangeLine struct {
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	ReturnableQty  int    `json:"returnable_qty"`
	MarkedQty      int    `json:"marked_qty"`
}

type ExchangeState struct {
	SaleID    string         `json:"sale_id"`
	ReceiptNo string         `json:"receipt_no"`
	Lines     []ExchangeLine `json:"lines"`
}

// CartState is the persisted form of a cart.
type CartState struct {
	Lines          []CartLine        `json:"lines"`
	Discount       DiscountSelection `json:"discount"`
	Voucher        *Voucher          `json:"voucher,omitempty"`
	Exchange       *ExchangeState    `json:"exchange,omitempty"`
	IdempotencyKey string            `json:"idempotency_key"`
}

type Session struct {
	ID         string    `json:"id"`
	Token      string    `json:"-"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	StoreID    string    `json:"store_id"`
	TerminalID string    `json:"terminal_id"`
	Cart       CartState `json:"cart"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (s Session) Expired(at time.Time) bool {
	return !s.ExpiresAt.IsZero() && !at.Before(s.ExpiresAt)
}

type HeldSale struct {
	ID          string    `json:"id"`
	StoreID     string    `json:"store_id"`
	TerminalID  string    `json:"terminal_id"`
	CashierName string    `json:"cashier_name"`
	Note        string    `json:"note"`
	Cart        CartState `json:"cart"`
	HeldAt      time.Time `json:"held_at"`
}
