package domain

import "time"

type Product struct {
	ID         string `json:"id"`
	SKU        string `json:"sku"`
	Barcode    string `json:"barcode,omitempty"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Unit       string `json:"unit,omitempty"`
	PriceCents int64  `json:"price_cents"`
	CostCents  int64  `json:"cost_cents,omitempty"`
	StockQty   int    `json:"stock_qty"`
	StoreID    string `json:"store_id,omitempty"`
	Active     bool   `json:"active"`
}

type ProductInput struct {
	StoreID    string `json:"store_id"`
	SKU        string `json:"sku"`
	Barcode    string `json:"barcode,omitempty"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Unit       string `json:"unit,omitempty"`
	PriceCents int64  `json:"price_cents"`
	CostCents  int64  `json:"cost_cents"`
	StockQty   int    `json:"stock_qty"`
	Active     *bool  `json:"active,omitempty"`
}

type ProductQuery struct {
	StoreID  string
	Search   string
	Category string
	Page     int
	PageSize int
}

type ProductPage struct {
	Items    []Product `json:"items"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Total    int       `json:"total"`
}

// ActivityLog is the shape shared by /products/logs and /sales/logs.
type ActivityLog struct {
	ID         string    `json:"id"`
	StoreID    string    `json:"store_id"`
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail"`
	ActorName  string    `json:"actor_name"`
	CreatedAt  time.Time `json:"created_at"`
	EntityType string    `json:"entity_type,omitempty"`
}

type LogQuery struct {
	StoreID string
	From    string
	To      string
	Limit   int
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	StoreID  string `json:"store_id"`
	Active   bool   `json:"active"`
}

type Store struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type SaleItem struct {
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type Sale struct {
	ID                  string     `json:"id"`
	ReceiptNo           string     `json:"receipt_no"`
	StoreID             string     `json:"store_id"`
	TerminalID          string     `json:"terminal_id"`
	CashierName         string     `json:"cashier_name"`
	Items               []SaleItem `json:"items"`
	SubtotalCents       int64      `json:"subtotal_cents"`
	DiscountCents       int64      `json:"discount_cents"`
	DiscountRule        string     `json:"discount_rule,omitempty"`
	ExchangeCreditCents int64      `json:"exchange_credit_cents"`
	ExchangeSaleID      string     `json:"exchange_sale_id,omitempty"`
	VoucherCode         string     `json:"voucher_code,omitempty"`
	VoucherAppliedCents int64      `json:"voucher_applied_cents"`
	TotalCents          int64      `json:"total_cents"`
	AmountPaidCents     int64      `json:"amount_paid_cents"`
	ChangeCents         int64      `json:"change_cents"`
	PaymentMethod       string     `json:"payment_method"`
	PaymentReference    string     `json:"payment_reference,omitempty"`
	Status              string     `json:"status"`
	Note                string     `json:"note,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

type SaleQuery struct {
	StoreID  string
	From     string
	To       string
	Status   string
	Page     int
	PageSize int
}

type SaleUpdateRequest struct {
	Status string `json:"status,omitempty"`
	Note   string `json:"note,omitempty"`
}

type ExchangeableItem struct {
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	PurchasedQty   int    `json:"purchased_qty"`
	ReturnedQty    int    `json:"returned_qty"`
	ReturnableQty  int    `json:"returnable_qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type ExchangeableSale struct {
	SaleID    string             `json:"sale_id"`
	ReceiptNo string             `json:"receipt_no"`
	CreatedAt time.Time          `json:"created_at"`
	Items     []ExchangeableItem `json:"items"`
}

type Voucher struct {
	Code         string     `json:"code"`
	BalanceCents int64      `json:"balance_cents"`
	InitialCents int64      `json:"initial_cents"`
	Status       string     `json:"status"`
	SaleID       string     `json:"sale_id,omitempty"`
	ReturnID     string     `json:"return_id,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type VoucherVerifyRequest struct {
	Code    string `json:"code"`
	StoreID string `json:"store_id"`
}

type ReturnLine struct {
	ProductID      string `json:"product_id"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents,omitempty"`
}

type ReturnRequest struct {
	ID          string       `json:"id"`
	SaleID      string       `json:"sale_id"`
	StoreID     string       `json:"store_id"`
	Reason      string       `json:"reason"`
	Status      string       `json:"status"`
	AmountCents int64        `json:"amount_cents"`
	RequestedBy string       `json:"requested_by"`
	ReviewedBy  string       `json:"reviewed_by,omitempty"`
	ReviewNote  string       `json:"review_note,omitempty"`
	Items       []ReturnLine `json:"items"`
	CreatedAt   time.Time    `json:"created_at"`
}

type ReturnCreateRequest struct {
	SaleID  string       `json:"sale_id"`
	StoreID string       `json:"store_id"`
	Reason  string       `json:"reason"`
	Items   []ReturnLine `json:"items"`
}

type ReturnDecision struct {
	Note string `json:"note"`
}

type IssueVoucherRequest struct {
	ReturnID    string `json:"return_id"`
	AmountCents int64  `json:"amount_cents,omitempty"`
}

// DiscountRules is the name -> percent map served by /discount-settings/map.
type DiscountRules map[string]float64

type DiscountSetting struct {
	StoreID string  `json:"store_id"`
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
	Active  bool    `json:"active"`
}

type TopProduct struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	QtySold    int    `json:"qty_sold"`
	TotalCents int64  `json:"total_cents"`
}

type DashboardStats struct {
	StoreID           string       `json:"store_id"`
	SalesTodayCents   int64        `json:"sales_today_cents"`
	TransactionsToday int          `json:"transactions_today"`
	ItemsSoldToday    int          `json:"items_sold_today"`
	PendingReturns    int          `json:"pending_returns"`
	LowStockProducts  int          `json:"low_stock_products"`
	TopProducts       []TopProduct `json:"top_products"`
}

type PaymentBreakdown struct {
	PaymentMethod string `json:"payment_method"`
	Transactions  int64  `json:"transactions"`
	TotalCents    int64  `json:"total_cents"`
}

type CashierBreakdown struct {
	CashierName  string `json:"cashier_name"`
	Transactions int64  `json:"transactions"`
	TotalCents   int64  `json:"total_cents"`
}

type DailySalesReport struct {
	StoreID             string             `json:"store_id"`
	Date                string             `json:"date"`
	Transactions        int64              `json:"transactions"`
	GrossSalesCents     int64              `json:"gross_sales_cents"`
	DiscountCents       int64              `json:"discount_cents"`
	VoucherCents        int64              `json:"voucher_cents"`
	ExchangeCreditCents int64              `json:"exchange_credit_cents"`
	NetSalesCents       int64              `json:"net_sales_cents"`
	ByPayment           []PaymentBreakdown `json:"by_payment"`
	ByCashier           []CashierBreakdown `json:"by_cashier"`
}

type ProfitSummary struct {
	StoreID          string  `json:"store_id"`
	From             string  `json:"from"`
	To               string  `json:"to"`
	RevenueCents     int64   `json:"revenue_cents"`
	CostCents        int64   `json:"cost_cents"`
	GrossProfitCents int64   `json:"gross_profit_cents"`
	MarginPercent    float64 `json:"margin_percent"`
}

type CheckoutItem struct {
	ProductID      string `json:"product_id"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type VoucherRedemption struct {
	Code         string `json:"code"`
	AppliedCents int64  `json:"applied_cents"`
}

type ExchangeCredit struct {
	SaleID      string       `json:"sale_id"`
	Items       []ReturnLine `json:"items"`
	CreditCents int64        `json:"credit_cents"`
}

type Payment struct {
	Method        string `json:"method"`
	Reference     string `json:"reference,omitempty"`
	TenderedCents int64  `json:"tendered_cents"`
	ChangeCents   int64  `json:"change_cents"`
}

// CheckoutRequest is the single POST /sales body produced by a cart.
type CheckoutRequest struct {
	StoreID            string             `json:"store_id"`
	TerminalID         string             `json:"terminal_id"`
	IdempotencyKey     string             `json:"idempotency_key"`
	Items              []CheckoutItem     `json:"items"`
	SubtotalCents      int64              `json:"subtotal_cents"`
	DiscountRule       string             `json:"discount_rule,omitempty"`
	DiscountPercent    float64            `json:"discount_percent,omitempty"`
	DiscountCents      int64              `json:"discount_cents"`
	SupervisorOverride bool               `json:"supervisor_override,omitempty"`
	Voucher            *VoucherRedemption `json:"voucher,omitempty"`
	Exchange           *ExchangeCredit    `json:"exchange,omitempty"`
	TotalCents         int64              `json:"total_cents"`
	AmountDueCents     int64              `json:"amount_due_cents"`
	Payment            Payment            `json:"payment"`
}

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
)

const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentQRIS     = "qris"
	PaymentCredit   = "credit"
)

const (
	VoucherStatusActive = "active"

	ReturnStatusPending  = "pending"
	ReturnStatusApproved = "approved"
	ReturnStatusRejected = "rejected"
)
