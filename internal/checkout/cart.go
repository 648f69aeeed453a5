package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tokobesi/terminal/internal/domain"
	"tokobesi/terminal/internal/xid"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidQty         = errors.New("quantity must be at least 1")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrProductInactive    = errors.New("product is not for sale")
	ErrLineNotFound       = errors.New("item is not in the cart")
	ErrCartNotEmpty       = errors.New("cart already has items")
	ErrCreditConflict     = errors.New("voucher and exchange credit cannot be combined")
	ErrVoucherUnusable    = errors.New("voucher cannot be redeemed")
	ErrNoExchange         = errors.New("no exchange in progress")
	ErrNothingReturnable  = errors.New("sale has no returnable items")
	ErrExchangeQty        = errors.New("exchange quantity exceeds returnable quantity")
	ErrNoExchangeItems    = errors.New("mark at least one item for exchange")
	ErrExchangeFloor      = errors.New("new items must be worth at least the exchange credit")
	ErrHoldExchange       = errors.New("finish or cancel the exchange before holding the sale")
	ErrUnknownDiscount    = errors.New("unknown discount rule")
	ErrDiscountLimit      = errors.New("discount exceeds the allowed limit")
	ErrInvalidDiscount    = errors.New("invalid discount")
	ErrUnknownPayment     = errors.New("unsupported payment method")
	ErrInsufficientTender = errors.New("tendered amount is less than amount due")
	ErrPaymentReference   = errors.New("payment reference required")
)

// Cart is the terminal's working sale. It is not safe for concurrent use;
// callers serialize access per session.
type Cart struct {
	state domain.CartState
	now   func() time.Time
}

func New() *Cart {
	return &Cart{
		state: domain.CartState{IdempotencyKey: newIdempotencyKey()},
		now:   time.Now,
	}
}

// FromState rebuilds a cart from its persisted form.
func FromState(state domain.CartState) *Cart {
	c := &Cart{state: cloneState(state), now: time.Now}
	if c.state.IdempotencyKey == "" {
		c.state.IdempotencyKey = newIdempotencyKey()
	}
	return c
}

func (c *Cart) State() domain.CartState {
	return cloneState(c.state)
}

func (c *Cart) Lines() []domain.CartLine {
	return append([]domain.CartLine(nil), c.state.Lines...)
}

func (c *Cart) IsEmpty() bool {
	return len(c.state.Lines) == 0
}

func (c *Cart) IdempotencyKey() string {
	return c.state.IdempotencyKey
}

func (c *Cart) Voucher() *domain.Voucher {
	if c.state.Voucher == nil {
		return nil
	}
	v := *c.state.Voucher
	return &v
}

func (c *Cart) Exchange() *domain.ExchangeState {
	if c.state.Exchange == nil {
		return nil
	}
	ex := cloneExchange(*c.state.Exchange)
	return &ex
}

func (c *Cart) Discount() domain.DiscountSelection {
	return c.state.Discount
}

func (c *Cart) Add(product domain.Product, qty int) error {
	if qty < 1 {
		return ErrInvalidQty
	}
	if !product.Active {
		return ErrProductInactive
	}
	for i := range c.state.Lines {
		line := &c.state.Lines[i]
		if line.ProductID != product.ID {
			continue
		}
		if exceedsStock(product.StockQty, line.Qty+qty) {
			return fmt.Errorf("%w: %s has %d left", ErrInsufficientStock, product.Name, product.StockQty)
		}
		line.Qty += qty
		line.StockQty = product.StockQty
		line.UnitPriceCents = product.PriceCents
		c.touch()
		return nil
	}
	if exceedsStock(product.StockQty, qty) {
		return fmt.Errorf("%w: %s has %d left", ErrInsufficientStock, product.Name, product.StockQty)
	}
	c.state.Lines = append(c.state.Lines, domain.CartLine{
		ProductID:      product.ID,
		SKU:            product.SKU,
		Name:           product.Name,
		Category:       product.Category,
		UnitPriceCents: product.PriceCents,
		Qty:            qty,
		StockQty:       product.StockQty,
	})
	c.touch()
	return nil
}

// SetQty replaces the quantity of a line; zero removes it.
func (c *Cart) SetQty(productID string, qty int) error {
	if qty < 0 {
		return ErrInvalidQty
	}
	if qty == 0 {
		return c.Remove(productID)
	}
	idx := c.indexOf(productID)
	if idx < 0 {
		return ErrLineNotFound
	}
	line := &c.state.Lines[idx]
	if exceedsStock(line.StockQty, qty) {
		return fmt.Errorf("%w: %s has %d left", ErrInsufficientStock, line.Name, line.StockQty)
	}
	line.Qty = qty
	c.touch()
	return nil
}

// Remove drops a line. Removing the last line clears the whole cart,
// credits included.
func (c *Cart) Remove(productID string) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return ErrLineNotFound
	}
	c.state.Lines = append(c.state.Lines[:idx], c.state.Lines[idx+1:]...)
	if len(c.state.Lines) == 0 {
		c.Clear()
		return nil
	}
	c.touch()
	return nil
}

// Clear empties the cart and rolls back discount, voucher and exchange state.
func (c *Cart) Clear() {
	c.state = domain.CartState{IdempotencyKey: newIdempotencyKey()}
}

func (c *Cart) ApplyDiscountRule(name string, rules domain.DiscountRules) error {
	if c.IsEmpty() {
		return ErrEmptyCart
	}
	name = strings.TrimSpace(name)
	percent, ok := rules[name]
	if name == "" || !ok {
		return ErrUnknownDiscount
	}
	if percent <= 0 || percent > 100 {
		return ErrInvalidDiscount
	}
	c.state.Discount = domain.DiscountSelection{Rule: name, Percent: percent}
	c.touch()
	return nil
}

type ManualDiscount struct {
	Percent float64
	Cents   int64
}

// SetManualDiscount applies a cashier-entered discount. Without a supervisor
// override the effective discount may not exceed maxPercent of the subtotal.
func (c *Cart) SetManualDiscount(d ManualDiscount, maxPercent float64, override bool) error {
	if c.IsEmpty() {
		return ErrEmptyCart
	}
	if d.Percent < 0 || d.Percent > 100 || d.Cents < 0 || (d.Percent > 0 && d.Cents > 0) {
		return ErrInvalidDiscount
	}
	if d.Percent == 0 && d.Cents == 0 {
		c.ClearDiscount()
		return nil
	}
	selection := domain.DiscountSelection{
		Percent:            d.Percent,
		ManualCents:        d.Cents,
		MaxPercent:         maxPercent,
		SupervisorOverride: override,
	}
	if err := checkDiscountLimit(selection, c.subtotal()); err != nil {
		return err
	}
	c.state.Discount = selection
	c.touch()
	return nil
}

func (c *Cart) ClearDiscount() {
	c.state.Discount = domain.DiscountSelection{}
	c.touch()
}

func (c *Cart) ApplyVoucher(v domain.Voucher) error {
	if c.IsEmpty() {
		return ErrEmptyCart
	}
	if c.state.Exchange != nil {
		return ErrCreditConflict
	}
	if err := voucherUsable(v, c.now()); err != nil {
		return err
	}
	c.state.Voucher = &v
	c.touch()
	return nil
}

func (c *Cart) RemoveVoucher() {
	c.state.Voucher = nil
	c.touch()
}

// StartExchange attaches a previous sale whose items can be traded in.
func (c *Cart) StartExchange(sale domain.ExchangeableSale) error {
	if c.state.Voucher != nil {
		return ErrCreditConflict
	}
	lines := make([]domain.ExchangeLine, 0, len(sale.Items))
	for _, item := range sale.Items {
		if item.ReturnableQty < 1 {
			continue
		}
		lines = append(lines, domain.ExchangeLine{
			ProductID:      item.ProductID,
			SKU:            item.SKU,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			ReturnableQty:  item.ReturnableQty,
		})
	}
	if len(lines) == 0 {
		return ErrNothingReturnable
	}
	c.state.Exchange = &domain.ExchangeState{
		SaleID:    sale.SaleID,
		ReceiptNo: sale.ReceiptNo,
		Lines:     lines,
	}
	c.touch()
	return nil
}

// MarkForExchange sets how many units of an original line are traded in.
func (c *Cart) MarkForExchange(productID string, qty int) error {
	if c.state.Exchange == nil {
		return ErrNoExchange
	}
	if qty < 0 {
		return ErrInvalidQty
	}
	for i := range c.state.Exchange.Lines {
		line := &c.state.Exchange.Lines[i]
		if line.ProductID != productID {
			continue
		}
		if qty > line.ReturnableQty {
			return ErrExchangeQty
		}
		line.MarkedQty = qty
		c.touch()
		return nil
	}
	return ErrLineNotFound
}

func (c *Cart) CancelExchange() {
	c.state.Exchange = nil
	c.touch()
}

// Snapshot returns a holdable copy of the cart.
func (c *Cart) Snapshot() (domain.CartState, error) {
	if c.IsEmpty() {
		return domain.CartState{}, ErrEmptyCart
	}
	if c.state.Exchange != nil {
		return domain.CartState{}, ErrHoldExchange
	}
	return c.State(), nil
}

// Restore loads a held snapshot into an empty cart.
func (c *Cart) Restore(state domain.CartState) error {
	if !c.IsEmpty() {
		return ErrCartNotEmpty
	}
	if len(state.Lines) == 0 {
		return ErrEmptyCart
	}
	if state.Exchange != nil {
		return ErrHoldExchange
	}
	restored := cloneState(state)
	if restored.Voucher != nil && voucherUsable(*restored.Voucher, c.now()) != nil {
		restored.Voucher = nil
	}
	restored.IdempotencyKey = newIdempotencyKey()
	c.state = restored
	return nil
}

func (c *Cart) indexOf(productID string) int {
	for i, line := range c.state.Lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) subtotal() int64 {
	var total int64
	for _, line := range c.state.Lines {
		total += int64(line.Qty) * line.UnitPriceCents
	}
	return total
}

// touch rotates the idempotency key: any edit makes a new sale.
func (c *Cart) touch() {
	c.state.IdempotencyKey = newIdempotencyKey()
}

// exceedsStock reports whether qty is more than the catalog has. Zero or
// negative stock means sold out.
func exceedsStock(stock int, qty int) bool {
	return qty > max(stock, 0)
}

func voucherUsable(v domain.Voucher, at time.Time) error {
	if strings.TrimSpace(v.Code) == "" {
		return ErrVoucherUnusable
	}
	if v.Status != "" && v.Status != domain.VoucherStatusActive {
		return fmt.Errorf("%w: status %s", ErrVoucherUnusable, v.Status)
	}
	if v.BalanceCents < 1 {
		return fmt.Errorf("%w: no balance left", ErrVoucherUnusable)
	}
	if v.ExpiresAt != nil && !at.Before(*v.ExpiresAt) {
		return fmt.Errorf("%w: expired", ErrVoucherUnusable)
	}
	return nil
}

func newIdempotencyKey() string {
	return xid.New("sale")
}

func cloneState(src domain.CartState) domain.CartState {
	dst := src
	dst.Lines = append([]domain.CartLine(nil), src.Lines...)
	if src.Voucher != nil {
		v := *src.Voucher
		dst.Voucher = &v
	}
	if src.Exchange != nil {
		ex := cloneExchange(*src.Exchange)
		dst.Exchange = &ex
	}
	return dst
}

func cloneExchange(src domain.ExchangeState) domain.ExchangeState {
	dst := src
	dst.Lines = append([]domain.ExchangeLine(nil), src.Lines...)
	return dst
}
