package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tokobesi/terminal/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Totals is the reconciled view of a cart. It is recomputed on every call so
// credits follow the cart as lines change.
type Totals struct {
	ItemCount            int   `json:"item_count"`
	SubtotalCents        int64 `json:"subtotal_cents"`
	DiscountCents        int64 `json:"discount_cents"`
	NetCents             int64 `json:"net_cents"`
	ExchangeCreditCents  int64 `json:"exchange_credit_cents"`
	ExchangeAppliedCents int64 `json:"exchange_applied_cents"`
	VoucherBalanceCents  int64 `json:"voucher_balance_cents"`
	VoucherAppliedCents  int64 `json:"voucher_applied_cents"`
	AmountDueCents       int64 `json:"amount_due_cents"`
}

func (c *Cart) Totals() Totals {
	var t Totals
	for _, line := range c.state.Lines {
		t.ItemCount += line.Qty
	}
	t.SubtotalCents = c.subtotal()
	t.DiscountCents = discountCents(c.state.Discount, t.SubtotalCents)
	t.NetCents = t.SubtotalCents - t.DiscountCents

	remaining := t.NetCents
	if c.state.Exchange != nil {
		t.ExchangeCreditCents = exchangeCredit(*c.state.Exchange)
		t.ExchangeAppliedCents = min(t.ExchangeCreditCents, remaining)
		remaining -= t.ExchangeAppliedCents
	}
	if c.state.Voucher != nil {
		t.VoucherBalanceCents = c.state.Voucher.BalanceCents
		t.VoucherAppliedCents = max(min(t.VoucherBalanceCents, remaining), 0)
		remaining -= t.VoucherAppliedCents
	}
	t.AmountDueCents = max(remaining, 0)
	return t
}

type PaymentInput struct {
	Method        string `json:"method"`
	Reference     string `json:"reference"`
	TenderedCents int64  `json:"tendered_cents"`
}

// Build reduces the cart into the single checkout request sent to the
// backend. The cart is not modified; callers clear it once the sale is
// accepted.
func (c *Cart) Build(storeID string, terminalID string, pay PaymentInput) (domain.CheckoutRequest, error) {
	if c.IsEmpty() {
		return domain.CheckoutRequest{}, ErrEmptyCart
	}
	totals := c.Totals()

	if c.state.Discount.ManualCents > 0 || (c.state.Discount.Rule == "" && c.state.Discount.Percent > 0) {
		if err := checkDiscountLimit(c.state.Discount, totals.SubtotalCents); err != nil {
			return domain.CheckoutRequest{}, err
		}
	}

	req := domain.CheckoutRequest{
		StoreID:            storeID,
		TerminalID:         terminalID,
		IdempotencyKey:     c.state.IdempotencyKey,
		Items:              make([]domain.CheckoutItem, 0, len(c.state.Lines)),
		SubtotalCents:      totals.SubtotalCents,
		DiscountRule:       c.state.Discount.Rule,
		DiscountPercent:    c.state.Discount.Percent,
		DiscountCents:      totals.DiscountCents,
		SupervisorOverride: c.state.Discount.SupervisorOverride,
		TotalCents:         totals.NetCents,
		AmountDueCents:     totals.AmountDueCents,
	}
	for _, line := range c.state.Lines {
		req.Items = append(req.Items, domain.CheckoutItem{
			ProductID:      line.ProductID,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
		})
	}

	if ex := c.state.Exchange; ex != nil {
		if totals.ExchangeCreditCents < 1 {
			return domain.CheckoutRequest{}, ErrNoExchangeItems
		}
		if totals.NetCents < totals.ExchangeCreditCents {
			return domain.CheckoutRequest{}, fmt.Errorf("%w: credit %d, new items %d", ErrExchangeFloor, totals.ExchangeCreditCents, totals.NetCents)
		}
		credit := &domain.ExchangeCredit{SaleID: ex.SaleID, CreditCents: totals.ExchangeAppliedCents}
		for _, line := range ex.Lines {
			if line.MarkedQty < 1 {
				continue
			}
			credit.Items = append(credit.Items, domain.ReturnLine{
				ProductID:      line.ProductID,
				Qty:            line.MarkedQty,
				UnitPriceCents: line.UnitPriceCents,
			})
		}
		req.Exchange = credit
	}

	if v := c.state.Voucher; v != nil {
		if err := voucherUsable(*v, c.now()); err != nil {
			return domain.CheckoutRequest{}, err
		}
		if totals.VoucherAppliedCents > 0 {
			req.Voucher = &domain.VoucherRedemption{Code: v.Code, AppliedCents: totals.VoucherAppliedCents}
		}
	}

	payment, err := settlePayment(pay, totals.AmountDueCents)
	if err != nil {
		return domain.CheckoutRequest{}, err
	}
	req.Payment = payment
	return req, nil
}

func settlePayment(pay PaymentInput, due int64) (domain.Payment, error) {
	method := strings.ToLower(strings.TrimSpace(pay.Method))
	reference := strings.TrimSpace(pay.Reference)

	if due == 0 {
		return domain.Payment{Method: domain.PaymentCredit}, nil
	}

	switch method {
	case "", domain.PaymentCash:
		if pay.TenderedCents < due {
			return domain.Payment{}, fmt.Errorf("%w: due %d, tendered %d", ErrInsufficientTender, due, pay.TenderedCents)
		}
		return domain.Payment{
			Method:        domain.PaymentCash,
			Reference:     reference,
			TenderedCents: pay.TenderedCents,
			ChangeCents:   pay.TenderedCents - due,
		}, nil
	case domain.PaymentCard, domain.PaymentTransfer, domain.PaymentQRIS:
		if reference == "" {
			return domain.Payment{}, ErrPaymentReference
		}
		return domain.Payment{Method: method, Reference: reference, TenderedCents: due}, nil
	default:
		return domain.Payment{}, fmt.Errorf("%w: %s", ErrUnknownPayment, method)
	}
}

func discountCents(d domain.DiscountSelection, subtotal int64) int64 {
	if subtotal < 1 {
		return 0
	}
	var amount int64
	switch {
	case d.ManualCents > 0:
		amount = d.ManualCents
	case d.Percent > 0:
		amount = percentOf(subtotal, d.Percent)
	}
	return min(amount, subtotal)
}

func checkDiscountLimit(d domain.DiscountSelection, subtotal int64) error {
	if d.SupervisorOverride {
		return nil
	}
	limit := percentOf(subtotal, d.MaxPercent)
	if discountCents(d, subtotal) > limit {
		return fmt.Errorf("%w: max %s%% without supervisor", ErrDiscountLimit, decimal.NewFromFloat(d.MaxPercent).String())
	}
	return nil
}

// percentOf rounds half away from zero to whole minor units.
func percentOf(amount int64, percent float64) int64 {
	if amount == 0 || percent <= 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(percent)).
		Div(hundred).
		Round(0).
		IntPart()
}

func exchangeCredit(ex domain.ExchangeState) int64 {
	var credit int64
	for _, line := range ex.Lines {
		credit += int64(line.MarkedQty) * line.UnitPriceCents
	}
	return credit
}
