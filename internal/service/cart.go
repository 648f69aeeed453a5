package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"tokobesi/terminal/internal/checkout"
	"tokobesi/terminal/internal/domain"
	"tokobesi/terminal/internal/printq"
	"tokobesi/terminal/internal/store"
)

// CartView is what the POS screen renders after every cart operation.
type CartView struct {
	Lines                    []domain.CartLine        `json:"lines"`
	Totals                   checkout.Totals          `json:"totals"`
	Discount                 domain.DiscountSelection `json:"discount"`
	Voucher                  *domain.Voucher          `json:"voucher,omitempty"`
	Exchange                 *domain.ExchangeState    `json:"exchange,omitempty"`
	IdempotencyKey           string                   `json:"idempotency_key"`
	MaxManualDiscountPercent float64                  `json:"max_manual_discount_percent"`
}

type CartAddRequest struct {
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
	Qty       int    `json:"qty"`
}

type ManualDiscountRequest struct {
	Percent       float64 `json:"percent"`
	Cents         int64   `json:"cents"`
	SupervisorPIN string  `json:"supervisor_pin"`
}

type CheckoutResult struct {
	Sale    domain.Sale `json:"sale"`
	Printed bool        `json:"printed"`
	Cart    CartView    `json:"cart"`
}

func (s *Service) view(cart *checkout.Cart) CartView {
	lines := cart.Lines()
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return CartView{
		Lines:                    lines,
		Totals:                   cart.Totals(),
		Discount:                 cart.Discount(),
		Voucher:                  cart.Voucher(),
		Exchange:                 cart.Exchange(),
		IdempotencyKey:           cart.IdempotencyKey(),
		MaxManualDiscountPercent: s.opts.MaxManualDiscountPercent,
	}
}

// withCart runs fn against the session's stored cart under the session lock
// and persists the result only when fn succeeds.
func (s *Service) withCart(ctx context.Context, fn func(session domain.Session, cart *checkout.Cart) error) (CartView, error) {
	return s.withCartUndo(ctx, func(session domain.Session, cart *checkout.Cart) (func(), error) {
		return nil, fn(session, cart)
	})
}

// withCartUndo is withCart for edits that also touch held sales. The undo
// returned by fn runs when the session cannot be saved.
func (s *Service) withCartUndo(ctx context.Context, fn func(session domain.Session, cart *checkout.Cart) (func(), error)) (CartView, error) {
	current, err := s.current(ctx)
	if err != nil {
		return CartView{}, err
	}
	unlock := s.locks.Lock(current.ID)
	defer unlock()

	session, err := s.repo.GetSession(ctx, current.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CartView{}, ErrNoSession
		}
		return CartView{}, err
	}

	cart := checkout.FromState(session.Cart)
	undo, err := fn(*session, cart)
	if err != nil {
		return CartView{}, err
	}
	session.Cart = cart.State()
	if err := s.repo.SaveSession(ctx, *session); err != nil {
		if undo != nil {
			undo()
		}
		return CartView{}, err
	}
	return s.view(cart), nil
}

func (s *Service) Cart(ctx context.Context) (CartView, error) {
	current, err := s.current(ctx)
	if err != nil {
		return CartView{}, err
	}
	session, err := s.repo.GetSession(ctx, current.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CartView{}, ErrNoSession
		}
		return CartView{}, err
	}
	return s.view(checkout.FromState(session.Cart)), nil
}

// AddToCart resolves the product by id, SKU or barcode from the store
// catalog and adds it.
func (s *Service) AddToCart(ctx context.Context, req CartAddRequest) (CartView, error) {
	if req.Qty == 0 {
		req.Qty = 1
	}
	return s.withCart(ctx, func(session domain.Session, cart *checkout.Cart) error {
		product, err := s.findProduct(ctx, session.StoreID, req)
		if err != nil {
			return err
		}
		return cart.Add(product, req.Qty)
	})
}

func (s *Service) findProduct(ctx context.Context, storeID string, req CartAddRequest) (domain.Product, error) {
	id := strings.TrimSpace(req.ProductID)
	code := strings.TrimSpace(req.Code)
	if id == "" && code == "" {
		return domain.Product{}, fmt.Errorf("%w: product_id or code is required", ErrInvalidInput)
	}

	products, err := s.catalog(ctx, s.storeFor(ctx, storeID))
	if err != nil {
		return domain.Product{}, err
	}
	for _, product := range products {
		if id != "" && product.ID == id {
			return product, nil
		}
		if code != "" && (strings.EqualFold(product.SKU, code) || (product.Barcode != "" && product.Barcode == code)) {
			return product, nil
		}
	}
	return domain.Product{}, ErrProductNotFound
}

func (s *Service) UpdateCartLine(ctx context.Context, productID string, qty int) (CartView, error) {
	return s.withCart(ctx, func(_ domain.Session, cart *checkout.Cart) error {
		return cart.SetQty(strings.TrimSpace(productID), qty)
	})
}

func (s *Service) RemoveCartLine(ctx context.Context, productID string) (CartView, error) {
	return s.withCart(ctx, func(_ domain.Session, cart *checkout.Cart) error {
		return cart.Remove(strings.TrimSpace(productID))
	})
}

func (s *Service) ClearCart(ctx context.Context) (CartView, error) {
	return s.withCart(ctx, func(_ domain.Session, cart *checkout.Cart) error {
		cart.Clear()
		return nil
	})
}

func (s *Service) ApplyDiscountRule(ctx context.Context, name string) (CartView, error) {
	return s.withCart(ctx, func(session domain.Session, cart *checkout.Cart) error {
		rules, err := s.backend.DiscountRules(ctx, s.storeFor(ctx, session.StoreID))
		if err != nil {
			return s.checkBackend(ctx, err)
		}
		return cart.ApplyDiscountRule(name, rules)
	})
}

// SetManualDiscount applies a cashier discount. A supervisor PIN, when given,
// must be valid and lifts the configured limit.
func (s *Service) SetManualDiscount(ctx context.Context, req ManualDiscountRequest) (CartView, error) {
	override := false
	if strings.TrimSpace(req.SupervisorPIN) != "" {
		if !s.ValidateSupervisorPIN(req.SupervisorPIN) {
			return CartView{}, ErrSupervisorPIN
		}
		override = true
	}
	return s.withCart(ctx, func(session domain.Session, cart *checkout.Cart) error {
		if err := cart.SetManualDiscount(checkout.ManualDiscount{Percent: req.Percent, Cents: req.Cents}, s.opts.MaxManualDiscountPercent, override); err != nil {
			return err
		}
		if override {
			log.Printf("[terminal] supervisor override: discount %.2f%%/%d by %s on %s", req.Percent, req.Cents, session.Username, session.TerminalID)
		}
		return nil
	})
}

func (s *Service) ClearDiscount(ctx context.Context) (CartView, error) {
	return s.withCart(ctx, func(_ domain.Session, cart *checkout.Cart) error {
		cart.ClearDiscount()
		return nil
	})
}

func (s *Service) ApplyVoucher(ctx context.Context, code string) (CartView, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return CartView{}, fmt.Errorf("%w: voucher code is required", ErrInvalidInput)
	}
	return s.withCart(ctx, func(session domain.Session, cart *checkout.Cart) error {
		if cart.IsEmpty() {
			return checkout.ErrEmptyCart
		}
		if cart.Exchange() != nil {
			return checkout.ErrCreditConflict
		}
		voucher, err := s.backend.VerifyVoucher(ctx, domain.VoucherVerifyRequest{Code: code, StoreID: s.storeFor(ctx, session.StoreID)})
		if err != nil {
			return s.checkBackend(ctx, err)
		}
		if voucher.Code == "" {
			voucher.Code = code
		}
		return cart.ApplyVoucher(voucher)
	})
}

func (s *Service) RemoveVoucher(ctx context.Context) (CartView, error) {
	return s.withCart(ctx, func(_ domain.Session, cart *checkout.Cart) error {
		cart.RemoveVoucher()
		return nil
	})
}

func (s *Service) StartExchange(ctx context.Context, saleID string) (CartView, error) {
	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return CartView{}, fmt.Errorf("%w: sale id is required", ErrInvalidInput)
	}
	return s.withCart(ctx, func(_ domain.Session, cart *checkout.Cart) error {
		if cart.Voucher() != nil {
			return checkout.ErrCreditConflict
		}
		sale, err := s.backend.ExchangeableSale(ctx, saleID)
		if err != nil {
			return s.checkBackend(ctx, err)
		}
		return cart.StartExchange(sale)
	})
}

func (s *Service) MarkForExchange(ctx context.Context, productID string, qty int) (CartView, error) {
	return s.withCart(ctx, func(_ domain.Session, cart *checkout.Cart) error {
		return cart.MarkForExchange(strings.TrimSpace(productID), qty)
	})
}

func (s *Service) CancelExchange(ctx context.Context) (CartView, error) {
	return s.withCart(ctx, func(_ domain.Session, cart *checkout.Cart) error {
		cart.CancelExchange()
		return nil
	})
}

// Checkout submits the cart as one sale. On any failure the cart is left as
// it was, idempotency key included, so resubmitting is safe.
func (s *Service) Checkout(ctx context.Context, pay checkout.PaymentInput) (CheckoutResult, error) {
	var result CheckoutResult
	view, err := s.withCart(ctx, func(session domain.Session, cart *checkout.Cart) error {
		req, err := cart.Build(s.storeFor(ctx, session.StoreID), session.TerminalID, pay)
		if err != nil {
			return err
		}
		sale, err := s.backend.CreateSale(ctx, req)
		if err != nil {
			return s.checkBackend(ctx, err)
		}
		result.Sale = sale
		cart.Clear()
		return nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	result.Cart = view
	result.Printed = s.publishReceipt(ctx, result.Sale)
	return result, nil
}

func (s *Service) publishReceipt(ctx context.Context, sale domain.Sale) bool {
	if _, noop := s.printer.(printq.NoopPublisher); noop {
		return false
	}
	session, _ := SessionFromContext(ctx)
	escpos := s.receipts.ESCPOS(sale)
	err := s.printer.Publish(context.WithoutCancel(ctx), printq.Job{
		Kind:         printq.KindReceipt,
		StoreID:      firstNonEmpty(sale.StoreID, session.StoreID),
		TerminalID:   firstNonEmpty(sale.TerminalID, session.TerminalID),
		Reference:    sale.ID,
		EscposBase64: escpos.EscposBase64,
	})
	if err != nil {
		log.Printf("[terminal] WARN: receipt print for sale %s not queued: %v", sale.ID, err)
		return false
	}
	return true
}

// HoldSale parks the current cart and empties it.
func (s *Service) HoldSale(ctx context.Context, note string) (domain.HeldSale, error) {
	var held *domain.HeldSale
	_, err := s.withCartUndo(ctx, func(session domain.Session, cart *checkout.Cart) (func(), error) {
		snapshot, err := cart.Snapshot()
		if err != nil {
			return nil, err
		}
		held, err = s.repo.CreateHeldSale(ctx, domain.HeldSale{
			StoreID:     s.storeFor(ctx, session.StoreID),
			TerminalID:  session.TerminalID,
			CashierName: firstNonEmpty(session.Name, session.Username),
			Note:        strings.TrimSpace(note),
			Cart:        snapshot,
		})
		if err != nil {
			return nil, err
		}
		cart.Clear()
		return func() { s.dropHold(ctx, *held) }, nil
	})
	if err != nil {
		return domain.HeldSale{}, err
	}
	return *held, nil
}

func (s *Service) HeldSales(ctx context.Context, limit int) ([]domain.HeldSale, error) {
	session, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListHeldSales(ctx, s.storeFor(ctx, session.StoreID), session.TerminalID, limit)
}

// ResumeHeldSale loads a held cart into the (empty) current cart. The hold is
// consumed; a voucher that stopped being usable is dropped.
func (s *Service) ResumeHeldSale(ctx context.Context, holdID string) (CartView, error) {
	holdID = strings.TrimSpace(holdID)
	return s.withCartUndo(ctx, func(session domain.Session, cart *checkout.Cart) (func(), error) {
		if !cart.IsEmpty() {
			return nil, checkout.ErrCartNotEmpty
		}
		held, err := s.repo.PopHeldSale(ctx, s.storeFor(ctx, session.StoreID), session.TerminalID, holdID)
		if err != nil {
			return nil, err
		}
		if err := cart.Restore(held.Cart); err != nil {
			s.restoreHold(ctx, *held)
			return nil, err
		}
		return func() { s.restoreHold(ctx, *held) }, nil
	})
}

func (s *Service) restoreHold(ctx context.Context, held domain.HeldSale) {
	if _, err := s.repo.CreateHeldSale(context.WithoutCancel(ctx), held); err != nil {
		log.Printf("[terminal] WARN: failed to put back held sale %s: %v", held.ID, err)
	}
}

func (s *Service) dropHold(ctx context.Context, held domain.HeldSale) {
	if err := s.repo.DeleteHeldSale(context.WithoutCancel(ctx), held.StoreID, held.TerminalID, held.ID); err != nil {
		log.Printf("[terminal] WARN: failed to drop held sale %s: %v", held.ID, err)
	}
}

func (s *Service) DiscardHeldSale(ctx context.Context, holdID string) error {
	session, err := s.current(ctx)
	if err != nil {
		return err
	}
	return s.repo.DeleteHeldSale(ctx, s.storeFor(ctx, session.StoreID), session.TerminalID, strings.TrimSpace(holdID))
}
