package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"tokobesi/terminal/internal/checkout"
	"tokobesi/terminal/internal/service"
	"tokobesi/terminal/internal/store"
)

type qtyRequest struct {
	Qty int `json:"qty"`
}

type discountRequest struct {
	Rule          string  `json:"rule"`
	Percent       float64 `json:"percent"`
	Cents         int64   `json:"cents"`
	SupervisorPIN string  `json:"supervisor_pin"`
}

type codeRequest struct {
	Code string `json:"code"`
}

type exchangeRequest struct {
	SaleID string `json:"sale_id"`
}

type holdRequest struct {
	Note string `json:"note"`
}

func (a *API) writeCart(w http.ResponseWriter, view service.CartView, err error) {
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cart": view})
}

func (a *API) handleCart(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		view, err := a.service.Cart(r.Context())
		a.writeCart(w, view, err)
	case http.MethodDelete:
		view, err := a.service.ClearCart(r.Context())
		a.writeCart(w, view, err)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCartItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req service.CartAddRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.AddToCart(r.Context(), req)
	a.writeCart(w, view, err)
}

func (a *API) handleCartItemActions(w http.ResponseWriter, r *http.Request) {
	parts := pathTail(r, "/api/v1/cart/items/")
	if len(parts) != 1 {
		writeError(w, http.StatusBadRequest, errors.New("product id required"))
		return
	}
	productID := parts[0]

	switch r.Method {
	case http.MethodPatch:
		var req qtyRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		view, err := a.service.UpdateCartLine(r.Context(), productID, req.Qty)
		a.writeCart(w, view, err)
	case http.MethodDelete:
		view, err := a.service.RemoveCartLine(r.Context(), productID)
		a.writeCart(w, view, err)
	default:
		writeMethodNotAllowed(w)
	}
}

// handleCartDiscount applies a named rule when rule is set, otherwise a
// manual discount.
func (a *API) handleCartDiscount(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req discountRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if strings.TrimSpace(req.Rule) != "" {
			view, err := a.service.ApplyDiscountRule(r.Context(), req.Rule)
			a.writeCart(w, view, err)
			return
		}
		if strings.TrimSpace(req.SupervisorPIN) != "" && !a.pinLimiter.Allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, errors.New("too many supervisor PIN attempts"))
			return
		}
		view, err := a.service.SetManualDiscount(r.Context(), service.ManualDiscountRequest{
			Percent:       req.Percent,
			Cents:         req.Cents,
			SupervisorPIN: req.SupervisorPIN,
		})
		a.writeCart(w, view, err)
	case http.MethodDelete:
		view, err := a.service.ClearDiscount(r.Context())
		a.writeCart(w, view, err)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCartVoucher(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req codeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		view, err := a.service.ApplyVoucher(r.Context(), req.Code)
		a.writeCart(w, view, err)
	case http.MethodDelete:
		view, err := a.service.RemoveVoucher(r.Context())
		a.writeCart(w, view, err)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCartExchange(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req exchangeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		view, err := a.service.StartExchange(r.Context(), req.SaleID)
		a.writeCart(w, view, err)
	case http.MethodDelete:
		view, err := a.service.CancelExchange(r.Context())
		a.writeCart(w, view, err)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCartExchangeItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		writeMethodNotAllowed(w)
		return
	}
	parts := pathTail(r, "/api/v1/cart/exchange/items/")
	if len(parts) != 1 {
		writeError(w, http.StatusBadRequest, errors.New("product id required"))
		return
	}
	var req qtyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.MarkForExchange(r.Context(), parts[0], req.Qty)
	a.writeCart(w, view, err)
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req checkout.PaymentInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := a.service.Checkout(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (a *API) handleHeldSales(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := parsePositiveLimit(r.URL.Query().Get("limit"), store.DefaultHeldLimit, store.DefaultHeldLimit)
		held, err := a.service.HeldSales(r.Context(), limit)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"held_sales": held})
	case http.MethodPost:
		var req holdRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		held, err := a.service.HoldSale(r.Context(), req.Note)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"held_sale": held})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleHeldSaleActions(w http.ResponseWriter, r *http.Request) {
	parts := pathTail(r, "/api/v1/held/")
	switch {
	case len(parts) == 2 && parts[1] == "resume":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		view, err := a.service.ResumeHeldSale(r.Context(), parts[0])
		a.writeCart(w, view, err)
	case len(parts) == 1:
		if r.Method != http.MethodDelete {
			writeMethodNotAllowed(w)
			return
		}
		if err := a.service.DiscardHeldSale(r.Context(), parts[0]); err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusBadRequest, errors.New("unknown held sale action"))
	}
}
