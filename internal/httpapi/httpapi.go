package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tokobesi/terminal/internal/apiclient"
	"tokobesi/terminal/internal/checkout"
	"tokobesi/terminal/internal/domain"
	"tokobesi/terminal/internal/service"
	"tokobesi/terminal/internal/store"
)

type API struct {
	service       *service.Service
	allowedOrigin string
	secureCookies bool
	loginLimiter  *attemptLimiter
	pinLimiter    *attemptLimiter
	csrfSecret    []byte
}

func New(svc *service.Service, allowedOrigin string, secureCookies bool) *API {
	csrfSecret := make([]byte, 32)
	if _, err := rand.Read(csrfSecret); err != nil {
		log.Fatalf("csrf secret: %v", err)
	}
	return &API{
		service:       svc,
		allowedOrigin: allowedOrigin,
		secureCookies: secureCookies,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		pinLimiter:    newAttemptLimiter(8, time.Minute),
		csrfSecret:    csrfSecret,
	}
}

var backOffice = []string{domain.RoleAdmin, domain.RoleManager}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)
	mux.HandleFunc("/api/v1/auth/logout", a.requireSession(a.handleLogout))
	mux.HandleFunc("/api/v1/auth/session", a.requireSession(a.handleSession))
	mux.HandleFunc("/api/v1/auth/csrf-token", a.handleCSRFToken)

	mux.HandleFunc("/api/v1/cart", a.requireSession(a.handleCart))
	mux.HandleFunc("/api/v1/cart/items", a.requireSession(a.handleCartItems))
	mux.HandleFunc("/api/v1/cart/items/", a.requireSession(a.handleCartItemActions))
	mux.HandleFunc("/api/v1/cart/discount", a.requireSession(a.handleCartDiscount))
	mux.HandleFunc("/api/v1/cart/voucher", a.requireSession(a.handleCartVoucher))
	mux.HandleFunc("/api/v1/cart/exchange", a.requireSession(a.handleCartExchange))
	mux.HandleFunc("/api/v1/cart/exchange/items/", a.requireSession(a.handleCartExchangeItems))
	mux.HandleFunc("/api/v1/checkout", a.requireSession(a.handleCheckout))
	mux.HandleFunc("/api/v1/held", a.requireSession(a.handleHeldSales))
	mux.HandleFunc("/api/v1/held/", a.requireSession(a.handleHeldSaleActions))

	mux.HandleFunc("/api/v1/products", a.requireSession(a.handleProducts))
	mux.HandleFunc("/api/v1/products/logs", a.requireSession(a.handleProductLogs, backOffice...))
	mux.HandleFunc("/api/v1/products/", a.requireSession(a.handleProductActions, backOffice...))
	mux.HandleFunc("/api/v1/sales", a.requireSession(a.handleSales))
	mux.HandleFunc("/api/v1/sales/logs", a.requireSession(a.handleSaleLogs, backOffice...))
	mux.HandleFunc("/api/v1/sales/", a.requireSession(a.handleSaleActions))
	mux.HandleFunc("/api/v1/returns", a.requireSession(a.handleReturns))
	mux.HandleFunc("/api/v1/returns/", a.requireSession(a.handleReturnActions, backOffice...))
	mux.HandleFunc("/api/v1/vouchers/verify", a.requireSession(a.handleVoucherVerify))
	mux.HandleFunc("/api/v1/vouchers/", a.requireSession(a.handleVoucherActions))
	mux.HandleFunc("/api/v1/settings/discounts", a.requireSession(a.handleDiscountSettings))
	mux.HandleFunc("/api/v1/stores", a.requireSession(a.handleStores))
	mux.HandleFunc("/api/v1/users", a.requireSession(a.handleUsers, backOffice...))
	mux.HandleFunc("/api/v1/dashboard", a.requireSession(a.handleDashboard, backOffice...))
	mux.HandleFunc("/api/v1/reports/daily", a.requireSession(a.handleDailyReport))
	mux.HandleFunc("/api/v1/reports/profit", a.requireSession(a.handleProfitReport, backOffice...))

	mux.HandleFunc("/print/receipt/", a.requirePage(a.handlePrintReceipt))
	mux.HandleFunc("/print/voucher/", a.requirePage(a.handlePrintVoucher))
	mux.HandleFunc("/print/reports/daily", a.requirePage(a.handlePrintDailyReport))

	return a.withMiddleware(mux)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-CSRF-Token, "+apiclient.HeaderCorrelationID)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		correlationID := strings.TrimSpace(r.Header.Get(apiclient.HeaderCorrelationID))
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		w.Header().Set(apiclient.HeaderCorrelationID, correlationID)
		r = r.WithContext(apiclient.WithCorrelationID(r.Context(), correlationID))

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if !a.checkCSRF(w, r) {
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s cid=%s", r.Method, r.URL.Path, time.Since(startedAt), correlationID)
	})
}

var cartRuleErrors = []error{
	checkout.ErrEmptyCart,
	checkout.ErrInvalidQty,
	checkout.ErrInsufficientStock,
	checkout.ErrProductInactive,
	checkout.ErrVoucherUnusable,
	checkout.ErrNoExchange,
	checkout.ErrNothingReturnable,
	checkout.ErrExchangeQty,
	checkout.ErrNoExchangeItems,
	checkout.ErrExchangeFloor,
	checkout.ErrHoldExchange,
	checkout.ErrUnknownDiscount,
	checkout.ErrDiscountLimit,
	checkout.ErrInvalidDiscount,
	checkout.ErrUnknownPayment,
	checkout.ErrInsufficientTender,
	checkout.ErrPaymentReference,
	store.ErrInvalidHold,
}

func isCartRuleError(err error) bool {
	for _, target := range cartRuleErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isBackendRejection(err error) bool {
	return errors.Is(err, apiclient.ErrUnauthorized)
}

// writeServiceError maps service, cart and backend errors onto the terminal
// API. Backend 4xx messages are passed through verbatim.
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	var backendErr *apiclient.Error
	switch {
	case errors.Is(err, service.ErrNoSession), isBackendRejection(err):
		a.clearSessionCookie(w)
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":    err.Error(),
			"redirect": "/login",
		})
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrSupervisorPIN):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, store.ErrNotFound), errors.Is(err, checkout.ErrLineNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, checkout.ErrCartNotEmpty), errors.Is(err, checkout.ErrCreditConflict):
		writeError(w, http.StatusConflict, err)
	case isCartRuleError(err):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.As(err, &backendErr):
		if backendErr.Status >= 500 {
			log.Printf("[terminal] WARN: backend error (status %d): %v", backendErr.Status, err)
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": "store backend unavailable"})
			return
		}
		writeError(w, backendErr.Status, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// pathTail returns the path below prefix split into its segments.
func pathTail(r *http.Request, prefix string) []string {
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if tail == "" {
		return nil
	}
	return strings.Split(tail, "/")
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx details stay in the log.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
