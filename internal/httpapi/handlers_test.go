package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"tokobesi/terminal/internal/apiclient"
	"tokobesi/terminal/internal/domain"
	"tokobesi/terminal/internal/service"
	"tokobesi/terminal/internal/store/memory"
)

// backendStub is a minimal store backend answering the routes the handler
// tests reach.
type backendStub struct {
	mu          sync.Mutex
	role        string
	saleStatus  int
	saleMessage string
	sales       []domain.CheckoutRequest
}

func (b *backendStub) token(t *testing.T) string {
	t.Helper()
	claims := jwtlib.MapClaims{
		"sub":      "u-7",
		"role":     b.role,
		"username": "budi",
		"name":     "Budi",
		"store_id": "store-1",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("stub-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func (b *backendStub) handler(t *testing.T) http.Handler {
	token := b.token(t)
	reply := func(w http.ResponseWriter, status int, payload any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}
	sale := domain.Sale{
		ID:            "sale-42",
		ReceiptNo:     "TB-0042",
		CashierName:   "Budi",
		Items:         []domain.SaleItem{{ProductID: "p-1", Name: "Obeng <Plus>", Qty: 1, UnitPriceCents: 25000}},
		SubtotalCents: 25000,
		TotalCents:    25000,
		PaymentMethod: domain.PaymentCash,
		CreatedAt:     time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req domain.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "benar" {
			reply(w, http.StatusUnauthorized, map[string]string{"error": "kredensial tidak valid"})
			return
		}
		reply(w, http.StatusOK, domain.LoginResponse{Token: token})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []domain.Product{
			{ID: "p-1", SKU: "OBG-01", Name: "Obeng <Plus>", PriceCents: 25000, StockQty: 5, Active: true},
		})
	})
	mux.HandleFunc("POST /sales", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			reply(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
			return
		}
		var req domain.CheckoutRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.sales = append(b.sales, req)
		status, message := b.saleStatus, b.saleMessage
		b.mu.Unlock()
		if status != 0 {
			reply(w, status, map[string]string{"error": message})
			return
		}
		reply(w, http.StatusCreated, sale)
	})
	mux.HandleFunc("GET /sales/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != sale.ID {
			reply(w, http.StatusNotFound, map[string]string{"error": "transaksi tidak ditemukan"})
			return
		}
		reply(w, http.StatusOK, sale)
	})
	mux.HandleFunc("GET /returns/pending", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []domain.ReturnRequest{{ID: "ret-1", SaleID: sale.ID, Status: domain.ReturnStatusPending}})
	})
	mux.HandleFunc("GET /reports/daily-sales", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, domain.DailySalesReport{
			StoreID:         "store-1",
			Date:            r.URL.Query().Get("date"),
			Transactions:    3,
			GrossSalesCents: 75000,
			NetSalesCents:   75000,
			ByPayment:       []domain.PaymentBreakdown{{PaymentMethod: "cash", Transactions: 3, TotalCents: 75000}},
		})
	})
	mux.HandleFunc("GET /stores", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusBadGateway, map[string]string{"error": "pq: connection refused"})
	})
	return mux
}

// newTestAPI builds the full API against a stub backend so handler tests
// exercise the complete request path.
func newTestAPI(t *testing.T, role string) (*API, *backendStub) {
	t.Helper()
	stub := &backendStub{role: role}
	server := httptest.NewServer(stub.handler(t))
	t.Cleanup(server.Close)

	client, err := apiclient.New(server.URL, 5*time.Second, 0)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	svc := service.New(memory.New(), client, nil, nil, nil, service.Options{
		StoreID:                  "store-1",
		TerminalID:               "kasir-1",
		MaxManualDiscountPercent: 10,
		SupervisorPIN:            "739214",
	})
	return New(svc, "*", false), stub
}

type loginResult struct {
	cookie *http.Cookie
	csrf   string
}

func login(t *testing.T, handler http.Handler) loginResult {
	t.Helper()
	payload, _ := json.Marshal(domain.LoginRequest{Username: "budi", Password: "benar"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookie {
			return loginResult{cookie: cookie, csrf: body.CSRFToken}
		}
	}
	t.Fatalf("login did not set %s cookie", sessionCookie)
	return loginResult{}
}

func call(handler http.Handler, method string, path string, payload any, auth loginResult) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if auth.cookie != nil {
		req.AddCookie(auth.cookie)
	}
	if auth.csrf != "" {
		req.Header.Set("X-CSRF-Token", auth.csrf)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestHandleHealth(t *testing.T) {
	api, _ := newTestAPI(t, "cashier")

	rec := call(api.Handler(), http.MethodGet, "/healthz", nil, loginResult{})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_SetsSessionCookie(t *testing.T) {
	api, _ := newTestAPI(t, "Cashier")
	auth := login(t, api.Handler())

	if !auth.cookie.HttpOnly || auth.cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected HttpOnly SameSite=Strict cookie, got %+v", auth.cookie)
	}
	if auth.csrf == "" {
		t.Fatalf("expected csrf token in login response")
	}

	rec := call(api.Handler(), http.MethodGet, "/api/v1/auth/session", nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	session := decodeBody(t, rec)["session"].(map[string]any)
	if session["role"] != "cashier" || session["store_id"] != "store-1" {
		t.Fatalf("unexpected session: %v", session)
	}
	if strings.Contains(rec.Body.String(), "token") && strings.Contains(rec.Body.String(), "eyJ") {
		t.Fatalf("backend token must not be exposed: %s", rec.Body.String())
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api, _ := newTestAPI(t, "cashier")

	rec := call(api.Handler(), http.MethodPost, "/api/v1/auth/login", domain.LoginRequest{Username: "budi", Password: "salah"}, loginResult{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "kredensial tidak valid" {
		t.Fatalf("expected backend message, got %v", body["error"])
	}
}

func TestHandleCart_RequiresSession(t *testing.T) {
	api, _ := newTestAPI(t, "cashier")

	rec := call(api.Handler(), http.MethodGet, "/api/v1/cart", nil, loginResult{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["redirect"] != "/login" {
		t.Fatalf("expected login redirect hint, got %v", body)
	}
}

func TestCheckoutFlow(t *testing.T) {
	api, stub := newTestAPI(t, "cashier")
	handler := api.Handler()
	auth := login(t, handler)

	rec := call(handler, http.MethodPost, "/api/v1/cart/items", map[string]any{"code": "OBG-01", "qty": 2}, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("add expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = call(handler, http.MethodPatch, "/api/v1/cart/items/p-1", map[string]any{"qty": 9}, auth)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("over-stock qty expected 422, got %d", rec.Code)
	}

	rec = call(handler, http.MethodPost, "/api/v1/checkout", map[string]any{"method": "card"}, auth)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("card without reference expected 422, got %d", rec.Code)
	}

	rec = call(handler, http.MethodPost, "/api/v1/checkout", map[string]any{"method": "cash", "tendered_cents": 60000}, auth)
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["sale"].(map[string]any)["id"] != "sale-42" {
		t.Fatalf("unexpected sale: %v", body["sale"])
	}
	if lines := body["cart"].(map[string]any)["lines"].([]any); len(lines) != 0 {
		t.Fatalf("expected cart cleared, got %v", lines)
	}
	if len(stub.sales) != 1 || stub.sales[0].Payment.ChangeCents != 10000 {
		t.Fatalf("unexpected checkout request: %+v", stub.sales)
	}
}

func TestCheckoutBackendRejectionKeepsCart(t *testing.T) {
	api, stub := newTestAPI(t, "cashier")
	stub.saleStatus = http.StatusConflict
	stub.saleMessage = "stok Obeng tidak cukup"
	handler := api.Handler()
	auth := login(t, handler)

	call(handler, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "p-1"}, auth)
	rec := call(handler, http.MethodPost, "/api/v1/checkout", map[string]any{"method": "cash", "tendered_cents": 25000}, auth)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected backend status passed through, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "stok Obeng tidak cukup" {
		t.Fatalf("expected verbatim message, got %v", body["error"])
	}

	rec = call(handler, http.MethodGet, "/api/v1/cart", nil, auth)
	lines := decodeBody(t, rec)["cart"].(map[string]any)["lines"].([]any)
	if len(lines) != 1 {
		t.Fatalf("expected cart intact, got %v", lines)
	}
}

func TestBackendServerErrorBecomesBadGateway(t *testing.T) {
	api, _ := newTestAPI(t, "cashier")
	handler := api.Handler()
	auth := login(t, handler)

	rec := call(handler, http.MethodGet, "/api/v1/stores", nil, auth)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "pq:") {
		t.Fatalf("backend internals leaked: %s", rec.Body.String())
	}
}

func TestBackOfficeRoutesGatedByRole(t *testing.T) {
	cashierAPI, _ := newTestAPI(t, "cashier")
	handler := cashierAPI.Handler()
	auth := login(t, handler)
	if rec := call(handler, http.MethodGet, "/api/v1/users", nil, auth); rec.Code != http.StatusForbidden {
		t.Fatalf("cashier users expected 403, got %d", rec.Code)
	}
	if rec := call(handler, http.MethodGet, "/api/v1/returns?status=pending", nil, auth); rec.Code != http.StatusForbidden {
		t.Fatalf("cashier pending returns expected 403, got %d", rec.Code)
	}

	managerAPI, _ := newTestAPI(t, "manager")
	handler = managerAPI.Handler()
	auth = login(t, handler)
	rec := call(handler, http.MethodGet, "/api/v1/returns?status=pending", nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("manager pending returns expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if returns := decodeBody(t, rec)["returns"].([]any); len(returns) != 1 {
		t.Fatalf("expected one pending return, got %v", returns)
	}
}

func TestHeldSaleRoutes(t *testing.T) {
	api, _ := newTestAPI(t, "cashier")
	handler := api.Handler()
	auth := login(t, handler)

	call(handler, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "p-1"}, auth)
	rec := call(handler, http.MethodPost, "/api/v1/held", map[string]any{"note": "pelanggan kembali"}, auth)
	if rec.Code != http.StatusCreated {
		t.Fatalf("hold expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	holdID := decodeBody(t, rec)["held_sale"].(map[string]any)["id"].(string)

	rec = call(handler, http.MethodGet, "/api/v1/held", nil, auth)
	if held := decodeBody(t, rec)["held_sales"].([]any); len(held) != 1 {
		t.Fatalf("expected one held sale, got %v", held)
	}

	call(handler, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "p-1"}, auth)
	if rec := call(handler, http.MethodPost, "/api/v1/held/"+holdID+"/resume", nil, auth); rec.Code != http.StatusConflict {
		t.Fatalf("resume into busy cart expected 409, got %d", rec.Code)
	}
	call(handler, http.MethodDelete, "/api/v1/cart", nil, auth)
	if rec := call(handler, http.MethodPost, "/api/v1/held/"+holdID+"/resume", nil, auth); rec.Code != http.StatusOK {
		t.Fatalf("resume expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if rec := call(handler, http.MethodDelete, "/api/v1/held/"+holdID, nil, auth); rec.Code != http.StatusNotFound {
		t.Fatalf("discarding a resumed hold expected 404, got %d", rec.Code)
	}
}

func TestPrintPages(t *testing.T) {
	api, _ := newTestAPI(t, "cashier")
	handler := api.Handler()

	rec := call(handler, http.MethodGet, "/print/receipt/sale-42", nil, loginResult{})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	auth := login(t, handler)
	rec = call(handler, http.MethodGet, "/print/receipt/sale-42", nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("receipt expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	page := rec.Body.String()
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("expected html content type, got %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(page, "window.print()") || !strings.Contains(page, "Obeng &lt;Plus&gt;") {
		t.Fatalf("unexpected receipt page: %s", page)
	}

	rec = call(handler, http.MethodGet, "/print/receipt/missing", nil, auth)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing sale expected 404, got %d", rec.Code)
	}
}

func TestDailyReportFormats(t *testing.T) {
	api, _ := newTestAPI(t, "cashier")
	handler := api.Handler()
	auth := login(t, handler)

	rec := call(handler, http.MethodGet, "/api/v1/reports/daily?date=2026-10-19&format=csv", nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "daily-sales-2026-10-19.csv") {
		t.Fatalf("unexpected disposition %q", got)
	}
	if !strings.Contains(rec.Body.String(), "cash") {
		t.Fatalf("expected payment breakdown in csv: %s", rec.Body.String())
	}

	rec = call(handler, http.MethodGet, "/api/v1/reports/daily?date=2026-10-19", nil, auth)
	if body := decodeBody(t, rec); body["date"] != "2026-10-19" {
		t.Fatalf("unexpected json report: %v", body)
	}

	if rec := call(handler, http.MethodGet, "/api/v1/reports/daily?format=pdf", nil, auth); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown format expected 400, got %d", rec.Code)
	}
}
