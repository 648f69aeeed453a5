package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tokobesi/terminal/internal/apiclient"
	"tokobesi/terminal/internal/domain"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api, _ := newTestAPI(t, "cashier")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if got := res.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options nosniff, got %q", got)
	}
	if got := res.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := res.Header().Get("Referrer-Policy"); got == "" {
		t.Fatalf("expected Referrer-Policy to be set")
	}
	if got := res.Header().Get(apiclient.HeaderCorrelationID); got == "" {
		t.Fatalf("expected a correlation id on every response")
	}
}

func TestMiddlewareKeepsCallerCorrelationID(t *testing.T) {
	api, _ := newTestAPI(t, "cashier")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(apiclient.HeaderCorrelationID, "shell-123")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if got := res.Header().Get(apiclient.HeaderCorrelationID); got != "shell-123" {
		t.Fatalf("expected caller correlation id echoed, got %q", got)
	}
}

func TestLoginRateLimitReturns429(t *testing.T) {
	api, _ := newTestAPI(t, "cashier")
	body, _ := json.Marshal(domain.LoginRequest{Username: "budi", Password: "wrong-pass"})

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "127.0.0.1:5000"
		res := httptest.NewRecorder()

		api.Handler().ServeHTTP(res, req)

		if i < 5 && res.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d expected 401 before limit, got %d", i+1, res.Code)
		}
		if i == 5 && res.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt 6 expected 429, got %d", res.Code)
		}
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api, _ := newTestAPI(t, "cashier")
	veryLong := strings.Repeat("a", (1<<20)+1024)
	body := fmt.Sprintf(`{"username":"%s","password":"x"}`, veryLong)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized body, got %d", res.Code)
	}
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	api, _ := newTestAPI(t, "cashier")
	handler := api.Handler()
	auth := login(t, handler)

	withoutToken := loginResult{cookie: auth.cookie}
	rec := call(handler, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "p-1"}, withoutToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf token, got %d", rec.Code)
	}
	rec = call(handler, http.MethodDelete, "/api/v1/cart", nil, withoutToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for delete without csrf token, got %d", rec.Code)
	}

	rec = call(handler, http.MethodGet, "/api/v1/cart", nil, withoutToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("reads should not need csrf, got %d", rec.Code)
	}
}

func TestSupervisorPINRateLimitReturns429(t *testing.T) {
	api, _ := newTestAPI(t, "cashier")
	handler := api.Handler()
	auth := login(t, handler)
	call(handler, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "p-1"}, auth)

	for i := 0; i < 9; i++ {
		rec := call(handler, http.MethodPost, "/api/v1/cart/discount", map[string]any{"percent": 50, "supervisor_pin": "000000"}, auth)
		if i < 8 && rec.Code != http.StatusForbidden {
			t.Fatalf("attempt %d expected 403 for wrong pin, got %d", i+1, rec.Code)
		}
		if i == 8 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt 9 expected 429, got %d", rec.Code)
		}
	}
}

func TestParsePositiveLimitCaps(t *testing.T) {
	if got := parsePositiveLimit("", 50, 200); got != 50 {
		t.Fatalf("expected fallback 50, got %d", got)
	}
	if got := parsePositiveLimit("-3", 50, 200); got != 50 {
		t.Fatalf("expected fallback for negative, got %d", got)
	}
	if got := parsePositiveLimit("999", 50, 200); got != 200 {
		t.Fatalf("expected cap 200, got %d", got)
	}
}
