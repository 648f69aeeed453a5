package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokobesi/terminal/internal/domain"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

func newBackend(t *testing.T) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, auth: r.Header.Get("Authorization")}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		calls = append(calls, rec)

		switch r.URL.Path {
		case "/api/auth/login":
			_ = json.NewEncoder(w).Encode(domain.LoginResponse{Token: "tok-new", User: domain.User{Username: "sari", Role: "admin"}})
		case "/api/returns/pending":
			_ = json.NewEncoder(w).Encode([]domain.ReturnRequest{{ID: "ret-1", SaleID: "sale-7", Status: "pending", AmountCents: 45000}})
		case "/api/returns/ret-1/reject":
			_ = json.NewEncoder(w).Encode(domain.ReturnRequest{ID: "ret-1", Status: "rejected", ReviewNote: "barang rusak"})
		case "/api/discount-settings":
			_ = json.NewEncoder(w).Encode(domain.DiscountSetting{StoreID: "store-1", Name: "member", Percent: 5, Active: true})
		case "/api/reports/daily-sales":
			_ = json.NewEncoder(w).Encode(domain.DailySalesReport{
				StoreID:         "store-1",
				Date:            "2026-10-01",
				Transactions:    3,
				GrossSalesCents: 150000,
				NetSalesCents:   140000,
				ByPayment:       []domain.PaymentBreakdown{{PaymentMethod: "cash", Transactions: 3, TotalCents: 140000}},
			})
		case "/api/sales/sale-404":
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "sale not found"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--backend", srv.URL + "/api"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestLoginPrintsToken(t *testing.T) {
	srv, calls := newBackend(t)
	out, err := run(t, srv, "login", "--username", "sari", "--password", "rahasia")
	require.NoError(t, err)

	var resp domain.LoginResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "tok-new", resp.Token)
	require.Len(t, *calls, 1)
	assert.Empty(t, (*calls)[0].auth)
	assert.Equal(t, "sari", (*calls)[0].body["username"])
}

func TestCommandsRequireToken(t *testing.T) {
	t.Setenv("POS_TOKEN", "")
	srv, calls := newBackend(t)
	_, err := run(t, srv, "returns", "pending")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token")
	assert.Empty(t, *calls)
}

func TestPendingReturnsSendsBearerAndStore(t *testing.T) {
	srv, calls := newBackend(t)
	out, err := run(t, srv, "--token", "tok-1", "--store", "store-1", "returns", "pending")
	require.NoError(t, err)

	var returns []domain.ReturnRequest
	require.NoError(t, json.Unmarshal([]byte(out), &returns))
	require.Len(t, returns, 1)
	assert.Equal(t, "ret-1", returns[0].ID)
	assert.Equal(t, "Bearer tok-1", (*calls)[0].auth)
	assert.Equal(t, "store_id=store-1", (*calls)[0].query)
}

func TestRejectReturnSendsNote(t *testing.T) {
	srv, calls := newBackend(t)
	_, err := run(t, srv, "--token", "tok-1", "returns", "reject", "ret-1", "--note", "barang rusak")
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodPost, (*calls)[0].method)
	assert.Equal(t, "barang rusak", (*calls)[0].body["note"])
}

func TestSetDiscountValidatesPercent(t *testing.T) {
	srv, calls := newBackend(t)
	_, err := run(t, srv, "--token", "tok-1", "settings", "set-discount", "member", "150")
	require.Error(t, err)
	assert.Empty(t, *calls)

	out, err := run(t, srv, "--token", "tok-1", "--store", "store-1", "settings", "set-discount", "member", "5")
	require.NoError(t, err)
	assert.Contains(t, out, `"percent": 5`)
	assert.Equal(t, true, (*calls)[0].body["active"])
}

func TestDailyReportCSV(t *testing.T) {
	srv, calls := newBackend(t)
	out, err := run(t, srv, "--token", "tok-1", "--store", "store-1", "report", "daily", "--date", "2026-10-01", "--csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "section,key,value", lines[0])
	assert.Contains(t, out, "summary,net_sales_cents,140000")
	assert.Contains(t, out, "payment,cash_total_cents,140000")
	assert.Equal(t, "date=2026-10-01&store_id=store-1", (*calls)[0].query)
}

func TestProfitRejectsInvertedRange(t *testing.T) {
	srv, calls := newBackend(t)
	_, err := run(t, srv, "--token", "tok-1", "report", "profit", "--from", "2026-10-05", "--to", "2026-10-01")
	require.Error(t, err)
	assert.Empty(t, *calls)
}

func TestBackendErrorMessageSurfaces(t *testing.T) {
	srv, _ := newBackend(t)
	_, err := run(t, srv, "--token", "tok-1", "sales", "show", "sale-404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sale not found")
}
