package receipt

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokobesi/terminal/internal/domain"
)

func sampleSale() domain.Sale {
	return domain.Sale{
		ID:                  "sale-1",
		ReceiptNo:           "TB-0001",
		CashierName:         "Budi <script>",
		Items:               []domain.SaleItem{{Name: "Semen 40kg", Qty: 2, UnitPriceCents: 62000}},
		SubtotalCents:       124000,
		DiscountCents:       4000,
		DiscountRule:        "member",
		VoucherCode:         "VC-9",
		VoucherAppliedCents: 20000,
		TotalCents:          120000,
		AmountPaidCents:     100000,
		ChangeCents:         0,
		PaymentMethod:       "cash",
		CreatedAt:           time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC),
	}
}

func TestRupiahGrouping(t *testing.T) {
	r := New(Header{})
	assert.Equal(t, "Rp 85.000", r.Rupiah(85000))
	assert.Equal(t, "Rp 1.250.000", r.Rupiah(1250000))
	assert.Equal(t, "-Rp 500", r.Rupiah(-500))
}

func TestReceiptHTMLEscapesAndPrints(t *testing.T) {
	r := New(Header{StoreName: "TB Sinar Jaya", Lines: []string{"Jl. Merdeka 1"}})
	html, err := r.ReceiptHTML(sampleSale())
	require.NoError(t, err)

	assert.Contains(t, html, "TB Sinar Jaya")
	assert.Contains(t, html, "Jl. Merdeka 1")
	assert.Contains(t, html, "Rp 124.000")
	assert.Contains(t, html, "Voucher VC-9")
	assert.Contains(t, html, "window.print()")
	assert.NotContains(t, html, "Budi <script>")
	assert.Contains(t, html, "Budi &lt;script&gt;")
}

func TestRendererReusesParsedTemplates(t *testing.T) {
	r := New(Header{StoreName: "TB Sinar Jaya"})
	require.NotNil(t, r.receipt)
	require.NotNil(t, r.voucher)
	require.NotNil(t, r.daily)
	parsed := r.receipt

	first := sampleSale()
	second := sampleSale()
	second.ReceiptNo = "TB-0002"
	second.Items = []domain.SaleItem{{Name: "Kuas 3 inci", Qty: 1, UnitPriceCents: 18000}}

	_, err := r.ReceiptHTML(first)
	require.NoError(t, err)
	html, err := r.ReceiptHTML(second)
	require.NoError(t, err)

	assert.Same(t, parsed, r.receipt)
	assert.Contains(t, html, "Kuas 3 inci")
	assert.NotContains(t, html, "Semen 40kg")
}

func TestVoucherHTML(t *testing.T) {
	expires := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	html, err := New(Header{}).VoucherHTML(domain.Voucher{Code: "VC-RET-7", BalanceCents: 45000, ExpiresAt: &expires})
	require.NoError(t, err)

	assert.Contains(t, html, "VC-RET-7")
	assert.Contains(t, html, "Rp 45.000")
	assert.Contains(t, html, "31/12/2026")
}

func TestDailySalesOutputs(t *testing.T) {
	report := domain.DailySalesReport{
		StoreID:         "store-1",
		Date:            "2026-04-02",
		Transactions:    12,
		GrossSalesCents: 1500000,
		NetSalesCents:   1400000,
		ByPayment:       []domain.PaymentBreakdown{{PaymentMethod: "cash", Transactions: 10, TotalCents: 1000000}},
		ByCashier:       []domain.CashierBreakdown{{CashierName: "Sari, A.", Transactions: 12, TotalCents: 1400000}},
	}

	html, err := New(Header{}).DailySalesHTML(report)
	require.NoError(t, err)
	assert.Contains(t, html, "Laporan Harian 2026-04-02")
	assert.Contains(t, html, "Rp 1.400.000")

	csv := DailySalesCSV(report)
	assert.True(t, strings.HasPrefix(csv, "section,key,value\n"))
	assert.Contains(t, csv, "summary,net_sales_cents,1400000\n")
	assert.Contains(t, csv, "payment,cash_total_cents,1000000\n")
	assert.Contains(t, csv, "cashier,\"Sari, A._transactions\",12\n")
}

func TestESCPOSFraming(t *testing.T) {
	out := New(Header{StoreName: "TB Sinar Jaya"}).ESCPOS(sampleSale())

	require.True(t, bytes.HasPrefix(out.Bytes, []byte{0x1b, 0x40}))
	require.True(t, bytes.HasSuffix(out.Bytes, []byte{0x1d, 0x56, 0x41, 0x10}))
	decoded, err := base64.StdEncoding.DecodeString(out.EscposBase64)
	require.NoError(t, err)
	assert.Equal(t, out.Bytes, decoded)

	assert.Equal(t, "receipt-TB-0001.bin", out.FileName)
	assert.Contains(t, out.PreviewText, "Semen 40kg")
	assert.Contains(t, out.PreviewText, "Rp 124.000")
	assert.Contains(t, out.PreviewText, "Voucher")
	assert.NotContains(t, out.PreviewText, "Kredit tukar")
}
