package receipt

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tokobesi/terminal/internal/domain"
)

// Header is the store identity printed on every document.
type Header struct {
	StoreName string
	Lines     []string
	Footer    []string
}

type Renderer struct {
	header  Header
	printer *message.Printer

	receipt *template.Template
	voucher *template.Template
	daily   *template.Template
}

func New(header Header) *Renderer {
	if strings.TrimSpace(header.StoreName) == "" {
		header.StoreName = "Toko Besi"
	}
	if len(header.Footer) == 0 {
		header.Footer = []string{"Terima kasih"}
	}
	r := &Renderer{header: header, printer: message.NewPrinter(language.Indonesian)}
	r.receipt = r.parse("receipt", receiptTmpl)
	r.voucher = r.parse("voucher", voucherTmpl)
	r.daily = r.parse("daily-sales", dailyTmpl)
	return r
}

// Rupiah formats an amount in the smallest currency unit, e.g. "Rp 85.000".
func (r *Renderer) Rupiah(amount int64) string {
	if amount < 0 {
		return "-Rp " + r.printer.Sprintf("%d", -amount)
	}
	return "Rp " + r.printer.Sprintf("%d", amount)
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"rp": r.Rupiah,
		"stamp": func(sale domain.Sale) string {
			return sale.CreatedAt.Local().Format("02/01/2006 15:04")
		},
		"upper": strings.ToUpper,
	}
}

type receiptView struct {
	Header Header
	Sale   domain.Sale
}

var receiptTmpl = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Struk {{.Sale.ReceiptNo}}</title>
  <style>
    body { font-family: monospace; width: 72mm; margin: 0 auto; font-size: 12px; }
    .c { text-align: center; }
    .r { text-align: right; }
    table { width: 100%; border-collapse: collapse; }
    hr { border: 0; border-top: 1px dashed #000; }
  </style>
</head>
<body>
  <div class="c"><strong>{{.Header.StoreName}}</strong>{{range .Header.Lines}}<br />{{.}}{{end}}</div>
  <hr />
  <div>No: {{.Sale.ReceiptNo}}<br />Kasir: {{.Sale.CashierName}}<br />{{stamp .Sale}}</div>
  <hr />
  <table>
    {{range .Sale.Items}}<tr><td colspan="2">{{.Name}}</td></tr>
    <tr><td>{{.Qty}} x {{rp .UnitPriceCents}}</td><td class="r">{{rp .LineTotalCents}}</td></tr>
    {{end}}
  </table>
  <hr />
  <table>
    <tr><td>Subtotal</td><td class="r">{{rp .Sale.SubtotalCents}}</td></tr>
    {{if .Sale.DiscountCents}}<tr><td>Diskon{{if .Sale.DiscountRule}} ({{.Sale.DiscountRule}}){{end}}</td><td class="r">-{{rp .Sale.DiscountCents}}</td></tr>{{end}}
    {{if .Sale.ExchangeCreditCents}}<tr><td>Kredit tukar</td><td class="r">-{{rp .Sale.ExchangeCreditCents}}</td></tr>{{end}}
    {{if .Sale.VoucherAppliedCents}}<tr><td>Voucher {{.Sale.VoucherCode}}</td><td class="r">-{{rp .Sale.VoucherAppliedCents}}</td></tr>{{end}}
    <tr><td><strong>Total</strong></td><td class="r"><strong>{{rp .Sale.TotalCents}}</strong></td></tr>
    <tr><td>Bayar ({{upper .Sale.PaymentMethod}})</td><td class="r">{{rp .Sale.AmountPaidCents}}</td></tr>
    <tr><td>Kembali</td><td class="r">{{rp .Sale.ChangeCents}}</td></tr>
  </table>
  <hr />
  <div class="c">{{range .Header.Footer}}{{.}}<br />{{end}}</div>
  <script>window.onload = function () { window.print(); };</script>
</body>
</html>
`

var voucherTmpl = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Voucher {{.Voucher.Code}}</title>
  <style>
    body { font-family: sans-serif; width: 72mm; margin: 0 auto; text-align: center; }
    .code { font-family: monospace; font-size: 20px; letter-spacing: 2px; border: 1px dashed #000; padding: 8px; margin: 8px 0; }
  </style>
</head>
<body>
  <strong>{{.Header.StoreName}}</strong>
  <p>VOUCHER BELANJA</p>
  <div class="code">{{.Voucher.Code}}</div>
  <p>Saldo: <strong>{{rp .Voucher.BalanceCents}}</strong></p>
  {{if .Voucher.ExpiresAt}}<p>Berlaku sampai {{.Voucher.ExpiresAt.Format "02/01/2006"}}</p>{{end}}
  {{if .Voucher.SaleID}}<p>Ref: {{.Voucher.SaleID}}</p>{{end}}
  {{range .Header.Footer}}<p>{{.}}</p>{{end}}
  <script>window.onload = function () { window.print(); };</script>
</body>
</html>
`

var dailyTmpl = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Laporan Harian {{.Report.Date}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    td.r { text-align: right; }
    h2, h3 { margin-bottom: 4px; }
  </style>
</head>
<body>
  <h2>{{.Header.StoreName}} - Laporan Harian {{.Report.Date}}</h2>
  <p>Toko: {{.Report.StoreID}} | Transaksi: {{.Report.Transactions}}</p>
  <table>
    <tr><td>Penjualan kotor</td><td class="r">{{rp .Report.GrossSalesCents}}</td></tr>
    <tr><td>Diskon</td><td class="r">{{rp .Report.DiscountCents}}</td></tr>
    <tr><td>Voucher</td><td class="r">{{rp .Report.VoucherCents}}</td></tr>
    <tr><td>Kredit tukar</td><td class="r">{{rp .Report.ExchangeCreditCents}}</td></tr>
    <tr><td><strong>Penjualan bersih</strong></td><td class="r"><strong>{{rp .Report.NetSalesCents}}</strong></td></tr>
  </table>

  <h3>Per Pembayaran</h3>
  <table>
    <thead><tr><th>Metode</th><th>Transaksi</th><th>Total</th></tr></thead>
    <tbody>{{range .Report.ByPayment}}<tr><td>{{.PaymentMethod}}</td><td class="r">{{.Transactions}}</td><td class="r">{{rp .TotalCents}}</td></tr>{{end}}</tbody>
  </table>

  <h3>Per Kasir</h3>
  <table>
    <thead><tr><th>Kasir</th><th>Transaksi</th><th>Total</th></tr></thead>
    <tbody>{{range .Report.ByCashier}}<tr><td>{{.CashierName}}</td><td class="r">{{.Transactions}}</td><td class="r">{{rp .TotalCents}}</td></tr>{{end}}</tbody>
  </table>
  <script>window.onload = function () { window.print(); };</script>
</body>
</html>
`

func (r *Renderer) parse(name string, body string) *template.Template {
	return template.Must(template.New(name).Funcs(r.funcs()).Parse(body))
}

func (r *Renderer) render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func (r *Renderer) ReceiptHTML(sale domain.Sale) (string, error) {
	return r.render(r.receipt, receiptView{Header: r.header, Sale: withLineTotals(sale)})
}

func (r *Renderer) VoucherHTML(voucher domain.Voucher) (string, error) {
	return r.render(r.voucher, struct {
		Header  Header
		Voucher domain.Voucher
	}{r.header, voucher})
}

func (r *Renderer) DailySalesHTML(report domain.DailySalesReport) (string, error) {
	return r.render(r.daily, struct {
		Header Header
		Report domain.DailySalesReport
	}{r.header, report})
}

// Escpos is a raw thermal-printer receipt.
type Escpos struct {
	SaleID       string `json:"sale_id"`
	EscposBase64 string `json:"escpos_base64"`
	PreviewText  string `json:"preview_text"`
	FileName     string `json:"file_name"`
	Bytes        []byte `json:"-"`
}

const escposWidth = 32

func (r *Renderer) ESCPOS(sale domain.Sale) Escpos {
	sale = withLineTotals(sale)
	rule := strings.Repeat("-", escposWidth)

	lines := []string{center(r.header.StoreName)}
	for _, line := range r.header.Lines {
		lines = append(lines, center(line))
	}
	lines = append(lines,
		strings.Repeat("=", escposWidth),
		"No    : "+sale.ReceiptNo,
		"Kasir : "+sale.CashierName,
		"Tgl   : "+sale.CreatedAt.Local().Format("02/01/2006 15:04"),
		rule,
	)
	for _, item := range sale.Items {
		lines = append(lines, item.Name)
		lines = append(lines, columns(fmt.Sprintf("  %d x %s", item.Qty, r.Rupiah(item.UnitPriceCents)), r.Rupiah(item.LineTotalCents)))
	}
	lines = append(lines, rule, columns("Subtotal", r.Rupiah(sale.SubtotalCents)))
	if sale.DiscountCents > 0 {
		lines = append(lines, columns("Diskon", "-"+r.Rupiah(sale.DiscountCents)))
	}
	if sale.ExchangeCreditCents > 0 {
		lines = append(lines, columns("Kredit tukar", "-"+r.Rupiah(sale.ExchangeCreditCents)))
	}
	if sale.VoucherAppliedCents > 0 {
		lines = append(lines, columns("Voucher", "-"+r.Rupiah(sale.VoucherAppliedCents)))
	}
	lines = append(lines,
		columns("Total", r.Rupiah(sale.TotalCents)),
		columns("Bayar "+strings.ToUpper(sale.PaymentMethod), r.Rupiah(sale.AmountPaidCents)),
		columns("Kembali", r.Rupiah(sale.ChangeCents)),
		strings.Repeat("=", escposWidth),
	)
	for _, line := range r.header.Footer {
		lines = append(lines, center(line))
	}
	lines = append(lines, "")

	raw := []byte{0x1b, 0x40}
	for _, line := range lines {
		raw = append(raw, []byte(line)...)
		raw = append(raw, '\n')
	}
	raw = append(raw, 0x1d, 0x56, 0x41, 0x10)

	return Escpos{
		SaleID:       sale.ID,
		EscposBase64: base64.StdEncoding.EncodeToString(raw),
		PreviewText:  strings.Join(lines, "\n"),
		FileName:     fmt.Sprintf("receipt-%s.bin", firstNonEmpty(sale.ReceiptNo, sale.ID)),
		Bytes:        raw,
	}
}

func withLineTotals(sale domain.Sale) domain.Sale {
	items := make([]domain.SaleItem, len(sale.Items))
	for i, item := range sale.Items {
		if item.LineTotalCents == 0 {
			item.LineTotalCents = item.UnitPriceCents * int64(item.Qty)
		}
		items[i] = item
	}
	sale.Items = items
	return sale
}

func center(s string) string {
	if len(s) >= escposWidth {
		return s
	}
	return strings.Repeat(" ", (escposWidth-len(s))/2) + s
}

func columns(left string, right string) string {
	gap := escposWidth - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
