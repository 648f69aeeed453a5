package receipt

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"tokobesi/terminal/internal/domain"
)

// DailySalesCSV flattens a daily report into section,key,value rows.
func DailySalesCSV(report domain.DailySalesReport) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	itoa := func(v int64) string { return strconv.FormatInt(v, 10) }
	rows := [][]string{
		{"section", "key", "value"},
		{"summary", "date", report.Date},
		{"summary", "store_id", report.StoreID},
		{"summary", "transactions", itoa(report.Transactions)},
		{"summary", "gross_sales_cents", itoa(report.GrossSalesCents)},
		{"summary", "discount_cents", itoa(report.DiscountCents)},
		{"summary", "voucher_cents", itoa(report.VoucherCents)},
		{"summary", "exchange_credit_cents", itoa(report.ExchangeCreditCents)},
		{"summary", "net_sales_cents", itoa(report.NetSalesCents)},
	}
	for _, payment := range report.ByPayment {
		rows = append(rows,
			[]string{"payment", payment.PaymentMethod + "_transactions", itoa(payment.Transactions)},
			[]string{"payment", payment.PaymentMethod + "_total_cents", itoa(payment.TotalCents)},
		)
	}
	for _, cashier := range report.ByCashier {
		rows = append(rows,
			[]string{"cashier", cashier.CashierName + "_transactions", itoa(cashier.Transactions)},
			[]string{"cashier", cashier.CashierName + "_total_cents", itoa(cashier.TotalCents)},
		)
	}

	_ = w.WriteAll(rows)
	return buf.String()
}
