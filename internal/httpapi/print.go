package httpapi

import (
	"errors"
	"net/http"
)

func (a *API) handlePrintReceipt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	parts := pathTail(r, "/print/receipt/")
	if len(parts) != 1 {
		writeError(w, http.StatusBadRequest, errors.New("sale id required"))
		return
	}
	body, err := a.service.ReceiptHTML(r.Context(), parts[0])
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeHTML(w, body)
}

func (a *API) handlePrintVoucher(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	parts := pathTail(r, "/print/voucher/")
	if len(parts) != 1 {
		writeError(w, http.StatusBadRequest, errors.New("voucher code required"))
		return
	}
	body, err := a.service.VoucherHTML(r.Context(), parts[0])
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeHTML(w, body)
}

func (a *API) handlePrintDailyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	body, err := a.service.DailySalesHTML(r.Context(), r.URL.Query().Get("store_id"), r.URL.Query().Get("date"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeHTML(w, body)
}
