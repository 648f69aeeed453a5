package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tokobesi/terminal/internal/domain"
)

func logQuery(values url.Values) domain.LogQuery {
	return domain.LogQuery{
		StoreID: values.Get("store_id"),
		From:    values.Get("from"),
		To:      values.Get("to"),
		Limit:   parsePositiveLimit(values.Get("limit"), 100, 500),
	}
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		values := r.URL.Query()
		if values.Get("page") != "" {
			page, err := a.service.PagedProducts(r.Context(), domain.ProductQuery{
				StoreID:  values.Get("store_id"),
				Search:   values.Get("search"),
				Category: values.Get("category"),
				Page:     parsePositiveLimit(values.Get("page"), 1, 0),
				PageSize: parsePositiveLimit(values.Get("page_size"), 50, 200),
			})
			if err != nil {
				a.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, page)
			return
		}
		products, err := a.service.Products(r.Context(), values.Get("search"), values.Get("category"))
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	case http.MethodPost:
		var req domain.ProductInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, err := a.service.CreateProduct(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"product": product})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleProductLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	logs, err := a.service.ProductLogs(r.Context(), logQuery(r.URL.Query()))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	parts := pathTail(r, "/api/v1/products/")
	if len(parts) != 1 {
		writeError(w, http.StatusBadRequest, errors.New("product id required"))
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req domain.ProductInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, err := a.service.UpdateProduct(r.Context(), parts[0], req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	case http.MethodDelete:
		if err := a.service.DeleteProduct(r.Context(), parts[0]); err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	values := r.URL.Query()
	sales, err := a.service.ListSales(r.Context(), domain.SaleQuery{
		StoreID:  values.Get("store_id"),
		From:     values.Get("from"),
		To:       values.Get("to"),
		Status:   values.Get("status"),
		Page:     parsePositiveLimit(values.Get("page"), 1, 0),
		PageSize: parsePositiveLimit(values.Get("page_size"), 50, 200),
	})
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

func (a *API) handleSaleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	logs, err := a.service.SaleLogs(r.Context(), logQuery(r.URL.Query()))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// handleSaleActions serves /sales/{id} and its sub-resources.
func (a *API) handleSaleActions(w http.ResponseWriter, r *http.Request) {
	parts := pathTail(r, "/api/v1/sales/")
	if len(parts) == 0 || len(parts) > 2 {
		writeError(w, http.StatusBadRequest, errors.New("sale id required"))
		return
	}
	saleID := parts[0]
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch action {
	case "":
		a.handleSale(w, r, saleID)
	case "returns":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		returns, err := a.service.ReturnsForSale(r.Context(), saleID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"returns": returns})
	case "vouchers":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		vouchers, err := a.service.VouchersForSale(r.Context(), saleID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"vouchers": vouchers})
	case "escpos":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		receipt, err := a.service.ReceiptEscpos(r.Context(), saleID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, receipt)
	case "print":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		queued, err := a.service.PrintReceipt(r.Context(), saleID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"queued": queued})
	default:
		writeError(w, http.StatusBadRequest, errors.New("unknown sale action"))
	}
}

func (a *API) handleSale(w http.ResponseWriter, r *http.Request, saleID string) {
	switch r.Method {
	case http.MethodGet:
		sale, err := a.service.GetSale(r.Context(), saleID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
	case http.MethodPut:
		var req domain.SaleUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		sale, err := a.service.UpdateSale(r.Context(), saleID, req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
	default:
		writeMethodNotAllowed(w)
	}
}

// handleReturns files a return request (any role) or lists returns by
// status for back-office roles.
func (a *API) handleReturns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		storeID := r.URL.Query().Get("store_id")
		var (
			returns []domain.ReturnRequest
			err     error
		)
		switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))) {
		case "", domain.ReturnStatusPending:
			returns, err = a.service.PendingReturns(r.Context(), storeID)
		case domain.ReturnStatusApproved:
			returns, err = a.service.ApprovedReturns(r.Context(), storeID)
		case "all":
			returns, err = a.service.AllReturns(r.Context(), storeID)
		default:
			writeError(w, http.StatusBadRequest, errors.New("status must be pending, approved or all"))
			return
		}
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"returns": returns})
	case http.MethodPost:
		var req domain.ReturnCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		ret, err := a.service.RequestReturn(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"return": ret})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleReturnActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	parts := pathTail(r, "/api/v1/returns/")

	if len(parts) == 1 && parts[0] == "issue-voucher" {
		var req domain.IssueVoucherRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		voucher, err := a.service.IssueReturnVoucher(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"voucher": voucher})
		return
	}

	if len(parts) != 2 {
		writeError(w, http.StatusBadRequest, errors.New("unknown return action"))
		return
	}
	var decision domain.ReturnDecision
	if err := decodeJSON(r, &decision); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var (
		ret domain.ReturnRequest
		err error
	)
	switch parts[1] {
	case "approve":
		ret, err = a.service.ApproveReturn(r.Context(), parts[0], decision)
	case "reject":
		ret, err = a.service.RejectReturn(r.Context(), parts[0], decision)
	default:
		writeError(w, http.StatusBadRequest, errors.New("unknown return action"))
		return
	}
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"return": ret})
}

func (a *API) handleVoucherVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req codeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	voucher, err := a.service.VerifyVoucher(r.Context(), req.Code)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"voucher": voucher})
}

func (a *API) handleVoucherActions(w http.ResponseWriter, r *http.Request) {
	parts := pathTail(r, "/api/v1/vouchers/")
	if len(parts) != 2 || parts[1] != "print" {
		writeError(w, http.StatusBadRequest, errors.New("unknown voucher action"))
		return
	}
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	queued, err := a.service.PrintVoucher(r.Context(), parts[0])
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queued": queued})
}

func (a *API) handleDiscountSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rules, err := a.service.DiscountRules(r.Context(), r.URL.Query().Get("store_id"))
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"discounts": rules})
	case http.MethodPost:
		var req domain.DiscountSetting
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		saved, err := a.service.SaveDiscountSetting(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"discount": saved})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleStores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	stores, err := a.service.Stores(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stores": stores})
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	users, err := a.service.Users(r.Context(), r.URL.Query().Get("store_id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	stats, err := a.service.Dashboard(r.Context(), r.URL.Query().Get("store_id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleDailyReport serves JSON by default, or a download with format=csv
// and a printable page with format=html.
func (a *API) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	storeID := r.URL.Query().Get("store_id")
	date := r.URL.Query().Get("date")

	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))) {
	case "csv":
		name, body, err := a.service.DailySalesCSV(r.Context(), storeID, date)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(name))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	case "html":
		body, err := a.service.DailySalesHTML(r.Context(), storeID, date)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeHTML(w, body)
	case "", "json":
		report, err := a.service.DailySales(r.Context(), storeID, date)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	default:
		writeError(w, http.StatusBadRequest, errors.New("format must be json, csv or html"))
	}
}

func (a *API) handleProfitReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	values := r.URL.Query()
	summary, err := a.service.ProfitSummary(r.Context(), values.Get("store_id"), values.Get("from"), values.Get("to"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
