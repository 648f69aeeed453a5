package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"tokobesi/terminal/internal/domain"
)

func (c *Client) ListSales(ctx context.Context, q domain.SaleQuery) ([]domain.Sale, error) {
	values := url.Values{}
	setIf(values, "store_id", q.StoreID)
	setIf(values, "from", q.From)
	setIf(values, "to", q.To)
	setIf(values, "status", q.Status)
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(q.PageSize))
	}

	var out []domain.Sale
	err := c.Do(ctx, http.MethodGet, "/sales", values, nil, &out)
	return out, err
}

// CreateSale posts the checkout request built from a cart. The backend
// deduplicates on the idempotency key.
func (c *Client) CreateSale(ctx context.Context, req domain.CheckoutRequest) (domain.Sale, error) {
	var out domain.Sale
	err := c.Do(ctx, http.MethodPost, "/sales", nil, req, &out)
	return out, err
}

func (c *Client) UpdateSale(ctx context.Context, id string, req domain.SaleUpdateRequest) (domain.Sale, error) {
	var out domain.Sale
	err := c.Do(ctx, http.MethodPut, "/sales/"+segment(id), nil, req, &out)
	return out, err
}

func (c *Client) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	var out domain.Sale
	err := c.Do(ctx, http.MethodGet, "/sales/"+segment(id), nil, nil, &out)
	return out, err
}

func (c *Client) ExchangeableSale(ctx context.Context, id string) (domain.ExchangeableSale, error) {
	var out domain.ExchangeableSale
	err := c.Do(ctx, http.MethodGet, "/sales/"+segment(id)+"/exchangeable", nil, nil, &out)
	if err == nil && out.SaleID == "" {
		out.SaleID = id
	}
	return out, err
}

func (c *Client) SaleLogs(ctx context.Context, q domain.LogQuery) ([]domain.ActivityLog, error) {
	var out []domain.ActivityLog
	err := c.Do(ctx, http.MethodGet, "/sales/logs", logValues(q), nil, &out)
	return out, err
}
