package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"tokobesi/terminal/internal/domain"
)

func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	var out domain.LoginResponse
	err := c.Do(WithToken(ctx, ""), http.MethodPost, "/auth/login", nil, req, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *Client) ListProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	var out []domain.Product
	err := c.Do(ctx, http.MethodGet, "/products", productValues(q), nil, &out)
	return out, err
}

func (c *Client) PagedProducts(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	var out domain.ProductPage
	values := productValues(q)
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(q.PageSize))
	}
	err := c.Do(ctx, http.MethodGet, "/products/paged", values, nil, &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	var out domain.Product
	err := c.Do(ctx, http.MethodPost, "/products", nil, in, &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (domain.Product, error) {
	var out domain.Product
	err := c.Do(ctx, http.MethodPut, "/products/"+segment(id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/products/"+segment(id), nil, nil, nil)
}

func (c *Client) ProductLogs(ctx context.Context, q domain.LogQuery) ([]domain.ActivityLog, error) {
	var out []domain.ActivityLog
	err := c.Do(ctx, http.MethodGet, "/products/logs", logValues(q), nil, &out)
	return out, err
}

func productValues(q domain.ProductQuery) url.Values {
	values := url.Values{}
	setIf(values, "store_id", q.StoreID)
	setIf(values, "search", q.Search)
	setIf(values, "category", q.Category)
	return values
}

func logValues(q domain.LogQuery) url.Values {
	values := url.Values{}
	setIf(values, "store_id", q.StoreID)
	setIf(values, "from", q.From)
	setIf(values, "to", q.To)
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	return values
}

func setIf(values url.Values, key string, value string) {
	if value != "" {
		values.Set(key, value)
	}
}
