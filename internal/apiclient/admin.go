package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"tokobesi/terminal/internal/domain"
)

func (c *Client) DiscountRules(ctx context.Context, storeID string) (domain.DiscountRules, error) {
	values := url.Values{}
	setIf(values, "store_id", storeID)
	out := domain.DiscountRules{}
	err := c.Do(ctx, http.MethodGet, "/discount-settings/map", values, nil, &out)
	return out, err
}

func (c *Client) SaveDiscountSetting(ctx context.Context, setting domain.DiscountSetting) (domain.DiscountSetting, error) {
	var out domain.DiscountSetting
	err := c.Do(ctx, http.MethodPost, "/discount-settings", nil, setting, &out)
	if err == nil && out.Name == "" {
		out = setting
	}
	return out, err
}

func (c *Client) ListStores(ctx context.Context) ([]domain.Store, error) {
	var out []domain.Store
	err := c.Do(ctx, http.MethodGet, "/stores", nil, nil, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context, storeID string) ([]domain.User, error) {
	values := url.Values{}
	setIf(values, "store_id", storeID)
	var out []domain.User
	err := c.Do(ctx, http.MethodGet, "/users", values, nil, &out)
	return out, err
}

func (c *Client) DashboardStats(ctx context.Context, storeID string) (domain.DashboardStats, error) {
	values := url.Values{}
	setIf(values, "store_id", storeID)
	var out domain.DashboardStats
	err := c.Do(ctx, http.MethodGet, "/dashboard/stats", values, nil, &out)
	return out, err
}

// DailySales fetches the daily report; date is YYYY-MM-DD, empty for today.
func (c *Client) DailySales(ctx context.Context, storeID string, date string) (domain.DailySalesReport, error) {
	values := url.Values{}
	setIf(values, "store_id", storeID)
	setIf(values, "date", date)
	var out domain.DailySalesReport
	err := c.Do(ctx, http.MethodGet, "/reports/daily-sales", values, nil, &out)
	return out, err
}

func (c *Client) ProfitSummary(ctx context.Context, storeID string, from string, to string) (domain.ProfitSummary, error) {
	values := url.Values{}
	setIf(values, "store_id", storeID)
	setIf(values, "from", from)
	setIf(values, "to", to)
	var out domain.ProfitSummary
	err := c.Do(ctx, http.MethodGet, "/reports/profit-summary", values, nil, &out)
	return out, err
}
