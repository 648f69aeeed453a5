package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"tokobesi/terminal/internal/domain"
)

func (c *Client) RequestReturn(ctx context.Context, req domain.ReturnCreateRequest) (domain.ReturnRequest, error) {
	var out domain.ReturnRequest
	err := c.Do(ctx, http.MethodPost, "/returns/request", nil, req, &out)
	return out, err
}

func (c *Client) PendingReturns(ctx context.Context, storeID string) ([]domain.ReturnRequest, error) {
	return c.listReturns(ctx, "/returns/pending", storeID)
}

func (c *Client) ApprovedReturns(ctx context.Context, storeID string) ([]domain.ReturnRequest, error) {
	return c.listReturns(ctx, "/returns/approved", storeID)
}

func (c *Client) AllReturns(ctx context.Context, storeID string) ([]domain.ReturnRequest, error) {
	return c.listReturns(ctx, "/returns/all", storeID)
}

func (c *Client) ApproveReturn(ctx context.Context, id string, decision domain.ReturnDecision) (domain.ReturnRequest, error) {
	var out domain.ReturnRequest
	err := c.Do(ctx, http.MethodPost, "/returns/"+segment(id)+"/approve", nil, decision, &out)
	return out, err
}

func (c *Client) RejectReturn(ctx context.Context, id string, decision domain.ReturnDecision) (domain.ReturnRequest, error) {
	var out domain.ReturnRequest
	err := c.Do(ctx, http.MethodPost, "/returns/"+segment(id)+"/reject", nil, decision, &out)
	return out, err
}

func (c *Client) IssueReturnVoucher(ctx context.Context, req domain.IssueVoucherRequest) (domain.Voucher, error) {
	var out domain.Voucher
	err := c.Do(ctx, http.MethodPost, "/returns/issue-voucher", nil, req, &out)
	return out, err
}

func (c *Client) ReturnsForSale(ctx context.Context, saleID string) ([]domain.ReturnRequest, error) {
	var out []domain.ReturnRequest
	err := c.Do(ctx, http.MethodGet, "/returns/sale/"+segment(saleID), nil, nil, &out)
	return out, err
}

func (c *Client) listReturns(ctx context.Context, path string, storeID string) ([]domain.ReturnRequest, error) {
	values := url.Values{}
	setIf(values, "store_id", storeID)
	var out []domain.ReturnRequest
	err := c.Do(ctx, http.MethodGet, path, values, nil, &out)
	return out, err
}

func (c *Client) VerifyVoucher(ctx context.Context, req domain.VoucherVerifyRequest) (domain.Voucher, error) {
	var out domain.Voucher
	err := c.Do(ctx, http.MethodPost, "/vouchers/verify", nil, req, &out)
	return out, err
}

func (c *Client) VouchersForSale(ctx context.Context, saleID string) ([]domain.Voucher, error) {
	var out []domain.Voucher
	err := c.Do(ctx, http.MethodGet, "/vouchers/sale/"+segment(saleID), nil, nil, &out)
	return out, err
}
