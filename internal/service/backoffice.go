package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tokobesi/terminal/internal/domain"
)

func (s *Service) ListSales(ctx context.Context, q domain.SaleQuery) ([]domain.Sale, error) {
	if _, err := s.current(ctx); err != nil {
		return nil, err
	}
	q.StoreID = s.storeFor(ctx, q.StoreID)
	sales, err := s.backend.ListSales(ctx, q)
	if err != nil {
		return nil, s.checkBackend(ctx, err)
	}
	if sales == nil {
		sales = []domain.Sale{}
	}
	return sales, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	if _, err := s.current(ctx); err != nil {
		return domain.Sale{}, err
	}
	id, err := requireID(id, "sale id")
	if err != nil {
		return domain.Sale{}, err
	}
	sale, err := s.backend.GetSale(ctx, id)
	return sale, s.checkBackend(ctx, err)
}

func (s *Service) UpdateSale(ctx context.Context, id string, req domain.SaleUpdateRequest) (domain.Sale, error) {
	if _, err := s.requireRole(ctx, backOffice...); err != nil {
		return domain.Sale{}, err
	}
	id, err := requireID(id, "sale id")
	if err != nil {
		return domain.Sale{}, err
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	req.Note = strings.TrimSpace(req.Note)
	if req.Status == "" && req.Note == "" {
		return domain.Sale{}, fmt.Errorf("%w: status or note is required", ErrInvalidInput)
	}
	sale, err := s.backend.UpdateSale(ctx, id, req)
	return sale, s.checkBackend(ctx, err)
}

func (s *Service) SaleLogs(ctx context.Context, q domain.LogQuery) ([]domain.ActivityLog, error) {
	if _, err := s.requireRole(ctx, backOffice...); err != nil {
		return nil, err
	}
	q.StoreID = s.storeFor(ctx, q.StoreID)
	logs, err := s.backend.SaleLogs(ctx, q)
	if err != nil {
		return nil, s.checkBackend(ctx, err)
	}
	if logs == nil {
		logs = []domain.ActivityLog{}
	}
	return logs, nil
}

// RequestReturn files a return for review. Any cashier may request one.
func (s *Service) RequestReturn(ctx context.Context, req domain.ReturnCreateRequest) (domain.ReturnRequest, error) {
	if _, err := s.current(ctx); err != nil {
		return domain.ReturnRequest{}, err
	}
	req.SaleID = strings.TrimSpace(req.SaleID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.SaleID == "" || req.Reason == "" {
		return domain.ReturnRequest{}, fmt.Errorf("%w: sale_id and reason are required", ErrInvalidInput)
	}
	items := make([]domain.ReturnLine, 0, len(req.Items))
	for _, item := range req.Items {
		item.ProductID = strings.TrimSpace(item.ProductID)
		if item.ProductID == "" || item.Qty < 1 {
			return domain.ReturnRequest{}, fmt.Errorf("%w: every return line needs a product and a positive qty", ErrInvalidInput)
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return domain.ReturnRequest{}, fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}
	req.Items = items
	req.StoreID = s.storeFor(ctx, req.StoreID)

	ret, err := s.backend.RequestReturn(ctx, req)
	return ret, s.checkBackend(ctx, err)
}

func (s *Service) PendingReturns(ctx context.Context, storeID string) ([]domain.ReturnRequest, error) {
	return s.listReturns(ctx, storeID, s.backend.PendingReturns)
}

func (s *Service) ApprovedReturns(ctx context.Context, storeID string) ([]domain.ReturnRequest, error) {
	return s.listReturns(ctx, storeID, s.backend.ApprovedReturns)
}

func (s *Service) AllReturns(ctx context.Context, storeID string) ([]domain.ReturnRequest, error) {
	return s.listReturns(ctx, storeID, s.backend.AllReturns)
}

func (s *Service) listReturns(ctx context.Context, storeID string, fetch func(context.Context, string) ([]domain.ReturnRequest, error)) ([]domain.ReturnRequest, error) {
	if _, err := s.requireRole(ctx, backOffice...); err != nil {
		return nil, err
	}
	returns, err := fetch(ctx, s.storeFor(ctx, storeID))
	if err != nil {
		return nil, s.checkBackend(ctx, err)
	}
	if returns == nil {
		returns = []domain.ReturnRequest{}
	}
	return returns, nil
}

func (s *Service) ApproveReturn(ctx context.Context, id string, decision domain.ReturnDecision) (domain.ReturnRequest, error) {
	if _, err := s.requireRole(ctx, backOffice...); err != nil {
		return domain.ReturnRequest{}, err
	}
	id, err := requireID(id, "return id")
	if err != nil {
		return domain.ReturnRequest{}, err
	}
	decision.Note = strings.TrimSpace(decision.Note)
	ret, err := s.backend.ApproveReturn(ctx, id, decision)
	return ret, s.checkBackend(ctx, err)
}

func (s *Service) RejectReturn(ctx context.Context, id string, decision domain.ReturnDecision) (domain.ReturnRequest, error) {
	if _, err := s.requireRole(ctx, backOffice...); err != nil {
		return domain.ReturnRequest{}, err
	}
	id, err := requireID(id, "return id")
	if err != nil {
		return domain.ReturnRequest{}, err
	}
	decision.Note = strings.TrimSpace(decision.Note)
	if decision.Note == "" {
		return domain.ReturnRequest{}, fmt.Errorf("%w: a rejection note is required", ErrInvalidInput)
	}
	ret, err := s.backend.RejectReturn(ctx, id, decision)
	return ret, s.checkBackend(ctx, err)
}

func (s *Service) IssueReturnVoucher(ctx context.Context, req domain.IssueVoucherRequest) (domain.Voucher, error) {
	if _, err := s.requireRole(ctx, backOffice...); err != nil {
		return domain.Voucher{}, err
	}
	id, err := requireID(req.ReturnID, "return_id")
	if err != nil {
		return domain.Voucher{}, err
	}
	if req.AmountCents < 0 {
		return domain.Voucher{}, fmt.Errorf("%w: amount cannot be negative", ErrInvalidInput)
	}
	req.ReturnID = id
	voucher, err := s.backend.IssueReturnVoucher(ctx, req)
	return voucher, s.checkBackend(ctx, err)
}

func (s *Service) ReturnsForSale(ctx context.Context, saleID string) ([]domain.ReturnRequest, error) {
	if _, err := s.current(ctx); err != nil {
		return nil, err
	}
	saleID, err := requireID(saleID, "sale id")
	if err != nil {
		return nil, err
	}
	returns, err := s.backend.ReturnsForSale(ctx, saleID)
	if err != nil {
		return nil, s.checkBackend(ctx, err)
	}
	if returns == nil {
		returns = []domain.ReturnRequest{}
	}
	return returns, nil
}

// VerifyVoucher checks a code without touching the cart.
func (s *Service) VerifyVoucher(ctx context.Context, code string) (domain.Voucher, error) {
	session, err := s.current(ctx)
	if err != nil {
		return domain.Voucher{}, err
	}
	code, err = requireID(code, "voucher code")
	if err != nil {
		return domain.Voucher{}, err
	}
	voucher, err := s.backend.VerifyVoucher(ctx, domain.VoucherVerifyRequest{Code: code, StoreID: s.storeFor(ctx, session.StoreID)})
	return voucher, s.checkBackend(ctx, err)
}

func (s *Service) VouchersForSale(ctx context.Context, saleID string) ([]domain.Voucher, error) {
	if _, err := s.current(ctx); err != nil {
		return nil, err
	}
	saleID, err := requireID(saleID, "sale id")
	if err != nil {
		return nil, err
	}
	vouchers, err := s.backend.VouchersForSale(ctx, saleID)
	if err != nil {
		return nil, s.checkBackend(ctx, err)
	}
	if vouchers == nil {
		vouchers = []domain.Voucher{}
	}
	return vouchers, nil
}

func (s *Service) DiscountRules(ctx context.Context, storeID string) (domain.DiscountRules, error) {
	if _, err := s.current(ctx); err != nil {
		return nil, err
	}
	rules, err := s.backend.DiscountRules(ctx, s.storeFor(ctx, storeID))
	if err != nil {
		return nil, s.checkBackend(ctx, err)
	}
	if rules == nil {
		rules = domain.DiscountRules{}
	}
	return rules, nil
}

func (s *Service) SaveDiscountSetting(ctx context.Context, setting domain.DiscountSetting) (domain.DiscountSetting, error) {
	if _, err := s.requireRole(ctx, backOffice...); err != nil {
		return domain.DiscountSetting{}, err
	}
	setting.Name = strings.TrimSpace(setting.Name)
	if setting.Name == "" {
		return domain.DiscountSetting{}, fmt.Errorf("%w: discount name is required", ErrInvalidInput)
	}
	if setting.Percent < 0 || setting.Percent > 100 {
		return domain.DiscountSetting{}, fmt.Errorf("%w: percent must be between 0 and 100", ErrInvalidInput)
	}
	setting.StoreID = s.storeFor(ctx, setting.StoreID)
	saved, err := s.backend.SaveDiscountSetting(ctx, setting)
	return saved, s.checkBackend(ctx, err)
}

func (s *Service) Stores(ctx context.Context) ([]domain.Store, error) {
	if _, err := s.current(ctx); err != nil {
		return nil, err
	}
	stores, err := s.backend.ListStores(ctx)
	if err != nil {
		return nil, s.checkBackend(ctx, err)
	}
	if stores == nil {
		stores = []domain.Store{}
	}
	return stores, nil
}

func (s *Service) Users(ctx context.Context, storeID string) ([]domain.User, error) {
	if _, err := s.requireRole(ctx, backOffice...); err != nil {
		return nil, err
	}
	users, err := s.backend.ListUsers(ctx, s.storeFor(ctx, storeID))
	if err != nil {
		return nil, s.checkBackend(ctx, err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *Service) Dashboard(ctx context.Context, storeID string) (domain.DashboardStats, error) {
	if _, err := s.requireRole(ctx, backOffice...); err != nil {
		return domain.DashboardStats{}, err
	}
	stats, err := s.backend.DashboardStats(ctx, s.storeFor(ctx, storeID))
	return stats, s.checkBackend(ctx, err)
}

// DailySales defaults to today in the terminal's local time.
func (s *Service) DailySales(ctx context.Context, storeID string, date string) (domain.DailySalesReport, error) {
	if _, err := s.current(ctx); err != nil {
		return domain.DailySalesReport{}, err
	}
	date, err := s.reportDate(date)
	if err != nil {
		return domain.DailySalesReport{}, err
	}
	report, err := s.backend.DailySales(ctx, s.storeFor(ctx, storeID), date)
	if err != nil {
		return domain.DailySalesReport{}, s.checkBackend(ctx, err)
	}
	if report.Date == "" {
		report.Date = date
	}
	return report, nil
}

func (s *Service) ProfitSummary(ctx context.Context, storeID string, from string, to string) (domain.ProfitSummary, error) {
	if _, err := s.requireRole(ctx, backOffice...); err != nil {
		return domain.ProfitSummary{}, err
	}
	from, err := s.reportDate(from)
	if err != nil {
		return domain.ProfitSummary{}, err
	}
	to, err = s.reportDate(to)
	if err != nil {
		return domain.ProfitSummary{}, err
	}
	if to < from {
		return domain.ProfitSummary{}, fmt.Errorf("%w: to must not be before from", ErrInvalidInput)
	}
	summary, err := s.backend.ProfitSummary(ctx, s.storeFor(ctx, storeID), from, to)
	return summary, s.checkBackend(ctx, err)
}

func (s *Service) reportDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return s.now().Format(time.DateOnly), nil
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return date, nil
}

func requireID(value string, name string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, name)
	}
	return value, nil
}
