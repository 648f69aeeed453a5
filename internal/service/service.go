package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"tokobesi/terminal/internal/apiclient"
	"tokobesi/terminal/internal/cache"
	"tokobesi/terminal/internal/checkout"
	"tokobesi/terminal/internal/domain"
	"tokobesi/terminal/internal/printq"
	"tokobesi/terminal/internal/receipt"
	"tokobesi/terminal/internal/store"
	"tokobesi/terminal/internal/xid"
)

var (
	ErrNoSession       = errors.New("session expired, please log in again")
	ErrForbidden       = errors.New("forbidden role")
	ErrInvalidInput    = errors.New("invalid input")
	ErrProductNotFound = errors.New("product not found")
	ErrSupervisorPIN   = errors.New("invalid supervisor PIN")
)

// Backend is the slice of the REST contract the terminal uses.
// *apiclient.Client implements it.
type Backend interface {
	Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
	Logout(ctx context.Context) error

	ListProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error)
	PagedProducts(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error)
	CreateProduct(ctx context.Context, in domain.ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ProductLogs(ctx context.Context, q domain.LogQuery) ([]domain.ActivityLog, error)

	ListSales(ctx context.Context, q domain.SaleQuery) ([]domain.Sale, error)
	CreateSale(ctx context.Context, req domain.CheckoutRequest) (domain.Sale, error)
	UpdateSale(ctx context.Context, id string, req domain.SaleUpdateRequest) (domain.Sale, error)
	GetSale(ctx context.Context, id string) (domain.Sale, error)
	ExchangeableSale(ctx context.Context, id string) (domain.ExchangeableSale, error)
	SaleLogs(ctx context.Context, q domain.LogQuery) ([]domain.ActivityLog, error)

	RequestReturn(ctx context.Context, req domain.ReturnCreateRequest) (domain.ReturnRequest, error)
	PendingReturns(ctx context.Context, storeID string) ([]domain.ReturnRequest, error)
	ApprovedReturns(ctx context.Context, storeID string) ([]domain.ReturnRequest, error)
	AllReturns(ctx context.Context, storeID string) ([]domain.ReturnRequest, error)
	ApproveReturn(ctx context.Context, id string, decision domain.ReturnDecision) (domain.ReturnRequest, error)
	RejectReturn(ctx context.Context, id string, decision domain.ReturnDecision) (domain.ReturnRequest, error)
	IssueReturnVoucher(ctx context.Context, req domain.IssueVoucherRequest) (domain.Voucher, error)
	ReturnsForSale(ctx context.Context, saleID string) ([]domain.ReturnRequest, error)

	VerifyVoucher(ctx context.Context, req domain.VoucherVerifyRequest) (domain.Voucher, error)
	VouchersForSale(ctx context.Context, saleID string) ([]domain.Voucher, error)

	DiscountRules(ctx context.Context, storeID string) (domain.DiscountRules, error)
	SaveDiscountSetting(ctx context.Context, setting domain.DiscountSetting) (domain.DiscountSetting, error)
	ListStores(ctx context.Context) ([]domain.Store, error)
	ListUsers(ctx context.Context, storeID string) ([]domain.User, error)
	DashboardStats(ctx context.Context, storeID string) (domain.DashboardStats, error)
	DailySales(ctx context.Context, storeID string, date string) (domain.DailySalesReport, error)
	ProfitSummary(ctx context.Context, storeID string, from string, to string) (domain.ProfitSummary, error)
}

type Options struct {
	StoreID                  string
	TerminalID               string
	SessionTTL               time.Duration
	CatalogTTL               time.Duration
	MaxManualDiscountPercent float64
	SupervisorPIN            string
}

type Service struct {
	repo      store.Repository
	backend   Backend
	products  cache.ProductCache
	printer   printq.Publisher
	receipts  *receipt.Renderer
	opts      Options
	superHash string
	locks     *keyedMutex
	now       func() time.Time
}

func New(repo store.Repository, backend Backend, products cache.ProductCache, printer printq.Publisher, receipts *receipt.Renderer, opts Options) *Service {
	if opts.StoreID == "" {
		opts.StoreID = "main-store"
	}
	if opts.TerminalID == "" {
		opts.TerminalID = "terminal-1"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 8 * time.Hour
	}
	if opts.CatalogTTL <= 0 {
		opts.CatalogTTL = time.Minute
	}
	if products == nil {
		products = cache.NoopProductCache{}
	}
	if printer == nil {
		printer = printq.NoopPublisher{}
	}
	if receipts == nil {
		receipts = receipt.New(receipt.Header{})
	}

	return &Service{
		repo:      repo,
		backend:   backend,
		products:  products,
		printer:   printer,
		receipts:  receipts,
		opts:      opts,
		superHash: hashSupervisorPIN(opts.SupervisorPIN),
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
}

type sessionContextKey struct{}

func WithSession(ctx context.Context, session domain.Session) context.Context {
	ctx = apiclient.WithToken(ctx, session.Token)
	return context.WithValue(ctx, sessionContextKey{}, session)
}

func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(domain.Session)
	return session, ok
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.Session, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return domain.Session{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	resp, err := s.backend.Login(ctx, req)
	if err != nil {
		return domain.Session{}, err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return domain.Session{}, errors.New("backend returned no token")
	}

	now := s.now().UTC()
	claims := readTokenClaims(resp.Token)
	session := domain.Session{
		ID:         xid.New("sess"),
		Token:      resp.Token,
		UserID:     firstNonEmpty(resp.User.ID, claims.Subject),
		Username:   firstNonEmpty(resp.User.Username, claims.Username, req.Username),
		Name:       firstNonEmpty(resp.User.Name, claims.Name, req.Username),
		Role:       strings.ToLower(firstNonEmpty(resp.User.Role, claims.Role, domain.RoleCashier)),
		StoreID:    firstNonEmpty(resp.User.StoreID, claims.StoreID, s.opts.StoreID),
		TerminalID: s.opts.TerminalID,
		Cart:       checkout.New().State(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.opts.SessionTTL),
	}
	if !claims.ExpiresAt.IsZero() {
		session.ExpiresAt = claims.ExpiresAt
	}

	if err := s.repo.SaveSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Logout tells the backend first and always drops the local session.
func (s *Service) Logout(ctx context.Context) error {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return ErrNoSession
	}
	if err := s.backend.Logout(ctx); err != nil {
		log.Printf("[terminal] WARN: backend logout for %s failed: %v", session.Username, err)
	}
	if err := s.repo.DeleteSession(context.WithoutCancel(ctx), session.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// Session loads a live session by cookie value. Expired sessions are removed.
func (s *Service) Session(ctx context.Context, id string) (domain.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Session{}, ErrNoSession
	}
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrNoSession
		}
		return domain.Session{}, err
	}
	if session.Expired(s.now()) {
		if err := s.repo.DeleteSession(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Printf("[terminal] WARN: failed to delete expired session: %v", err)
		}
		return domain.Session{}, ErrNoSession
	}
	return *session, nil
}

// SweepSessions removes expired sessions and returns how many were dropped.
func (s *Service) SweepSessions(ctx context.Context) (int, error) {
	return s.repo.DeleteExpiredSessions(ctx, s.now())
}

func (s *Service) MaxManualDiscountPercent() float64 {
	return s.opts.MaxManualDiscountPercent
}

// checkBackend tears the session down when the backend no longer accepts
// its token. err is returned unchanged.
func (s *Service) checkBackend(ctx context.Context, err error) error {
	if err == nil || !errors.Is(err, apiclient.ErrUnauthorized) {
		return err
	}
	if session, ok := SessionFromContext(ctx); ok {
		if delErr := s.repo.DeleteSession(context.WithoutCancel(ctx), session.ID); delErr != nil && !errors.Is(delErr, store.ErrNotFound) {
			log.Printf("[terminal] WARN: failed to drop rejected session %s: %v", session.Username, delErr)
		}
	}
	return err
}

func (s *Service) current(ctx context.Context) (domain.Session, error) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return domain.Session{}, ErrNoSession
	}
	return session, nil
}

func (s *Service) requireRole(ctx context.Context, roles ...string) (domain.Session, error) {
	session, err := s.current(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if !slices.Contains(roles, session.Role) {
		return domain.Session{}, ErrForbidden
	}
	return session, nil
}

func (s *Service) storeFor(ctx context.Context, requested string) string {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested
	}
	if session, ok := SessionFromContext(ctx); ok && session.StoreID != "" {
		return session.StoreID
	}
	return s.opts.StoreID
}

var backOffice = []string{domain.RoleAdmin, domain.RoleManager}

func (s *Service) Products(ctx context.Context, search string, category string) ([]domain.Product, error) {
	session, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	storeID := s.storeFor(ctx, session.StoreID)
	search = strings.TrimSpace(search)
	category = strings.TrimSpace(category)

	if search != "" || category != "" {
		products, err := s.backend.ListProducts(ctx, domain.ProductQuery{StoreID: storeID, Search: search, Category: category})
		return products, s.checkBackend(ctx, err)
	}
	return s.catalog(ctx, storeID)
}

func (s *Service) catalog(ctx context.Context, storeID string) ([]domain.Product, error) {
	if products, ok, err := s.products.Get(ctx, storeID); err != nil {
		log.Printf("[terminal] WARN: product cache read failed: %v", err)
	} else if ok {
		return products, nil
	}

	products, err := s.backend.ListProducts(ctx, domain.ProductQuery{StoreID: storeID})
	if err != nil {
		return nil, s.checkBackend(ctx, err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	if err := s.products.Set(ctx, storeID, products, s.opts.CatalogTTL); err != nil {
		log.Printf("[terminal] WARN: product cache write failed: %v", err)
	}
	return products, nil
}

func (s *Service) PagedProducts(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	if _, err := s.current(ctx); err != nil {
		return domain.ProductPage{}, err
	}
	q.StoreID = s.storeFor(ctx, q.StoreID)
	page, err := s.backend.PagedProducts(ctx, q)
	return page, s.checkBackend(ctx, err)
}

func (s *Service) ProductLogs(ctx context.Context, q domain.LogQuery) ([]domain.ActivityLog, error) {
	if _, err := s.requireRole(ctx, backOffice...); err != nil {
		return nil, err
	}
	q.StoreID = s.storeFor(ctx, q.StoreID)
	logs, err := s.backend.ProductLogs(ctx, q)
	return logs, s.checkBackend(ctx, err)
}

func (s *Service) CreateProduct(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	if _, err := s.requireRole(ctx, backOffice...); err != nil {
		return domain.Product{}, err
	}
	in, err := normalizeProductInput(in)
	if err != nil {
		return domain.Product{}, err
	}
	in.StoreID = s.storeFor(ctx, in.StoreID)

	product, err := s.backend.CreateProduct(ctx, in)
	if err != nil {
		return domain.Product{}, s.checkBackend(ctx, err)
	}
	s.invalidateCatalog(ctx, in.StoreID)
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (domain.Product, error) {
	if _, err := s.requireRole(ctx, backOffice...); err != nil {
		return domain.Product{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	in, err := normalizeProductInput(in)
	if err != nil {
		return domain.Product{}, err
	}
	in.StoreID = s.storeFor(ctx, in.StoreID)

	product, err := s.backend.UpdateProduct(ctx, id, in)
	if err != nil {
		return domain.Product{}, s.checkBackend(ctx, err)
	}
	s.invalidateCatalog(ctx, in.StoreID)
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.requireRole(ctx, backOffice...); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		return s.checkBackend(ctx, err)
	}
	s.invalidateCatalog(ctx, s.storeFor(ctx, ""))
	return nil
}

func (s *Service) invalidateCatalog(ctx context.Context, storeID string) {
	if err := s.products.Invalidate(ctx, storeID); err != nil {
		log.Printf("[terminal] WARN: product cache invalidate failed for %s: %v", storeID, err)
	}
}

func normalizeProductInput(in domain.ProductInput) (domain.ProductInput, error) {
	in.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Barcode = strings.TrimSpace(in.Barcode)
	if in.SKU == "" || in.Name == "" {
		return in, fmt.Errorf("%w: sku and name are required", ErrInvalidInput)
	}
	if in.PriceCents < 1 || in.CostCents < 0 || in.StockQty < 0 {
		return in, fmt.Errorf("%w: price must be positive, cost and stock not negative", ErrInvalidInput)
	}
	return in, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
