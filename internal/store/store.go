package store

import (
	"context"
	"errors"
	"time"

	"tokobesi/terminal/internal/domain"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidHold = errors.New("invalid held sale")
)

// Repository keeps terminal-local state: login sessions with their working
// cart, and sales parked for later.
type Repository interface {
	SaveSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int, error)
	CreateHeldSale(ctx context.Context, held domain.HeldSale) (*domain.HeldSale, error)
	ListHeldSales(ctx context.Context, storeID string, terminalID string, limit int) ([]domain.HeldSale, error)
	// PopHeldSale and DeleteHeldSale only see holds parked by the given
	// store and terminal; anything else is ErrNotFound.
	PopHeldSale(ctx context.Context, storeID string, terminalID string, holdID string) (*domain.HeldSale, error)
	DeleteHeldSale(ctx context.Context, storeID string, terminalID string, holdID string) error
}

const DefaultHeldLimit = 200
