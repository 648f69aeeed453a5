package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"tokobesi/terminal/internal/domain"
	"tokobesi/terminal/internal/store"
	"tokobesi/terminal/internal/xid"
)

// Store is the default repository when DATABASE_URL is unset. State is lost
// on restart.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]domain.Session
	heldSalesBy map[string]domain.HeldSale
}

func New() *Store {
	return &Store{
		sessions:    make(map[string]domain.Session),
		heldSalesBy: make(map[string]domain.HeldSale),
	}
}

func (s *Store) SaveSession(_ context.Context, session domain.Session) error {
	if strings.TrimSpace(session.ID) == "" {
		return store.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	result := cloneSession(session)
	return &result, nil
}

func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) DeleteExpiredSessions(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.Expired(before) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) CreateHeldSale(_ context.Context, held domain.HeldSale) (*domain.HeldSale, error) {
	if held.StoreID == "" || held.TerminalID == "" || len(held.Cart.Lines) == 0 || held.Cart.Exchange != nil {
		return nil, store.ErrInvalidHold
	}
	if held.ID == "" {
		held.ID = xid.New("hold")
	}
	if held.HeldAt.IsZero() {
		held.HeldAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.heldSalesBy[held.ID] = cloneHeld(held)
	saved := cloneHeld(held)
	return &saved, nil
}

func (s *Store) ListHeldSales(_ context.Context, storeID string, terminalID string, limit int) ([]domain.HeldSale, error) {
	if limit < 1 {
		limit = store.DefaultHeldLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.HeldSale, 0, len(s.heldSalesBy))
	for _, held := range s.heldSalesBy {
		if storeID != "" && held.StoreID != storeID {
			continue
		}
		if terminalID != "" && held.TerminalID != terminalID {
			continue
		}
		result = append(result, cloneHeld(held))
	}
	slices.SortFunc(result, func(a, b domain.HeldSale) int {
		if a.HeldAt.Equal(b.HeldAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.HeldAt.After(b.HeldAt) {
			return -1
		}
		return 1
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) PopHeldSale(_ context.Context, storeID string, terminalID string, holdID string) (*domain.HeldSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held, exists := s.heldSalesBy[holdID]
	if !exists || held.StoreID != storeID || held.TerminalID != terminalID {
		return nil, store.ErrNotFound
	}
	delete(s.heldSalesBy, holdID)
	result := cloneHeld(held)
	return &result, nil
}

func (s *Store) DeleteHeldSale(_ context.Context, storeID string, terminalID string, holdID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	held, exists := s.heldSalesBy[holdID]
	if !exists || held.StoreID != storeID || held.TerminalID != terminalID {
		return store.ErrNotFound
	}
	delete(s.heldSalesBy, holdID)
	return nil
}

func cloneSession(in domain.Session) domain.Session {
	out := in
	out.Cart = cloneCart(in.Cart)
	return out
}

func cloneHeld(in domain.HeldSale) domain.HeldSale {
	out := in
	out.Cart = cloneCart(in.Cart)
	return out
}

func cloneCart(in domain.CartState) domain.CartState {
	out := in
	out.Lines = slices.Clone(in.Lines)
	if in.Voucher != nil {
		v := *in.Voucher
		out.Voucher = &v
	}
	if in.Exchange != nil {
		ex := *in.Exchange
		ex.Lines = slices.Clone(in.Exchange.Lines)
		out.Exchange = &ex
	}
	return out
}
