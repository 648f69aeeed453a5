package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tokobesi/terminal/internal/domain"
	"tokobesi/terminal/internal/store"
	"tokobesi/terminal/internal/xid"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := NewWithDB(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an open handle without pinging or migrating it.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the terminal tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveSession(ctx context.Context, session domain.Session) error {
	if session.ID == "" {
		return store.ErrNotFound
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	cartJSON, err := json.Marshal(session.Cart)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO terminal_sessions (
			id, token, user_id, username, name, role, store_id, terminal_id, cart, created_at, expires_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id)
		DO UPDATE SET token = EXCLUDED.token, cart = EXCLUDED.cart, expires_at = EXCLUDED.expires_at
	`, session.ID, session.Token, session.UserID, session.Username, session.Name, session.Role,
		session.StoreID, session.TerminalID, cartJSON, session.CreatedAt, nullTime(session.ExpiresAt))
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	var cartRaw []byte
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, token, user_id, username, name, role, store_id, terminal_id, cart, created_at, expires_at
		FROM terminal_sessions
		WHERE id = $1
	`, id).Scan(
		&session.ID,
		&session.Token,
		&session.UserID,
		&session.Username,
		&session.Name,
		&session.Role,
		&session.StoreID,
		&session.TerminalID,
		&cartRaw,
		&session.CreatedAt,
		&expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	session.CreatedAt = session.CreatedAt.UTC()
	if expiresAt.Valid {
		session.ExpiresAt = expiresAt.Time.UTC()
	}
	if len(cartRaw) > 0 {
		if err := json.Unmarshal(cartRaw, &session.Cart); err != nil {
			return nil, fmt.Errorf("decode session cart: %w", err)
		}
	}
	return &session, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return execAffecting(ctx, s.db, `DELETE FROM terminal_sessions WHERE id = $1`, id)
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM terminal_sessions
		WHERE expires_at IS NOT NULL AND expires_at <= $1
	`, before)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (s *Store) CreateHeldSale(ctx context.Context, held domain.HeldSale) (*domain.HeldSale, error) {
	if held.StoreID == "" || held.TerminalID == "" || len(held.Cart.Lines) == 0 || held.Cart.Exchange != nil {
		return nil, store.ErrInvalidHold
	}
	if held.ID == "" {
		held.ID = xid.New("hold")
	}
	if held.HeldAt.IsZero() {
		held.HeldAt = time.Now().UTC()
	}

	cartJSON, err := json.Marshal(held.Cart)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO held_sales (id, store_id, terminal_id, cashier_name, note, cart, held_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, held.ID, held.StoreID, held.TerminalID, held.CashierName, held.Note, cartJSON, held.HeldAt)
	if err != nil {
		return nil, err
	}
	saved := held
	return &saved, nil
}

func (s *Store) ListHeldSales(ctx context.Context, storeID string, terminalID string, limit int) ([]domain.HeldSale, error) {
	if limit < 1 {
		limit = store.DefaultHeldLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, terminal_id, cashier_name, note, cart, held_at
		FROM held_sales
		WHERE store_id = $1 AND terminal_id = $2
		ORDER BY held_at DESC, id DESC
		LIMIT $3
	`, storeID, terminalID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	helds := make([]domain.HeldSale, 0, 16)
	for rows.Next() {
		held, err := scanHeld(rows)
		if err != nil {
			return nil, err
		}
		helds = append(helds, held)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return helds, nil
}

// PopHeldSale locks, reads and deletes the row in one transaction so two
// terminals resuming the same hold cannot both get it.
func (s *Store) PopHeldSale(ctx context.Context, storeID string, terminalID string, holdID string) (*domain.HeldSale, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	held, err := scanHeld(tx.QueryRowContext(ctx, `
		SELECT id, store_id, terminal_id, cashier_name, note, cart, held_at
		FROM held_sales
		WHERE id = $1 AND store_id = $2 AND terminal_id = $3
		FOR UPDATE
	`, holdID, storeID, terminalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	if err := execAffecting(ctx, tx, `DELETE FROM held_sales WHERE id = $1`, holdID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &held, nil
}

func (s *Store) DeleteHeldSale(ctx context.Context, storeID string, terminalID string, holdID string) error {
	return execAffecting(ctx, s.db, `DELETE FROM held_sales WHERE id = $1 AND store_id = $2 AND terminal_id = $3`, holdID, storeID, terminalID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHeld(row rowScanner) (domain.HeldSale, error) {
	var held domain.HeldSale
	var cartRaw []byte
	if err := row.Scan(
		&held.ID,
		&held.StoreID,
		&held.TerminalID,
		&held.CashierName,
		&held.Note,
		&cartRaw,
		&held.HeldAt,
	); err != nil {
		return domain.HeldSale{}, err
	}
	held.HeldAt = held.HeldAt.UTC()
	if len(cartRaw) > 0 {
		if err := json.Unmarshal(cartRaw, &held.Cart); err != nil {
			return domain.HeldSale{}, fmt.Errorf("decode held cart: %w", err)
		}
	}
	return held, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execAffecting(ctx context.Context, db execer, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
