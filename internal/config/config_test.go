package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDoesNotInjectSupervisorPIN(t *testing.T) {
	t.Setenv("SUPERVISOR_PIN", "")
	t.Setenv("TERMINAL_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SupervisorPIN != "" {
		t.Fatalf("expected empty SUPERVISOR_PIN when unset, got %q", cfg.SupervisorPIN)
	}
}

func TestLoadFallsBackOnInvalidNumbers(t *testing.T) {
	t.Setenv("TERMINAL_CONFIG", "")
	t.Setenv("BACKEND_TIMEOUT", "soon")
	t.Setenv("MAX_MANUAL_DISCOUNT_PERCENT", "150")
	t.Setenv("CATALOG_TTL_SECONDS", "-4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BackendTimeout != 15*time.Second {
		t.Fatalf("expected default backend timeout, got %v", cfg.BackendTimeout)
	}
	if cfg.MaxManualDiscountPercent != 10 {
		t.Fatalf("expected default max discount, got %v", cfg.MaxManualDiscountPercent)
	}
	if cfg.CatalogTTL() != time.Minute {
		t.Fatalf("expected default catalog ttl, got %v", cfg.CatalogTTL())
	}
}

func TestLoadAppliesYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terminal.yaml")
	body := `store_name: TB Sinar Jaya
terminal_id: kasir-3
max_manual_discount_percent: 15
receipt:
  header:
    - Jl. Merdeka No. 1
    - "Telp 021-555"
  footer:
    - Barang yang sudah dibeli dapat ditukar 7 hari
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("TERMINAL_CONFIG", path)
	t.Setenv("STORE_NAME", "ignored")
	t.Setenv("STORE_ID", "store-7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreName != "TB Sinar Jaya" || cfg.TerminalID != "kasir-3" {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	if cfg.StoreID != "store-7" {
		t.Fatalf("expected env store id to survive, got %q", cfg.StoreID)
	}
	if cfg.MaxManualDiscountPercent != 15 {
		t.Fatalf("expected max discount 15, got %v", cfg.MaxManualDiscountPercent)
	}
	if len(cfg.ReceiptHeader) != 2 || len(cfg.ReceiptFooter) != 1 {
		t.Fatalf("unexpected receipt lines: %v / %v", cfg.ReceiptHeader, cfg.ReceiptFooter)
	}
}

func TestLoadRejectsBrokenOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terminal.yaml")
	if err := os.WriteFile(path, []byte("max_manual_discount_percent: 120\n"), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("TERMINAL_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected out-of-range overlay to be rejected")
	}
}
