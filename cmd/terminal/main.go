package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tokobesi/terminal/internal/apiclient"
	"tokobesi/terminal/internal/cache"
	"tokobesi/terminal/internal/config"
	"tokobesi/terminal/internal/httpapi"
	"tokobesi/terminal/internal/printq"
	"tokobesi/terminal/internal/receipt"
	"tokobesi/terminal/internal/service"
	"tokobesi/terminal/internal/store"
	"tokobesi/terminal/internal/store/memory"
	pgstore "tokobesi/terminal/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 3)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("session store: postgres")
	} else {
		repo = memory.New()
		log.Println("session store: in-memory")
	}

	products := cache.ProductCache(cache.NoopProductCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisProductCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop catalog cache", err)
		} else {
			products = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("catalog cache: redis")
		}
	} else {
		log.Println("catalog cache: noop")
	}

	printer := printq.Publisher(printq.NoopPublisher{})
	if cfg.AMQPURL != "" {
		amqpPrinter, err := printq.Dial(cfg.AMQPURL, cfg.PrintQueue)
		if err != nil {
			log.Printf("rabbitmq unavailable (%v), receipts print from the browser only", err)
		} else {
			printer = amqpPrinter
			closers = append(closers, amqpPrinter.Close)
			log.Printf("print queue: %s", cfg.PrintQueue)
		}
	}

	backend, err := apiclient.New(cfg.BackendURL, cfg.BackendTimeout, cfg.BackendRatePerSecond)
	if err != nil {
		log.Fatalf("invalid BACKEND_URL: %v", err)
	}

	receipts := receipt.New(receipt.Header{
		StoreName: cfg.StoreName,
		Lines:     cfg.ReceiptHeader,
		Footer:    cfg.ReceiptFooter,
	})
	svc := service.New(repo, backend, products, printer, receipts, service.Options{
		StoreID:                  cfg.StoreID,
		TerminalID:               cfg.TerminalID,
		SessionTTL:               cfg.SessionTTL(),
		CatalogTTL:               cfg.CatalogTTL(),
		MaxManualDiscountPercent: cfg.MaxManualDiscountPercent,
		SupervisorPIN:            cfg.SupervisorPIN,
	})
	api := httpapi.New(svc, cfg.AllowedOrigin, cfg.SecureCookies)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.BackendTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sweepSessions(sweepCtx, svc, 5*time.Minute)

	go func() {
		log.Printf("POS terminal %s listening on %s (backend %s)", cfg.TerminalID, cfg.Address(), cfg.BackendURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	stopSweep()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("terminal stopped")
}

func sweepSessions(ctx context.Context, svc *service.Service, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := svc.SweepSessions(ctx)
			if err != nil {
				log.Printf("[terminal] WARN: session sweep failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("[terminal] swept %d expired sessions", removed)
			}
		}
	}
}

// validateSecurityConfig only checks the supervisor PIN when one is set;
// without it manual discounts above the limit are simply refused.
// validateSecurityConfig checks the supervisor PIN that lifts the manual
// discount cap. An unset PIN disables overrides.
func validateSecurityConfig(cfg config.Config) error {
	pin := cfg.SupervisorPIN
	if pin == "" {
		return nil
	}
	if len(pin) < 6 {
		return fmt.Errorf("SUPERVISOR_PIN must be at least 6 digits")
	}
	if strings.TrimLeft(pin, "0123456789") != "" {
		return fmt.Errorf("SUPERVISOR_PIN must be numeric")
	}

	distinct := map[byte]struct{}{}
	for i := 0; i < len(pin); i++ {
		distinct[pin[i]] = struct{}{}
	}
	if len(distinct) < 3 {
		return fmt.Errorf("SUPERVISOR_PIN is too weak: needs at least 3 different digits")
	}

	step := int(pin[1]) - int(pin[0])
	run := step == 1 || step == -1
	for i := 2; run && i < len(pin); i++ {
		run = int(pin[i])-int(pin[i-1]) == step
	}
	if run {
		return fmt.Errorf("SUPERVISOR_PIN is too weak: digits count up or down")
	}

	if half := len(pin) / 2; len(pin)%2 == 0 && pin[:half] == pin[half:] {
		return fmt.Errorf("SUPERVISOR_PIN is too weak: repeats itself")
	}
	if cfg.TerminalID != "" && strings.Contains(cfg.TerminalID, pin) {
		return fmt.Errorf("SUPERVISOR_PIN must not appear in TERMINAL_ID")
	}
	return nil
}
