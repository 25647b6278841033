package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"libraryapi/internal/book"
	"libraryapi/internal/config"
	"libraryapi/internal/httpx"
	"libraryapi/internal/loan"
	"libraryapi/internal/member"
	"libraryapi/internal/platform/frappe"
	"libraryapi/internal/report"
)

const repoTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dbPool := mustOpenDB(cfg.DatabaseDSN)
	defer dbPool.Close()

	feePolicy := mustFeePolicy(cfg)

	frappeClient := frappe.NewClient(cfg.FrappeBaseURL, "libraryapi/1.0", cfg.FrappeRPS, cfg.FrappeMaxRetries)

	bookRepo := book.NewPostgresRepo(dbPool, repoTimeout)
	memberRepo := member.NewPostgresRepo(dbPool, repoTimeout)
	loanRepo := loan.NewPostgresRepo(dbPool, repoTimeout)
	reportRepo := report.NewPostgresRepo(dbPool, repoTimeout)

	bookService := book.NewService(bookRepo, frappeClient)
	memberService := member.NewService(memberRepo)
	loanService := loan.NewService(loanRepo, feePolicy, cfg.LoanLimit)
	reportService := report.NewService(reportRepo)

	bookHandler := book.NewHTTPHandler(bookService)
	memberHandler := member.NewHTTPHandler(memberService)
	loanHandler := loan.NewHTTPHandler(loanService)
	reportHandler := report.NewHTTPHandler(reportService, loanService)

	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := dbPool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	v1 := http.NewServeMux()

	v1.HandleFunc("GET /v1/books", bookHandler.List)
	v1.HandleFunc("POST /v1/books", bookHandler.Create)
	v1.HandleFunc("GET /v1/books/external-search", bookHandler.ExternalSearch)
	v1.HandleFunc("POST /v1/books/import", bookHandler.Import)
	v1.HandleFunc("GET /v1/books/{id}", bookHandler.Get)
	v1.HandleFunc("PATCH /v1/books/{id}", bookHandler.Update)
	v1.HandleFunc("DELETE /v1/books/{id}", bookHandler.Delete)

	v1.HandleFunc("GET /v1/members", memberHandler.List)
	v1.HandleFunc("POST /v1/members", memberHandler.Create)
	v1.HandleFunc("GET /v1/members/{id}", memberHandler.Get)
	v1.HandleFunc("PATCH /v1/members/{id}", memberHandler.Update)
	v1.HandleFunc("DELETE /v1/members/{id}", memberHandler.Delete)
	v1.HandleFunc("POST /v1/members/{id}/pay-debt", memberHandler.PayDebt)
	v1.HandleFunc("POST /v1/members/{id}/clear-debt", memberHandler.ClearDebt)

	v1.HandleFunc("GET /v1/transactions", loanHandler.List)
	v1.HandleFunc("POST /v1/transactions", loanHandler.Create)
	v1.HandleFunc("GET /v1/transactions/{id}", loanHandler.Get)
	v1.HandleFunc("POST /v1/transactions/{id}/return", loanHandler.Return)
	v1.HandleFunc("DELETE /v1/transactions/{id}", loanHandler.Delete)

	v1.HandleFunc("GET /v1/reports/overview", reportHandler.Overview)
	v1.HandleFunc("GET /v1/reports/monthly", reportHandler.Monthly)
	v1.HandleFunc("GET /v1/reports/recent-transactions", reportHandler.RecentTransactions)

	router.Handle("/v1/", httpx.AuthMiddleware(cfg.JWTSecret)(v1))

	rateLimit := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)

	var handler http.Handler = router
	handler = rateLimit.Middleware(handler)
	handler = httpx.RequestSizeLimitMiddleware(1 << 20)(handler)
	handler = httpx.CORSMiddleware(cfg.CORSOrigins)(handler)
	handler = httpx.SecurityHeadersMiddleware(cfg.EnableHSTS)(handler)
	handler = httpx.RecoveryMiddleware(handler)
	handler = httpx.AccessLogMiddleware(handler)
	handler = httpx.RequestIDMiddleware(handler)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Starting server on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCtx.Done()
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func mustFeePolicy(cfg config.Config) loan.FeePolicy {
	dailyRate, err := decimal.NewFromString(cfg.FeeDailyRate)
	if err != nil {
		log.Fatalf("invalid FEE_DAILY_RATE %q: %v", cfg.FeeDailyRate, err)
	}
	multiplier, err := decimal.NewFromString(cfg.FeeLateMultiplier)
	if err != nil {
		log.Fatalf("invalid FEE_LATE_MULTIPLIER %q: %v", cfg.FeeLateMultiplier, err)
	}
	return loan.FeePolicy{
		DailyRate:             dailyRate,
		LoanPeriodDays:        cfg.FeeLoanPeriodDays,
		LateMultiplier:        multiplier,
		LateMultiplierEnabled: cfg.FeeLateMultiplierEnabled,
	}
}

func mustOpenDB(dsn string) *pgxpool.Pool {
	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Fatalf("cannot parse db config: %v", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatalf("cannot create db pool: %v", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Fatalf("cannot ping database (%s): %v", redactDSN(dsn), err)
	}
	log.Println("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
