package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/safwanm/biztrack-backend/internal/config"
	"github.com/safwanm/biztrack-backend/internal/handler"
	"github.com/safwanm/biztrack-backend/internal/logging"
	"github.com/safwanm/biztrack-backend/internal/middleware"
	"github.com/safwanm/biztrack-backend/internal/repository"
	"github.com/safwanm/biztrack-backend/internal/service/ledger"
	"github.com/safwanm/biztrack-backend/internal/service/party"
	"github.com/safwanm/biztrack-backend/internal/service/payroll"
	"github.com/safwanm/biztrack-backend/internal/service/reporting"
	"github.com/safwanm/biztrack-backend/internal/service/serviceorder"
	"github.com/safwanm/biztrack-backend/internal/service/settlement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("biztrack-api", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var cache *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid redis url", "error", err)
			os.Exit(1)
		}
		cache = redis.NewClient(opts)
		defer cache.Close()
	}

	accounts := repository.NewAccountRepository(db)
	customers := repository.NewCustomerRepository(db)
	vendors := repository.NewVendorRepository(db)
	receivables := repository.NewReceivableRepository(db)
	payables := repository.NewPayableRepository(db)
	transactions := repository.NewTransactionRepository(db)
	orders := repository.NewServiceOrderRepository(db)
	employees := repository.NewEmployeeRepository(db)
	salaries := repository.NewSalaryRepository(db)

	settlementSvc := settlement.NewService(receivables, payables, customers, vendors, accounts, transactions, db)
	orderSvc := serviceorder.NewService(orders, receivables, payables, customers, vendors, accounts, transactions, db, cfg.DueGraceDays)
	ledgerSvc := ledger.NewService(accounts, transactions, db)
	partySvc := party.NewService(customers, vendors)
	payrollSvc := payroll.NewService(employees, salaries, accounts, transactions, db)
	reportSvc := reporting.NewService(receivables, payables, accounts, cache, time.Duration(cfg.ReportCacheTTLS)*time.Second)

	accountHandler := handler.NewAccountHandler(ledgerSvc)
	customerHandler := handler.NewCustomerHandler(partySvc, settlementSvc)
	vendorHandler := handler.NewVendorHandler(partySvc, settlementSvc)
	receivableHandler := handler.NewReceivableHandler(settlementSvc)
	payableHandler := handler.NewPayableHandler(settlementSvc)
	orderHandler := handler.NewOrderHandler(orderSvc)
	payrollHandler := handler.NewPayrollHandler(payrollSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("POST /api/v1/accounts", accountHandler.Create)
	mux.HandleFunc("GET /api/v1/accounts", accountHandler.List)
	mux.HandleFunc("GET /api/v1/accounts/{id}", accountHandler.Get)
	mux.HandleFunc("GET /api/v1/accounts/{id}/transactions", accountHandler.ListTransactions)
	mux.HandleFunc("POST /api/v1/transactions", accountHandler.RecordEntry)
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", accountHandler.DeleteEntry)
	mux.HandleFunc("POST /api/v1/transfers", accountHandler.Transfer)

	mux.HandleFunc("POST /api/v1/customers", customerHandler.Create)
	mux.HandleFunc("GET /api/v1/customers", customerHandler.List)
	mux.HandleFunc("GET /api/v1/customers/{id}", customerHandler.Get)
	mux.HandleFunc("GET /api/v1/customers/{id}/receivables", customerHandler.ListReceivables)
	mux.HandleFunc("POST /api/v1/customers/{id}/payments", customerHandler.RecordPayment)

	mux.HandleFunc("POST /api/v1/vendors", vendorHandler.Create)
	mux.HandleFunc("GET /api/v1/vendors", vendorHandler.List)
	mux.HandleFunc("GET /api/v1/vendors/{id}", vendorHandler.Get)
	mux.HandleFunc("GET /api/v1/vendors/{id}/payables", vendorHandler.ListPayables)
	mux.HandleFunc("POST /api/v1/vendors/{id}/payments", vendorHandler.PayBill)

	mux.HandleFunc("POST /api/v1/receivables", receivableHandler.Create)
	mux.HandleFunc("POST /api/v1/receivables/{id}/settle", receivableHandler.Settle)
	mux.HandleFunc("DELETE /api/v1/receivables/{id}", receivableHandler.Delete)

	mux.HandleFunc("POST /api/v1/payables", payableHandler.Create)
	mux.HandleFunc("POST /api/v1/payables/{id}/settle", payableHandler.Settle)
	mux.HandleFunc("DELETE /api/v1/payables/{id}", payableHandler.Delete)

	mux.HandleFunc("POST /api/v1/service-orders", orderHandler.Create)
	mux.HandleFunc("GET /api/v1/service-orders", orderHandler.List)
	mux.HandleFunc("GET /api/v1/service-orders/{id}", orderHandler.Get)
	mux.HandleFunc("PUT /api/v1/service-orders/{id}", orderHandler.Update)
	mux.HandleFunc("POST /api/v1/service-orders/{id}/status", orderHandler.Transition)
	mux.HandleFunc("DELETE /api/v1/service-orders/{id}", orderHandler.Delete)

	mux.HandleFunc("POST /api/v1/employees", payrollHandler.CreateEmployee)
	mux.HandleFunc("GET /api/v1/employees", payrollHandler.ListEmployees)
	mux.HandleFunc("POST /api/v1/salaries/generate", payrollHandler.GenerateSalaries)
	mux.HandleFunc("GET /api/v1/salaries", payrollHandler.ListSalaries)
	mux.HandleFunc("POST /api/v1/salaries/{id}/pay", payrollHandler.PaySalary)

	mux.HandleFunc("GET /api/v1/reports/aging/receivables", reportHandler.AgingReceivables)
	mux.HandleFunc("GET /api/v1/reports/aging/payables", reportHandler.AgingPayables)
	mux.HandleFunc("GET /api/v1/reports/summary", reportHandler.Summary)

	chain := middleware.RequestID(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chain,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var err error
	for i := range 30 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		db, dbErr := repository.NewPostgresDB(ctx, cfg.DatabaseURL, pool)
		cancel()
		if dbErr == nil {
			return db, nil
		}
		err = dbErr
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
