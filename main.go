package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	apihttp "octo-backend/internal/api/http"
	"octo-backend/internal/audit"
	"octo-backend/internal/observability/metrics"
	pipelineapp "octo-backend/internal/pipeline/application"
	pipelinedomain "octo-backend/internal/pipeline/domain"
	pipelinerepo "octo-backend/internal/pipeline/infrastructure/postgres"
	pipelinehttp "octo-backend/internal/pipeline/interfaces/http"
	portfolioapp "octo-backend/internal/portfolio/application"
	portfoliorepo "octo-backend/internal/portfolio/infrastructure/postgres"
	portfoliohttp "octo-backend/internal/portfolio/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	fundRepo := portfoliorepo.NewFundRepository(db)
	ledgerRepo := portfoliorepo.NewLedgerRepository(db)
	reportRepo := portfoliorepo.NewReportRepository(db)

	fundService, err := portfolioapp.NewFundService(fundRepo, ledgerRepo, nil)
	if err != nil {
		logger.Fatalf("fund service error: %v", err)
	}
	ledgerService, err := portfolioapp.NewLedgerService(fundRepo, ledgerRepo, nil)
	if err != nil {
		logger.Fatalf("ledger service error: %v", err)
	}
	reportService, err := portfolioapp.NewReportService(fundRepo, reportRepo, nil)
	if err != nil {
		logger.Fatalf("report service error: %v", err)
	}
	summaryService, err := portfolioapp.NewSummaryService(fundRepo, ledgerRepo, reportRepo, cfg.ReconTolerance, nil)
	if err != nil {
		logger.Fatalf("summary service error: %v", err)
	}
	portfolioHandler, err := portfoliohttp.NewHandler(fundService, ledgerService, reportService, summaryService, auditRepo)
	if err != nil {
		logger.Fatalf("portfolio handler error: %v", err)
	}

	catalog := pipelinedomain.DefaultCatalog()
	if cfg.TaskCatalogPath != "" {
		catalog, err = pipelinedomain.LoadCatalog(cfg.TaskCatalogPath)
		if err != nil {
			logger.Fatalf("task catalog error: %v", err)
		}
		logger.Printf("task catalog loaded from %s (%d entries)", cfg.TaskCatalogPath, len(catalog))
	}

	pipelineFundRepo := pipelinerepo.NewPipelineFundRepository(db)
	taskRepo := pipelinerepo.NewTaskRepository(db)

	pipelineService, err := pipelineapp.NewPipelineService(pipelineFundRepo, nil)
	if err != nil {
		logger.Fatalf("pipeline service error: %v", err)
	}
	scheduleService, err := pipelineapp.NewScheduleService(taskRepo, catalog, nil)
	if err != nil {
		logger.Fatalf("schedule service error: %v", err)
	}
	taskService, err := pipelineapp.NewTaskService(taskRepo, pipelineFundRepo, nil)
	if err != nil {
		logger.Fatalf("task service error: %v", err)
	}
	pipelineHandler, err := pipelinehttp.NewHandler(pipelineService, scheduleService, taskService, auditRepo)
	if err != nil {
		logger.Fatalf("pipeline handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/funds", portfolioHandler)
	mux.Handle("/api/v1/funds/", portfolioHandler)
	mux.Handle("/api/v1/pipeline", pipelineHandler)
	mux.Handle("/api/v1/pipeline/", pipelineHandler)
	mux.Handle("/api/v1/tasks/", pipelineHandler)
	mux.Handle("/api/v1/overview", apihttp.NewOverviewHandler(db))
	mux.Handle("/api/v1/events/upcoming", apihttp.NewUpcomingEventsHandler(db))
	mux.Handle("/api/v1/exports/ledger.csv", apihttp.NewExportLedgerCSVHandler(fundService, ledgerService))
	mux.Handle("/api/v1/exports/portfolio.xlsx", apihttp.NewExportPortfolioXLSXHandler(fundService, summaryService))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(mux, logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL     string
	HTTPAddr        string
	ReconTolerance  decimal.Decimal
	TaskCatalogPath string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:     getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		ReconTolerance:  getenvDecimalDefault("RECON_TOLERANCE", decimal.NewFromInt(1)),
		TaskCatalogPath: getenvDefault("TASK_CATALOG_PATH", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDecimalDefault(key string, fallback decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
