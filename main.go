package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/username/yieldly/backend/src/config"
	"github.com/username/yieldly/backend/src/database"
	"github.com/username/yieldly/backend/src/handlers"
	"github.com/username/yieldly/backend/src/logger"
	"github.com/username/yieldly/backend/src/parsers"
	"github.com/username/yieldly/backend/src/processors"
	"github.com/username/yieldly/backend/src/services"
	"github.com/username/yieldly/backend/src/store"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin == config.Cfg.CORSAllowedOrigin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Yieldly backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	db, err := database.InitDB(config.Cfg.DatabasePath)
	if err != nil {
		logger.L.Error("Failed to initialize database", "error", err)
		stdlog.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing services and handlers...")
	portfolioStore := store.NewPortfolioStore(db)
	ledgerStore := store.NewLedgerStore(db)
	stockInfoStore := store.NewStockInfoStore(db)

	csvParser := parsers.NewCSVParser()
	holdingProcessor := processors.NewHoldingProcessor()

	portfolioService := services.NewPortfolioService(
		portfolioStore, ledgerStore, stockInfoStore,
		csvParser, holdingProcessor,
	)
	priceService := services.NewPriceService(
		ledgerStore, stockInfoStore,
		config.Cfg.QuoteFetchRPS, config.Cfg.QuoteCacheTTL, config.Cfg.QuoteClientTimeout,
	)

	portfolioHandler := handlers.NewPortfolioHandler(portfolioStore, portfolioService)
	txHandler := handlers.NewTransactionHandler(ledgerStore)
	stockHandler := handlers.NewStockHandler(portfolioStore, stockInfoStore, priceService)
	importHandler := handlers.NewImportHandler(portfolioService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("GET /api/portfolios", portfolioHandler.HandleListPortfolios)
	apiRouter.HandleFunc("POST /api/portfolios", portfolioHandler.HandleCreatePortfolio)
	apiRouter.HandleFunc("DELETE /api/portfolios/{id}", portfolioHandler.HandleDeletePortfolio)
	apiRouter.HandleFunc("PUT /api/portfolios/{id}/order", portfolioHandler.HandleUpdatePortfolioOrder)
	apiRouter.HandleFunc("GET /api/portfolios/{id}/summary", portfolioHandler.HandleGetPortfolioSummary)
	apiRouter.HandleFunc("GET /api/portfolios/{id}/transactions", txHandler.HandleListTransactions)
	apiRouter.HandleFunc("POST /api/transactions", txHandler.HandleCreateTransaction)
	apiRouter.HandleFunc("DELETE /api/transactions/{id}", txHandler.HandleDeleteTransaction)
	apiRouter.HandleFunc("PUT /api/portfolios/{id}/stocks/{ticker}", stockHandler.HandleUpsertStockInfo)
	apiRouter.HandleFunc("POST /api/portfolios/{id}/refresh-prices", stockHandler.HandleRefreshPrices)
	apiRouter.HandleFunc("POST /api/import/csv", importHandler.HandleImportCSV)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Yieldly backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(handlers.RequestLogger(rootMux)))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
