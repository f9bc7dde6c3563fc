package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/besoincompta/compta-backend/db"
	"github.com/besoincompta/compta-backend/internal/common"
	"github.com/besoincompta/compta-backend/internal/export"
	"github.com/besoincompta/compta-backend/internal/fields"
	"github.com/besoincompta/compta-backend/internal/ocr"
	"github.com/besoincompta/compta-backend/internal/pipeline"
	"github.com/besoincompta/compta-backend/internal/recon"
	"github.com/besoincompta/compta-backend/internal/repository"
	"github.com/besoincompta/compta-backend/internal/server"
	"github.com/besoincompta/compta-backend/internal/vat"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 3*time.Second, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	if err := db.RunMigrations(cfg.Database.DSN, logger); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	companies := repository.NewCompanyRepository(pool, logger)
	users := repository.NewUserRepository(pool, logger)
	documents := repository.NewDocumentRepository(pool, logger)
	jobs := repository.NewExtractJobRepository(pool, logger)
	invoices := repository.NewInvoiceRepository(pool, logger)
	bankTxs := repository.NewBankTransactionRepository(pool, logger)
	decls := repository.NewVATDeclarationRepository(pool, logger)

	var textExtractor ocr.TextExtractor = ocr.NewExtractor(ocr.Config{
		Pdftotext:        cfg.OCR.Pdftotext,
		Pdftoppm:         cfg.OCR.Pdftoppm,
		Tesseract:        cfg.OCR.Tesseract,
		TesseractLang:    cfg.OCR.TesseractLang,
		DPI:              cfg.OCR.DPI,
		MaxPages:         cfg.OCR.MaxPages,
		PreprocessImages: cfg.OCR.PreprocessImages,
	}, logger)
	if cfg.OCR.WebhookURL != "" {
		textExtractor = ocr.NewWebhookClient(cfg.OCR.WebhookURL, cfg.OCR.WebhookTimeout, logger)
		logger.Info("using ocr webhook", "url", cfg.OCR.WebhookURL)
	}

	registry := prometheus.NewRegistry()
	pipeMetrics := pipeline.NewMetrics(registry)

	ocrStage := pipeline.NewOCRStage(documents, jobs, textExtractor, ocr.NewResultCache(), logger)
	ocrStage.Metrics = pipeMetrics
	parseStage := pipeline.NewParseStage(logger, pipeline.Config{ReviewThreshold: cfg.Parser.ReviewThreshold},
		jobs, invoices, fields.NewRegexExtractor(logger))
	parseStage.Metrics = pipeMetrics

	processor := pipeline.NewProcessor(logger, ocrStage, parseStage)
	queue := pipeline.NewQueue(processor, logger)

	srv := server.NewServer(server.Deps{
		Config:    cfg,
		Logger:    logger,
		Companies: companies,
		Users:     users,
		Documents: documents,
		Jobs:      jobs,
		Invoices:  invoices,
		BankTxs:   bankTxs,
		Decls:     decls,
		Queue:     queue,
		Recon:     recon.NewService(bankTxs, invoices, logger),
		VAT:       vat.NewService(invoices, decls, logger),
		Export:    export.NewService(invoices, logger),
		DB:        pool,
		Registry:  registry,
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
