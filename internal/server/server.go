// Package server exposes the HTTP API over gin.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/besoincompta/compta-backend/internal/common"
	"github.com/besoincompta/compta-backend/internal/export"
	"github.com/besoincompta/compta-backend/internal/pipeline"
	"github.com/besoincompta/compta-backend/internal/recon"
	"github.com/besoincompta/compta-backend/internal/repository"
	"github.com/besoincompta/compta-backend/internal/vat"
)

// Pinger is the slice of the connection pool the health endpoint needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps wires the services and repositories the handlers depend on.
type Deps struct {
	Config *common.Config
	Logger *slog.Logger

	Companies repository.CompanyRepository
	Users     repository.UserRepository
	Documents repository.DocumentRepository
	Jobs      repository.ExtractJobRepository
	Invoices  repository.InvoiceRepository
	BankTxs   repository.BankTransactionRepository
	Decls     repository.VATDeclarationRepository

	Queue  *pipeline.Queue
	Recon  *recon.Service
	VAT    *vat.Service
	Export *export.Service

	DB Pinger

	// Registry lets the caller share one prometheus registry with the
	// pipeline metrics; nil means a private per-server registry.
	Registry *prometheus.Registry
}

type Server struct {
	deps    Deps
	logger  *slog.Logger
	metrics *httpMetrics
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Server{deps: deps, logger: deps.Logger, metrics: newHTTPMetrics(deps.Registry)}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(s.metrics.middleware())

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", s.metrics.handler())

	v1 := r.Group("/v1")
	{
		v1.POST("/companies", s.handleCreateCompany)
		v1.GET("/companies", s.handleListCompanies)
		v1.GET("/companies/:id", s.handleGetCompany)
		v1.POST("/companies/:id/users", s.handleCreateUser)
		v1.GET("/companies/:id/users", s.handleListUsers)

		v1.POST("/companies/:id/documents", s.handleUploadDocument)
		v1.GET("/companies/:id/documents", s.handleListDocuments)
		v1.GET("/documents/:id/jobs", s.handleListDocumentJobs)
		v1.GET("/jobs/:id", s.handleGetJob)

		v1.GET("/companies/:id/invoices", s.handleListInvoices)
		v1.GET("/invoices/:id", s.handleGetInvoice)
		v1.PATCH("/invoices/:id/status", s.handleUpdateInvoiceStatus)

		v1.POST("/companies/:id/bank/import", s.handleImportStatement)
		v1.GET("/companies/:id/bank/unmatched", s.handleListUnmatched)
		v1.POST("/companies/:id/reconcile", s.handleReconcile)
		v1.POST("/bank/:id/match", s.handleManualMatch)

		v1.POST("/companies/:id/vat/draft", s.handleDraftDeclaration)
		v1.GET("/companies/:id/vat", s.handleListDeclarations)
		v1.POST("/vat/:id/submit", s.handleSubmitDeclaration)

		v1.GET("/companies/:id/reports/invoices.xlsx", s.handleExportXLSX)
		v1.GET("/companies/:id/reports/invoices.csv", s.handleExportCSV)
	}
	return r
}

// respondError maps application errors onto HTTP statuses.
func (s *Server) respondError(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
