package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/besoincompta/compta-backend/internal/common"
	"github.com/besoincompta/compta-backend/internal/recon"
)

// handleImportStatement parses a CSV bank statement and stores its rows.
// POST /v1/companies/:id/bank/import, multipart with a "file" field.
func (s *Server) handleImportStatement(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid company id", common.ErrInvalidInput))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, common.NewAppError("MISSING_FILE", "file field is required", common.ErrInvalidInput))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		s.respondError(c, common.WrapError(err, "open uploaded file"))
		return
	}
	defer src.Close()

	currency := c.Query("currency")
	res, err := recon.ParseStatement(src, currency)
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_CSV", err.Error(), common.ErrInvalidInput))
		return
	}

	inserted, err := s.deps.BankTxs.BulkInsert(c.Request.Context(), companyID, res.Transactions)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_rows": res.TotalRows,
		"imported":   inserted,
		"errors":     res.Errors,
	})
}

func (s *Server) handleListUnmatched(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid company id", common.ErrInvalidInput))
		return
	}
	txs, err := s.deps.BankTxs.ListUnmatched(c.Request.Context(), companyID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

type reconcileRequest struct {
	DateWindowDays int `json:"date_window_days"`
}

// handleReconcile runs a matching pass for the company.
func (s *Server) handleReconcile(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid company id", common.ErrInvalidInput))
		return
	}
	var req reconcileRequest
	_ = c.ShouldBindJSON(&req) // body optional

	res, err := s.deps.Recon.Reconcile(c.Request.Context(), companyID, recon.MatchOptions{
		DateWindowDays: req.DateWindowDays,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type manualMatchRequest struct {
	InvoiceID uuid.UUID `json:"invoice_id" binding:"required"`
}

// handleManualMatch resolves an ambiguous transaction from the review UI.
func (s *Server) handleManualMatch(c *gin.Context) {
	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid transaction id", common.ErrInvalidInput))
		return
	}
	var req manualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, common.NewAppError("INVALID_BODY", "invoice_id is required", common.ErrInvalidInput))
		return
	}
	if err := s.deps.Recon.MatchManually(c.Request.Context(), txID, req.InvoiceID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matched": true})
}
