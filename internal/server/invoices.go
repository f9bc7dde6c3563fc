package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/common"
	"github.com/besoincompta/compta-backend/internal/repository"
)

func (s *Server) handleListInvoices(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid company id", common.ErrInvalidInput))
		return
	}

	filter := repository.InvoiceFilter{Status: c.Query("status")}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.respondError(c, common.NewAppError("INVALID_DATE", "from must be YYYY-MM-DD", common.ErrInvalidInput))
			return
		}
		filter.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.respondError(c, common.NewAppError("INVALID_DATE", "to must be YYYY-MM-DD", common.ErrInvalidInput))
			return
		}
		filter.To = &t
	}

	invoices, err := s.deps.Invoices.ListByCompany(c.Request.Context(), companyID, filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (s *Server) handleGetInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid invoice id", common.ErrInvalidInput))
		return
	}
	inv, err := s.deps.Invoices.GetByID(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// handleUpdateInvoiceStatus moves an invoice along its review lifecycle.
func (s *Server) handleUpdateInvoiceStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid invoice id", common.ErrInvalidInput))
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, common.NewAppError("INVALID_BODY", "status is required", common.ErrInvalidInput))
		return
	}
	switch constants.InvoiceStatus(req.Status) {
	case constants.InvoiceStatusPending, constants.InvoiceStatusValidated, constants.InvoiceStatusReconciled:
	default:
		s.respondError(c, common.NewAppError("INVALID_STATUS", "unknown invoice status", common.ErrInvalidInput))
		return
	}

	if err := s.deps.Invoices.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		s.respondError(c, err)
		return
	}
	inv, err := s.deps.Invoices.GetByID(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}
