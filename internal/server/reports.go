package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/besoincompta/compta-backend/internal/common"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleExportXLSX(c *gin.Context) {
	companyID, from, to, ok := s.exportParams(c)
	if !ok {
		return
	}
	out, err := s.deps.Export.ExportInvoicesXLSX(c.Request.Context(), companyID, from, to)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoices-%s.xlsx", time.Now().Format("2006-01-02")))
	c.Data(http.StatusOK, xlsxContentType, out)
}

func (s *Server) handleExportCSV(c *gin.Context) {
	companyID, from, to, ok := s.exportParams(c)
	if !ok {
		return
	}
	out, err := s.deps.Export.ExportInvoicesCSV(c.Request.Context(), companyID, from, to)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoices-%s.csv", time.Now().Format("2006-01-02")))
	c.Data(http.StatusOK, "text/csv", out)
}

func (s *Server) exportParams(c *gin.Context) (uuid.UUID, *time.Time, *time.Time, bool) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid company id", common.ErrInvalidInput))
		return uuid.Nil, nil, nil, false
	}
	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.respondError(c, common.NewAppError("INVALID_DATE", "from must be YYYY-MM-DD", common.ErrInvalidInput))
			return uuid.Nil, nil, nil, false
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.respondError(c, common.NewAppError("INVALID_DATE", "to must be YYYY-MM-DD", common.ErrInvalidInput))
			return uuid.Nil, nil, nil, false
		}
		to = &t
	}
	return companyID, from, to, true
}
