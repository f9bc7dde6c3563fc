package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/common"
)

type draftDeclarationRequest struct {
	Period string `json:"period" binding:"required"` // MONTHLY | QUARTERLY
	Ref    string `json:"ref"`                       // YYYY-MM-DD inside the period, default today
}

// handleDraftDeclaration builds a draft VAT declaration for the period.
func (s *Server) handleDraftDeclaration(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid company id", common.ErrInvalidInput))
		return
	}
	var req draftDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, common.NewAppError("INVALID_BODY", "period is required", common.ErrInvalidInput))
		return
	}
	period, err := constants.ParseDeclarationPeriod(req.Period)
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_PERIOD", err.Error(), common.ErrInvalidInput))
		return
	}
	ref := time.Now().UTC()
	if req.Ref != "" {
		ref, err = time.Parse("2006-01-02", req.Ref)
		if err != nil {
			s.respondError(c, common.NewAppError("INVALID_DATE", "ref must be YYYY-MM-DD", common.ErrInvalidInput))
			return
		}
	}

	decl, err := s.deps.VAT.Draft(c.Request.Context(), companyID, period, ref)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"declaration": decl})
}

func (s *Server) handleListDeclarations(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid company id", common.ErrInvalidInput))
		return
	}
	decls, err := s.deps.Decls.ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"declarations": decls})
}

func (s *Server) handleSubmitDeclaration(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid declaration id", common.ErrInvalidInput))
		return
	}
	decl, err := s.deps.VAT.Submit(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"declaration": decl})
}
