package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/common"
)

type createCompanyRequest struct {
	Name            string  `json:"name" binding:"required"`
	TaxID           *string `json:"tax_id"`
	DefaultCurrency string  `json:"default_currency"`
}

func (s *Server) handleCreateCompany(c *gin.Context) {
	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, common.NewAppError("INVALID_BODY", "name is required", common.ErrInvalidInput))
		return
	}
	currency := strings.ToUpper(req.DefaultCurrency)
	if currency == "" {
		currency = constants.DefaultCurrency
	}
	company, err := s.deps.Companies.Create(c.Request.Context(), req.Name, req.TaxID, currency)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"company": company})
}

func (s *Server) handleListCompanies(c *gin.Context) {
	companies, err := s.deps.Companies.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

func (s *Server) handleGetCompany(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid company id", common.ErrInvalidInput))
		return
	}
	company, err := s.deps.Companies.GetByID(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": company})
}

type createUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role"`
}

func (s *Server) handleCreateUser(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid company id", common.ErrInvalidInput))
		return
	}
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, common.NewAppError("INVALID_BODY", "email and full_name are required", common.ErrInvalidInput))
		return
	}
	role := req.Role
	if role == "" {
		role = "accountant"
	}
	user, err := s.deps.Users.Create(c.Request.Context(), companyID, req.Email, req.FullName, role)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (s *Server) handleListUsers(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid company id", common.ErrInvalidInput))
		return
	}
	users, err := s.deps.Users.ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
