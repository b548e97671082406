package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	onboardingdomain "github.com/tradeplane/tradeplane/internal/onboarding/domain"
	"github.com/tradeplane/tradeplane/pkg/db/pagination"
)

type submitCustomerOnboardingRequest struct {
	Token       string                               `json:"token"`
	Application onboardingdomain.CustomerApplication `json:"application"`
}

type submitVendorOnboardingRequest struct {
	Token       string                             `json:"token"`
	Application onboardingdomain.VendorApplication `json:"application"`
}

type submitEmployeeOnboardingRequest struct {
	Token       string                               `json:"token"`
	Application onboardingdomain.EmployeeApplication `json:"application"`
}

type rejectOnboardingRequest struct {
	Reason string `json:"reason"`
}

type listOnboardingsQuery struct {
	Domain    string `form:"domain"`
	Status    string `form:"status"`
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

func (s *Server) SubmitCustomerOnboarding(c *gin.Context) {
	var req submitCustomerOnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	row, err := s.onboardingSvc.SubmitCustomer(c.Request.Context(), strings.TrimSpace(req.Token), req.Application)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, row)
}

func (s *Server) SubmitVendorOnboarding(c *gin.Context) {
	var req submitVendorOnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	row, err := s.onboardingSvc.SubmitVendor(c.Request.Context(), strings.TrimSpace(req.Token), req.Application)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, row)
}

func (s *Server) SubmitEmployeeOnboarding(c *gin.Context) {
	var req submitEmployeeOnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	row, err := s.onboardingSvc.SubmitEmployee(c.Request.Context(), strings.TrimSpace(req.Token), req.Application)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, row)
}

func (s *Server) ListOnboardings(c *gin.Context) {
	var query listOnboardingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := onboardingdomain.ListRequest{
		Domain: strings.ToUpper(strings.TrimSpace(query.Domain)),
		Status: strings.ToUpper(strings.TrimSpace(query.Status)),
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
	}
	// Customer and vendor submissions have no org until approval, so an
	// org filter would hide every pending application from reviewers.
	// Employee submissions belong to the inviting org from submit.
	if req.Domain == onboardingdomain.DomainEmployee {
		if orgID := orgIDFromContext(c.Request.Context()); orgID != 0 {
			req.OrgID = &orgID
		}
	}

	resp, err := s.onboardingSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetOnboarding(c *gin.Context) {
	domainType, id, err := s.onboardingTarget(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	switch domainType {
	case onboardingdomain.DomainCustomer:
		row, err := s.onboardingSvc.GetCustomer(c.Request.Context(), id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, row)
	case onboardingdomain.DomainVendor:
		row, err := s.onboardingSvc.GetVendor(c.Request.Context(), id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, row)
	case onboardingdomain.DomainEmployee:
		row, err := s.onboardingSvc.GetEmployee(c.Request.Context(), id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, row)
	default:
		AbortWithError(c, onboardingdomain.ErrInvalidDomain)
	}
}

func (s *Server) ApproveOnboarding(c *gin.Context) {
	domainType, id, err := s.onboardingTarget(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	approverID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	result, err := s.onboardingSvc.Approve(c.Request.Context(), domainType, id, approverID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) RejectOnboarding(c *gin.Context) {
	domainType, id, err := s.onboardingTarget(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	approverID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req rejectOnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.onboardingSvc.Reject(c.Request.Context(), domainType, id, approverID, strings.TrimSpace(req.Reason)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) onboardingTarget(c *gin.Context) (string, snowflake.ID, error) {
	domainType := strings.ToUpper(strings.TrimSpace(c.Param("domain")))
	if !onboardingdomain.ValidDomain(domainType) {
		return "", 0, onboardingdomain.ErrInvalidDomain
	}

	id, err := parseOptionalSnowflakeID(c.Param("id"))
	if err != nil || id == nil {
		return "", 0, newValidationError("id", "invalid_id", "invalid id")
	}
	return domainType, *id, nil
}
