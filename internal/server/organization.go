package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	organizationdomain "github.com/tradeplane/tradeplane/internal/organization/domain"
)

type createOrganizationRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	SupportEmail string `json:"support_email"`
	CountryCode  string `json:"country_code"`
}

func (s *Server) CreateOrganization(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.organizationSvc.Create(c.Request.Context(), userID, organizationdomain.CreateOrganizationRequest{
		Name:         strings.TrimSpace(req.Name),
		Type:         strings.ToUpper(strings.TrimSpace(req.Type)),
		SupportEmail: strings.TrimSpace(req.SupportEmail),
		CountryCode:  strings.TrimSpace(req.CountryCode),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetOrganization returns the organization the request operates on, as
// resolved by OrgContext.
func (s *Server) GetOrganization(c *gin.Context) {
	orgID := orgIDFromContext(c.Request.Context())
	if orgID == 0 {
		AbortWithError(c, newValidationError("org_id", "required", "organization context is required"))
		return
	}

	org, err := s.organizationSvc.GetByID(c.Request.Context(), orgID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if org == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"org": org})
}

func (s *Server) userIDFromSession(c *gin.Context) (snowflake.ID, bool) {
	value, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0, false
	}
	raw, ok := value.(string)
	if !ok {
		return 0, false
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return userID, true
}

func isOrganizationValidationError(err error) bool {
	switch err {
	case organizationdomain.ErrInvalidName,
		organizationdomain.ErrInvalidType,
		organizationdomain.ErrInvalidUser,
		organizationdomain.ErrInvalidEmail,
		organizationdomain.ErrInvalidRole:
		return true
	default:
		return false
	}
}
