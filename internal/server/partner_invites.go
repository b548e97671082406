package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	partnerdomain "github.com/tradeplane/tradeplane/internal/partnerinvite/domain"
)

type createPartnerInviteRequest struct {
	VendorEmail string `json:"vendor_email"`
	VendorName  string `json:"vendor_name"`
}

type acceptPartnerInviteRequest struct {
	VendorOrgID string `json:"vendor_org_id"`
}

func (s *Server) CreatePartnerInvite(c *gin.Context) {
	orgID := orgIDFromContext(c.Request.Context())
	if orgID == 0 {
		AbortWithError(c, newValidationError("org_id", "required", "organization context is required"))
		return
	}

	var req createPartnerInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invite := partnerdomain.InviteRequest{
		CustomerOrgID: orgID,
		VendorEmail:   strings.TrimSpace(req.VendorEmail),
		VendorName:    strings.TrimSpace(req.VendorName),
	}
	if invitedBy, ok := s.invitationActorID(c); ok {
		invite.InvitedBy = &invitedBy
	}

	row, err := s.partnerInviteSvc.Invite(c.Request.Context(), invite)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, row)
}

func (s *Server) ListPartnerInvites(c *gin.Context) {
	orgID := orgIDFromContext(c.Request.Context())
	if orgID == 0 {
		AbortWithError(c, newValidationError("org_id", "required", "organization context is required"))
		return
	}

	rows, err := s.partnerInviteSvc.ListByCustomer(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invites": rows})
}

// AcceptPartnerInvite links the invite to the vendor organization created
// during onboarding. Public because the vendor acts from the invite link.
func (s *Server) AcceptPartnerInvite(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, newValidationError("token", "required", "token is required"))
		return
	}

	var req acceptPartnerInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	vendorOrgID, err := parseOptionalSnowflakeID(req.VendorOrgID)
	if err != nil || vendorOrgID == nil {
		AbortWithError(c, newValidationError("vendor_org_id", "invalid_vendor_org_id", "invalid vendor org id"))
		return
	}

	row, err := s.partnerInviteSvc.Accept(c.Request.Context(), token, *vendorOrgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

func (s *Server) DeclinePartnerInvite(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, newValidationError("token", "required", "token is required"))
		return
	}

	row, err := s.partnerInviteSvc.Decline(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}
