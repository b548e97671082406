package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invitationdomain "github.com/tradeplane/tradeplane/internal/invitation/domain"
	"github.com/tradeplane/tradeplane/pkg/db/pagination"
)

type issueInvitationRequest struct {
	Email            string         `json:"email"`
	OrganizationType string         `json:"organization_type"`
	PortalType       string         `json:"portal_type"`
	Role             string         `json:"role"`
	TTL              string         `json:"ttl"`
	Metadata         map[string]any `json:"metadata"`
}

type listInvitationsQuery struct {
	Status     string `form:"status"`
	PortalType string `form:"portal_type"`
	PageToken  string `form:"page_token"`
	PageSize   int    `form:"page_size"`
}

func (s *Server) IssueInvitation(c *gin.Context) {
	var req issueInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var ttl time.Duration
	if trimmed := strings.TrimSpace(req.TTL); trimmed != "" {
		parsed, err := time.ParseDuration(trimmed)
		if err != nil {
			AbortWithError(c, newValidationError("ttl", "invalid_ttl", "invalid ttl"))
			return
		}
		ttl = parsed
	}

	issue := invitationdomain.IssueRequest{
		Email:            strings.TrimSpace(req.Email),
		OrganizationType: strings.ToUpper(strings.TrimSpace(req.OrganizationType)),
		PortalType:       strings.ToUpper(strings.TrimSpace(req.PortalType)),
		Role:             strings.ToUpper(strings.TrimSpace(req.Role)),
		TTL:              ttl,
		Metadata:         req.Metadata,
	}

	if orgID := orgIDFromContext(c.Request.Context()); orgID != 0 {
		issue.OrgID = &orgID
	}
	if invitedBy, ok := s.invitationActorID(c); ok {
		issue.InvitedBy = &invitedBy
	}

	token, err := s.invitationSvc.Issue(c.Request.Context(), issue)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}

func (s *Server) ListInvitations(c *gin.Context) {
	var query listInvitationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	filter := invitationdomain.ListFilter{
		Status:     strings.ToUpper(strings.TrimSpace(query.Status)),
		PortalType: strings.ToUpper(strings.TrimSpace(query.PortalType)),
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
	}
	if orgID := orgIDFromContext(c.Request.Context()); orgID != 0 {
		filter.OrgID = &orgID
	}

	resp, err := s.invitationSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) RevokeInvitation(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, newValidationError("token", "required", "token is required"))
		return
	}

	var revokedBy snowflake.ID
	if actorID, ok := s.invitationActorID(c); ok {
		revokedBy = actorID
	}

	if err := s.invitationSvc.Revoke(c.Request.Context(), token, revokedBy); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ResendInvitation(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, newValidationError("token", "required", "token is required"))
		return
	}

	if s.inviteResendLimiter != nil && !s.inviteResendLimiter.Allow(token) {
		AbortWithError(c, ErrRateLimited)
		return
	}

	row, err := s.invitationSvc.Resend(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

// RedeemInvitation resolves a token for the public registration flow
// without consuming it.
func (s *Server) RedeemInvitation(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, newValidationError("token", "required", "token is required"))
		return
	}

	resolution, err := s.invitationSvc.Redeem(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolution)
}

// invitationActorID resolves the acting identity to a snowflake ID.
// Works for both session users and API keys.
func (s *Server) invitationActorID(c *gin.Context) (snowflake.ID, bool) {
	actor, ok := s.actorFromContext(c)
	if !ok || actor.Type == ActorSystem {
		return 0, false
	}
	parsed, err := snowflake.ParseString(actor.ID)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return parsed, true
}
