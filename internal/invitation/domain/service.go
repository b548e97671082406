package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tradeplane/tradeplane/pkg/db/pagination"
)

type IssueRequest struct {
	Email            string
	OrganizationType string
	PortalType       string
	Role             string
	TTL              time.Duration
	OrgID            *snowflake.ID
	InvitedBy        *snowflake.ID
	Metadata         map[string]any
}

// Resolution is what a redeemed token resolves to: the registration
// intent the invitee is allowed to act on.
type Resolution struct {
	Email            string        `json:"email"`
	OrganizationType string        `json:"organization_type"`
	PortalType       string        `json:"portal_type"`
	Role             string        `json:"role"`
	OrgID            *snowflake.ID `json:"org_id,omitempty"`
	ExpiresAt        time.Time     `json:"expires_at"`
}

type ListResponse struct {
	Invitations []InvitationToken   `json:"invitations"`
	PageInfo    pagination.PageInfo `json:"page_info"`
}

type Service interface {
	Issue(ctx context.Context, req IssueRequest) (*InvitationToken, error)
	// Redeem resolves a token without consuming it. Consumption happens
	// at submission commit, so the invitee can revisit the link.
	Redeem(ctx context.Context, token string) (*Resolution, error)
	Revoke(ctx context.Context, token string, revokedBy snowflake.ID) error
	Resend(ctx context.Context, token string) (*InvitationToken, error)
	List(ctx context.Context, filter ListFilter) (*ListResponse, error)
}
