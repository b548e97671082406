// Package domain contains the invitation token model and lifecycle rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	StatusPending = "PENDING"
	StatusUsed    = "USED"
	StatusRevoked = "REVOKED"
	StatusExpired = "EXPIRED"
)

const (
	PortalCustomer = "CUSTOMER"
	PortalVendor   = "VENDOR"
	PortalEmployee = "EMPLOYEE"
)

// InvitationToken binds an opaque single-use token to an email and the
// registration intent it unlocks. Terminal states: USED, REVOKED, EXPIRED.
type InvitationToken struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	Token            string            `gorm:"type:text;not null;uniqueIndex:ux_invitation_tokens_token" json:"token"`
	Email            string            `gorm:"type:text;not null;index" json:"email"`
	OrgID            *snowflake.ID     `gorm:"column:org_id;index" json:"org_id,omitempty"`
	OrganizationType string            `gorm:"column:organization_type;type:text;not null" json:"organization_type"`
	PortalType       string            `gorm:"column:portal_type;type:text;not null" json:"portal_type"`
	Role             string            `gorm:"type:text;not null" json:"role"`
	InvitedBy        *snowflake.ID     `gorm:"column:invited_by;index" json:"invited_by,omitempty"`
	Status           string            `gorm:"type:text;not null;index" json:"status"`
	Used             bool              `gorm:"not null;default:false" json:"used"`
	UsedAt           *time.Time        `gorm:"column:used_at" json:"used_at,omitempty"`
	RevokedAt        *time.Time        `gorm:"column:revoked_at" json:"revoked_at,omitempty"`
	ExpiresAt        time.Time         `gorm:"column:expires_at;not null;index" json:"expires_at"`
	ResendCount      int               `gorm:"column:resend_count;not null;default:0" json:"resend_count"`
	LastSentAt       *time.Time        `gorm:"column:last_sent_at" json:"last_sent_at,omitempty"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (InvitationToken) TableName() string { return "invitation_tokens" }

// Active reports whether the token can still be redeemed at the given time.
func (t *InvitationToken) Active(now time.Time) bool {
	return t.Status == StatusPending && !t.Used && now.Before(t.ExpiresAt)
}

// ValidPortal reports whether p is a known portal type.
func ValidPortal(p string) bool {
	switch p {
	case PortalCustomer, PortalVendor, PortalEmployee:
		return true
	}
	return false
}
