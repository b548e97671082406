// Package domain contains the customer-to-vendor partner invitation model.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusDeclined = "DECLINED"
)

// CustomerVendorInvitation connects a buying organization to a vendor
// counterpart. The pending to accepted|declined transition is one-way.
type CustomerVendorInvitation struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerOrgID snowflake.ID  `gorm:"column:customer_org_id;not null;index" json:"customer_org_id"`
	VendorEmail   string        `gorm:"column:vendor_email;type:text;not null" json:"vendor_email"`
	VendorName    string        `gorm:"column:vendor_name;type:text" json:"vendor_name"`
	VendorOrgID   *snowflake.ID `gorm:"column:vendor_org_id;index" json:"vendor_org_id,omitempty"`
	Status        string        `gorm:"type:text;not null;index" json:"status"`
	Token         string        `gorm:"type:text;not null;uniqueIndex:ux_customer_vendor_invitations_token" json:"-"`
	InvitedBy     *snowflake.ID `gorm:"column:invited_by" json:"invited_by,omitempty"`
	AcceptedAt    *time.Time    `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
	DeclinedAt    *time.Time    `gorm:"column:declined_at" json:"declined_at,omitempty"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CustomerVendorInvitation) TableName() string { return "customer_vendor_invitations" }

var (
	ErrInviteNotFound   = errors.New("partner_invite_not_found")
	ErrAlreadyDecided   = errors.New("partner_invite_already_decided")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidCustomer  = errors.New("invalid_customer_organization")
	ErrInvalidVendorOrg = errors.New("invalid_vendor_organization")
)

type InviteRequest struct {
	CustomerOrgID snowflake.ID
	VendorEmail   string
	VendorName    string
	InvitedBy     *snowflake.ID
}

type Service interface {
	Invite(ctx context.Context, req InviteRequest) (*CustomerVendorInvitation, error)
	Accept(ctx context.Context, token string, vendorOrgID snowflake.ID) (*CustomerVendorInvitation, error)
	Decline(ctx context.Context, token string) (*CustomerVendorInvitation, error)
	ListByCustomer(ctx context.Context, customerOrgID snowflake.ID) ([]CustomerVendorInvitation, error)
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invite *CustomerVendorInvitation) error
	FindByToken(ctx context.Context, token string) (*CustomerVendorInvitation, error)
	// Decide applies a one-way transition guarded on PENDING status.
	// Returns rows affected.
	Decide(ctx context.Context, id snowflake.ID, fields map[string]any) (int64, error)
	ListByCustomer(ctx context.Context, customerOrgID snowflake.ID) ([]CustomerVendorInvitation, error)
}
