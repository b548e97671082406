package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tradeplane/tradeplane/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	OrgID      *snowflake.ID
	Status     string
	PortalType string
	Pagination pagination.Pagination
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, token *InvitationToken) error
	FindByToken(ctx context.Context, token string) (*InvitationToken, error)
	FindActive(ctx context.Context, email, organizationType string, now time.Time) (*InvitationToken, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	// Consume atomically flips a still-active token to USED. Returns the
	// number of rows affected: 0 means the token was missing, expired or
	// already terminal, and the caller must classify the failure.
	Consume(ctx context.Context, token string, now time.Time) (int64, error)
	// MarkExpired flips overdue PENDING rows to EXPIRED and reports how
	// many were updated.
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, filter ListFilter) ([]InvitationToken, *pagination.PageInfo, error)
}
