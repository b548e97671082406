package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tradeplane/tradeplane/internal/invitation/domain"
	"github.com/tradeplane/tradeplane/pkg/db/pagination"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, token *domain.InvitationToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *repository) FindByToken(ctx context.Context, token string) (*domain.InvitationToken, error) {
	var row domain.InvitationToken
	err := r.db.WithContext(ctx).First(&row, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindActive(ctx context.Context, email, organizationType string, now time.Time) (*domain.InvitationToken, error) {
	var row domain.InvitationToken
	err := r.db.WithContext(ctx).
		Where("email = ? AND organization_type = ? AND status = ? AND expires_at > ?",
			email, organizationType, domain.StatusPending, now).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.InvitationToken{}).
		Where("id = ?", id).
		Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

// Consume is a single conditional UPDATE so only one of two racing
// submits can flip the token.
func (r *repository) Consume(ctx context.Context, token string, now time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.InvitationToken{}).
		Where("token = ? AND status = ? AND expires_at > ?", token, domain.StatusPending, now).
		Updates(map[string]any{
			"status":     domain.StatusUsed,
			"used":       true,
			"used_at":    now,
			"updated_at": now,
		})
	return tx.RowsAffected, tx.Error
}

func (r *repository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.InvitationToken{}).
		Where("status = ? AND expires_at <= ?", domain.StatusPending, now).
		Updates(map[string]any{
			"status":     domain.StatusExpired,
			"updated_at": now,
		})
	return tx.RowsAffected, tx.Error
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.InvitationToken, *pagination.PageInfo, error) {
	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	query := r.db.WithContext(ctx).Model(&domain.InvitationToken{})
	if filter.OrgID != nil {
		query = query.Where("org_id = ?", *filter.OrgID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PortalType != "" {
		query = query.Where("portal_type = ?", filter.PortalType)
	}

	if filter.Pagination.PageToken != "" {
		cursor, err := pagination.DecodeCursor(filter.Pagination.PageToken)
		if err != nil {
			return nil, nil, err
		}
		cursorID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, nil, err
		}
		query = query.Where("id < ?", cursorID)
	}

	var rows []domain.InvitationToken
	if err := query.Order("id DESC").Limit(pageSize + 1).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	info := &pagination.PageInfo{}
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: last.ID.String()})
		if err != nil {
			return nil, nil, err
		}
		info.NextPageToken = token
		info.HasMore = true
	}

	return rows, info, nil
}
