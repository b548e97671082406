package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/tradeplane/tradeplane/internal/partnerinvite/domain"
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

func (r *repository) Create(ctx context.Context, invite *domain.CustomerVendorInvitation) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *repository) FindByToken(ctx context.Context, token string) (*domain.CustomerVendorInvitation, error) {
	var row domain.CustomerVendorInvitation
	err := r.db.WithContext(ctx).First(&row, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInviteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) Decide(ctx context.Context, id snowflake.ID, fields map[string]any) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.CustomerVendorInvitation{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(fields)
	return tx.RowsAffected, tx.Error
}

func (r *repository) ListByCustomer(ctx context.Context, customerOrgID snowflake.ID) ([]domain.CustomerVendorInvitation, error) {
	var rows []domain.CustomerVendorInvitation
	err := r.db.WithContext(ctx).
		Where("customer_org_id = ?", customerOrgID).
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
