package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/tradeplane/tradeplane/internal/onboarding/domain"
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

func (r *repository) CreateCustomer(ctx context.Context, row *domain.CustomerOnboarding) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) CreateVendor(ctx context.Context, row *domain.VendorOnboarding) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) CreateEmployee(ctx context.Context, row *domain.EmployeeOnboarding) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) GetCustomer(ctx context.Context, id snowflake.ID) (*domain.CustomerOnboarding, error) {
	var row domain.CustomerOnboarding
	if err := r.first(ctx, &row, id); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) GetVendor(ctx context.Context, id snowflake.ID) (*domain.VendorOnboarding, error) {
	var row domain.VendorOnboarding
	if err := r.first(ctx, &row, id); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) GetEmployee(ctx context.Context, id snowflake.ID) (*domain.EmployeeOnboarding, error) {
	var row domain.EmployeeOnboarding
	if err := r.first(ctx, &row, id); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) first(ctx context.Context, dest any, id snowflake.ID) error {
	err := r.db.WithContext(ctx).First(dest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrSubmissionNotFound
	}
	return err
}

// UpdateReview is a guarded UPDATE: the status predicate makes the
// review transition single-shot under concurrency.
func (r *repository) UpdateReview(ctx context.Context, domainType string, id snowflake.ID, currentStatus string, fields map[string]any) (int64, error) {
	model, err := modelFor(domainType)
	if err != nil {
		return 0, err
	}

	tx := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND status = ?", id, currentStatus).
		Updates(fields)
	return tx.RowsAffected, tx.Error
}

func modelFor(domainType string) (any, error) {
	switch domainType {
	case domain.DomainCustomer:
		return &domain.CustomerOnboarding{}, nil
	case domain.DomainVendor:
		return &domain.VendorOnboarding{}, nil
	case domain.DomainEmployee:
		return &domain.EmployeeOnboarding{}, nil
	default:
		return nil, domain.ErrInvalidDomain
	}
}

func (r *repository) ListCustomers(ctx context.Context, filter domain.ListFilter) ([]domain.CustomerOnboarding, error) {
	var rows []domain.CustomerOnboarding
	if err := r.applyFilter(ctx, &domain.CustomerOnboarding{}, filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListVendors(ctx context.Context, filter domain.ListFilter) ([]domain.VendorOnboarding, error) {
	var rows []domain.VendorOnboarding
	if err := r.applyFilter(ctx, &domain.VendorOnboarding{}, filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListEmployees(ctx context.Context, filter domain.ListFilter) ([]domain.EmployeeOnboarding, error) {
	var rows []domain.EmployeeOnboarding
	if err := r.applyFilter(ctx, &domain.EmployeeOnboarding{}, filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) applyFilter(ctx context.Context, model any, filter domain.ListFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(model)
	if filter.OrgID != nil {
		query = query.Where("org_id = ?", *filter.OrgID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CursorID != nil {
		query = query.Where("id < ?", *filter.CursorID)
	}
	query = query.Order("id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	return query
}
