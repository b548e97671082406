package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	OrgID    *snowflake.ID
	Status   string
	CursorID *snowflake.ID
	Limit    int
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCustomer(ctx context.Context, row *CustomerOnboarding) error
	CreateVendor(ctx context.Context, row *VendorOnboarding) error
	CreateEmployee(ctx context.Context, row *EmployeeOnboarding) error

	GetCustomer(ctx context.Context, id snowflake.ID) (*CustomerOnboarding, error)
	GetVendor(ctx context.Context, id snowflake.ID) (*VendorOnboarding, error)
	GetEmployee(ctx context.Context, id snowflake.ID) (*EmployeeOnboarding, error)

	// UpdateReview applies review-state fields to one row of the given
	// domain, guarded on the current status so a concurrent review
	// cannot double-apply. Returns rows affected.
	UpdateReview(ctx context.Context, domainType string, id snowflake.ID, currentStatus string, fields map[string]any) (int64, error)

	ListCustomers(ctx context.Context, filter ListFilter) ([]CustomerOnboarding, error)
	ListVendors(ctx context.Context, filter ListFilter) ([]VendorOnboarding, error)
	ListEmployees(ctx context.Context, filter ListFilter) ([]EmployeeOnboarding, error)
}
