package domain

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tradeplane/tradeplane/pkg/db/pagination"
)

// Application payloads are typed; free-form extras go through Metadata,
// restricted to the documented keys below.
var allowedMetadataKeys = map[string]bool{
	"source":   true,
	"referral": true,
	"website":  true,
	"notes":    true,
}

// ValidateMetadata rejects metadata keys outside the documented set.
func ValidateMetadata(metadata map[string]any) error {
	for key := range metadata {
		if !allowedMetadataKeys[strings.ToLower(strings.TrimSpace(key))] {
			return ErrInvalidMetadataKey
		}
	}
	return nil
}

type OrgApplication struct {
	CompanyName  string         `json:"company_name"`
	ContactName  string         `json:"contact_name"`
	Phone        string         `json:"phone"`
	BusinessType string         `json:"business_type"`
	TaxID        string         `json:"tax_id"`
	Address      Address        `json:"address"`
	Bank         BankAccount    `json:"bank"`
	Metadata     map[string]any `json:"metadata"`
}

type CustomerApplication struct {
	OrgApplication
}

type VendorApplication struct {
	OrgApplication
	Categories string `json:"categories"`
}

type EmployeeApplication struct {
	FullName        string         `json:"full_name"`
	Phone           string         `json:"phone"`
	Department      string         `json:"department"`
	Position        string         `json:"position"`
	StartDate       *time.Time     `json:"start_date"`
	Bank            BankAccount    `json:"bank"`
	NomineeName     string         `json:"nominee_name"`
	NomineeRelation string         `json:"nominee_relation"`
	Metadata        map[string]any `json:"metadata"`
}

// ApprovalResult reports the downstream records created by an approval.
type ApprovalResult struct {
	OrganizationID *snowflake.ID `json:"organization_id,omitempty"`
	UserID         *snowflake.ID `json:"user_id,omitempty"`
	EmployeeID     *snowflake.ID `json:"employee_id,omitempty"`
}

// ListItem is the domain-agnostic row returned by List.
type ListItem struct {
	ID          snowflake.ID `json:"id"`
	Domain      string       `json:"domain"`
	Email       string       `json:"email"`
	Name        string       `json:"name"`
	Status      string       `json:"status"`
	SubmittedAt *time.Time   `json:"submitted_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

type ListRequest struct {
	Domain     string
	OrgID      *snowflake.ID
	Status     string
	Pagination pagination.Pagination
}

type ListResponse struct {
	Submissions []ListItem          `json:"submissions"`
	PageInfo    pagination.PageInfo `json:"page_info"`
}

type Service interface {
	SubmitCustomer(ctx context.Context, token string, app CustomerApplication) (*CustomerOnboarding, error)
	SubmitVendor(ctx context.Context, token string, app VendorApplication) (*VendorOnboarding, error)
	SubmitEmployee(ctx context.Context, token string, app EmployeeApplication) (*EmployeeOnboarding, error)
	Approve(ctx context.Context, domainType string, id snowflake.ID, approverID snowflake.ID) (*ApprovalResult, error)
	Reject(ctx context.Context, domainType string, id snowflake.ID, approverID snowflake.ID, reason string) error
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	GetCustomer(ctx context.Context, id snowflake.ID) (*CustomerOnboarding, error)
	GetVendor(ctx context.Context, id snowflake.ID) (*VendorOnboarding, error)
	GetEmployee(ctx context.Context, id snowflake.ID) (*EmployeeOnboarding, error)
}
