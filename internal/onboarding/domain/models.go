// Package domain contains the onboarding submission models. One table
// per onboarding domain, one shared review lifecycle.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	StatusSubmitted = "SUBMITTED"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
)

const (
	DomainCustomer = "CUSTOMER"
	DomainVendor   = "VENDOR"
	DomainEmployee = "EMPLOYEE"
)

// ValidDomain reports whether d names an onboarding domain.
func ValidDomain(d string) bool {
	switch d {
	case DomainCustomer, DomainVendor, DomainEmployee:
		return true
	}
	return false
}

// ReviewState carries the shared lifecycle columns. approved_at and
// rejected_at are mutually exclusive; transitions are monotonic.
type ReviewState struct {
	Status          string        `gorm:"type:text;not null;index" json:"status"`
	SubmittedAt     *time.Time    `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time    `gorm:"column:approved_at" json:"approved_at,omitempty"`
	ApprovedBy      *snowflake.ID `gorm:"column:approved_by" json:"approved_by,omitempty"`
	RejectedAt      *time.Time    `gorm:"column:rejected_at" json:"rejected_at,omitempty"`
	RejectedBy      *snowflake.ID `gorm:"column:rejected_by" json:"rejected_by,omitempty"`
	RejectionReason *string       `gorm:"column:rejection_reason;type:text" json:"rejection_reason,omitempty"`
}

// Reviewable reports whether the submission can still be approved or
// rejected.
func (r ReviewState) Reviewable() bool {
	return r.Status == StatusSubmitted
}

// Address is the shared postal address block on org-level applications.
type Address struct {
	Line1       string `gorm:"column:address_line1;type:text" json:"line1"`
	Line2       string `gorm:"column:address_line2;type:text" json:"line2,omitempty"`
	City        string `gorm:"column:city;type:text" json:"city"`
	State       string `gorm:"column:state;type:text" json:"state"`
	PostalCode  string `gorm:"column:postal_code;type:text" json:"postal_code"`
	CountryCode string `gorm:"column:country_code;type:text" json:"country_code"`
}

// BankAccount is the banking block captured on every application.
type BankAccount struct {
	BankName      string `gorm:"column:bank_name;type:text" json:"bank_name"`
	AccountName   string `gorm:"column:account_name;type:text" json:"account_name"`
	AccountNumber string `gorm:"column:account_number;type:text" json:"account_number"`
	RoutingCode   string `gorm:"column:routing_code;type:text" json:"routing_code"`
}

// CustomerOnboarding is a buying organization's application.
type CustomerOnboarding struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID           *snowflake.ID     `gorm:"column:org_id;index" json:"org_id,omitempty"`
	InvitationToken string            `gorm:"column:invitation_token;type:text;not null;uniqueIndex:ux_customer_onboardings_token" json:"-"`
	Email           string            `gorm:"type:text;not null;index" json:"email"`
	Role            string            `gorm:"type:text;not null" json:"role"`
	CompanyName     string            `gorm:"column:company_name;type:text;not null" json:"company_name"`
	ContactName     string            `gorm:"column:contact_name;type:text;not null" json:"contact_name"`
	Phone           string            `gorm:"type:text" json:"phone"`
	BusinessType    string            `gorm:"column:business_type;type:text" json:"business_type"`
	TaxID           string            `gorm:"column:tax_id;type:text" json:"tax_id"`
	Address         Address           `gorm:"embedded" json:"address"`
	Bank            BankAccount       `gorm:"embedded" json:"bank"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	ReviewState     `gorm:"embedded"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CustomerOnboarding) TableName() string { return "customer_onboardings" }

// VendorOnboarding is a supplying organization's application.
type VendorOnboarding struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID           *snowflake.ID     `gorm:"column:org_id;index" json:"org_id,omitempty"`
	InvitationToken string            `gorm:"column:invitation_token;type:text;not null;uniqueIndex:ux_vendor_onboardings_token" json:"-"`
	Email           string            `gorm:"type:text;not null;index" json:"email"`
	Role            string            `gorm:"type:text;not null" json:"role"`
	CompanyName     string            `gorm:"column:company_name;type:text;not null" json:"company_name"`
	ContactName     string            `gorm:"column:contact_name;type:text;not null" json:"contact_name"`
	Phone           string            `gorm:"type:text" json:"phone"`
	BusinessType    string            `gorm:"column:business_type;type:text" json:"business_type"`
	TaxID           string            `gorm:"column:tax_id;type:text" json:"tax_id"`
	Categories      string            `gorm:"type:text" json:"categories"`
	Address         Address           `gorm:"embedded" json:"address"`
	Bank            BankAccount       `gorm:"embedded" json:"bank"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	ReviewState     `gorm:"embedded"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (VendorOnboarding) TableName() string { return "vendor_onboardings" }

// EmployeeOnboarding is an individual's application into an existing
// organization.
type EmployeeOnboarding struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID      `gorm:"column:org_id;not null;index" json:"org_id"`
	EmployeeID      *snowflake.ID     `gorm:"column:employee_id;index" json:"employee_id,omitempty"`
	InvitationToken string            `gorm:"column:invitation_token;type:text;not null;uniqueIndex:ux_employee_onboardings_token" json:"-"`
	Email           string            `gorm:"type:text;not null;index" json:"email"`
	Role            string            `gorm:"type:text;not null" json:"role"`
	FullName        string            `gorm:"column:full_name;type:text;not null" json:"full_name"`
	Phone           string            `gorm:"type:text" json:"phone"`
	Department      string            `gorm:"type:text" json:"department"`
	Position        string            `gorm:"type:text" json:"position"`
	StartDate       *time.Time        `gorm:"column:start_date" json:"start_date,omitempty"`
	Bank            BankAccount       `gorm:"embedded" json:"bank"`
	NomineeName     string            `gorm:"column:nominee_name;type:text" json:"nominee_name"`
	NomineeRelation string            `gorm:"column:nominee_relation;type:text" json:"nominee_relation"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	ReviewState     `gorm:"embedded"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (EmployeeOnboarding) TableName() string { return "employee_onboardings" }
