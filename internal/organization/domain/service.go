package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	TypeCustomer = "CUSTOMER"
	TypeVendor   = "VENDOR"
	TypeInternal = "INTERNAL"
)

const (
	RoleOwner    = "OWNER"
	RoleAdmin    = "ADMIN"
	RoleReviewer = "REVIEWER" // may review onboarding submissions
	RoleMember   = "MEMBER"   // read-only / limited
)

// ValidRole reports whether role is one of the assignable membership roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleReviewer, RoleMember:
		return true
	}
	return false
}

// ValidType reports whether t is a known organization type.
func ValidType(t string) bool {
	switch t {
	case TypeCustomer, TypeVendor, TypeInternal:
		return true
	}
	return false
}

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateOrganizationRequest) (*OrganizationResponse, error)
	GetByID(ctx context.Context, id string) (*OrganizationResponse, error)
	ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]OrganizationListResponseItem, error)
	MemberRole(ctx context.Context, orgID, userID snowflake.ID) (string, error)
}

type CreateOrganizationRequest struct {
	Name         string
	Type         string
	SupportEmail string
	CountryCode  string
}

type OrganizationResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Type         string `json:"type"`
	SupportEmail string `json:"support_email"`
	CountryCode  string `json:"country_code"`
}

type OrganizationListResponseItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidType         = errors.New("invalid_organization_type")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrNotMember           = errors.New("not_a_member")
	ErrForbidden           = errors.New("forbidden")
)
