package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	auditdomain "github.com/tradeplane/tradeplane/internal/audit/domain"
	authdomain "github.com/tradeplane/tradeplane/internal/auth/domain"
	"github.com/tradeplane/tradeplane/internal/clock"
	"github.com/tradeplane/tradeplane/internal/config"
	invdomain "github.com/tradeplane/tradeplane/internal/invitation/domain"
	"github.com/tradeplane/tradeplane/internal/onboarding/domain"
	orgdomain "github.com/tradeplane/tradeplane/internal/organization/domain"
	"github.com/tradeplane/tradeplane/internal/providers/email"
	"github.com/tradeplane/tradeplane/pkg/db"
	"github.com/tradeplane/tradeplane/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Config  config.Config
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Invites invdomain.Repository
	Orgs    orgdomain.Repository
	Users   authdomain.Repository
	Email   email.Provider
	Audit   auditdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     config.Config
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	invites invdomain.Repository
	orgs    orgdomain.Repository
	users   authdomain.Repository
	email   email.Provider
	audit   auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("onboarding.service"),
		cfg:     p.Config,
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		invites: p.Invites,
		orgs:    p.Orgs,
		users:   p.Users,
		email:   p.Email,
		audit:   p.Audit,
	}
}

func (s *Service) SubmitCustomer(ctx context.Context, token string, app domain.CustomerApplication) (*domain.CustomerOnboarding, error) {
	if err := validateOrgApplication(app.OrgApplication); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var row *domain.CustomerOnboarding
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invite, err := s.consumeToken(ctx, tx, token, invdomain.PortalCustomer, now)
		if err != nil {
			return err
		}

		row = &domain.CustomerOnboarding{
			ID:              s.genID.Generate(),
			InvitationToken: invite.Token,
			Email:           invite.Email,
			Role:            invite.Role,
			CompanyName:     strings.TrimSpace(app.CompanyName),
			ContactName:     strings.TrimSpace(app.ContactName),
			Phone:           strings.TrimSpace(app.Phone),
			BusinessType:    strings.TrimSpace(app.BusinessType),
			TaxID:           strings.TrimSpace(app.TaxID),
			Address:         app.Address,
			Bank:            app.Bank,
			Metadata:        metadataMap(app.Metadata),
			ReviewState: domain.ReviewState{
				Status:      domain.StatusSubmitted,
				SubmittedAt: &now,
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.createSubmission(ctx, tx, func(repo domain.Repository) error {
			return repo.CreateCustomer(ctx, row)
		})
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, nil, "onboarding.submitted", domain.DomainCustomer, row.ID, map[string]any{"email": row.Email})
	return row, nil
}

func (s *Service) SubmitVendor(ctx context.Context, token string, app domain.VendorApplication) (*domain.VendorOnboarding, error) {
	if err := validateOrgApplication(app.OrgApplication); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var row *domain.VendorOnboarding
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invite, err := s.consumeToken(ctx, tx, token, invdomain.PortalVendor, now)
		if err != nil {
			return err
		}

		row = &domain.VendorOnboarding{
			ID:              s.genID.Generate(),
			InvitationToken: invite.Token,
			Email:           invite.Email,
			Role:            invite.Role,
			CompanyName:     strings.TrimSpace(app.CompanyName),
			ContactName:     strings.TrimSpace(app.ContactName),
			Phone:           strings.TrimSpace(app.Phone),
			BusinessType:    strings.TrimSpace(app.BusinessType),
			TaxID:           strings.TrimSpace(app.TaxID),
			Categories:      strings.TrimSpace(app.Categories),
			Address:         app.Address,
			Bank:            app.Bank,
			Metadata:        metadataMap(app.Metadata),
			ReviewState: domain.ReviewState{
				Status:      domain.StatusSubmitted,
				SubmittedAt: &now,
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.createSubmission(ctx, tx, func(repo domain.Repository) error {
			return repo.CreateVendor(ctx, row)
		})
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, nil, "onboarding.submitted", domain.DomainVendor, row.ID, map[string]any{"email": row.Email})
	return row, nil
}

func (s *Service) SubmitEmployee(ctx context.Context, token string, app domain.EmployeeApplication) (*domain.EmployeeOnboarding, error) {
	if strings.TrimSpace(app.FullName) == "" {
		return nil, domain.ErrInvalidPayload
	}
	if err := domain.ValidateMetadata(app.Metadata); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var row *domain.EmployeeOnboarding
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invite, err := s.consumeToken(ctx, tx, token, invdomain.PortalEmployee, now)
		if err != nil {
			return err
		}
		// Employee invitations are always issued by an existing org.
		if invite.OrgID == nil {
			return domain.ErrPortalMismatch
		}

		row = &domain.EmployeeOnboarding{
			ID:              s.genID.Generate(),
			OrgID:           *invite.OrgID,
			InvitationToken: invite.Token,
			Email:           invite.Email,
			Role:            invite.Role,
			FullName:        strings.TrimSpace(app.FullName),
			Phone:           strings.TrimSpace(app.Phone),
			Department:      strings.TrimSpace(app.Department),
			Position:        strings.TrimSpace(app.Position),
			StartDate:       app.StartDate,
			Bank:            app.Bank,
			NomineeName:     strings.TrimSpace(app.NomineeName),
			NomineeRelation: strings.TrimSpace(app.NomineeRelation),
			Metadata:        metadataMap(app.Metadata),
			ReviewState: domain.ReviewState{
				Status:      domain.StatusSubmitted,
				SubmittedAt: &now,
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.createSubmission(ctx, tx, func(repo domain.Repository) error {
			return repo.CreateEmployee(ctx, row)
		})
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, &row.OrgID, "onboarding.submitted", domain.DomainEmployee, row.ID, map[string]any{"email": row.Email})
	return row, nil
}

// consumeToken re-validates and atomically consumes the invitation
// inside the caller's transaction. Exactly one of two racing submits
// can win the conditional update.
func (s *Service) consumeToken(ctx context.Context, tx *gorm.DB, token, expectedPortal string, now time.Time) (*invdomain.InvitationToken, error) {
	invites := s.invites.WithTx(tx)

	invite, err := invites.FindByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	if err := invdomain.StateError(invite, now); err != nil {
		return nil, err
	}
	if invite.PortalType != expectedPortal {
		return nil, domain.ErrPortalMismatch
	}

	affected, err := invites.Consume(ctx, invite.Token, now)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Lost the race or state changed underneath us; classify from
		// the current row.
		current, err := invites.FindByToken(ctx, invite.Token)
		if err != nil {
			return nil, err
		}
		if stateErr := invdomain.StateError(current, now); stateErr != nil {
			return nil, stateErr
		}
		return nil, invdomain.ErrTokenUsed
	}

	return invite, nil
}

func (s *Service) createSubmission(ctx context.Context, tx *gorm.DB, create func(domain.Repository) error) error {
	if err := create(s.repo.WithTx(tx)); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return invdomain.ErrTokenUsed
		}
		return err
	}
	return nil
}

func (s *Service) Approve(ctx context.Context, domainType string, id snowflake.ID, approverID snowflake.ID) (*domain.ApprovalResult, error) {
	if approverID == 0 {
		return nil, domain.ErrInvalidApprover
	}

	switch domainType {
	case domain.DomainCustomer:
		return s.approveCustomer(ctx, id, approverID)
	case domain.DomainVendor:
		return s.approveVendor(ctx, id, approverID)
	case domain.DomainEmployee:
		return s.approveEmployee(ctx, id, approverID)
	default:
		return nil, domain.ErrInvalidDomain
	}
}

func (s *Service) approveCustomer(ctx context.Context, id, approverID snowflake.ID) (*domain.ApprovalResult, error) {
	var (
		result  domain.ApprovalResult
		invitee string
	)
	now := s.clock.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.GetCustomer(ctx, id)
		if err != nil {
			return err
		}
		if !row.Reviewable() {
			return domain.ErrInvalidStateTransition
		}
		invitee = row.Email

		user, err := s.ensureUser(ctx, tx, row.Email, row.ContactName)
		if err != nil {
			return err
		}

		orgID, err := s.createOrganization(ctx, tx, row.CompanyName, orgdomain.TypeCustomer, row.Email, row.Address.CountryCode, user.ID, row.Role, now)
		if err != nil {
			return err
		}

		affected, err := repo.UpdateReview(ctx, domain.DomainCustomer, id, domain.StatusSubmitted, map[string]any{
			"org_id":      orgID,
			"status":      domain.StatusApproved,
			"approved_at": now,
			"approved_by": approverID,
			"updated_at":  now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInvalidStateTransition
		}

		result.OrganizationID = &orgID
		result.UserID = &user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, result.OrganizationID, "onboarding.approved", domain.DomainCustomer, id, map[string]any{"approved_by": approverID.String()})
	s.sendDecisionEmail(invitee, true, "")
	return &result, nil
}

func (s *Service) approveVendor(ctx context.Context, id, approverID snowflake.ID) (*domain.ApprovalResult, error) {
	var (
		result  domain.ApprovalResult
		invitee string
	)
	now := s.clock.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.GetVendor(ctx, id)
		if err != nil {
			return err
		}
		if !row.Reviewable() {
			return domain.ErrInvalidStateTransition
		}
		invitee = row.Email

		user, err := s.ensureUser(ctx, tx, row.Email, row.ContactName)
		if err != nil {
			return err
		}

		orgID, err := s.createOrganization(ctx, tx, row.CompanyName, orgdomain.TypeVendor, row.Email, row.Address.CountryCode, user.ID, row.Role, now)
		if err != nil {
			return err
		}

		affected, err := repo.UpdateReview(ctx, domain.DomainVendor, id, domain.StatusSubmitted, map[string]any{
			"org_id":      orgID,
			"status":      domain.StatusApproved,
			"approved_at": now,
			"approved_by": approverID,
			"updated_at":  now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInvalidStateTransition
		}

		result.OrganizationID = &orgID
		result.UserID = &user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, result.OrganizationID, "onboarding.approved", domain.DomainVendor, id, map[string]any{"approved_by": approverID.String()})
	s.sendDecisionEmail(invitee, true, "")
	return &result, nil
}

func (s *Service) approveEmployee(ctx context.Context, id, approverID snowflake.ID) (*domain.ApprovalResult, error) {
	var (
		result  domain.ApprovalResult
		invitee string
		orgID   snowflake.ID
	)
	now := s.clock.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.GetEmployee(ctx, id)
		if err != nil {
			return err
		}
		if !row.Reviewable() {
			return domain.ErrInvalidStateTransition
		}
		invitee = row.Email
		orgID = row.OrgID

		user, err := s.ensureUser(ctx, tx, row.Email, row.FullName)
		if err != nil {
			return err
		}

		orgs := s.orgs.WithTx(tx)
		employee := orgdomain.Employee{
			ID:         s.genID.Generate(),
			OrgID:      row.OrgID,
			UserID:     &user.ID,
			Email:      row.Email,
			FullName:   row.FullName,
			Department: row.Department,
			Position:   row.Position,
			StartDate:  row.StartDate,
			Metadata:   datatypes.JSONMap{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := orgs.CreateEmployee(ctx, employee); err != nil {
			return err
		}

		member := orgdomain.OrganizationMember{
			ID:        s.genID.Generate(),
			OrgID:     row.OrgID,
			UserID:    user.ID,
			Role:      memberRole(row.Role),
			CreatedAt: now,
		}
		if err := orgs.AddMember(ctx, member); err != nil && !db.IsDuplicateKeyErr(err) {
			return err
		}

		affected, err := repo.UpdateReview(ctx, domain.DomainEmployee, id, domain.StatusSubmitted, map[string]any{
			"employee_id": employee.ID,
			"status":      domain.StatusApproved,
			"approved_at": now,
			"approved_by": approverID,
			"updated_at":  now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInvalidStateTransition
		}

		result.EmployeeID = &employee.ID
		result.UserID = &user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, &orgID, "onboarding.approved", domain.DomainEmployee, id, map[string]any{"approved_by": approverID.String()})
	s.sendDecisionEmail(invitee, true, "")
	return &result, nil
}

func (s *Service) Reject(ctx context.Context, domainType string, id snowflake.ID, approverID snowflake.ID, reason string) error {
	if approverID == 0 {
		return domain.ErrInvalidApprover
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.ErrEmptyRejectionReason
	}
	if !domain.ValidDomain(domainType) {
		return domain.ErrInvalidDomain
	}

	var invitee string
	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		email, reviewable, err := s.submissionState(ctx, repo, domainType, id)
		if err != nil {
			return err
		}
		if !reviewable {
			return domain.ErrInvalidStateTransition
		}
		invitee = email

		affected, err := repo.UpdateReview(ctx, domainType, id, domain.StatusSubmitted, map[string]any{
			"status":           domain.StatusRejected,
			"rejected_at":      now,
			"rejected_by":      approverID,
			"rejection_reason": reason,
			"updated_at":       now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInvalidStateTransition
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, nil, "onboarding.rejected", domainType, id, map[string]any{
		"rejected_by": approverID.String(),
		"reason":      reason,
	})
	s.sendDecisionEmail(invitee, false, reason)
	return nil
}

func (s *Service) submissionState(ctx context.Context, repo domain.Repository, domainType string, id snowflake.ID) (string, bool, error) {
	switch domainType {
	case domain.DomainCustomer:
		row, err := repo.GetCustomer(ctx, id)
		if err != nil {
			return "", false, err
		}
		return row.Email, row.Reviewable(), nil
	case domain.DomainVendor:
		row, err := repo.GetVendor(ctx, id)
		if err != nil {
			return "", false, err
		}
		return row.Email, row.Reviewable(), nil
	case domain.DomainEmployee:
		row, err := repo.GetEmployee(ctx, id)
		if err != nil {
			return "", false, err
		}
		return row.Email, row.Reviewable(), nil
	default:
		return "", false, domain.ErrInvalidDomain
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	if !domain.ValidDomain(req.Domain) {
		return nil, domain.ErrInvalidDomain
	}

	pageSize := req.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	filter := domain.ListFilter{
		OrgID:  req.OrgID,
		Status: req.Status,
		Limit:  pageSize + 1,
	}
	if req.Pagination.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.Pagination.PageToken)
		if err != nil {
			return nil, err
		}
		cursorID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, err
		}
		filter.CursorID = &cursorID
	}

	items, err := s.listItems(ctx, req.Domain, filter)
	if err != nil {
		return nil, err
	}

	resp := &domain.ListResponse{}
	if len(items) > pageSize {
		items = items[:pageSize]
		last := items[len(items)-1]
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: last.ID.String()})
		if err != nil {
			return nil, err
		}
		resp.PageInfo = pagination.PageInfo{NextPageToken: token, HasMore: true}
	}
	resp.Submissions = items
	return resp, nil
}

func (s *Service) listItems(ctx context.Context, domainType string, filter domain.ListFilter) ([]domain.ListItem, error) {
	switch domainType {
	case domain.DomainCustomer:
		rows, err := s.repo.ListCustomers(ctx, filter)
		if err != nil {
			return nil, err
		}
		items := make([]domain.ListItem, 0, len(rows))
		for _, row := range rows {
			items = append(items, domain.ListItem{
				ID: row.ID, Domain: domainType, Email: row.Email, Name: row.CompanyName,
				Status: row.Status, SubmittedAt: row.SubmittedAt, CreatedAt: row.CreatedAt,
			})
		}
		return items, nil
	case domain.DomainVendor:
		rows, err := s.repo.ListVendors(ctx, filter)
		if err != nil {
			return nil, err
		}
		items := make([]domain.ListItem, 0, len(rows))
		for _, row := range rows {
			items = append(items, domain.ListItem{
				ID: row.ID, Domain: domainType, Email: row.Email, Name: row.CompanyName,
				Status: row.Status, SubmittedAt: row.SubmittedAt, CreatedAt: row.CreatedAt,
			})
		}
		return items, nil
	case domain.DomainEmployee:
		rows, err := s.repo.ListEmployees(ctx, filter)
		if err != nil {
			return nil, err
		}
		items := make([]domain.ListItem, 0, len(rows))
		for _, row := range rows {
			items = append(items, domain.ListItem{
				ID: row.ID, Domain: domainType, Email: row.Email, Name: row.FullName,
				Status: row.Status, SubmittedAt: row.SubmittedAt, CreatedAt: row.CreatedAt,
			})
		}
		return items, nil
	default:
		return nil, domain.ErrInvalidDomain
	}
}

func (s *Service) GetCustomer(ctx context.Context, id snowflake.ID) (*domain.CustomerOnboarding, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) GetVendor(ctx context.Context, id snowflake.ID) (*domain.VendorOnboarding, error) {
	return s.repo.GetVendor(ctx, id)
}

func (s *Service) GetEmployee(ctx context.Context, id snowflake.ID) (*domain.EmployeeOnboarding, error) {
	return s.repo.GetEmployee(ctx, id)
}

// ensureUser finds or creates the invitee's user row. Invited users
// start without a password; they set one through the reset flow.
func (s *Service) ensureUser(ctx context.Context, tx *gorm.DB, emailAddr, displayName string) (*authdomain.User, error) {
	users := s.users.WithTx(tx)

	user, err := users.FindOne(ctx, authdomain.User{Email: emailAddr})
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, authdomain.ErrUserNotFound) {
		return nil, err
	}

	now := s.clock.Now()
	user = &authdomain.User{
		ID:          s.genID.Generate(),
		ExternalID:  uuid.NewString(),
		Provider:    "local",
		DisplayName: strings.TrimSpace(displayName),
		Email:       emailAddr,
		IsDefault:   false,
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) createOrganization(ctx context.Context, tx *gorm.DB, name, orgType, supportEmail, countryCode string, ownerID snowflake.ID, role string, now time.Time) (snowflake.ID, error) {
	orgs := s.orgs.WithTx(tx)

	orgID := s.genID.Generate()
	org := orgdomain.Organization{
		ID:           orgID,
		Name:         name,
		Slug:         orgSlug(name, orgID),
		Type:         orgType,
		SupportEmail: supportEmail,
		CountryCode:  countryCode,
		Metadata:     datatypes.JSONMap{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := orgs.CreateOrganization(ctx, org); err != nil {
		return 0, err
	}

	member := orgdomain.OrganizationMember{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		UserID:    ownerID,
		Role:      memberRole(role),
		CreatedAt: now,
	}
	if err := orgs.AddMember(ctx, member); err != nil {
		return 0, err
	}
	return orgID, nil
}

// orgSlug keeps slugs unique without a read-back by suffixing the
// snowflake ID.
func orgSlug(name string, id snowflake.ID) string {
	base := slug.Make(name)
	if base == "" {
		base = "org"
	}
	return fmt.Sprintf("%s-%s", base, id.Base36())
}

func memberRole(role string) string {
	if orgdomain.ValidRole(role) {
		return role
	}
	return orgdomain.RoleOwner
}

func validateOrgApplication(app domain.OrgApplication) error {
	if strings.TrimSpace(app.CompanyName) == "" || strings.TrimSpace(app.ContactName) == "" {
		return domain.ErrInvalidPayload
	}
	return domain.ValidateMetadata(app.Metadata)
}

func metadataMap(metadata map[string]any) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(metadata)
}

func (s *Service) sendDecisionEmail(to string, approved bool, reason string) {
	if strings.TrimSpace(to) == "" {
		return
	}

	decision := "approved"
	if !approved {
		decision = "rejected"
	}
	data := map[string]any{
		"decision":   decision,
		"approved":   approved,
		"reason":     reason,
		"portal_url": s.cfg.PublicBaseURL,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.email.SendTemplate(ctx, []string{to}, "onboarding_decision", data); err != nil {
			s.log.Warn("failed to send decision email", zap.String("email", to), zap.Error(err))
		}
	}()
}

func (s *Service) recordAudit(ctx context.Context, orgID *snowflake.ID, action, domainType string, id snowflake.ID, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["domain"] = domainType
	targetID := id.String()
	if err := s.audit.AuditLog(ctx, orgID, "", nil, action, "onboarding_submission", &targetID, metadata); err != nil {
		s.log.Warn("failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}
