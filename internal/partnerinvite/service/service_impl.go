package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/tradeplane/tradeplane/internal/audit/domain"
	"github.com/tradeplane/tradeplane/internal/clock"
	"github.com/tradeplane/tradeplane/internal/config"
	orgdomain "github.com/tradeplane/tradeplane/internal/organization/domain"
	"github.com/tradeplane/tradeplane/internal/partnerinvite/domain"
	"github.com/tradeplane/tradeplane/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tokenBytes = 32

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Config config.Config
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   domain.Repository
	Orgs   orgdomain.Repository
	Email  email.Provider
	Audit  auditdomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	cfg   config.Config
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	orgs  orgdomain.Repository
	email email.Provider
	audit auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("partnerinvite.service"),
		cfg:   p.Config,
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		orgs:  p.Orgs,
		email: p.Email,
		audit: p.Audit,
	}
}

func (s *Service) Invite(ctx context.Context, req domain.InviteRequest) (*domain.CustomerVendorInvitation, error) {
	if req.CustomerOrgID == 0 {
		return nil, domain.ErrInvalidCustomer
	}

	customer, err := s.orgs.GetOrganization(ctx, req.CustomerOrgID)
	if err != nil {
		return nil, err
	}
	if customer.Type != orgdomain.TypeCustomer {
		return nil, domain.ErrInvalidCustomer
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(req.VendorEmail))
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	row := &domain.CustomerVendorInvitation{
		ID:            s.genID.Generate(),
		CustomerOrgID: req.CustomerOrgID,
		VendorEmail:   strings.ToLower(addr.Address),
		VendorName:    strings.TrimSpace(req.VendorName),
		Status:        domain.StatusPending,
		Token:         token,
		InvitedBy:     req.InvitedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, row.CustomerOrgID, "partner_invite.created", row.ID, map[string]any{
		"vendor_email": row.VendorEmail,
	})
	s.sendPartnerEmail(row, customer.Name)

	return row, nil
}

func (s *Service) Accept(ctx context.Context, token string, vendorOrgID snowflake.ID) (*domain.CustomerVendorInvitation, error) {
	if vendorOrgID == 0 {
		return nil, domain.ErrInvalidVendorOrg
	}

	vendor, err := s.orgs.GetOrganization(ctx, vendorOrgID)
	if err != nil {
		return nil, err
	}
	if vendor.Type != orgdomain.TypeVendor {
		return nil, domain.ErrInvalidVendorOrg
	}

	row, err := s.repo.FindByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	affected, err := s.repo.Decide(ctx, row.ID, map[string]any{
		"status":        domain.StatusAccepted,
		"vendor_org_id": vendorOrgID,
		"accepted_at":   now,
		"updated_at":    now,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrAlreadyDecided
	}

	row.Status = domain.StatusAccepted
	row.VendorOrgID = &vendorOrgID
	row.AcceptedAt = &now

	s.recordAudit(ctx, row.CustomerOrgID, "partner_invite.accepted", row.ID, map[string]any{
		"vendor_org_id": vendorOrgID.String(),
	})
	return row, nil
}

func (s *Service) Decline(ctx context.Context, token string) (*domain.CustomerVendorInvitation, error) {
	row, err := s.repo.FindByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	affected, err := s.repo.Decide(ctx, row.ID, map[string]any{
		"status":      domain.StatusDeclined,
		"declined_at": now,
		"updated_at":  now,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrAlreadyDecided
	}

	row.Status = domain.StatusDeclined
	row.DeclinedAt = &now

	s.recordAudit(ctx, row.CustomerOrgID, "partner_invite.declined", row.ID, nil)
	return row, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerOrgID snowflake.ID) ([]domain.CustomerVendorInvitation, error) {
	if customerOrgID == 0 {
		return nil, domain.ErrInvalidCustomer
	}
	return s.repo.ListByCustomer(ctx, customerOrgID)
}

func (s *Service) sendPartnerEmail(row *domain.CustomerVendorInvitation, customerName string) {
	to := row.VendorEmail
	data := map[string]any{
		"customer_name": customerName,
		"invite_url":    fmt.Sprintf("%s/partner-invite/%s", strings.TrimRight(s.cfg.PublicBaseURL, "/"), row.Token),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.email.SendTemplate(ctx, []string{to}, "partner_invite", data); err != nil {
			s.log.Warn("failed to send partner invite email",
				zap.String("email", to),
				zap.Error(err),
			)
		}
	}()
}

func (s *Service) recordAudit(ctx context.Context, orgID snowflake.ID, action string, id snowflake.ID, metadata map[string]any) {
	targetID := id.String()
	if err := s.audit.AuditLog(ctx, &orgID, "", nil, action, "partner_invite", &targetID, metadata); err != nil {
		s.log.Warn("failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
