package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/tradeplane/tradeplane/internal/audit/domain"
	"github.com/tradeplane/tradeplane/internal/clock"
	"github.com/tradeplane/tradeplane/internal/config"
	"github.com/tradeplane/tradeplane/internal/invitation/domain"
	orgdomain "github.com/tradeplane/tradeplane/internal/organization/domain"
	"github.com/tradeplane/tradeplane/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
	email email.Provider
	audit auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invitation.service"),
		cfg:   p.Config,
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		email: p.Email,
		audit: p.Audit,
	}
}

func (s *Service) Issue(ctx context.Context, req domain.IssueRequest) (*domain.InvitationToken, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	emailAddr := strings.ToLower(addr.Address)

	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role == "" {
		return nil, domain.ErrInvalidRole
	}

	portalType := strings.ToUpper(strings.TrimSpace(req.PortalType))
	if !domain.ValidPortal(portalType) {
		return nil, domain.ErrInvalidPortalType
	}

	organizationType := strings.ToUpper(strings.TrimSpace(req.OrganizationType))
	if !orgdomain.ValidType(organizationType) {
		return nil, domain.ErrInvalidOrganizationType
	}

	ttl := req.TTL
	if ttl == 0 {
		ttl = s.cfg.Invite.DefaultTTL
	}
	if ttl <= 0 {
		return nil, domain.ErrInvalidTTL
	}

	raw, err := newToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	row := &domain.InvitationToken{
		ID:               s.genID.Generate(),
		Token:            raw,
		Email:            emailAddr,
		OrgID:            req.OrgID,
		OrganizationType: organizationType,
		PortalType:       portalType,
		Role:             role,
		InvitedBy:        req.InvitedBy,
		Status:           domain.StatusPending,
		ExpiresAt:        now.Add(ttl),
		Metadata:         datatypes.JSONMap(req.Metadata),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if row.Metadata == nil {
		row.Metadata = datatypes.JSONMap{}
	}

	// The duplicate-active check and the insert share one transaction so
	// two racing issues for the same invitee cannot both pass the check.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindActive(ctx, emailAddr, organizationType, now); err == nil {
			return domain.ErrDuplicateActiveInvitation
		} else if !errors.Is(err, domain.ErrTokenNotFound) {
			return err
		}
		return repo.Create(ctx, row)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, row, "invitation.issued", map[string]any{
		"email":       row.Email,
		"portal_type": row.PortalType,
		"role":        row.Role,
	})
	s.sendInviteEmail(row)

	return row, nil
}

func (s *Service) Redeem(ctx context.Context, token string) (*domain.Resolution, error) {
	raw := strings.TrimSpace(token)
	if raw == "" {
		return nil, domain.ErrTokenNotFound
	}

	row, err := s.repo.FindByToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := domain.StateError(row, s.clock.Now()); err != nil {
		return nil, err
	}

	return &domain.Resolution{
		Email:            row.Email,
		OrganizationType: row.OrganizationType,
		PortalType:       row.PortalType,
		Role:             row.Role,
		OrgID:            row.OrgID,
		ExpiresAt:        row.ExpiresAt,
	}, nil
}

func (s *Service) Revoke(ctx context.Context, token string, revokedBy snowflake.ID) error {
	row, err := s.repo.FindByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if err := domain.StateError(row, now); err != nil {
		return err
	}

	if err := s.repo.UpdateFields(ctx, row.ID, map[string]any{
		"status":     domain.StatusRevoked,
		"revoked_at": now,
		"updated_at": now,
	}); err != nil {
		return err
	}

	s.recordAudit(ctx, row, "invitation.revoked", map[string]any{
		"email":      row.Email,
		"revoked_by": revokedBy.String(),
	})
	return nil
}

func (s *Service) Resend(ctx context.Context, token string) (*domain.InvitationToken, error) {
	row, err := s.repo.FindByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := domain.StateError(row, now); err != nil {
		return nil, err
	}
	if s.cfg.Invite.MaxResends > 0 && row.ResendCount >= s.cfg.Invite.MaxResends {
		return nil, domain.ErrResendLimitExceeded
	}

	expiresAt := now.Add(s.cfg.Invite.DefaultTTL)
	if err := s.repo.UpdateFields(ctx, row.ID, map[string]any{
		"resend_count": row.ResendCount + 1,
		"last_sent_at": now,
		"expires_at":   expiresAt,
		"updated_at":   now,
	}); err != nil {
		return nil, err
	}
	row.ResendCount++
	row.LastSentAt = &now
	row.ExpiresAt = expiresAt

	s.recordAudit(ctx, row, "invitation.resent", map[string]any{
		"email":        row.Email,
		"resend_count": row.ResendCount,
	})
	s.sendInviteEmail(row)

	return row, nil
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) (*domain.ListResponse, error) {
	rows, info, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &domain.ListResponse{Invitations: rows}
	if info != nil {
		resp.PageInfo = *info
	}
	return resp, nil
}

// sendInviteEmail is fire-and-forget: delivery failure is logged, never
// rolled back into the caller.
func (s *Service) sendInviteEmail(row *domain.InvitationToken) {
	token := row.Token
	to := row.Email
	data := map[string]any{
		"portal_type": row.PortalType,
		"invite_url":  fmt.Sprintf("%s/invite/%s", strings.TrimRight(s.cfg.PublicBaseURL, "/"), token),
		"expires_at":  row.ExpiresAt.Format(time.RFC1123),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.email.SendTemplate(ctx, []string{to}, "invitation", data); err != nil {
			s.log.Warn("failed to send invitation email",
				zap.String("email", to),
				zap.Error(err),
			)
		}
	}()
}

func (s *Service) recordAudit(ctx context.Context, row *domain.InvitationToken, action string, metadata map[string]any) {
	targetID := row.ID.String()
	if err := s.audit.AuditLog(ctx, row.OrgID, "", nil, action, "invitation_token", &targetID, metadata); err != nil {
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
