package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/tradeplane/tradeplane/internal/apikey"
	apikeydomain "github.com/tradeplane/tradeplane/internal/apikey/domain"
	"github.com/tradeplane/tradeplane/internal/audit"
	auditdomain "github.com/tradeplane/tradeplane/internal/audit/domain"
	"github.com/tradeplane/tradeplane/internal/auth"
	authdomain "github.com/tradeplane/tradeplane/internal/auth/domain"
	"github.com/tradeplane/tradeplane/internal/auth/session"
	"github.com/tradeplane/tradeplane/internal/authorization"
	"github.com/tradeplane/tradeplane/internal/config"
	"github.com/tradeplane/tradeplane/internal/invitation"
	invitationdomain "github.com/tradeplane/tradeplane/internal/invitation/domain"
	"github.com/tradeplane/tradeplane/internal/observability"
	obslogger "github.com/tradeplane/tradeplane/internal/observability/logger"
	obsmetrics "github.com/tradeplane/tradeplane/internal/observability/metrics"
	obstracing "github.com/tradeplane/tradeplane/internal/observability/tracing"
	"github.com/tradeplane/tradeplane/internal/onboarding"
	onboardingdomain "github.com/tradeplane/tradeplane/internal/onboarding/domain"
	"github.com/tradeplane/tradeplane/internal/organization"
	organizationdomain "github.com/tradeplane/tradeplane/internal/organization/domain"
	"github.com/tradeplane/tradeplane/internal/partnerinvite"
	partnerdomain "github.com/tradeplane/tradeplane/internal/partnerinvite/domain"
	"github.com/tradeplane/tradeplane/internal/providers"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	auth.Module,
	session.Module,
	apikey.Module,
	providers.Module,
	organization.Module,
	invitation.Module,
	onboarding.Module,
	partnerinvite.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", httpMetrics.Handler())

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine              *gin.Engine
	cfg                 config.Config
	db                  *gorm.DB
	authsvc             authdomain.Service
	sessions            *session.Manager
	genID               *snowflake.Node
	apiKeySvc           apikeydomain.Service
	apiKeyLimiter       *rateLimiter
	inviteResendLimiter *rateLimiter
	authzSvc            authorization.Service
	auditSvc            auditdomain.Service
	organizationSvc     organizationdomain.Service
	invitationSvc       invitationdomain.Service
	onboardingSvc       onboardingdomain.Service
	partnerInviteSvc    partnerdomain.Service
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	Cfg              config.Config
	DB               *gorm.DB
	Authsvc          authdomain.Service
	Sessions         *session.Manager
	GenID            *snowflake.Node
	APIKeySvc        apikeydomain.Service
	AuthzSvc         authorization.Service
	AuditSvc         auditdomain.Service
	OrganizationSvc  organizationdomain.Service
	InvitationSvc    invitationdomain.Service
	OnboardingSvc    onboardingdomain.Service
	PartnerInviteSvc partnerdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:              p.Gin,
		cfg:                 p.Cfg,
		db:                  p.DB,
		authsvc:             p.Authsvc,
		sessions:            p.Sessions,
		genID:               p.GenID,
		apiKeySvc:           p.APIKeySvc,
		apiKeyLimiter:       newRateLimiter(5, 10*time.Minute),
		inviteResendLimiter: newRateLimiter(3, time.Hour),
		authzSvc:            p.AuthzSvc,
		auditSvc:            p.AuditSvc,
		organizationSvc:     p.OrganizationSvc,
		invitationSvc:       p.InvitationSvc,
		onboardingSvc:       p.OnboardingSvc,
		partnerInviteSvc:    p.PartnerInviteSvc,
	}

	svc.registerAuthRoutes()
	svc.registerPublicRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.POST("/change-password", s.WebAuthRequired(), s.ChangePassword)
	auth.GET("/me", s.Me)

	user := auth.Group("/user", s.WebAuthRequired())
	{
		user.GET("/orgs", s.ListUserOrgs)
		user.POST("/orgs", s.CreateOrganization)
		user.POST("/using/:orgId", s.UseOrg)
	}
}

// registerPublicRoutes wires the invitee-facing flow: resolve a token,
// submit an application, decide a partner invite. No authentication;
// possession of the token is the credential.
func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/public")

	public.GET("/invitations/:token", s.RedeemInvitation)

	public.POST("/onboarding/customer", s.SubmitCustomerOnboarding)
	public.POST("/onboarding/vendor", s.SubmitVendorOnboarding)
	public.POST("/onboarding/employee", s.SubmitEmployeeOnboarding)

	public.POST("/partner-invites/:token/accept", s.AcceptPartnerInvite)
	public.POST("/partner-invites/:token/decline", s.DeclinePartnerInvite)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Invitations --------
	api.POST("/invitations", s.APIKeyRequired(), s.authorizeOrgAction(authorization.ObjectInvitation, authorization.ActionInvitationIssue), s.IssueInvitation)
	api.GET("/invitations", s.APIKeyRequired(), s.authorizeOrgAction(authorization.ObjectInvitation, authorization.ActionInvitationView), s.ListInvitations)
	api.POST("/invitations/:token/revoke", s.APIKeyRequired(), s.authorizeOrgAction(authorization.ObjectInvitation, authorization.ActionInvitationRevoke), s.RevokeInvitation)
	api.POST("/invitations/:token/resend", s.APIKeyRequired(), s.authorizeOrgAction(authorization.ObjectInvitation, authorization.ActionInvitationResend), s.ResendInvitation)

	// -------- Onboardings --------
	api.GET("/onboardings", s.APIKeyRequired(), s.authorizeOrgAction(authorization.ObjectOnboarding, authorization.ActionOnboardingView), s.ListOnboardings)
	api.GET("/onboardings/:domain/:id", s.APIKeyRequired(), s.authorizeOrgAction(authorization.ObjectOnboarding, authorization.ActionOnboardingView), s.GetOnboarding)

	// -------- Partner invites --------
	api.GET("/partner-invites", s.APIKeyRequired(), s.authorizeOrgAction(authorization.ObjectPartnerInvite, authorization.ActionPartnerInviteView), s.ListPartnerInvites)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.Use(s.WebAuthRequired())
	admin.Use(s.OrgContext())

	// -------- Organization --------
	admin.GET("/organization", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin, organizationdomain.RoleReviewer, organizationdomain.RoleMember), s.authorizeOrgAction(authorization.ObjectOrganization, authorization.ActionOrganizationView), s.GetOrganization)

	// -------- Invitations --------
	admin.GET("/invitations", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin, organizationdomain.RoleReviewer), s.authorizeOrgAction(authorization.ObjectInvitation, authorization.ActionInvitationView), s.ListInvitations)
	admin.POST("/invitations", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin), s.authorizeOrgAction(authorization.ObjectInvitation, authorization.ActionInvitationIssue), s.IssueInvitation)
	admin.POST("/invitations/:token/revoke", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin), s.authorizeOrgAction(authorization.ObjectInvitation, authorization.ActionInvitationRevoke), s.RevokeInvitation)
	admin.POST("/invitations/:token/resend", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin), s.authorizeOrgAction(authorization.ObjectInvitation, authorization.ActionInvitationResend), s.ResendInvitation)

	// -------- Onboardings --------
	admin.GET("/onboardings", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin, organizationdomain.RoleReviewer), s.authorizeOrgAction(authorization.ObjectOnboarding, authorization.ActionOnboardingView), s.ListOnboardings)
	admin.GET("/onboardings/:domain/:id", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin, organizationdomain.RoleReviewer), s.authorizeOrgAction(authorization.ObjectOnboarding, authorization.ActionOnboardingView), s.GetOnboarding)
	admin.POST("/onboardings/:domain/:id/approve", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin, organizationdomain.RoleReviewer), s.authorizeOrgAction(authorization.ObjectOnboarding, authorization.ActionOnboardingReview), s.ApproveOnboarding)
	admin.POST("/onboardings/:domain/:id/reject", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin, organizationdomain.RoleReviewer), s.authorizeOrgAction(authorization.ObjectOnboarding, authorization.ActionOnboardingReview), s.RejectOnboarding)

	// -------- Partner invites --------
	admin.GET("/partner-invites", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin, organizationdomain.RoleReviewer, organizationdomain.RoleMember), s.authorizeOrgAction(authorization.ObjectPartnerInvite, authorization.ActionPartnerInviteView), s.ListPartnerInvites)
	admin.POST("/partner-invites", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin), s.authorizeOrgAction(authorization.ObjectPartnerInvite, authorization.ActionPartnerInviteCreate), s.CreatePartnerInvite)

	// -------- Audit logs --------
	admin.GET("/audit-logs", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin), s.authorizeOrgAction(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)

	// -------- API keys --------
	admin.GET("/api-keys/scopes", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin), s.authorizeOrgAction(authorization.ObjectAPIKey, authorization.ActionAPIKeyView), s.ListAPIKeyScopes)
	admin.GET("/api-keys", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin), s.authorizeOrgAction(authorization.ObjectAPIKey, authorization.ActionAPIKeyView), s.ListAPIKeys)
	admin.POST("/api-keys", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin), s.authorizeOrgAction(authorization.ObjectAPIKey, authorization.ActionAPIKeyCreate), s.CreateAPIKey)
	admin.POST("/api-keys/:key_id/reveal", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin), s.authorizeOrgAction(authorization.ObjectAPIKey, authorization.ActionAPIKeyRotate), s.RevealAPIKey)
	admin.POST("/api-keys/:key_id/revoke", s.RequireRole(organizationdomain.RoleOwner), s.authorizeOrgAction(authorization.ObjectAPIKey, authorization.ActionAPIKeyRevoke), s.RevokeAPIKey)
}
