package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apikeydomain "github.com/tradeplane/tradeplane/internal/apikey/domain"
	auditdomain "github.com/tradeplane/tradeplane/internal/audit/domain"
	authdomain "github.com/tradeplane/tradeplane/internal/auth/domain"
	"github.com/tradeplane/tradeplane/internal/authorization"
	invitationdomain "github.com/tradeplane/tradeplane/internal/invitation/domain"
	onboardingdomain "github.com/tradeplane/tradeplane/internal/onboarding/domain"
	organizationdomain "github.com/tradeplane/tradeplane/internal/organization/domain"
	partnerdomain "github.com/tradeplane/tradeplane/internal/partnerinvite/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, organizationdomain.ErrForbidden),
		errors.Is(err, organizationdomain.ErrNotMember):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isTokenGoneError(err):
		return http.StatusGone, errorPayload{
			Type:    "invitation_gone",
			Message: tokenGoneCode(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, invitationdomain.ErrDuplicateActiveInvitation),
		errors.Is(err, invitationdomain.ErrNotPending),
		errors.Is(err, onboardingdomain.ErrInvalidStateTransition),
		errors.Is(err, onboardingdomain.ErrPortalMismatch),
		errors.Is(err, partnerdomain.ErrAlreadyDecided):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictCode(err),
		}
	case errors.Is(err, ErrRateLimited),
		errors.Is(err, invitationdomain.ErrResendLimitExceeded):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case errors.Is(err, invitationdomain.ErrInvalidEmail),
		errors.Is(err, invitationdomain.ErrInvalidRole),
		errors.Is(err, invitationdomain.ErrInvalidPortalType),
		errors.Is(err, invitationdomain.ErrInvalidOrganizationType),
		errors.Is(err, invitationdomain.ErrInvalidTTL):
		return true
	case errors.Is(err, onboardingdomain.ErrInvalidDomain),
		errors.Is(err, onboardingdomain.ErrInvalidPayload),
		errors.Is(err, onboardingdomain.ErrInvalidMetadataKey),
		errors.Is(err, onboardingdomain.ErrEmptyRejectionReason),
		errors.Is(err, onboardingdomain.ErrInvalidApprover):
		return true
	case errors.Is(err, partnerdomain.ErrInvalidEmail),
		errors.Is(err, partnerdomain.ErrInvalidCustomer),
		errors.Is(err, partnerdomain.ErrInvalidVendorOrg):
		return true
	case errors.Is(err, apikeydomain.ErrInvalidName),
		errors.Is(err, apikeydomain.ErrInvalidScope),
		errors.Is(err, apikeydomain.ErrInvalidKeyID):
		return true
	case errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction):
		return true
	case isOrganizationValidationError(err):
		return true
	default:
		return false
	}
}

// Terminal-but-existing tokens surface as Gone so callers can distinguish
// a dead link from a bad one.
func isTokenGoneError(err error) bool {
	switch {
	case errors.Is(err, invitationdomain.ErrTokenExpired),
		errors.Is(err, invitationdomain.ErrTokenUsed),
		errors.Is(err, invitationdomain.ErrTokenRevoked):
		return true
	default:
		return false
	}
}

func tokenGoneCode(err error) string {
	switch {
	case errors.Is(err, invitationdomain.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, invitationdomain.ErrTokenUsed):
		return "token_used"
	case errors.Is(err, invitationdomain.ErrTokenRevoked):
		return "token_revoked"
	default:
		return "invitation_gone"
	}
}

func conflictCode(err error) string {
	switch {
	case errors.Is(err, invitationdomain.ErrDuplicateActiveInvitation):
		return "duplicate_active_invitation"
	case errors.Is(err, invitationdomain.ErrNotPending):
		return "invitation_not_pending"
	case errors.Is(err, onboardingdomain.ErrInvalidStateTransition):
		return "invalid_state_transition"
	case errors.Is(err, onboardingdomain.ErrPortalMismatch):
		return "portal_mismatch"
	case errors.Is(err, partnerdomain.ErrAlreadyDecided):
		return "partner_invite_already_decided"
	default:
		return "conflict"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, invitationdomain.ErrInvalidToken),
		errors.Is(err, onboardingdomain.ErrSubmissionNotFound),
		errors.Is(err, partnerdomain.ErrInviteNotFound),
		errors.Is(err, apikeydomain.ErrNotFound),
		errors.Is(err, organizationdomain.ErrInvalidOrganization),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
