package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidToken is the umbrella failure for any token that cannot be
// redeemed. The specific variants below all match it via errors.Is, so
// callers can branch on the exact cause or treat them uniformly.
var ErrInvalidToken = errors.New("invalid_token")

var (
	ErrTokenNotFound = fmt.Errorf("%w: not_found", ErrInvalidToken)
	ErrTokenExpired  = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenUsed     = fmt.Errorf("%w: already_used", ErrInvalidToken)
	ErrTokenRevoked  = fmt.Errorf("%w: revoked", ErrInvalidToken)
)

var (
	ErrInvalidEmail              = errors.New("invalid_email")
	ErrInvalidRole               = errors.New("invalid_role")
	ErrInvalidPortalType         = errors.New("invalid_portal_type")
	ErrInvalidOrganizationType   = errors.New("invalid_organization_type")
	ErrInvalidTTL                = errors.New("invalid_ttl")
	ErrDuplicateActiveInvitation = errors.New("duplicate_active_invitation")
	ErrResendLimitExceeded       = errors.New("resend_limit_exceeded")
	ErrNotPending                = errors.New("invitation_not_pending")
)

// StateError classifies a token row into the redemption error taxonomy.
// Expiry wins over the stored status so a stale PENDING row past its
// deadline still reads as expired. Returns nil for an active token.
func StateError(t *InvitationToken, now time.Time) error {
	if t == nil {
		return ErrTokenNotFound
	}
	switch {
	case t.Used || t.Status == StatusUsed:
		return ErrTokenUsed
	case t.Status == StatusRevoked:
		return ErrTokenRevoked
	case t.Status == StatusExpired || !now.Before(t.ExpiresAt):
		return ErrTokenExpired
	case t.Status == StatusPending:
		return nil
	default:
		return ErrInvalidToken
	}
}
