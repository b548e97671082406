package server

import (
	"errors"
	"net/http"
	"testing"
	"time"

	authdomain "github.com/tradeplane/tradeplane/internal/auth/domain"
	"github.com/tradeplane/tradeplane/internal/authorization"
	invitationdomain "github.com/tradeplane/tradeplane/internal/invitation/domain"
	onboardingdomain "github.com/tradeplane/tradeplane/internal/onboarding/domain"
	organizationdomain "github.com/tradeplane/tradeplane/internal/organization/domain"
	partnerdomain "github.com/tradeplane/tradeplane/internal/partnerinvite/domain"
)

func TestMapErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"bad_credentials", authdomain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"session_expired", authdomain.ErrSessionExpired, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"authz_forbidden", authorization.ErrForbidden, http.StatusForbidden},
		{"not_a_member", organizationdomain.ErrNotMember, http.StatusForbidden},
		{"token_missing", invitationdomain.ErrTokenNotFound, http.StatusNotFound},
		{"token_expired", invitationdomain.ErrTokenExpired, http.StatusGone},
		{"token_used", invitationdomain.ErrTokenUsed, http.StatusGone},
		{"token_revoked", invitationdomain.ErrTokenRevoked, http.StatusGone},
		{"duplicate_invitation", invitationdomain.ErrDuplicateActiveInvitation, http.StatusConflict},
		{"resend_exhausted", invitationdomain.ErrResendLimitExceeded, http.StatusTooManyRequests},
		{"bad_email", invitationdomain.ErrInvalidEmail, http.StatusBadRequest},
		{"submission_missing", onboardingdomain.ErrSubmissionNotFound, http.StatusNotFound},
		{"double_review", onboardingdomain.ErrInvalidStateTransition, http.StatusConflict},
		{"portal_mismatch", onboardingdomain.ErrPortalMismatch, http.StatusConflict},
		{"empty_reason", onboardingdomain.ErrEmptyRejectionReason, http.StatusBadRequest},
		{"partner_decided", partnerdomain.ErrAlreadyDecided, http.StatusConflict},
		{"partner_missing", partnerdomain.ErrInviteNotFound, http.StatusNotFound},
		{"rate_limited", ErrRateLimited, http.StatusTooManyRequests},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := mapError(tc.err)
			if status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, status)
			}
		})
	}
}

func TestMapErrorGoneCarriesSpecificCode(t *testing.T) {
	status, payload := mapError(invitationdomain.ErrTokenRevoked)
	if status != http.StatusGone {
		t.Fatalf("expected status 410, got %d", status)
	}
	if payload.Type != "invitation_gone" || payload.Message != "token_revoked" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestMapErrorValidationCarriesCode(t *testing.T) {
	status, payload := mapError(invitationdomain.ErrInvalidPortalType)
	if status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", status)
	}
	if len(payload.Errors) != 1 || payload.Errors[0].Code != "invalid_portal_type" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Errors[0].Field != "portal_type" {
		t.Fatalf("expected portal_type field, got %q", payload.Errors[0].Field)
	}
}

func TestRateLimiterBlocksWithinWindow(t *testing.T) {
	limiter := newRateLimiter(2, time.Minute)

	if !limiter.Allow("k") || !limiter.Allow("k") {
		t.Fatal("expected first two calls to pass")
	}
	if limiter.Allow("k") {
		t.Fatal("expected third call to be limited")
	}
	if !limiter.Allow("other") {
		t.Fatal("expected independent key to pass")
	}
}
