package domain

import "errors"

var (
	ErrSubmissionNotFound     = errors.New("submission_not_found")
	ErrInvalidStateTransition = errors.New("invalid_state_transition")
	ErrInvalidDomain          = errors.New("invalid_onboarding_domain")
	ErrPortalMismatch         = errors.New("portal_mismatch")
	ErrInvalidPayload         = errors.New("invalid_payload")
	ErrInvalidMetadataKey     = errors.New("invalid_metadata_key")
	ErrEmptyRejectionReason   = errors.New("invalid_rejection_reason")
	ErrInvalidApprover        = errors.New("invalid_approver")
)
