// Package authorization enforces per-organization capability checks.
package authorization

import (
	"context"
	"errors"
)

type Service interface {
	// Authorize checks that the actor may perform action on object
	// within the given organization. A nil return means allowed.
	Authorize(ctx context.Context, actor string, orgID string, object string, action string) error
}

var (
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAction       = errors.New("invalid_action")
	ErrForbidden           = errors.New("forbidden")
)
