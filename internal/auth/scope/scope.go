// Package scope maps API key scopes to the capabilities they grant.
package scope

import (
	"strings"

	apikeydomain "github.com/tradeplane/tradeplane/internal/apikey/domain"
)

// All returns the scopes an API key may carry.
func All() []string {
	out := make([]string, len(apikeydomain.KnownScopes))
	copy(out, apikeydomain.KnownScopes)
	return out
}

// Normalize lowercases and deduplicates the requested scopes.
func Normalize(scopes []string) []string {
	seen := make(map[string]bool, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		scope = strings.TrimSpace(strings.ToLower(scope))
		if scope == "" || seen[scope] {
			continue
		}
		seen[scope] = true
		out = append(out, scope)
	}
	return out
}

// Validate rejects scopes outside the known set.
func Validate(scopes []string) error {
	for _, scope := range scopes {
		if !known(scope) {
			return apikeydomain.ErrInvalidScope
		}
	}
	return nil
}

// Has reports whether granted contains required.
func Has(granted []string, required string) bool {
	if required == "" {
		return false
	}
	for _, scope := range granted {
		if scope == required {
			return true
		}
	}
	return false
}

// FromAuthz maps an authorization object/action pair to the API key
// scope that covers it. Empty means no scope grants the action.
func FromAuthz(object string, action string) string {
	switch strings.TrimSpace(object) {
	case "invitation":
		return apikeydomain.ScopeInvitationWrite
	case "onboarding":
		if strings.HasSuffix(action, ".view") {
			return apikeydomain.ScopeOnboardingRead
		}
		return ""
	case "partner_invite":
		if strings.HasSuffix(action, ".view") {
			return apikeydomain.ScopePartnerInviteRead
		}
		return ""
	default:
		return ""
	}
}

func known(scope string) bool {
	for _, candidate := range apikeydomain.KnownScopes {
		if scope == candidate {
			return true
		}
	}
	return false
}
