package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RoleSet is a flat permission set checked by membership.
type RoleSet map[string]struct{}

// NewRoleSet builds a RoleSet from role names.
func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

// Contains reports whether role is in the set.
func (s RoleSet) Contains(role string) bool {
	_, ok := s[role]
	return ok
}

// RequireRole ensures the authenticated principal's role is in the allowed
// set. It runs after AuthMiddleware, so a missing role means the gate was
// mis-wired rather than a missing credential; both are refused with 403 to
// keep the authorization failure distinct from authentication failure.
func RequireRole(allowed RoleSet, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok {
				logger.Warn("Role not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if !allowed.Contains(role) {
				logger.Warn("Principal role not authorized for mutation",
					zap.String("role", role),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
