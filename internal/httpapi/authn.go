package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"freightdesk.org/internal/audit"
	"freightdesk.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/login",
	"/v1/auth/refresh",
	"/v1/auth/logout",
	"/v1/organizations/register",
	"/health",
	"/health/detailed",
	"/health/ready",
	"/health/live",
	"/metrics",
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// withAuth validates the bearer token on protected paths and attaches the
// resolved identity plus the request metadata used by the audit trail.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithRequestMeta(r.Context(), clientIP(r), r.UserAgent())
		r = r.WithContext(ctx)

		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthenticated")
			return
		}
		identity, err := a.auth.Authenticate(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), identity)))
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

// requireRoles gates a route by its static allow-list. Root is admitted only
// when listed. Returns the identity when admitted; otherwise writes the
// response and reports false.
func (a *API) requireRoles(w http.ResponseWriter, r *http.Request, roles ...auth.Role) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthenticated")
		return auth.Identity{}, false
	}
	for _, role := range roles {
		if identity.Role == role {
			return identity, true
		}
	}
	writeError(w, r, http.StatusForbidden, "forbidden")
	return auth.Identity{}, false
}

// auditScope translates the caller identity into the audit read scope.
func auditScope(identity auth.Identity) audit.Scope {
	return audit.Scope{
		UserID: identity.UserID,
		OrgID:  identity.OrganizationID,
		Role:   identity.Role.String(),
	}
}
