// Package gate decides, per request path, whether the caller's session lets
// the request through.
package gate

import (
	"strings"

	"github.com/Skotchmaster/bus_pass/internal/models"
	"github.com/Skotchmaster/bus_pass/pkg/tokens"
)

type Area int

const (
	AreaPublic Area = iota
	// AreaAuthenticated needs a valid session of any role.
	AreaAuthenticated
	AreaAdmin
	AreaStudent
)

type Outcome int

const (
	Allow Outcome = iota
	Redirect
	Unauthorized
	Forbidden
)

type Decision struct {
	Outcome     Outcome
	Location    string
	ClearCookie bool
}

// Policy lists the path rules. Prefixes match on segment boundaries: "/api/users"
// covers "/api/users/7" but not "/api/usersx". A prefix ending in "/" covers
// only paths below it.
type Policy struct {
	PublicExact    []string
	PublicPrefixes []string
	AdminAreas     []string
	StudentAreas   []string

	AdminLogin   string
	StudentLogin string
}

func DefaultPolicy() Policy {
	return Policy{
		PublicExact:    []string{"/", "/admin", "/signup", "/api/admin/login", "/api/admin/logout"},
		PublicPrefixes: []string{"/api/auth/", "/health/"},
		AdminAreas:     []string{"/admin/", "/admindash", "/api/users", "/api/admin"},
		StudentAreas:   []string{"/student", "/studentdash", "/api/student"},
		AdminLogin:     "/admin",
		StudentLogin:   "/",
	}
}

func underPrefix(path, prefix string) bool {
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(path, prefix)
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func anyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if underPrefix(path, p) {
			return true
		}
	}
	return false
}

func IsAPI(path string) bool { return underPrefix(path, "/api") }

func (p Policy) Classify(path string) Area {
	for _, e := range p.PublicExact {
		if path == e {
			return AreaPublic
		}
	}
	switch {
	case anyPrefix(path, p.PublicPrefixes):
		return AreaPublic
	case anyPrefix(path, p.AdminAreas):
		return AreaAdmin
	case anyPrefix(path, p.StudentAreas):
		return AreaStudent
	default:
		return AreaAuthenticated
	}
}

func (p Policy) loginFor(a Area) string {
	if a == AreaAdmin {
		return p.AdminLogin
	}
	return p.StudentLogin
}

// Decide is pure: claims and verifyErr come from verifying the session
// cookie, and both are nil when there was no cookie.
func (p Policy) Decide(path string, claims *tokens.SessionClaims, verifyErr error) Decision {
	area := p.Classify(path)
	if area == AreaPublic {
		return Decision{Outcome: Allow}
	}

	api := IsAPI(path)
	deny := func(apiOutcome Outcome, clear bool) Decision {
		if api {
			return Decision{Outcome: apiOutcome, ClearCookie: clear}
		}
		return Decision{Outcome: Redirect, Location: p.loginFor(area), ClearCookie: clear}
	}

	if verifyErr != nil {
		return deny(Unauthorized, true)
	}
	if claims == nil {
		return deny(Unauthorized, false)
	}

	switch area {
	case AreaAdmin:
		if claims.Role != models.RoleAdmin {
			return deny(Forbidden, false)
		}
	case AreaStudent:
		if claims.Role != models.RoleStudent {
			return deny(Forbidden, false)
		}
	default:
		if claims.Role != models.RoleAdmin && claims.Role != models.RoleStudent {
			return deny(Forbidden, false)
		}
	}
	return Decision{Outcome: Allow}
}
