package service

import (
	"strings"

	"github.com/resolveit/session-client/internal/core/domain"
)

// RequirementKind selects how a route checks the session.
type RequirementKind string

const (
	RequiresAuthenticated RequirementKind = "authenticated"
	RequiresAnonymous     RequirementKind = "anonymous"
	RequiresRoles         RequirementKind = "roles"
)

// Requirement is the access rule attached to a route.
type Requirement struct {
	Kind  RequirementKind
	Roles []domain.Role
}

func RequireAuthenticated() Requirement { return Requirement{Kind: RequiresAuthenticated} }

// RequireAnonymous is for pages such as login and register that a signed-in
// user has no reason to see.
func RequireAnonymous() Requirement { return Requirement{Kind: RequiresAnonymous} }

// RequireRoles admits an authenticated user whose role is in roles.
func RequireRoles(roles ...domain.Role) Requirement {
	return Requirement{Kind: RequiresRoles, Roles: append([]domain.Role(nil), roles...)}
}

func (r Requirement) String() string {
	if r.Kind != RequiresRoles {
		return string(r.Kind)
	}
	names := make([]string, len(r.Roles))
	for i, role := range r.Roles {
		names[i] = string(role)
	}
	return "roles(" + strings.Join(names, ",") + ")"
}

// Fallbacks are the redirect targets used when a requirement is not met.
type Fallbacks struct {
	Login        string
	Landing      string
	RoleFallback string
}

// DefaultFallbacks mirrors the client's public routes.
func DefaultFallbacks() Fallbacks {
	return Fallbacks{
		Login:        "/login",
		Landing:      "/public-complaints",
		RoleFallback: "/public-complaints",
	}
}

// Verdict is what a guarded route should do with the current session.
type Verdict string

const (
	VerdictRender   Verdict = "render"
	VerdictLoading  Verdict = "loading"
	VerdictRedirect Verdict = "redirect"
)

type Decision struct {
	Verdict  Verdict
	Location string
}

// RouteGuard decides whether a route renders, waits or redirects.
type RouteGuard struct {
	fallbacks Fallbacks
}

func NewRouteGuard(fb Fallbacks) *RouteGuard {
	def := DefaultFallbacks()
	if fb.Login == "" {
		fb.Login = def.Login
	}
	if fb.Landing == "" {
		fb.Landing = def.Landing
	}
	if fb.RoleFallback == "" {
		fb.RoleFallback = def.RoleFallback
	}
	return &RouteGuard{fallbacks: fb}
}

func (g *RouteGuard) Fallbacks() Fallbacks { return g.fallbacks }

// Decide never renders protected content and never redirects while a
// bootstrap is pending. TransientError counts as signed out; the token is
// kept, so a later refresh can still restore the session.
func (g *RouteGuard) Decide(req Requirement, s domain.Session) Decision {
	if !s.State.Settled() {
		return Decision{Verdict: VerdictLoading}
	}
	authed := s.State == domain.StateAuthenticated && s.User != nil

	switch req.Kind {
	case RequiresAnonymous:
		if authed {
			return redirect(g.fallbacks.Landing)
		}
	case RequiresRoles:
		if !authed {
			return redirect(g.fallbacks.Login)
		}
		if !HasAnyRole(s.User, req.Roles...) {
			return redirect(g.fallbacks.RoleFallback)
		}
	case RequiresAuthenticated:
		if !authed {
			return redirect(g.fallbacks.Login)
		}
	default:
		// Unknown requirements fail closed.
		return redirect(g.fallbacks.Login)
	}
	return Decision{Verdict: VerdictRender}
}

func redirect(to string) Decision {
	return Decision{Verdict: VerdictRedirect, Location: to}
}
