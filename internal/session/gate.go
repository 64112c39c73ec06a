// Package session decides page admission for the admin area. The
// authoritative signal is always the auth provider; the adminLoggedIn
// mirror flag in client-local storage only avoids rendering protected
// content before that check finishes.
package session

import (
	"context"
	"fmt"
	"path"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/localstore"
	"storefront/internal/util"

	"go.uber.org/zap"
)

const (
	LoginPage      = "login"
	AdminEntryPage = "admin"

	mirrorValue = "true"
)

// ProtectedPages is the fixed set of pages that need a signed-in admin.
var ProtectedPages = map[string]struct{}{
	"admin":            {},
	"admin-orders":     {},
	"completed-orders": {},
	"deleted-orders":   {},
}

// State of the gate's state machine.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Decision is the outcome of a page check.
type Decision struct {
	State State
	// Redirect is the page to navigate to, empty when the page may render.
	Redirect string
	// ClearMirror asks for the adminLoggedIn flag to be removed.
	ClearMirror bool
}

// Allowed reports whether the page may render.
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// PageName normalises "/site/admin-orders.html" to "admin-orders".
func PageName(raw string) string {
	name := path.Base(strings.TrimSpace(raw))
	name = strings.TrimSuffix(name, ".html")
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// IsProtected reports whether page belongs to the protected set.
func IsProtected(page string) bool {
	_, ok := ProtectedPages[PageName(page)]
	return ok
}

// Decide maps the current principal and page to a decision. It has no side
// effects.
func Decide(principal *auth.Principal, page string) Decision {
	if principal != nil {
		return Decision{State: Authenticated}
	}
	if IsProtected(page) {
		return Decision{State: Unauthenticated, Redirect: LoginPage, ClearMirror: true}
	}
	return Decision{State: Unauthenticated}
}

// Provider is the part of the auth provider the gate needs.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context) error
	OnSessionChange(ctx context.Context, cb func(*auth.Principal)) func()
}

// Gate applies decisions to one visitor's storage.
type Gate struct {
	provider Provider
	storage  localstore.Storage
	logger   *zap.Logger
}

// NewGate creates a gate for a visitor
func NewGate(provider Provider, storage localstore.Storage) *Gate {
	return &Gate{
		provider: provider,
		storage:  storage,
		logger:   util.GetLogger(),
	}
}

// Check runs once per page load. Pages outside the protected set are
// allowed without consulting the provider.
func (g *Gate) Check(ctx context.Context, page string) (Decision, error) {
	if !IsProtected(page) {
		return Decision{State: Unauthenticated}, nil
	}

	var decision Decision
	seen := false
	unsubscribe := g.provider.OnSessionChange(ctx, func(p *auth.Principal) {
		if seen {
			return
		}
		seen = true
		decision = Decide(p, page)
	})
	unsubscribe()

	if decision.ClearMirror {
		util.GateRedirectsTotal.WithLabelValues(PageName(page)).Inc()
		if err := g.storage.Remove(ctx, localstore.KeyAdminMirror); err != nil {
			return decision, fmt.Errorf("failed to clear session mirror: %w", err)
		}
		g.logger.Info("Protected page requested without session, redirecting",
			zap.String("page", PageName(page)))
	}
	return decision, nil
}

// SignIn moves the gate to Authenticated on success: the mirror flag is set
// and the redirect points at the admin entry page. On failure the error is
// returned unchanged and the mirror is left alone.
func (g *Gate) SignIn(ctx context.Context, email, password string) (Decision, error) {
	if _, err := g.provider.SignIn(ctx, email, password); err != nil {
		util.SignInsTotal.WithLabelValues("rejected").Inc()
		return Decision{State: Unauthenticated}, err
	}
	util.SignInsTotal.WithLabelValues("ok").Inc()

	if err := g.storage.Set(ctx, localstore.KeyAdminMirror, mirrorValue); err != nil {
		// The provider session is authoritative, so a lost mirror is only logged.
		g.logger.Warn("Failed to set session mirror", zap.Error(err))
	}
	return Decision{State: Authenticated, Redirect: AdminEntryPage}, nil
}

// SignOut moves the gate to Unauthenticated and redirects to login.
func (g *Gate) SignOut(ctx context.Context) (Decision, error) {
	if err := g.provider.SignOut(ctx); err != nil {
		return Decision{}, fmt.Errorf("failed to sign out: %w", err)
	}
	if err := g.storage.Remove(ctx, localstore.KeyAdminMirror); err != nil {
		g.logger.Warn("Failed to clear session mirror", zap.Error(err))
	}
	return Decision{State: Unauthenticated, Redirect: LoginPage, ClearMirror: true}, nil
}

// MirrorSet reads the advisory adminLoggedIn flag.
func (g *Gate) MirrorSet(ctx context.Context) bool {
	v, ok, err := g.storage.Get(ctx, localstore.KeyAdminMirror)
	return err == nil && ok && v == mirrorValue
}
