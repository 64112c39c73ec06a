package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront/internal/localstore"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned by SignIn when the email or password
// does not match an admin account.
var ErrInvalidCredentials = models.ErrInvalidCredentials

// CredentialStore looks up admin accounts.
type CredentialStore interface {
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
}

// Principal is the authenticated identity. A nil *Principal means nobody
// is signed in.
type Principal struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Session is returned by a successful sign-in
type Session struct {
	Principal Principal
	Token     string
}

// Provider is a visitor's view of the authentication provider. The session
// token lives in the visitor's storage, so a provider is cheap to build per
// request.
type Provider struct {
	tokens  *TokenService
	creds   CredentialStore
	storage localstore.Storage
	logger  *zap.Logger

	mu          sync.Mutex
	subscribers map[int]func(*Principal)
	nextID      int
}

// NewProvider creates a provider for one visitor
func NewProvider(tokens *TokenService, creds CredentialStore, storage localstore.Storage) *Provider {
	return &Provider{
		tokens:      tokens,
		creds:       creds,
		storage:     storage,
		logger:      util.GetLogger(),
		subscribers: make(map[int]func(*Principal)),
	}
}

// SignIn verifies the credentials and starts a session
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := util.StartSpan(ctx, "AuthProvider.SignIn")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	admin, err := p.creds.GetAdminByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	if !CheckPassword(password, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := p.tokens.Generate(admin.ID, admin.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	if err := p.storage.Set(ctx, localstore.KeyAuthToken, token); err != nil {
		return nil, fmt.Errorf("failed to store session token: %w", err)
	}

	principal := Principal{UserID: admin.ID, Email: admin.Email, ExpiresAt: expiresAt}
	p.notify(&principal)

	return &Session{Principal: principal, Token: token}, nil
}

// SignOut ends the current session, if any
func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.storage.Remove(ctx, localstore.KeyAuthToken); err != nil {
		return fmt.Errorf("failed to drop session token: %w", err)
	}
	p.notify(nil)
	return nil
}

// CurrentPrincipal returns the signed-in principal or nil. An expired or
// invalid token counts as signed out and is discarded.
func (p *Provider) CurrentPrincipal(ctx context.Context) *Principal {
	token, ok, err := p.storage.Get(ctx, localstore.KeyAuthToken)
	if err != nil {
		p.logger.Warn("Session token unreadable", zap.Error(err))
		return nil
	}
	if !ok || token == "" {
		return nil
	}

	claims, err := p.tokens.Validate(token)
	if err != nil {
		p.logger.Info("Session no longer valid", zap.Error(err))
		if rmErr := p.storage.Remove(ctx, localstore.KeyAuthToken); rmErr != nil {
			p.logger.Warn("Failed to drop stale session token", zap.Error(rmErr))
		}
		return nil
	}

	return &Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}
}

// OnSessionChange registers cb. It is called immediately with the current
// principal and again after every sign-in or sign-out through this
// provider. The returned function unsubscribes.
func (p *Provider) OnSessionChange(ctx context.Context, cb func(*Principal)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subscribers[id] = cb
	p.mu.Unlock()

	cb(p.CurrentPrincipal(ctx))

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subscribers, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) notify(principal *Principal) {
	p.mu.Lock()
	subs := make([]func(*Principal), 0, len(p.subscribers))
	for _, cb := range p.subscribers {
		subs = append(subs, cb)
	}
	p.mu.Unlock()

	for _, cb := range subs {
		cb(principal)
	}
}
