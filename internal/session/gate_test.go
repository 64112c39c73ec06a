package session

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/auth"
	"storefront/internal/localstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	principal *auth.Principal
	signInErr error

	SignInCalls   int
	SignOutCalls  int
	Subscriptions int
	Unsubscribed  int
}

func (f *fakeProvider) SignIn(_ context.Context, email, _ string) (*auth.Session, error) {
	f.SignInCalls++
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.principal = &auth.Principal{UserID: "admin-1", Email: email}
	return &auth.Session{Principal: *f.principal, Token: "token"}, nil
}

func (f *fakeProvider) SignOut(context.Context) error {
	f.SignOutCalls++
	f.principal = nil
	return nil
}

func (f *fakeProvider) OnSessionChange(_ context.Context, cb func(*auth.Principal)) func() {
	f.Subscriptions++
	cb(f.principal)
	return func() { f.Unsubscribed++ }
}

func newTestGate() (*Gate, *fakeProvider, *localstore.Memory) {
	provider := &fakeProvider{}
	storage := localstore.NewMemory()
	return NewGate(provider, storage), provider, storage
}

func TestPageName(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"admin", "admin"},
		{"admin.html", "admin"},
		{"/shop/admin-orders.html", "admin-orders"},
		{"completed-orders", "completed-orders"},
		{"", ""},
		{"/", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.out, PageName(tt.in), tt.in)
	}
}

func TestIsProtected(t *testing.T) {
	for _, page := range []string{"admin", "admin-orders", "completed-orders", "deleted-orders.html"} {
		assert.True(t, IsProtected(page), page)
	}
	for _, page := range []string{"login", "products", "cart.html", "checkout", "", "Admin"} {
		assert.False(t, IsProtected(page), page)
	}
}

func TestDecide(t *testing.T) {
	principal := &auth.Principal{UserID: "admin-1"}

	tests := []struct {
		name      string
		principal *auth.Principal
		page      string
		expected  Decision
	}{
		{"protected without principal", nil, "admin", Decision{State: Unauthenticated, Redirect: LoginPage, ClearMirror: true}},
		{"protected with principal", principal, "deleted-orders", Decision{State: Authenticated}},
		{"public without principal", nil, "products", Decision{State: Unauthenticated}},
		{"public with principal", principal, "cart", Decision{State: Authenticated}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decide(tt.principal, tt.page))
		})
	}
}

func TestGate_Check_ProtectedWithoutPrincipal_ClearsMirror(t *testing.T) {
	gate, provider, storage := newTestGate()
	ctx := context.Background()
	require.NoError(t, storage.Set(ctx, localstore.KeyAdminMirror, "true"))

	decision, err := gate.Check(ctx, "admin-orders.html")

	require.NoError(t, err)
	assert.False(t, decision.Allowed())
	assert.Equal(t, LoginPage, decision.Redirect)
	assert.False(t, gate.MirrorSet(ctx))
	assert.Equal(t, 1, provider.Subscriptions)
	assert.Equal(t, 1, provider.Unsubscribed)
}

func TestGate_Check_ProtectedWithPrincipal(t *testing.T) {
	gate, provider, storage := newTestGate()
	ctx := context.Background()
	provider.principal = &auth.Principal{UserID: "admin-1"}
	require.NoError(t, storage.Set(ctx, localstore.KeyAdminMirror, "true"))

	decision, err := gate.Check(ctx, "admin")

	require.NoError(t, err)
	assert.True(t, decision.Allowed())
	assert.Equal(t, Authenticated, decision.State)
	assert.True(t, gate.MirrorSet(ctx))
}

func TestGate_Check_PublicPageSkipsProvider(t *testing.T) {
	gate, provider, _ := newTestGate()

	decision, err := gate.Check(context.Background(), "products")

	require.NoError(t, err)
	assert.True(t, decision.Allowed())
	assert.Zero(t, provider.Subscriptions)
}

func TestGate_Check_MirrorIsNotAuthoritative(t *testing.T) {
	gate, _, storage := newTestGate()
	ctx := context.Background()
	// A stale mirror flag without a provider session must not admit the visitor
	require.NoError(t, storage.Set(ctx, localstore.KeyAdminMirror, "true"))

	decision, err := gate.Check(ctx, "admin")

	require.NoError(t, err)
	assert.False(t, decision.Allowed())
}

func TestGate_SignIn_Success(t *testing.T) {
	gate, _, _ := newTestGate()
	ctx := context.Background()

	decision, err := gate.SignIn(ctx, "admin@example.com", "pw")

	require.NoError(t, err)
	assert.Equal(t, Authenticated, decision.State)
	assert.Equal(t, AdminEntryPage, decision.Redirect)
	assert.True(t, gate.MirrorSet(ctx))
}

func TestGate_SignIn_InvalidCredentials(t *testing.T) {
	gate, provider, _ := newTestGate()
	ctx := context.Background()
	provider.signInErr = auth.ErrInvalidCredentials

	decision, err := gate.SignIn(ctx, "admin@example.com", "wrong")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Equal(t, Unauthenticated, decision.State)
	assert.Empty(t, decision.Redirect)
	assert.False(t, gate.MirrorSet(ctx))
}

func TestGate_SignIn_MirrorWriteFailureStillSucceeds(t *testing.T) {
	gate, _, storage := newTestGate()
	storage.Err = errors.New("storage full")

	decision, err := gate.SignIn(context.Background(), "admin@example.com", "pw")

	require.NoError(t, err)
	assert.Equal(t, Authenticated, decision.State)
}

func TestGate_SignOut(t *testing.T) {
	gate, provider, _ := newTestGate()
	ctx := context.Background()
	_, err := gate.SignIn(ctx, "admin@example.com", "pw")
	require.NoError(t, err)

	decision, err := gate.SignOut(ctx)

	require.NoError(t, err)
	assert.Equal(t, LoginPage, decision.Redirect)
	assert.False(t, gate.MirrorSet(ctx))
	assert.Equal(t, 1, provider.SignOutCalls)

	check, err := gate.Check(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, LoginPage, check.Redirect)
}

func TestGate_WithRealProvider(t *testing.T) {
	storage := localstore.NewMemory()
	provider := auth.NewProvider(auth.NewTokenService("test-secret-key-for-testing-purposes", 0), nil, storage)
	gate := NewGate(provider, storage)

	decision, err := gate.Check(context.Background(), "completed-orders")

	require.NoError(t, err)
	assert.Equal(t, LoginPage, decision.Redirect)
}
