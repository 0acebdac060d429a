package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bus_pass/internal/events"
	"github.com/Skotchmaster/bus_pass/internal/models"
	"github.com/Skotchmaster/bus_pass/internal/transport"
)

func newTestAuthService(t *testing.T) (*AuthService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return &AuthService{
		Store:      newStore(t),
		Tokens:     newIssuer(t),
		Events:     pub,
		SessionTTL: time.Hour,
		BcryptCost: testCost,
	}, pub
}

func TestAuthService_SignupThenLogin(t *testing.T) {
	t.Parallel()

	svc, pub := newTestAuthService(t)
	ctx := context.Background()

	res, err := svc.Signup(ctx, transport.SignupRequest{Name: "Asha", Email: " Asha@X.com ", Password: "pw"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, "asha@x.com", res.Account.Email)
	assert.Equal(t, models.RoleStudent, res.Account.Role)
	assert.Equal(t, []string{events.AccountCreated}, pub.types())

	claims, err := svc.Tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, claims.UserID())
	assert.Equal(t, models.RoleStudent, claims.Role)

	login, err := svc.Login(ctx, "asha@x.com", "pw", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, login.Account.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), login.ExpiresAt, 5*time.Second)
}

func TestAuthService_SignupDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, transport.SignupRequest{Name: "A", Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, transport.SignupRequest{Name: "B", Email: "A@x.com", Password: "pw2"})
	require.ErrorIs(t, err, ErrConflict)

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"email"}, ce.Fields)
}

func TestAuthService_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{name: "signup without name", run: func() error {
			_, err := svc.Signup(ctx, transport.SignupRequest{Email: "a@x.com", Password: "pw"})
			return err
		}},
		{name: "signup without password", run: func() error {
			_, err := svc.Signup(ctx, transport.SignupRequest{Name: "A", Email: "a@x.com"})
			return err
		}},
		{name: "login without email", run: func() error {
			_, err := svc.Login(ctx, "", "pw", "")
			return err
		}},
		{name: "login with unknown role", run: func() error {
			_, err := svc.Login(ctx, "a@x.com", "pw", "driver")
			return err
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), ErrValidation)
		})
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, created, err := svc.EnsureAdmin(ctx, "root@x.com", "adminpw", "Root")
	require.NoError(t, err)
	require.True(t, created)

	imported := models.Account{Email: "nopw@x.com", Role: models.RoleStudent}
	require.NoError(t, svc.Store.Create(ctx, &imported))

	tests := []struct {
		name     string
		email    string
		password string
		role     string
	}{
		{name: "unknown email", email: "ghost@x.com", password: "pw"},
		{name: "wrong password", email: "root@x.com", password: "nope"},
		{name: "admin logging in as student", email: "root@x.com", password: "adminpw", role: models.RoleStudent},
		{name: "account without password", email: "nopw@x.com", password: "anything"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Login(ctx, tt.email, tt.password, tt.role)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}

	res, err := svc.Login(ctx, "root@x.com", "adminpw", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, res.Account.IsAdmin())
}

func TestAuthService_EnsureAdminIsIdempotent(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	first, created, err := svc.EnsureAdmin(ctx, "root@x.com", "pw", "Root")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := svc.EnsureAdmin(ctx, "ROOT@x.com", "other", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
}

func TestAuthService_LoginStoreError(t *testing.T) {
	t.Parallel()

	svc := &AuthService{Store: brokenStore{}, Tokens: newIssuer(t), SessionTTL: time.Hour}
	_, err := svc.Login(context.Background(), "a@x.com", "pw", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, errStoreDown)
}
