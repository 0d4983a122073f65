package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authsvc "staynest/internal/app/services/auth"
	domainuser "staynest/internal/domain/user"
	"staynest/internal/infra/security"
	"staynest/internal/infra/storage/memory"
)

func newService() *authsvc.Service {
	store := memory.NewStore()
	return &authsvc.Service{
		Users:     memory.UserDirectory{Store: store},
		Sessions:  memory.NewSessionStore(),
		Passwords: security.BcryptHasher{Cost: 4},
		Tokens:    security.RandomTokenGenerator{},
	}
}

func registerGuest(t *testing.T, svc *authsvc.Service) *authsvc.AuthResult {
	t.Helper()
	res, err := svc.Register(context.Background(), authsvc.RegisterParams{
		Email:     "guest@example.com",
		FirstName: "Abebe",
		LastName:  "Kebede",
		Password:  "correct-horse",
		Role:      domainuser.RoleGuest,
	})
	require.NoError(t, err)
	return res
}

func TestRegisterIssuesSession(t *testing.T) {
	svc := newService()
	res := registerGuest(t, svc)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "guest@example.com", res.User.Email)
	assert.Equal(t, domainuser.RoleGuest, res.User.Role)

	resolved, err := svc.ResolveToken(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, resolved.User.ID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newService()
	registerGuest(t, svc)

	_, err := svc.Register(context.Background(), authsvc.RegisterParams{
		Email:     "Guest@Example.com",
		FirstName: "Sara",
		LastName:  "Tesfaye",
		Password:  "another-pass",
		Role:      domainuser.RoleHost,
	})
	assert.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newService()
	_, err := svc.Register(context.Background(), authsvc.RegisterParams{
		Email:     "guest@example.com",
		FirstName: "Abebe",
		Password:  "short",
		Role:      domainuser.RoleGuest,
	})
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	svc := newService()
	registerGuest(t, svc)

	res, err := svc.Login(context.Background(), authsvc.LoginParams{
		Email:    "guest@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Login(context.Background(), authsvc.LoginParams{
		Email:    "guest@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, authsvc.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), authsvc.LoginParams{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	})
	assert.ErrorIs(t, err, authsvc.ErrInvalidCredentials)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	svc := newService()
	res := registerGuest(t, svc)

	require.NoError(t, svc.Logout(context.Background(), res.Token))
	_, err := svc.ResolveToken(context.Background(), res.Token)
	assert.Error(t, err)
}

func TestResolveTokenExpiry(t *testing.T) {
	svc := newService()
	svc.SessionTTL = time.Millisecond
	res := registerGuest(t, svc)

	time.Sleep(5 * time.Millisecond)
	_, err := svc.ResolveToken(context.Background(), res.Token)
	assert.Error(t, err)
}
