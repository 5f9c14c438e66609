package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"familytree/internal/config"
	"familytree/internal/logger"
	"familytree/internal/service"
	"familytree/internal/telemetry"
	"familytree/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const sharedPassword = "family-secret"

type brokenLimiter struct{}

func (brokenLimiter) CheckLogin(context.Context, string) error    { return errors.New("redis down") }
func (brokenLimiter) ResetAttempts(context.Context, string) error { return errors.New("redis down") }

func newAuthenticator(t *testing.T, limiter service.LoginLimiter) *Authenticator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(sharedPassword), bcrypt.MinCost)
	require.NoError(t, err)

	a, err := NewAuthenticator(config.AuthConfig{SharedPasswordHash: string(hash)}, validator.New(), limiter, telemetry.Noop{}, logger.Discard())
	require.NoError(t, err)
	return a
}

func TestLogin(t *testing.T) {
	a := newAuthenticator(t, service.NewMemoryRateLimiter(5, time.Minute))

	tests := []struct {
		name    string
		param   LoginParam
		email   string
		wantErr error
	}{
		{
			name:  "valid",
			param: LoginParam{Email: "  Anna@Example.com ", Password: sharedPassword, IP: "10.0.0.1"},
			email: "anna@example.com",
		},
		{
			name:    "wrong_password",
			param:   LoginParam{Email: "anna@example.com", Password: "guess", IP: "10.0.0.1"},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "invalid_email",
			param:   LoginParam{Email: "anna", Password: sharedPassword},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "missing_password",
			param:   LoginParam{Email: "anna@example.com"},
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := a.Login(context.Background(), tt.param)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, email)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.email, email)
		})
	}
}

func TestLogin_RateLimited(t *testing.T) {
	a := newAuthenticator(t, service.NewMemoryRateLimiter(2, time.Minute))
	ctx := context.Background()
	param := LoginParam{Email: "anna@example.com", Password: "wrong", IP: "10.0.0.1"}

	for i := 0; i < 2; i++ {
		_, err := a.Login(ctx, param)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	param.Password = sharedPassword
	_, err := a.Login(ctx, param)
	assert.ErrorIs(t, err, service.ErrTooManyAttempts)
}

func TestLogin_SuccessResetsAttempts(t *testing.T) {
	a := newAuthenticator(t, service.NewMemoryRateLimiter(2, time.Minute))
	ctx := context.Background()

	_, err := a.Login(ctx, LoginParam{Email: "anna@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Login(ctx, LoginParam{Email: "anna@example.com", Password: sharedPassword})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = a.Login(ctx, LoginParam{Email: "anna@example.com", Password: sharedPassword})
		require.NoError(t, err)
	}
}

func TestLogin_LimiterUnavailable(t *testing.T) {
	a := newAuthenticator(t, brokenLimiter{})

	email, err := a.Login(context.Background(), LoginParam{Email: "anna@example.com", Password: sharedPassword})
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", email)
}

func TestNewAuthenticator(t *testing.T) {
	v := validator.New()
	limiter := service.NewMemoryRateLimiter(5, time.Minute)

	_, err := NewAuthenticator(config.AuthConfig{}, v, limiter, telemetry.Noop{}, logger.Discard())
	assert.ErrorIs(t, err, ErrNoSharedPassword)

	_, err = NewAuthenticator(config.AuthConfig{SharedPasswordHash: "plain"}, v, limiter, telemetry.Noop{}, logger.Discard())
	assert.Error(t, err)

	a, err := NewAuthenticator(config.AuthConfig{SharedPassword: "from-env"}, v, limiter, telemetry.Noop{}, logger.Discard())
	require.NoError(t, err)
	_, err = a.Login(context.Background(), LoginParam{Email: "x@example.com", Password: "from-env"})
	assert.NoError(t, err)
}
