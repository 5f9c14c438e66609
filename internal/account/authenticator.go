package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"familytree/internal/config"
	"familytree/internal/service"
	"familytree/internal/telemetry"
	"familytree/internal/validator"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrNoSharedPassword   = errors.New("no shared password configured")
)

// Authenticator checks the family's shared password. Any well-formed email
// may sign in with it; the email only identifies the visitor in logs and
// the session.
type Authenticator struct {
	logger       *slog.Logger
	validator    *validator.Validator
	limiter      service.LoginLimiter
	recorder     telemetry.Recorder
	passwordHash []byte
}

// NewAuthenticator prefers a configured bcrypt hash and otherwise hashes
// the plain shared password once.
func NewAuthenticator(cfg config.AuthConfig, v *validator.Validator, limiter service.LoginLimiter, recorder telemetry.Recorder, logger *slog.Logger) (*Authenticator, error) {
	var hash []byte
	switch {
	case cfg.SharedPasswordHash != "":
		hash = []byte(cfg.SharedPasswordHash)
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, fmt.Errorf("invalid shared password hash: %w", err)
		}
	case cfg.SharedPassword != "":
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.SharedPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash shared password: %w", err)
		}
	default:
		return nil, ErrNoSharedPassword
	}

	return &Authenticator{
		logger:       logger,
		validator:    v,
		limiter:      limiter,
		recorder:     recorder,
		passwordHash: hash,
	}, nil
}

type LoginParam struct {
	Email    string `json:"email" form:"email" validate:"required,email,max=254"`
	Password string `json:"password" form:"password" validate:"required"`
	IP       string `json:"-" form:"-" validate:"-"`
}

// Login returns the normalized email on success.
func (a *Authenticator) Login(ctx context.Context, param LoginParam) (string, error) {
	param.Email = strings.ToLower(strings.TrimSpace(param.Email))

	if err := a.validator.Validate(param); err != nil {
		a.recorder.RecordLoginAttempt(ctx, false, "invalid_input")
		if _, bad := validator.FieldErrors(err)["email"]; bad {
			return "", ErrInvalidEmail
		}
		return "", ErrInvalidCredentials
	}

	key := param.Email + "|" + param.IP
	if err := a.limiter.CheckLogin(ctx, key); err != nil {
		if errors.Is(err, service.ErrTooManyAttempts) {
			a.recorder.RecordLoginAttempt(ctx, false, "rate_limited")
			a.logger.WarnContext(ctx, "Login rate limited", "email", param.Email, "ip", param.IP)
			return "", err
		}
		// The limiter store being down must not lock the family out.
		a.logger.ErrorContext(ctx, "Login rate limiter unavailable", "error", err)
	}

	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(param.Password)); err != nil {
		a.recorder.RecordLoginAttempt(ctx, false, "invalid_password")
		a.logger.InfoContext(ctx, "Login failed", "email", param.Email, "ip", param.IP)
		return "", ErrInvalidCredentials
	}

	if err := a.limiter.ResetAttempts(ctx, key); err != nil {
		a.logger.WarnContext(ctx, "Failed to reset login attempts", "error", err)
	}

	a.recorder.RecordLoginAttempt(ctx, true, "")
	a.logger.InfoContext(ctx, "Login succeeded", "email", param.Email)
	return param.Email, nil
}
