package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/AkshatJain-webdev/Natours/internal/auth"
	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/event"
	"github.com/AkshatJain-webdev/Natours/internal/repository"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
)

// Errors returned by the auth flows.
var (
	ErrMissingCredentials = apperrors.InvalidInput("Please provide email and password!")
	ErrBadCredentials     = apperrors.Unauthenticated("Incorrect email or password")
	ErrUnknownEmail       = apperrors.NotFound("There is no user with that email address.")
	ErrResetTokenInvalid  = apperrors.InvalidInput("Token is invalid or has expired")
	ErrWrongPassword      = apperrors.Unauthenticated("Your current password is wrong.")
)

// AccountMailer sends the account emails.
type AccountMailer interface {
	SendWelcome(ctx context.Context, u *domain.User, url string) error
	SendPasswordReset(ctx context.Context, u *domain.User, resetURL string) error
}

// Session is a logged-in user and their signed token.
type Session struct {
	User  *domain.User
	Token string
}

// SignupInput holds the fields accepted on signup. Role and photo are
// never taken from the request.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

// AuthService implements signup, login and the password flows.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	mailer AccountMailer
	events *event.Producer
	logger *slog.Logger
	now    Clock
	cost   int
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	mailer AccountMailer,
	events *event.Producer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		mailer: mailer,
		events: events,
		logger: logger,
		now:    utcNow,
		cost:   bcryptCost,
	}
}

// Signup creates an account, greets the user and logs them in. accountURL
// is linked from the welcome email.
func (s *AuthService) Signup(ctx context.Context, in SignupInput, accountURL string) (*Session, error) {
	u := &domain.User{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Email:     in.Email,
		Role:      domain.RoleUser,
		Active:    true,
		CreatedAt: s.now(),
	}
	u.Normalize()
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(in.Password, in.PasswordConfirm); err != nil {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash

	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	log := logFor(ctx, s.logger)
	if err := s.mailer.SendWelcome(ctx, u, accountURL); err != nil {
		log.WarnContext(ctx, "failed to send welcome email",
			slog.String("user_id", u.ID),
			slog.String("error", err.Error()),
		)
	}
	s.events.UserRegistered(ctx, u)

	log.InfoContext(ctx, "user signed up", slog.String("user_id", u.ID))
	return s.session(u)
}

// Login checks the email and password of an active user.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}

	logFor(ctx, s.logger).InfoContext(ctx, "user logged in", slog.String("user_id", u.ID))
	return s.session(u)
}

// ForgotPassword stores a reset token and mails its raw form appended to
// resetBaseURL. If the email cannot be sent the token is discarded.
func (s *AuthService) ForgotPassword(ctx context.Context, email, resetBaseURL string) error {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ErrUnknownEmail
		}
		return fmt.Errorf("get user by email: %w", err)
	}

	token, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	expires := token.ExpiresAt.UTC()
	u.PasswordResetToken = token.Hash
	u.PasswordResetExpires = &expires
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, u, resetBaseURL+"/"+token.Raw); err != nil {
		u.PasswordResetToken = ""
		u.PasswordResetExpires = nil
		if clearErr := s.users.Update(ctx, u); clearErr != nil {
			logFor(ctx, s.logger).ErrorContext(ctx, "failed to clear reset token",
				slog.String("user_id", u.ID),
				slog.String("error", clearErr.Error()),
			)
		}
		return apperrors.EmailDelivery(err)
	}

	s.events.PasswordResetRequested(ctx, u)
	return nil
}

// ResetPassword sets a new password for the holder of an unexpired reset
// token and logs them in.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, password, confirm string) (*Session, error) {
	u, err := s.users.GetByResetToken(ctx, auth.HashResetToken(rawToken), s.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("get user by reset token: %w", err)
	}
	if err := s.setPassword(u, password, confirm); err != nil {
		return nil, err
	}
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil

	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("reset password: %w", err)
	}
	logFor(ctx, s.logger).InfoContext(ctx, "password reset", slog.String("user_id", u.ID))
	return s.session(u)
}

// UpdatePassword replaces the password of a logged-in user after checking
// the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, current, password, confirm string) (*Session, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return nil, ErrWrongPassword
	}
	if err := s.setPassword(u, password, confirm); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}
	logFor(ctx, s.logger).InfoContext(ctx, "password updated", slog.String("user_id", u.ID))
	return s.session(u)
}

// setPassword validates and hashes a new password. The change is dated one
// second back so the token issued right after it stays valid.
func (s *AuthService) setPassword(u *domain.User, password, confirm string) error {
	if err := domain.ValidatePassword(password, confirm); err != nil {
		return err
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	changed := s.now().Add(-time.Second)
	u.PasswordHash = hash
	u.PasswordChangedAt = &changed
	return nil
}

func (s *AuthService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (s *AuthService) session(u *domain.User) (*Session, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}
