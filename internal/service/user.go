package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/query"
	"github.com/AkshatJain-webdev/Natours/internal/repository"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
)

// ErrPasswordViaUpdateMe rejects password fields sent to updateMe.
var ErrPasswordViaUpdateMe = apperrors.InvalidInput("This route is not for password updates. Please use /updateMyPassword.")

// UpdateMeInput holds the profile fields a user may change. Nil fields
// are left alone.
type UpdateMeInput struct {
	Name  *string
	Email *string
	Photo *string
}

// UserService manages accounts for their owners and for admins.
type UserService struct {
	users  repository.UserRepository
	tours  repository.TourRepository
	logger *slog.Logger
	now    Clock
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, tours repository.TourRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, tours: tours, logger: logger, now: utcNow}
}

// GetActive loads an active user. It backs the session guard.
func (s *UserService) GetActive(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create inserts a user without a password. Such accounts can only log in
// after a password reset.
func (s *UserService) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.Normalize()
	u.Active = true
	u.CreatedAt = s.now()
	if err := u.Validate(); err != nil {
		return err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Get returns an active user.
func (s *UserService) Get(ctx context.Context, id string, _ ...string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Update applies an admin patch. Password fields are not serialized and
// can never be patched this way.
func (s *UserService) Update(ctx context.Context, id string, patch map[string]any) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.ApplyPatch(u, patch); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	logFor(ctx, s.logger).InfoContext(ctx, "user deleted", slog.String("deleted_user_id", id))
	return nil
}

// Find lists active users.
func (s *UserService) Find(ctx context.Context, q *query.Query) ([]domain.User, error) {
	return s.users.Find(ctx, q.WithScope(domain.ActiveUsers))
}

// Count counts active users.
func (s *UserService) Count(ctx context.Context, q *query.Query) (int, error) {
	return s.users.Count(ctx, q.WithScope(domain.ActiveUsers))
}

// UpdateMe changes the caller's own name, email or photo.
func (s *UserService) UpdateMe(ctx context.Context, userID string, in UpdateMeInput) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Photo != nil {
		u.Photo = *in.Photo
	}
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteMe deactivates the caller's account.
func (s *UserService) DeleteMe(ctx context.Context, userID string) error {
	if err := s.users.Deactivate(ctx, userID); err != nil {
		return err
	}
	logFor(ctx, s.logger).InfoContext(ctx, "user deactivated", slog.String("user_id", userID))
	return nil
}

// MyTours lists the tours the user has booked.
func (s *UserService) MyTours(ctx context.Context, userID string) ([]domain.Tour, error) {
	return s.tours.BookedBy(ctx, userID)
}

func (s *UserService) save(ctx context.Context, u *domain.User) error {
	u.Normalize()
	if err := u.Validate(); err != nil {
		return err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
