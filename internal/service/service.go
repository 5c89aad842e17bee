// Package service implements the Natours business rules on top of the
// repositories.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/logger"
	"github.com/AkshatJain-webdev/Natours/pkg/middleware"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// authorizeOwner allows the caller owning a resource, and admins.
func authorizeOwner(ctx context.Context, ownerID string, denied *apperrors.AppError) error {
	p, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return denied
	}
	if p.Role == domain.RoleAdmin || (ownerID != "" && p.UserID == ownerID) {
		return nil
	}
	return denied
}

func logFor(ctx context.Context, base *slog.Logger) *slog.Logger {
	return logger.WithContext(ctx, base)
}
