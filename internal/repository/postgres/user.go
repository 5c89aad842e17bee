package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/query"
	"github.com/AkshatJain-webdev/Natours/pkg/database"
)

const userColumns = `u.id, u.name, u.email, u.photo, u.role, u.password_hash, u.password_changed_at,
		COALESCE(u.password_reset_token, ''), u.password_reset_expires, u.active, u.created_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	stmt := `
		INSERT INTO users (id, name, email, photo, role, password_hash, password_changed_at, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	ctx, end := database.TraceQuery(ctx, "CreateUser", stmt)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, stmt,
		u.ID,
		u.Name,
		u.Email,
		u.Photo,
		u.Role,
		u.PasswordHash,
		u.PasswordChangedAt,
		u.Active,
		u.CreatedAt,
	)
	return translate(err, "user", "insert user")
}

// GetByID retrieves an active user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, "GetUserByID", domain.ActiveUsers, query.Scope{SQL: "u.id = ?", Args: []any{id}})
}

// GetByEmail retrieves an active user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, "GetUserByEmail", domain.ActiveUsers, query.Scope{SQL: "u.email = ?", Args: []any{email}})
}

// GetByResetToken retrieves the user holding an unexpired reset token.
func (r *UserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	return r.get(ctx, "GetUserByResetToken",
		domain.ActiveUsers,
		query.Scope{SQL: "u.password_reset_token = ?", Args: []any{tokenHash}},
		query.Scope{SQL: "u.password_reset_expires > ?", Args: []any{now}},
	)
}

func (r *UserRepository) get(ctx context.Context, op string, scopes ...query.Scope) (u *domain.User, err error) {
	where, args := query.Scoped(scopes...).Where(0)
	stmt := selectStatement("SELECT "+userColumns, "FROM users u", where)

	ctx, end := database.TraceQuery(ctx, op, stmt)
	defer func() { end(err) }()

	u, err = scanUser(r.pool.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, translate(err, "user", "get user")
	}
	return u, nil
}

// Update writes every stored field of u.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	stmt := `
		UPDATE users
		SET name = $1, email = $2, photo = $3, role = $4, password_hash = $5, password_changed_at = $6,
		    password_reset_token = NULLIF($7, ''), password_reset_expires = $8, active = $9
		WHERE id = $10`

	return execAffecting(ctx, r.pool, "UpdateUser", "user", stmt,
		u.Name,
		u.Email,
		u.Photo,
		u.Role,
		u.PasswordHash,
		u.PasswordChangedAt,
		u.PasswordResetToken,
		u.PasswordResetExpires,
		u.Active,
		u.ID,
	)
}

// Deactivate soft-deletes an active user.
func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	return execAffecting(ctx, r.pool, "DeactivateUser", "user",
		`UPDATE users SET active = false WHERE id = $1 AND active = true`, id)
}

// Delete removes a user row.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return execAffecting(ctx, r.pool, "DeleteUser", "user", `DELETE FROM users WHERE id = $1`, id)
}

// Find returns the users selected by q.
func (r *UserRepository) Find(ctx context.Context, q *query.Query) (users []domain.User, err error) {
	where, args := q.Where(0)
	stmt := selectStatement("SELECT "+userColumns, "FROM users u", where, q.OrderBy(), q.LimitOffset())

	ctx, end := database.TraceQuery(ctx, "FindUsers", stmt)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer rows.Close()

	users = []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}

// Count returns how many users q selects.
func (r *UserRepository) Count(ctx context.Context, q *query.Query) (int, error) {
	return count(ctx, r.pool, "CountUsers", "FROM users u", q)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Photo,
		&u.Role,
		&u.PasswordHash,
		&u.PasswordChangedAt,
		&u.PasswordResetToken,
		&u.PasswordResetExpires,
		&u.Active,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
