package postgres

import (
	"codecalm/internal/common"
	"codecalm/internal/logger"
	"codecalm/internal/repository/db"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const uniqueViolation = "23505"

const userColumns = `id, email, password_hash, full_name, role, is_active, created_at, updated_at`

// CreateUser inserts a new user. A duplicate email yields common.ErrConflict.
func (p *PostgresDB) CreateUser(ctx context.Context, email, passwordHash, fullName, role string) (*db.User, error) {
	user := &db.User{
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Role:         role,
	}

	query := `
	INSERT INTO users (email, password_hash, full_name, role)
	VALUES ($1, $2, $3, $4)
	RETURNING id, is_active, created_at, updated_at
	`

	err := p.conn.QueryRowContext(ctx, query, email, passwordHash, fullName, role).
		Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("user with this email: %w", common.ErrConflict)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("Created new user")
	return user, nil
}

// GetUserByEmail retrieves a user by normalized email
func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(p.conn.QueryRowContext(ctx, query, email))
}

// GetUserByID retrieves a user by id
func (p *PostgresDB) GetUserByID(ctx context.Context, id int64) (*db.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(p.conn.QueryRowContext(ctx, query, id))
}

func scanUser(row *sql.Row) (*db.User, error) {
	var u db.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying user: %w", err)
	}
	return &u, nil
}
