package postgres

import (
	"codecalm/internal/common"
	"codecalm/internal/repository/db"
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateSession stores a freshly issued session
func (p *PostgresDB) CreateSession(ctx context.Context, s *db.Session) (*db.Session, error) {
	query := `
	INSERT INTO sessions (user_id, token, user_agent, ip_address, expires_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at
	`

	out := *s
	err := p.conn.QueryRowContext(ctx, query, s.UserID, s.Token, s.UserAgent, s.IPAddress, s.ExpiresAt).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	return &out, nil
}

// GetSessionByToken returns the session whatever its state; callers check IsValid
func (p *PostgresDB) GetSessionByToken(ctx context.Context, token string) (*db.Session, error) {
	query := `
	SELECT id, user_id, token, user_agent, ip_address, created_at, expires_at, revoked
	FROM sessions
	WHERE token = $1
	`

	var s db.Session
	err := p.conn.QueryRowContext(ctx, query, token).
		Scan(&s.ID, &s.UserID, &s.Token, &s.UserAgent, &s.IPAddress, &s.CreatedAt, &s.ExpiresAt, &s.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying session: %w", err)
	}
	return &s, nil
}

// RevokeSession marks the session revoked. Revocation is permanent.
func (p *PostgresDB) RevokeSession(ctx context.Context, token string) error {
	res, err := p.conn.ExecContext(ctx, `UPDATE sessions SET revoked = TRUE WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("error revoking session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error revoking session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session: %w", common.ErrNotFound)
	}
	return nil
}
