package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists sessions in the portal_session table so sessions survive
// restarts and are shared across replicas.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Store over the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// EnsureSchema creates the portal_session table if it does not exist. The
// gateway owns exactly this one table; everything else lives upstream.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS portal_session (
			id UUID PRIMARY KEY,
			token TEXT NOT NULL UNIQUE,
			state TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT '',
			pending_user_id TEXT NOT NULL DEFAULT '',
			upstream_access_token TEXT NOT NULL DEFAULT '',
			upstream_refresh_token TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS portal_session_expires_at_idx ON portal_session (expires_at)`)
	return err
}

const sessionCols = `id, token, state, user_id, role, pending_user_id,
	upstream_access_token, upstream_refresh_token, created_at, last_seen_at, expires_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	var state string
	err := row.Scan(&s.ID, &s.Token, &state, &s.UserID, &s.Role, &s.PendingUserID,
		&s.UpstreamAccessToken, &s.UpstreamRefreshToken, &s.CreatedAt, &s.LastSeenAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.State = State(state)
	return &s, nil
}

func (p *PGStore) Create(ctx context.Context, s *Session) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO portal_session (id, token, state, user_id, role, pending_user_id,
			upstream_access_token, upstream_refresh_token, created_at, last_seen_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		s.ID, s.Token, string(s.State), s.UserID, s.Role, s.PendingUserID,
		s.UpstreamAccessToken, s.UpstreamRefreshToken, s.CreatedAt, s.LastSeenAt, s.ExpiresAt)
	return err
}

func (p *PGStore) GetByToken(ctx context.Context, token string) (*Session, error) {
	return scanSession(p.pool.QueryRow(ctx,
		`SELECT `+sessionCols+` FROM portal_session WHERE token = $1`, token))
}

func (p *PGStore) Update(ctx context.Context, s *Session) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE portal_session SET state=$2, user_id=$3, role=$4, pending_user_id=$5,
			upstream_access_token=$6, upstream_refresh_token=$7, last_seen_at=$8, expires_at=$9
		WHERE token = $1`,
		s.Token, string(s.State), s.UserID, s.Role, s.PendingUserID,
		s.UpstreamAccessToken, s.UpstreamRefreshToken, s.LastSeenAt, s.ExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PGStore) Delete(ctx context.Context, token string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM portal_session WHERE token = $1`, token)
	return err
}

// DeleteExpired removes both absolutely expired and idle-expired rows; both
// carry upstream tokens and neither may outlive its window on disk.
func (p *PGStore) DeleteExpired(ctx context.Context, now time.Time, idle time.Duration) (int, error) {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM portal_session WHERE expires_at < $1 OR last_seen_at < $2`,
		now, now.Add(-idle))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
