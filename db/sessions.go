package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	"ghdash/core"
	"ghdash/models"
)

type PostgresSessionsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for sessions table
var sessionsColumns = []string{
	"id",
	"user_login",
	"access_token",
	"installation_id",
	"created_at",
	"expires_at",
}

// sessionRow is the nullable on-disk shape of models.Session
type sessionRow struct {
	ID             string         `db:"id"`
	UserLogin      string         `db:"user_login"`
	AccessToken    sql.NullString `db:"access_token"`
	InstallationID sql.NullInt64  `db:"installation_id"`
	CreatedAt      time.Time      `db:"created_at"`
	ExpiresAt      time.Time      `db:"expires_at"`
}

func (r sessionRow) toModel() *models.Session {
	session := &models.Session{
		ID:             r.ID,
		UserLogin:      r.UserLogin,
		AccessToken:    mo.None[string](),
		InstallationID: mo.None[int64](),
		CreatedAt:      r.CreatedAt,
		ExpiresAt:      r.ExpiresAt,
	}
	if r.AccessToken.Valid {
		session.AccessToken = mo.Some(r.AccessToken.String)
	}
	if r.InstallationID.Valid {
		session.InstallationID = mo.Some(r.InstallationID.Int64)
	}
	return session
}

func nullString(value mo.Option[string]) sql.NullString {
	v, ok := value.Get()
	return sql.NullString{String: v, Valid: ok}
}

func nullInt64(value mo.Option[int64]) sql.NullInt64 {
	v, ok := value.Get()
	return sql.NullInt64{Int64: v, Valid: ok}
}

func NewPostgresSessionsRepository(db *sqlx.DB, schema string) *PostgresSessionsRepository {
	return &PostgresSessionsRepository{db: db, schema: schema}
}

// CreateSession inserts the session and refreshes it with the stored timestamps
func (r *PostgresSessionsRepository) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session ID cannot be empty")
	}

	returningStr := strings.Join(sessionsColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.sessions (id, user_login, access_token, installation_id, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW(), $5)
		RETURNING %s`, r.schema, returningStr)

	var row sessionRow
	err := r.db.QueryRowxContext(
		ctx,
		query,
		session.ID,
		session.UserLogin,
		nullString(session.AccessToken),
		nullInt64(session.InstallationID),
		session.ExpiresAt,
	).StructScan(&row)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	*session = *row.toModel()
	return nil
}

func (r *PostgresSessionsRepository) GetSessionByID(ctx context.Context, id string) (mo.Option[*models.Session], error) {
	columnsStr := strings.Join(sessionsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.sessions
		WHERE id = $1`, columnsStr, r.schema)

	var row sessionRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mo.None[*models.Session](), nil
		}
		return mo.None[*models.Session](), fmt.Errorf("failed to get session: %w", err)
	}

	return mo.Some(row.toModel()), nil
}

func (r *PostgresSessionsRepository) DeleteSession(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s.sessions WHERE id = $1`, r.schema)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return core.ErrNotFound
	}

	return nil
}

// DeleteExpiredSessions removes every session that expired before now and returns how many were removed
func (r *PostgresSessionsRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s.sessions WHERE expires_at <= $1`, r.schema)

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	return result.RowsAffected()
}
