// Package postgres is a [reporterAuth.UserStore] over PostgreSQL, using
// database/sql with the pgx driver and goose migrations.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	reporterAuth "github.com/MrEthical07/reporterAuth"
	"github.com/MrEthical07/reporterAuth/userstore/postgres/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const (
	uniqueViolation = "23505"
	// Raised when a path id is not a valid uuid.
	invalidTextRepresentation = "22P02"
)

const userColumns = `id, username, email, password_hash, role, email_verified,
	email_otp_digest, email_otp_expires_at, login_otp_digest, login_otp_expires_at,
	previous_password_hashes, created_at, updated_at`

// Store implements [reporterAuth.UserStore].
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects with the pgx driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	const op = "postgres.Open"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return db, nil
}

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	const op = "postgres.Migrate"

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := gooseUp(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*reporterAuth.UserRecord, error) {
	var (
		u                  reporterAuth.UserRecord
		role               string
		emailExp, loginExp sql.NullTime
		history            []byte
	)
	err := row.Scan(
		&u.UserID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.EmailVerified,
		&u.EmailOTP.Digest, &emailExp, &u.LoginOTP.Digest, &loginExp,
		&history, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, sql.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation) {
			return nil, reporterAuth.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.Role = reporterAuth.Role(role)
	if emailExp.Valid {
		u.EmailOTP.ExpiresAt = emailExp.Time
	}
	if loginExp.Valid {
		u.LoginOTP.ExpiresAt = loginExp.Time
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &u.PreviousPasswordHashes); err != nil {
			return nil, fmt.Errorf("decode password history: %w", err)
		}
	}
	return &u, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func encodeHistory(h []string) (string, error) {
	if h == nil {
		h = []string{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return reporterAuth.ErrDuplicateEmail
	}
	return fmt.Errorf("db error: %w", err)
}

func (s *Store) CreateUser(ctx context.Context, u *reporterAuth.UserRecord) error {
	history, err := encodeHistory(u.PreviousPasswordHashes)
	if err != nil {
		return err
	}

	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = s.db.ExecContext(ctx, query,
		u.UserID, u.Username, u.Email, u.PasswordHash, string(u.Role), u.EmailVerified,
		u.EmailOTP.Digest, nullTime(u.EmailOTP.ExpiresAt), u.LoginOTP.Digest, nullTime(u.LoginOTP.ExpiresAt),
		history, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*reporterAuth.UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*reporterAuth.UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) ListUsers(ctx context.Context) ([]*reporterAuth.UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*reporterAuth.UserRecord
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// UpdateUser locks the row with SELECT ... FOR UPDATE, applies mutate and
// writes the result in the same transaction.
func (s *Store) UpdateUser(ctx context.Context, id string, mutate func(*reporterAuth.UserRecord) error) (*reporterAuth.UserRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	u, err := scanUser(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := mutate(u); err != nil {
		return nil, err
	}
	u.UserID = id

	history, err := encodeHistory(u.PreviousPasswordHashes)
	if err != nil {
		return nil, err
	}

	update := `UPDATE users SET
		username = $2, email = $3, password_hash = $4, role = $5, email_verified = $6,
		email_otp_digest = $7, email_otp_expires_at = $8, login_otp_digest = $9, login_otp_expires_at = $10,
		previous_password_hashes = $11, updated_at = $12
		WHERE id = $1`

	_, err = tx.ExecContext(ctx, update,
		id, u.Username, u.Email, u.PasswordHash, string(u.Role), u.EmailVerified,
		u.EmailOTP.Digest, nullTime(u.EmailOTP.ExpiresAt), u.LoginOTP.Digest, nullTime(u.LoginOTP.ExpiresAt),
		history, u.UpdatedAt,
	)
	if err != nil {
		return nil, mapWriteError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (*reporterAuth.UserRecord, error) {
	query := `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}
