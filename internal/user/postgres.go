package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/classroomhq/auth-service/pkg/id"
)

type postgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(db *sql.DB, logger *zap.Logger) Store {
	return &postgresStore{db: db, logger: logger}
}

const (
	insertUserQuery = `
					INSERT INTO users (public_id, email, full_name, password, role)
					VALUES ($1, $2, $3, $4, $5)
					RETURNING id, created_at, updated_at
					`
	selectUserQuery = `
					SELECT id, public_id, email, full_name, password, role, refresh_token, created_at, updated_at
					FROM users
					`
	setRefreshTokenQuery = `
					UPDATE users
					SET refresh_token = $2, updated_at = now()
					WHERE public_id = $1
					`
	rotateRefreshTokenQuery = `
					UPDATE users
					SET refresh_token = $3, updated_at = now()
					WHERE public_id = $1 AND refresh_token = $2
					`
	clearRefreshTokenQuery = `
					UPDATE users
					SET refresh_token = NULL, updated_at = now()
					WHERE public_id = $1
					`
)

func (s *postgresStore) Create(ctx context.Context, input CreateUserInput) (*User, error) {
	u := &User{
		PublicID:     id.New(),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
	}

	row := s.db.QueryRowContext(ctx, insertUserQuery,
		u.PublicID,
		u.Email,
		u.FullName,
		u.PasswordHash,
		u.Role,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			s.logger.Debug("duplicate email", zap.String("email", u.Email))
			return nil, ErrDuplicateEmail
		}
		s.logger.Error("failed to insert user", zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (s *postgresStore) FindByID(ctx context.Context, publicID id.PublicID) (*User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, selectUserQuery+`WHERE public_id = $1`, publicID))
}

func (s *postgresStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.scanOne(s.db.QueryRowContext(ctx, selectUserQuery+`WHERE email = $1`, email))
}

func (s *postgresStore) SetRefreshToken(ctx context.Context, publicID id.PublicID, token string) error {
	res, err := s.db.ExecContext(ctx, setRefreshTokenQuery, publicID, token)
	if err != nil {
		s.logger.Error("failed to set refresh token", zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RotateRefreshToken relies on the WHERE clause for the compare-and-swap:
// the row only updates while the stored token still equals presented, so
// concurrent rotations of the same token have exactly one winner.
func (s *postgresStore) RotateRefreshToken(ctx context.Context, publicID id.PublicID, presented, next string) error {
	res, err := s.db.ExecContext(ctx, rotateRefreshTokenQuery, publicID, presented, next)
	if err != nil {
		s.logger.Error("failed to rotate refresh token", zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a vanished user from a lost race.
		if _, ferr := s.FindByID(ctx, publicID); errors.Is(ferr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrRefreshTokenMismatch
	}
	return nil
}

func (s *postgresStore) ClearRefreshToken(ctx context.Context, publicID id.PublicID) error {
	res, err := s.db.ExecContext(ctx, clearRefreshTokenQuery, publicID)
	if err != nil {
		s.logger.Error("failed to clear refresh token", zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *postgresStore) scanOne(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.PublicID,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&u.Role,
		&u.RefreshToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to scan user", zap.Error(err))
		return nil, err
	}
	return &u, nil
}
