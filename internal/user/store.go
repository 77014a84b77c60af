package user

import (
	"context"

	"github.com/classroomhq/auth-service/pkg/id"
)

// Store is the narrow credential-store contract the auth service runs on.
// Refresh-token writes are the only mutations with ordering requirements:
// SetRefreshToken overwrites unconditionally (login), RotateRefreshToken is
// a compare-and-swap so two concurrent rotations of the same token cannot
// both succeed.
type Store interface {
	Create(ctx context.Context, input CreateUserInput) (*User, error)
	FindByID(ctx context.Context, publicID id.PublicID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// SetRefreshToken replaces any stored refresh token with token.
	SetRefreshToken(ctx context.Context, publicID id.PublicID, token string) error

	// RotateRefreshToken swaps presented for next only if the stored value
	// still equals presented. Returns ErrRefreshTokenMismatch when the stored
	// value changed underneath the caller, ErrNotFound when the user is gone.
	RotateRefreshToken(ctx context.Context, publicID id.PublicID, presented, next string) error

	// ClearRefreshToken revokes the stored refresh token, if any.
	ClearRefreshToken(ctx context.Context, publicID id.PublicID) error
}
