package user

import "errors"

var (
	ErrNotFound             = errors.New("user not found")
	ErrDuplicateEmail       = errors.New("email already exists")
	ErrRefreshTokenMismatch = errors.New("stored refresh token does not match")
)
