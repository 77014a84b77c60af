package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/classroomhq/auth-service/internal/token"
	"github.com/classroomhq/auth-service/internal/user"
	"github.com/classroomhq/auth-service/pkg/id"
)

// TokenPair is the transient result of a successful login or refresh. Only
// the refresh token string is ever persisted, on the user row.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthService interface {
	Register(ctx context.Context, email, fullName, password string, role user.Role) (*user.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, presented string) (*TokenPair, error)
	Logout(ctx context.Context, presented string) error
}

type authService struct {
	store  user.Store
	tokens token.Service
	logger *zap.Logger
}

func NewAuthenticationService(store user.Store, tokens token.Service, logger *zap.Logger) AuthService {
	return &authService{
		store:  store,
		tokens: tokens,
		logger: logger,
	}
}

func (a *authService) Register(ctx context.Context, email, fullName, password string, role user.Role) (*user.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		a.logger.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	return a.store.Create(ctx, user.CreateUserInput{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hashed),
		Role:         role,
	})
}

func (a *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	u, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Run the hash anyway so lookup misses cost the same as mismatches.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		a.logger.Debug("password mismatch", zap.String("user_id", u.PublicID.String()))
		return nil, ErrInvalidCredentials
	}

	return a.issuePair(ctx, u)
}

// Refresh rotates the stored refresh token. A presented token that verifies
// but does not match the stored value is treated as reuse of a superseded
// token: the stored token is cleared so the whole session family dies.
func (a *authService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := a.tokens.VerifyRefresh(presented)
	if err != nil {
		a.logger.Debug("refresh token failed verification", zap.Error(err))
		return nil, ErrUnauthenticated
	}

	sub, err := id.Parse(claims.Sub.String())
	if err != nil {
		return nil, ErrUnauthenticated
	}

	u, err := a.store.FindByID(ctx, sub)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	if u.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*u.RefreshToken), []byte(presented)) != 1 {
		// Reuse signal: lock the whole session out, then reject.
		a.logger.Warn("superseded refresh token presented, revoking session",
			zap.String("user_id", u.PublicID.String()),
		)
		if err := a.store.ClearRefreshToken(ctx, u.PublicID); err != nil {
			a.logger.Error("failed to revoke refresh token", zap.Error(err))
		}
		return nil, ErrUnauthenticated
	}

	return a.rotatePair(ctx, u, presented)
}

func (a *authService) Logout(ctx context.Context, presented string) error {
	if presented == "" {
		return ErrUnauthenticated
	}
	claims, err := a.tokens.VerifyRefresh(presented)
	if err != nil {
		return ErrUnauthenticated
	}
	sub, err := id.Parse(claims.Sub.String())
	if err != nil {
		return ErrUnauthenticated
	}
	if err := a.store.ClearRefreshToken(ctx, sub); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUnauthenticated
		}
		return err
	}
	return nil
}

// issuePair issues a fresh token pair and overwrites any stored refresh
// token, which is what makes the previous one invalid.
func (a *authService) issuePair(ctx context.Context, u *user.User) (*TokenPair, error) {
	pair, err := a.signPair(u)
	if err != nil {
		return nil, err
	}
	if err := a.store.SetRefreshToken(ctx, u.PublicID, pair.RefreshToken); err != nil {
		return nil, err
	}
	return pair, nil
}

// rotatePair is the conditional variant used on refresh: the write only
// lands if the stored token still equals presented, so of two concurrent
// refreshes with the same token exactly one wins.
func (a *authService) rotatePair(ctx context.Context, u *user.User, presented string) (*TokenPair, error) {
	pair, err := a.signPair(u)
	if err != nil {
		return nil, err
	}
	if err := a.store.RotateRefreshToken(ctx, u.PublicID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, user.ErrRefreshTokenMismatch) || errors.Is(err, user.ErrNotFound) {
			a.logger.Debug("lost refresh rotation race", zap.String("user_id", u.PublicID.String()))
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return pair, nil
}

func (a *authService) signPair(u *user.User) (*TokenPair, error) {
	access, err := a.tokens.IssueAccess(u)
	if err != nil {
		a.logger.Error("failed to sign access token", zap.Error(err))
		return nil, err
	}
	refresh, err := a.tokens.IssueRefresh(u.PublicID)
	if err != nil {
		a.logger.Error("failed to sign refresh token", zap.Error(err))
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// dummyHash is a bcrypt hash of an unguessable throwaway value, compared
// against when the email lookup misses.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("auth-service-dummy"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()
