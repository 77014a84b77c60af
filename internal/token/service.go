package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/classroomhq/auth-service/internal/config"
	"github.com/classroomhq/auth-service/internal/user"
	"github.com/classroomhq/auth-service/pkg/id"
)

// Service signs and verifies token pairs. It holds no state beyond the
// injected configuration and performs no I/O.
type Service interface {
	IssueAccess(u *user.User) (string, error)
	IssueRefresh(sub id.PublicID) (string, error)
	VerifyAccess(tokenString string) (*AccessClaims, error)
	VerifyRefresh(tokenString string) (*RefreshClaims, error)
}

type service struct {
	cfg        *config.JWTConfig
	signingAlg jwt.SigningMethod
	now        func() time.Time
}

func NewService(cfg *config.JWTConfig) Service {
	return &service{
		cfg:        cfg,
		signingAlg: jwt.SigningMethodHS256,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) IssueAccess(u *user.User) (string, error) {
	issuedAt := s.now()
	claims := &AccessClaims{
		Sub:              u.PublicID,
		Username:         u.Email,
		Role:             u.Role,
		Type:             typeAccess,
		RegisteredClaims: s.registered(issuedAt, issuedAt.Add(s.cfg.AccessTTL)),
	}
	return jwt.NewWithClaims(s.signingAlg, claims).SignedString([]byte(s.cfg.Secret))
}

func (s *service) IssueRefresh(sub id.PublicID) (string, error) {
	issuedAt := s.now()
	claims := &RefreshClaims{
		Sub:              sub,
		Type:             typeRefresh,
		RegisteredClaims: s.registered(issuedAt, issuedAt.Add(s.cfg.RefreshTTL)),
	}
	return jwt.NewWithClaims(s.signingAlg, claims).SignedString([]byte(s.cfg.Secret))
}

func (s *service) VerifyAccess(tokenString string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := s.verify(tokenString, &claims); err != nil {
		return nil, err
	}
	if err := s.checkRegistered(&claims.RegisteredClaims); err != nil {
		return nil, err
	}
	if claims.Type != typeAccess {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}
	return &claims, nil
}

func (s *service) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := s.verify(tokenString, &claims); err != nil {
		return nil, err
	}
	if err := s.checkRegistered(&claims.RegisteredClaims); err != nil {
		return nil, err
	}
	if claims.Type != typeRefresh {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	return &claims, nil
}

func (s *service) verify(tokenString string, claims jwt.Claims) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.signingAlg.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	tkn, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return ErrInvalidToken
	}
	return nil
}

func (s *service) checkRegistered(rc *jwt.RegisteredClaims) error {
	if rc.Issuer != s.cfg.JWTIssuer {
		return fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	for _, aud := range rc.Audience {
		if aud == s.cfg.JWTAudience {
			return nil
		}
	}
	return fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
}

func (s *service) registered(issuedAt, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    s.cfg.JWTIssuer,
		Audience:  jwt.ClaimStrings{s.cfg.JWTAudience},
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ID:        uuid.NewString(),
	}
}
