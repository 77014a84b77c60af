package token

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/classroomhq/auth-service/internal/user"
	"github.com/classroomhq/auth-service/pkg/id"
)

// Both token kinds share the secret and registered claims, so each carries
// an explicit type discriminator; verifiers reject the other kind.
const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// AccessClaims travel inside the short-lived access token and are what
// downstream layers build a request identity from.
type AccessClaims struct {
	Sub      id.PublicID `json:"sub"`
	Username string      `json:"username"`
	Role     user.Role   `json:"role"`
	Type     string      `json:"type"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the subject; single validity is enforced by the
// stored-value comparison, not by anything in the token itself.
type RefreshClaims struct {
	Sub  id.PublicID `json:"sub"`
	Type string      `json:"type"`
	jwt.RegisteredClaims
}
