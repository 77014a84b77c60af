package id

import (
	"errors"

	"github.com/google/uuid"
)

// PublicID is the externally visible identifier of a user. Internal numeric
// keys never leave the database layer.
type PublicID string

var ErrMalformed = errors.New("malformed public id")

func New() PublicID {
	return PublicID(uuid.NewString())
}

// Parse validates that s is a well-formed public id. Token subjects are run
// through this before any store lookup.
func Parse(s string) (PublicID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", ErrMalformed
	}
	return PublicID(s), nil
}

func (p PublicID) String() string {
	return string(p)
}
