// Package guard makes per-field authorization decisions: a resolved value is
// disclosed to a viewer only when the viewer is admin-tier or owns the
// resource the field belongs to. Decisions are pure functions of the viewer
// and the resource; nothing is held between calls.
package guard

import (
	"context"
	"errors"

	"github.com/classroomhq/auth-service/internal/user"
	"github.com/classroomhq/auth-service/pkg/id"
)

// ErrForbidden means the viewer is authenticated but may not see the field.
// Denials are field-scoped; sibling fields are unaffected.
var ErrForbidden = errors.New("forbidden")

// Viewer is the request-scoped identity consulted by the guard. The zero
// Viewer is unauthenticated and fails every check.
type Viewer struct {
	ID   id.PublicID
	Role user.Role
}

func (v Viewer) Authenticated() bool {
	return v.ID != ""
}

// Owned is implemented by any type whose fields are protected; each such
// type declares its owner explicitly instead of relying on annotations.
type Owned interface {
	OwnerID() id.PublicID
}

// Check applies the two-level rule: admin threshold first, ownership second.
func Check(v Viewer, res Owned) error {
	if v.Authenticated() && v.Role.AtLeast(user.RoleAdmin) {
		return nil
	}
	if v.Authenticated() && res.OwnerID() == v.ID {
		return nil
	}
	return ErrForbidden
}

type fieldOptions struct {
	silentDeny bool
}

type Option func(*fieldOptions)

// WithSilentDeny degrades a denial to the zero value with no error, for
// fields whose absence should not fail the surrounding response. The
// computed value is withheld, never returned.
func WithSilentDeny() Option {
	return func(o *fieldOptions) { o.silentDeny = true }
}

// Field gates an already-computed field value. Authorization never blocks
// computation, only disclosure.
func Field[T any](ctx context.Context, res Owned, value T, opts ...Option) (T, error) {
	var o fieldOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := Check(ViewerFrom(ctx), res); err != nil {
		var zero T
		if o.silentDeny {
			return zero, nil
		}
		return zero, err
	}
	return value, nil
}
