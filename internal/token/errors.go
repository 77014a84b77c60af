package token

import "errors"

// ErrInvalidToken covers every verification failure: bad signature, expiry,
// wrong issuer or audience. Callers are expected to wrap it into their own
// taxonomy rather than expose it.
var ErrInvalidToken = errors.New("invalid token")
