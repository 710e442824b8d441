package ranking

import "github.com/pkg/errors"

// ErrInvalidVersion indicates a version outside 1..MaxVersion was requested.
var ErrInvalidVersion = errors.New("invalid result set version")
