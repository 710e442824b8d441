package client

import "github.com/pkg/errors"

// ErrNotConnected indicates that a request was made before Connect.
var ErrNotConnected = errors.New("not connected")

// ErrInvalidCutoverRange indicates a cutover range whose minimum exceeds its maximum.
var ErrInvalidCutoverRange = errors.New("invalid cutover range")
