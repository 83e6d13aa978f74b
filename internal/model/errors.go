package model

import "errors"

// ErrValidation marks malformed or incomplete market data (NaN/Inf OHLCV
// fields, wrong window length). Validation failures are never retried:
// they abort the enclosing computation immediately.
var ErrValidation = errors.New("validation error")

// IsValidation reports whether err is (or wraps) a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
