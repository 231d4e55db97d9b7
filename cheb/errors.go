package cheb

import "errors"

// ErrMalformed is wrapped by every error reporting inconsistent
// coefficient tables or records.
var ErrMalformed = errors.New("malformed chebyshev record")
