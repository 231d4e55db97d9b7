package magfield

import (
	"errors"
)

var (
	// ErrFormat is returned when a map record or container is structurally
	// invalid: bad magic, unknown flags, inconsistent segmentation tables.
	ErrFormat = errors.New("invalid field map format")

	// ErrChecksum is returned when the digest of a container payload does
	// not match its content.
	ErrChecksum = errors.New("field map checksum mismatch")
)
