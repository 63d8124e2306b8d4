package serialization

import "errors"

// Common errors.
var (
	ErrChecksumMismatch  = errors.New("checksum mismatch: file may be corrupted")
	ErrOutOfBounds       = errors.New("tensor extends beyond data section")
	ErrInvalidTensorName = errors.New("invalid tensor name")
	ErrHeaderTooLarge    = errors.New("header exceeds maximum size")
	ErrUnsupportedDType  = errors.New("unsupported dtype")
)

// MaxHeaderSize bounds the JSON header accepted by ReadHeader.
const MaxHeaderSize = 1 << 20
