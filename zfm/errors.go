package zfm

import (
	"errors"
	"fmt"
)

// Framing errors. Any of these leaves the channel in an indeterminate
// state; the caller must ResetInput before issuing the next command.
var (
	ErrBadStartCode     = errors.New("zfm: frame does not begin with the start code")
	ErrAddressMismatch  = errors.New("zfm: frame address does not match the session address")
	ErrBadLength        = errors.New("zfm: frame length field below minimum")
	ErrBadChecksum      = errors.New("zfm: frame checksum mismatch")
	ErrUnexpectedPacket = errors.New("zfm: unexpected packet type")
)

// Engine errors.
var (
	ErrPayloadTooLarge = errors.New("zfm: payload exceeds negotiated packet size")
	ErrDatabaseFull    = errors.New("zfm: no free template slot")
	ErrTimeout         = errors.New("zfm: read timed out")
	ErrUploadVerify    = errors.New("zfm: uploaded characteristics failed read-back verification")
	ErrInvalidRange    = errors.New("zfm: argument out of range")
)

// rangeErrf wraps ErrInvalidRange with context. Range errors are raised
// before anything is written to the channel.
func rangeErrf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidRange}, args...)...)
}
