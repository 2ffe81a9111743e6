package zfm

import (
	"io"
	"time"
)

// Channel is the full-duplex byte stream a Sensor talks over. The hardware
// implementation lives in the serialport package; MockChannel covers tests.
//
// Read follows serial-port semantics: after the configured read timeout
// elapses with no data it returns (0, nil), not an error. The framing layer
// converts that into ErrTimeout.
type Channel interface {
	io.ReadWriter
	io.Closer

	// SetReadTimeout bounds how long a single Read may block.
	SetReadTimeout(d time.Duration) error

	// ResetInput discards any bytes buffered on the receive side. Required
	// after a framing error or timeout before the next command.
	ResetInput() error

	// Flush blocks until buffered output has been transmitted.
	Flush() error
}
