// Package serialport implements zfm.Channel on top of a real UART via
// go.bug.st/serial. Fingerprint modules speak 8-N-1 at 57600 bps out of
// the box; the port can be re-clocked in place after the sensor's baud
// register is reprogrammed.
package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/banshee-data/touchstone/zfm"
)

// Port wraps a serial port as a zfm.Channel.
type Port struct {
	port serial.Port
	opts PortOptions
}

// Open opens the serial device at path with the given options.
func Open(path string, opts PortOptions) (*Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", path, err)
	}

	normalized, _ := opts.Normalize()
	return &Port{port: port, opts: normalized}, nil
}

func (p *Port) Read(b []byte) (int, error)  { return p.port.Read(b) }
func (p *Port) Write(b []byte) (int, error) { return p.port.Write(b) }
func (p *Port) Close() error                { return p.port.Close() }

// SetReadTimeout bounds how long a single Read may block. On expiry Read
// returns (0, nil), which the zfm framing layer reports as a timeout.
func (p *Port) SetReadTimeout(d time.Duration) error {
	return p.port.SetReadTimeout(d)
}

// ResetInput discards bytes buffered on the receive side.
func (p *Port) ResetInput() error {
	return p.port.ResetInputBuffer()
}

// Flush blocks until buffered output has been transmitted.
func (p *Port) Flush() error {
	return p.port.Drain()
}

// Reconfigure re-clocks the open port, keeping framing settings. Call it
// with the hint zfm.Sensor.SetBaudRate returns before issuing the next
// command.
func (p *Port) Reconfigure(baud int) error {
	opts := p.opts
	opts.BaudRate = baud
	mode, err := opts.SerialMode()
	if err != nil {
		return err
	}
	if err := p.port.SetMode(mode); err != nil {
		return fmt.Errorf("serialport: set mode: %w", err)
	}
	p.opts = opts
	return nil
}

var _ zfm.Channel = (*Port)(nil)
