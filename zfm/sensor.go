package zfm

import (
	"fmt"
	"sync"
)

// Sensor is the host-side engine for one fingerprint module on one byte
// channel. The channel and the sensor state form a single logical resource:
// every public operation takes an internal mutex spanning both the command
// write and the matching acknowledgement read, so a Sensor is safe to share
// but never pipelines.
type Sensor struct {
	ch       Channel
	address  uint32
	password uint32

	mu     sync.Mutex
	params *SystemParameters
}

// New binds a Sensor to a channel using the given device address and
// password. Use DefaultAddress and DefaultPassword for factory settings.
// The session is usable once VerifyPassword has returned true.
func New(ch Channel, address, password uint32) *Sensor {
	return &Sensor{ch: ch, address: address, password: password}
}

// Address returns the device address frames are currently stamped with.
func (s *Sensor) Address() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address
}

// Close releases the underlying channel.
func (s *Sensor) Close() error {
	return s.ch.Close()
}

// ResetInput discards any bytes buffered on the channel's receive side.
// Call it after a framing error or timeout, before the next command.
func (s *Sensor) ResetInput() error {
	return s.ch.ResetInput()
}

// writePacket encodes and writes one frame. max bounds the payload when a
// negotiated packet size applies; pass 0 for command frames, whose payloads
// are a handful of bytes by construction.
func (s *Sensor) writePacket(typ PacketType, payload []byte, max int) error {
	if max > 0 && len(payload) > max {
		return fmt.Errorf("%w: %d bytes, packet size %d", ErrPayloadTooLarge, len(payload), max)
	}
	frame, err := EncodeFrame(s.address, typ, payload)
	if err != nil {
		return err
	}
	if _, err := s.ch.Write(frame); err != nil {
		return fmt.Errorf("zfm: channel write: %w", err)
	}
	return nil
}

// exchange writes one COMMAND frame and reads the single ACK the sensor
// answers with. It returns the status byte and any payload bytes following
// it. The caller must hold s.mu.
func (s *Sensor) exchange(op string, payload []byte) (StatusCode, []byte, error) {
	if err := s.writePacket(PacketCommand, payload, 0); err != nil {
		return 0, nil, err
	}

	typ, ack, err := readFrame(s.ch, s.address)
	if err != nil {
		return 0, nil, err
	}
	if typ != PacketAck {
		return 0, nil, fmt.Errorf("%w: %s reply to %s", ErrUnexpectedPacket, typ, op)
	}
	if len(ack) == 0 {
		return 0, nil, fmt.Errorf("%w: empty ack payload for %s", ErrBadLength, op)
	}
	return StatusCode(ack[0]), ack[1:], nil
}

// VerifyPassword checks the session password against the sensor. It returns
// false, not an error, when the sensor rejects the password; an address-code
// status means the sensor is not listening on this session's address.
func (s *Sensor) VerifyPassword() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload := []byte{
		opVerifyPassword,
		byte(s.password >> 24), byte(s.password >> 16), byte(s.password >> 8), byte(s.password),
	}
	status, _, err := s.exchange("verify password", payload)
	if err != nil {
		return false, err
	}
	switch status {
	case StatusOK:
		return true, nil
	case StatusWrongPassword:
		return false, nil
	default:
		return false, statusErr("verify password", status)
	}
}

// SetPassword reprograms the sensor password and, on success, the session's
// cached copy.
func (s *Sensor) SetPassword(password uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload := []byte{
		opSetPassword,
		byte(password >> 24), byte(password >> 16), byte(password >> 8), byte(password),
	}
	status, _, err := s.exchange("set password", payload)
	if err != nil {
		return err
	}
	if status != StatusOK {
		return statusErr("set password", status)
	}
	s.password = password
	return nil
}

// SetAddress reprograms the device address. The sensor acknowledges this
// command already framed with the new address, so the expected address is
// swapped before the ACK is read and rolled back if the sensor refuses.
func (s *Sensor) SetAddress(address uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload := []byte{
		opSetAddress,
		byte(address >> 24), byte(address >> 16), byte(address >> 8), byte(address),
	}

	// The command itself still goes out under the old address.
	if err := s.writePacket(PacketCommand, payload, 0); err != nil {
		return err
	}

	typ, ack, err := readFrame(s.ch, address)
	if err != nil {
		return err
	}
	if typ != PacketAck {
		return fmt.Errorf("%w: %s reply to set address", ErrUnexpectedPacket, typ)
	}
	if len(ack) == 0 {
		return fmt.Errorf("%w: empty ack payload for set address", ErrBadLength)
	}
	if status := StatusCode(ack[0]); status != StatusOK {
		return statusErr("set address", status)
	}
	s.address = address
	return nil
}
