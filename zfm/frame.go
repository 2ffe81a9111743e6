package zfm

import (
	"encoding/binary"
	"fmt"
)

// Wire layout, all multi-byte fields big-endian:
//
//	offset 0  u16  start code 0xEF01
//	offset 2  u32  device address
//	offset 6  u8   packet type
//	offset 7  u16  length = len(payload) + 2
//	offset 9  ...  payload
//	then      u16  checksum over type + length bytes + payload
const (
	frameHeaderSize   = 9
	frameChecksumSize = 2
	// The length field includes the trailing checksum, so it can never be
	// smaller than 2.
	frameMinLength = 2
)

// EncodeFrame serialises one protocol frame for the given session address.
// The payload must fit the 16-bit length field; the negotiated per-packet
// maximum is enforced by the engine before encoding.
func EncodeFrame(address uint32, typ PacketType, payload []byte) ([]byte, error) {
	if len(payload) > 0xFFFF-frameChecksumSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	length := uint16(len(payload) + frameChecksumSize)
	frame := make([]byte, frameHeaderSize+len(payload)+frameChecksumSize)

	binary.BigEndian.PutUint16(frame[0:2], startCode)
	binary.BigEndian.PutUint32(frame[2:6], address)
	frame[6] = byte(typ)
	binary.BigEndian.PutUint16(frame[7:9], length)
	copy(frame[frameHeaderSize:], payload)

	sum := checksum(typ, length, payload)
	binary.BigEndian.PutUint16(frame[len(frame)-frameChecksumSize:], sum)

	return frame, nil
}

// checksum is the unsigned 16-bit sum of the type byte, both length bytes
// and every payload byte.
func checksum(typ PacketType, length uint16, payload []byte) uint16 {
	sum := uint16(typ) + (length >> 8) + (length & 0xFF)
	for _, b := range payload {
		sum += uint16(b)
	}
	return sum
}

// readFrame reads exactly one frame from ch and validates it against the
// expected session address. Validation order: start code, address, length,
// checksum. On any framing error the stream position is indeterminate and
// the caller must drain the channel input before retrying; the decoder does
// not hunt for a mid-stream start code because the sensor offers no
// reliable resync point.
func readFrame(ch Channel, address uint32) (PacketType, []byte, error) {
	var header [frameHeaderSize]byte
	if err := readFull(ch, header[:]); err != nil {
		return 0, nil, err
	}

	if binary.BigEndian.Uint16(header[0:2]) != startCode {
		return 0, nil, ErrBadStartCode
	}
	if got := binary.BigEndian.Uint32(header[2:6]); got != address {
		return 0, nil, fmt.Errorf("%w: got 0x%08X, want 0x%08X", ErrAddressMismatch, got, address)
	}

	typ := PacketType(header[6])
	length := binary.BigEndian.Uint16(header[7:9])
	if length < frameMinLength {
		return 0, nil, fmt.Errorf("%w: length %d", ErrBadLength, length)
	}

	rest := make([]byte, length)
	if err := readFull(ch, rest); err != nil {
		return 0, nil, err
	}

	payload := rest[:length-frameChecksumSize]
	got := binary.BigEndian.Uint16(rest[length-frameChecksumSize:])
	if want := checksum(typ, length, payload); got != want {
		return 0, nil, fmt.Errorf("%w: got 0x%04X, want 0x%04X", ErrBadChecksum, got, want)
	}

	return typ, payload, nil
}

// readFull fills buf from ch. A Read that returns no data and no error is
// the serial-port idiom for an expired read timeout and surfaces as
// ErrTimeout.
func readFull(ch Channel, buf []byte) error {
	for n := 0; n < len(buf); {
		r, err := ch.Read(buf[n:])
		if err != nil {
			return fmt.Errorf("zfm: channel read: %w", err)
		}
		if r == 0 {
			return ErrTimeout
		}
		n += r
	}
	return nil
}
