package zfm

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

// verifyPasswordFrame is the default-credential handshake frame:
// EF01 FFFFFFFF 01 0007 13 00000000 001B.
var verifyPasswordFrame = []byte{
	0xEF, 0x01,
	0xFF, 0xFF, 0xFF, 0xFF,
	0x01,
	0x00, 0x07,
	0x13, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x1B,
}

func TestEncodeFrame_VerifyPasswordVector(t *testing.T) {
	frame, err := EncodeFrame(DefaultAddress, PacketCommand, []byte{opVerifyPassword, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if !bytes.Equal(frame, verifyPasswordFrame) {
		t.Errorf("frame = % X, want % X", frame, verifyPasswordFrame)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, size := range []int{0, 1, 2, 16, 64, 128, 255, 256, 300} {
		payload := make([]byte, size)
		rng.Read(payload)

		for _, typ := range []PacketType{PacketCommand, PacketData, PacketAck, PacketEndData} {
			frame, err := EncodeFrame(0x00A1B2C3, typ, payload)
			if err != nil {
				t.Fatalf("EncodeFrame(%v, %d bytes): %v", typ, size, err)
			}

			ch := NewMockChannel()
			ch.QueueBytes(frame)
			gotType, gotPayload, err := readFrame(ch, 0x00A1B2C3)
			if err != nil {
				t.Fatalf("readFrame(%v, %d bytes): %v", typ, size, err)
			}
			if gotType != typ {
				t.Errorf("type = %v, want %v", gotType, typ)
			}
			if !bytes.Equal(gotPayload, payload) {
				t.Errorf("payload mismatch for %v/%d bytes", typ, size)
			}
		}
	}
}

// TestFrameBitFlip corrupts every bit of a short frame in turn; no
// corruption may decode silently.
func TestFrameBitFlip(t *testing.T) {
	for bit := 0; bit < len(verifyPasswordFrame)*8; bit++ {
		mutated := append([]byte(nil), verifyPasswordFrame...)
		mutated[bit/8] ^= 1 << (bit % 8)

		ch := NewMockChannel()
		ch.QueueBytes(mutated)
		typ, payload, err := readFrame(ch, DefaultAddress)
		if err == nil {
			t.Errorf("bit %d: frame % X decoded silently as (%v, % X)", bit, mutated, typ, payload)
		}
	}
}

func TestReadFrame_BadStartCode(t *testing.T) {
	mutated := append([]byte(nil), verifyPasswordFrame...)
	mutated[0] = 0xEE

	ch := NewMockChannel()
	ch.QueueBytes(mutated)
	_, _, err := readFrame(ch, DefaultAddress)
	if !errors.Is(err, ErrBadStartCode) {
		t.Fatalf("err = %v, want ErrBadStartCode", err)
	}
}

func TestReadFrame_AddressMismatch(t *testing.T) {
	ch := NewMockChannel()
	ch.QueueFrame(0x00000001, PacketAck, []byte{0x00})
	_, _, err := readFrame(ch, DefaultAddress)
	if !errors.Is(err, ErrAddressMismatch) {
		t.Fatalf("err = %v, want ErrAddressMismatch", err)
	}
}

func TestReadFrame_BadLength(t *testing.T) {
	// Hand-built frame with length = 1, below the checksum-only minimum.
	frame := []byte{
		0xEF, 0x01,
		0xFF, 0xFF, 0xFF, 0xFF,
		0x07,
		0x00, 0x01,
		0x00,
	}
	ch := NewMockChannel()
	ch.QueueBytes(frame)
	_, _, err := readFrame(ch, DefaultAddress)
	if !errors.Is(err, ErrBadLength) {
		t.Fatalf("err = %v, want ErrBadLength", err)
	}
}

func TestReadFrame_BadChecksum(t *testing.T) {
	mutated := append([]byte(nil), verifyPasswordFrame...)
	mutated[len(mutated)-1] ^= 0xFF

	ch := NewMockChannel()
	ch.QueueBytes(mutated)
	_, _, err := readFrame(ch, DefaultAddress)
	if !errors.Is(err, ErrBadChecksum) {
		t.Fatalf("err = %v, want ErrBadChecksum", err)
	}
}

func TestReadFrame_Timeout(t *testing.T) {
	ch := NewMockChannel()
	_, _, err := readFrame(ch, DefaultAddress)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}

	// A truncated frame times out too once the buffered bytes run dry.
	ch.QueueBytes(verifyPasswordFrame[:10])
	_, _, err = readFrame(ch, DefaultAddress)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("truncated frame err = %v, want ErrTimeout", err)
	}
}

func TestEncodeFrame_PayloadTooLarge(t *testing.T) {
	_, err := EncodeFrame(DefaultAddress, PacketData, make([]byte, 0x10000))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
}
