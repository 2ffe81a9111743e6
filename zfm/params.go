package zfm

import (
	"encoding/binary"
	"fmt"
)

// packetSizes maps the packetLength parameter index to the payload size in
// bytes it selects.
var packetSizes = [4]int{32, 64, 128, 256}

// SystemParameters is the sensor configuration block returned by the
// read-system-parameters command. The engine caches it and drops the cache
// whenever a set-system-parameter command succeeds.
type SystemParameters struct {
	StatusRegister  uint16
	SystemID        uint16
	StorageCapacity uint16
	SecurityLevel   uint16
	DeviceAddress   uint32
	PacketLength    uint16 // index 0..3 selecting 32/64/128/256 bytes
	BaudRateDivisor uint16 // actual bps = divisor * 9600
}

// PacketSize returns the maximum packet payload in bytes selected by
// PacketLength.
func (p SystemParameters) PacketSize() (int, error) {
	if int(p.PacketLength) >= len(packetSizes) {
		return 0, rangeErrf("packet length index %d", p.PacketLength)
	}
	return packetSizes[p.PacketLength], nil
}

// BaudRate returns the configured line speed in bits per second.
func (p SystemParameters) BaudRate() int {
	return int(p.BaudRateDivisor) * 9600
}

const sysParamsLen = 16

func decodeSystemParameters(b []byte) (SystemParameters, error) {
	if len(b) < sysParamsLen {
		return SystemParameters{}, fmt.Errorf("%w: system parameters payload is %d bytes", ErrBadLength, len(b))
	}
	return SystemParameters{
		StatusRegister:  binary.BigEndian.Uint16(b[0:2]),
		SystemID:        binary.BigEndian.Uint16(b[2:4]),
		StorageCapacity: binary.BigEndian.Uint16(b[4:6]),
		SecurityLevel:   binary.BigEndian.Uint16(b[6:8]),
		DeviceAddress:   binary.BigEndian.Uint32(b[8:12]),
		PacketLength:    binary.BigEndian.Uint16(b[12:14]),
		BaudRateDivisor: binary.BigEndian.Uint16(b[14:16]),
	}, nil
}

// SystemParameters reads the sensor configuration, serving from cache when
// a previous read is still valid.
func (s *Sensor) SystemParameters() (SystemParameters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemParameters()
}

// systemParameters is SystemParameters with s.mu already held.
func (s *Sensor) systemParameters() (SystemParameters, error) {
	if s.params != nil {
		return *s.params, nil
	}

	status, rest, err := s.exchange("get system parameters", []byte{opGetSystemParameters})
	if err != nil {
		return SystemParameters{}, err
	}
	if status != StatusOK {
		return SystemParameters{}, statusErr("get system parameters", status)
	}

	params, err := decodeSystemParameters(rest)
	if err != nil {
		return SystemParameters{}, err
	}
	s.params = &params
	return params, nil
}

// StorageCapacity returns the number of template slots the sensor holds.
func (s *Sensor) StorageCapacity() (int, error) {
	params, err := s.SystemParameters()
	if err != nil {
		return 0, err
	}
	return int(params.StorageCapacity), nil
}

// SecurityLevel returns the configured matching strictness, 1 (loosest) to
// 5 (strictest).
func (s *Sensor) SecurityLevel() (int, error) {
	params, err := s.SystemParameters()
	if err != nil {
		return 0, err
	}
	return int(params.SecurityLevel), nil
}

// BaudRate returns the line speed the sensor is configured for.
func (s *Sensor) BaudRate() (int, error) {
	params, err := s.SystemParameters()
	if err != nil {
		return 0, err
	}
	return params.BaudRate(), nil
}

// MaxPacketSize returns the negotiated maximum packet payload in bytes.
func (s *Sensor) MaxPacketSize() (int, error) {
	params, err := s.SystemParameters()
	if err != nil {
		return 0, err
	}
	return params.PacketSize()
}

// setSystemParameter writes one configuration register and invalidates the
// parameter cache on success.
func (s *Sensor) setSystemParameter(param, value byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, _, err := s.exchange("set system parameter", []byte{opSetSystemParameter, param, value})
	if err != nil {
		return err
	}
	if status != StatusOK {
		return statusErr("set system parameter", status)
	}
	s.params = nil
	return nil
}

// SetBaudRate reprograms the sensor's line speed. Only multiples of 9600 up
// to 115200 are accepted. On success it returns the bps the externally
// owned channel must be reconfigured to before the next command.
func (s *Sensor) SetBaudRate(bps int) (int, error) {
	if bps < 9600 || bps > 115200 || bps%9600 != 0 {
		return 0, rangeErrf("baud rate %d", bps)
	}
	if err := s.setSystemParameter(paramBaudRate, byte(bps/9600)); err != nil {
		return 0, err
	}
	return bps, nil
}

// SetSecurityLevel sets the matching strictness, 1 to 5.
func (s *Sensor) SetSecurityLevel(level int) error {
	if level < 1 || level > 5 {
		return rangeErrf("security level %d", level)
	}
	return s.setSystemParameter(paramSecurityLevel, byte(level))
}

// SetMaxPacketSize selects the per-packet payload size. Supported values
// are 32, 64, 128 and 256 bytes.
func (s *Sensor) SetMaxPacketSize(bytes int) error {
	for i, size := range packetSizes {
		if size == bytes {
			return s.setSystemParameter(paramPacketSize, byte(i))
		}
	}
	return rangeErrf("packet size %d", bytes)
}
