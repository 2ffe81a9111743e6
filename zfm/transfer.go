package zfm

import (
	"bytes"
	"fmt"
	"image"
)

// readStream consumes the DATA packets a download command triggers,
// concatenating payloads until the END_DATA packet arrives. The sender is
// authoritative for the total length. The caller must hold s.mu.
func (s *Sensor) readStream(op string) ([]byte, error) {
	var data []byte
	for {
		typ, payload, err := readFrame(s.ch, s.address)
		if err != nil {
			return nil, err
		}
		switch typ {
		case PacketData:
			data = append(data, payload...)
		case PacketEndData:
			return append(data, payload...), nil
		default:
			return nil, fmt.Errorf("%w: %s during %s stream", ErrUnexpectedPacket, typ, op)
		}
	}
}

// writeStream chunks data into DATA packets of the negotiated size, closing
// with END_DATA. A payload that fits one packet is sent as a single
// END_DATA. The sensor does not acknowledge individual data packets. The
// caller must hold s.mu.
func (s *Sensor) writeStream(data []byte, packetSize int) error {
	for len(data) > packetSize {
		if err := s.writePacket(PacketData, data[:packetSize], packetSize); err != nil {
			return err
		}
		data = data[packetSize:]
	}
	return s.writePacket(PacketEndData, data, packetSize)
}

// DownloadCharacteristics reads the feature vector staged in buf back to
// the host.
func (s *Sensor) DownloadCharacteristics(buf CharBuffer) ([]byte, error) {
	if err := validBuffer(buf); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status, _, err := s.exchange("download characteristics", []byte{opDownloadCharacteristics, byte(buf)})
	if err != nil {
		return nil, err
	}
	if status != StatusOK {
		return nil, statusErr("download characteristics", status)
	}
	return s.readStream("download characteristics")
}

// UploadCharacteristics writes a feature vector into buf and verifies the
// transfer by reading it back; the sensor does not acknowledge the data
// stream itself.
func (s *Sensor) UploadCharacteristics(buf CharBuffer, data []byte) error {
	if err := validBuffer(buf); err != nil {
		return err
	}
	if len(data) == 0 {
		return rangeErrf("empty characteristics")
	}

	packetSize, err := s.MaxPacketSize()
	if err != nil {
		return err
	}

	s.mu.Lock()
	status, _, err := s.exchange("upload characteristics", []byte{opUploadCharacteristics, byte(buf)})
	if err == nil && status != StatusOK {
		err = statusErr("upload characteristics", status)
	}
	if err == nil {
		err = s.writeStream(data, packetSize)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	readBack, err := s.DownloadCharacteristics(buf)
	if err != nil {
		return err
	}
	if !bytes.Equal(readBack, data) {
		return ErrUploadVerify
	}
	return nil
}

// DownloadImage transfers the captured fingerprint image and assembles it
// into a 256x288 grayscale raster.
func (s *Sensor) DownloadImage() (*image.Gray, error) {
	data, err := s.DownloadImageData()
	if err != nil {
		return nil, err
	}
	return AssembleImage(data)
}

// DownloadImageData transfers the raw 4-bit-per-pixel image stream without
// expanding it.
func (s *Sensor) DownloadImageData() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, _, err := s.exchange("download image", []byte{opDownloadImage})
	if err != nil {
		return nil, err
	}
	if status != StatusOK {
		return nil, statusErr("download image", status)
	}
	return s.readStream("download image")
}
