package zfm

import "encoding/binary"

// SearchResult is the sensor's answer to a template search. Position and
// Accuracy are -1 when no template matched.
type SearchResult struct {
	Found    bool
	Position int32
	Accuracy int32
}

// noMatch is the canonical not-found result.
var noMatch = SearchResult{Found: false, Position: -1, Accuracy: -1}

func validBuffer(buf CharBuffer) error {
	if buf != Buffer1 && buf != Buffer2 {
		return rangeErrf("char buffer 0x%02X", byte(buf))
	}
	return nil
}

// ReadImage asks the sensor to capture a fingerprint image into its image
// buffer. It returns false when no finger is on the scanner.
func (s *Sensor) ReadImage() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, _, err := s.exchange("read image", []byte{opReadImage})
	if err != nil {
		return false, err
	}
	switch status {
	case StatusOK:
		return true, nil
	case StatusNoFinger:
		return false, nil
	default:
		return false, statusErr("read image", status)
	}
}

// ConvertImage extracts characteristics from the captured image into the
// given char buffer.
func (s *Sensor) ConvertImage(buf CharBuffer) error {
	if err := validBuffer(buf); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status, _, err := s.exchange("convert image", []byte{opConvertImage, byte(buf)})
	if err != nil {
		return err
	}
	if status != StatusOK {
		return statusErr("convert image", status)
	}
	return nil
}

// CreateTemplate merges the characteristics in Buffer1 and Buffer2 into a
// template, leaving the result in both buffers. It returns false when the
// two captures do not belong to the same finger.
func (s *Sensor) CreateTemplate() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, _, err := s.exchange("create template", []byte{opCreateTemplate})
	if err != nil {
		return false, err
	}
	switch status {
	case StatusOK:
		return true, nil
	case StatusCharacteristicsMismatch:
		return false, nil
	default:
		return false, statusErr("create template", status)
	}
}

// StoreTemplate persists the template staged in buf at the given position.
func (s *Sensor) StoreTemplate(position int, buf CharBuffer) error {
	if err := validBuffer(buf); err != nil {
		return err
	}
	if position < 0 || position > 0xFFFF {
		return rangeErrf("template position %d", position)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload := []byte{opStoreTemplate, byte(buf), byte(position >> 8), byte(position)}
	status, _, err := s.exchange("store template", payload)
	if err != nil {
		return err
	}
	if status != StatusOK {
		return statusErr("store template", status)
	}
	return nil
}

// LoadTemplate loads the template at position into buf.
func (s *Sensor) LoadTemplate(position int, buf CharBuffer) error {
	if err := validBuffer(buf); err != nil {
		return err
	}
	if position < 0 || position > 0xFFFF {
		return rangeErrf("template position %d", position)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload := []byte{opLoadTemplate, byte(buf), byte(position >> 8), byte(position)}
	status, _, err := s.exchange("load template", payload)
	if err != nil {
		return err
	}
	if status != StatusOK {
		return statusErr("load template", status)
	}
	return nil
}

// DeleteTemplate removes count templates starting at position. It returns
// false when the sensor reports the deletion failed.
func (s *Sensor) DeleteTemplate(position, count int) (bool, error) {
	if position < 0 || position > 0xFFFF {
		return false, rangeErrf("template position %d", position)
	}
	if count < 1 || count > 0xFFFF {
		return false, rangeErrf("delete count %d", count)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload := []byte{
		opDeleteTemplate,
		byte(position >> 8), byte(position),
		byte(count >> 8), byte(count),
	}
	status, _, err := s.exchange("delete template", payload)
	if err != nil {
		return false, err
	}
	switch status {
	case StatusOK:
		return true, nil
	case StatusDeleteTemplateFailed:
		return false, nil
	default:
		return false, statusErr("delete template", status)
	}
}

// ClearDatabase deletes every stored template. It returns false when the
// sensor reports the wipe failed.
func (s *Sensor) ClearDatabase() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, _, err := s.exchange("clear database", []byte{opClearDatabase})
	if err != nil {
		return false, err
	}
	switch status {
	case StatusOK:
		return true, nil
	case StatusClearDatabaseFailed:
		return false, nil
	default:
		return false, statusErr("clear database", status)
	}
}

// SearchTemplate matches the characteristics in buf against stored
// templates in [start, start+count). A count of -1 searches the whole
// database.
func (s *Sensor) SearchTemplate(buf CharBuffer, start, count int) (SearchResult, error) {
	if err := validBuffer(buf); err != nil {
		return noMatch, err
	}
	if start < 0 || start > 0xFFFF {
		return noMatch, rangeErrf("search start %d", start)
	}
	if count == -1 {
		capacity, err := s.StorageCapacity()
		if err != nil {
			return noMatch, err
		}
		count = capacity
	}
	if count < 1 || count > 0xFFFF {
		return noMatch, rangeErrf("search count %d", count)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload := []byte{
		opSearchTemplate, byte(buf),
		byte(start >> 8), byte(start),
		byte(count >> 8), byte(count),
	}
	status, rest, err := s.exchange("search template", payload)
	if err != nil {
		return noMatch, err
	}
	switch status {
	case StatusOK:
		if len(rest) < 4 {
			return noMatch, statusErr("search template", StatusPacketResponseFail)
		}
		return SearchResult{
			Found:    true,
			Position: int32(binary.BigEndian.Uint16(rest[0:2])),
			Accuracy: int32(binary.BigEndian.Uint16(rest[2:4])),
		}, nil
	case StatusNoTemplateFound:
		return noMatch, nil
	default:
		return noMatch, statusErr("search template", status)
	}
}

// CompareCharacteristics matches Buffer1 against Buffer2 and returns the
// accuracy score, 0 when the two do not match.
func (s *Sensor) CompareCharacteristics() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, rest, err := s.exchange("compare characteristics", []byte{opCompareCharacteristics})
	if err != nil {
		return 0, err
	}
	switch status {
	case StatusOK:
		if len(rest) < 2 {
			return 0, statusErr("compare characteristics", StatusPacketResponseFail)
		}
		return int(binary.BigEndian.Uint16(rest[0:2])), nil
	case StatusNoMatch:
		return 0, nil
	default:
		return 0, statusErr("compare characteristics", status)
	}
}

// TemplateCount returns the number of templates currently stored.
func (s *Sensor) TemplateCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, rest, err := s.exchange("template count", []byte{opTemplateCount})
	if err != nil {
		return 0, err
	}
	if status != StatusOK {
		return 0, statusErr("template count", status)
	}
	if len(rest) < 2 {
		return 0, statusErr("template count", StatusPacketResponseFail)
	}
	return int(binary.BigEndian.Uint16(rest[0:2])), nil
}

// TemplateIndex reads one of the four occupancy pages. Each byte of the
// reply packs eight slots LSB-first; the result has one entry per slot bit
// the sensor reported.
func (s *Sensor) TemplateIndex(page int) ([]bool, error) {
	if page < 0 || page > 3 {
		return nil, rangeErrf("index page %d", page)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status, rest, err := s.exchange("template index", []byte{opTemplateIndex, byte(page)})
	if err != nil {
		return nil, err
	}
	if status != StatusOK {
		return nil, statusErr("template index", status)
	}

	index := make([]bool, 0, len(rest)*8)
	for _, b := range rest {
		for bit := 0; bit < 8; bit++ {
			index = append(index, b&(1<<bit) != 0)
		}
	}
	return index, nil
}

// GenerateRandomNumber asks the sensor's hardware RNG for a 32-bit value.
func (s *Sensor) GenerateRandomNumber() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, rest, err := s.exchange("generate random number", []byte{opGenerateRandomNumber})
	if err != nil {
		return 0, err
	}
	if status != StatusOK {
		return 0, statusErr("generate random number", status)
	}
	if len(rest) < 4 {
		return 0, statusErr("generate random number", StatusPacketResponseFail)
	}
	return binary.BigEndian.Uint32(rest[0:4]), nil
}
