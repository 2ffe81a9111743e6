package zfm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// pollInterval is the yield between read-image polls so a tight scan loop
// does not starve other goroutines.
const pollInterval = 10 * time.Millisecond

// Record is one exported template: its slot, the raw characteristics, and
// a content hash for de-duplication and audit logging.
type Record struct {
	Position        uint16 `json:"position"`
	SHA256          string `json:"sha256"`
	Characteristics []byte `json:"characteristics"`
}

func newRecord(position int, chars []byte) Record {
	sum := sha256.Sum256(chars)
	return Record{
		Position:        uint16(position),
		SHA256:          hex.EncodeToString(sum[:]),
		Characteristics: chars,
	}
}

// NextFreeSlot walks the four occupancy pages and returns the numerically
// smallest unused template position. ErrDatabaseFull means every slot up to
// the sensor's capacity is taken.
func (s *Sensor) NextFreeSlot() (int, error) {
	capacity, err := s.StorageCapacity()
	if err != nil {
		return 0, err
	}

	position := 0
	for page := 0; page < 4; page++ {
		index, err := s.TemplateIndex(page)
		if err != nil {
			return 0, err
		}
		for _, used := range index {
			if position >= capacity {
				return 0, ErrDatabaseFull
			}
			if !used {
				return position, nil
			}
			position++
		}
	}
	return 0, ErrDatabaseFull
}

// StoreTemplateAuto persists the template staged in buf at the smallest
// free position and returns that position.
func (s *Sensor) StoreTemplateAuto(buf CharBuffer) (int, error) {
	position, err := s.NextFreeSlot()
	if err != nil {
		return 0, err
	}
	if err := s.StoreTemplate(position, buf); err != nil {
		return 0, err
	}
	return position, nil
}

// ExportDatabase downloads every stored template as a Record, loading each
// slot into Buffer1 in turn. Slots are read in index order, so positions
// come back ascending.
func (s *Sensor) ExportDatabase() ([]Record, error) {
	capacity, err := s.StorageCapacity()
	if err != nil {
		return nil, err
	}

	var records []Record
	position := 0
	for page := 0; page < 4 && position < capacity; page++ {
		index, err := s.TemplateIndex(page)
		if err != nil {
			return nil, err
		}
		for _, used := range index {
			if position >= capacity {
				break
			}
			if used {
				if err := s.LoadTemplate(position, Buffer1); err != nil {
					return nil, fmt.Errorf("export slot %d: %w", position, err)
				}
				chars, err := s.DownloadCharacteristics(Buffer1)
				if err != nil {
					return nil, fmt.Errorf("export slot %d: %w", position, err)
				}
				records = append(records, newRecord(position, chars))
			}
			position++
		}
	}
	return records, nil
}

// ImportDatabase wipes the sensor and restores the given characteristics,
// one slot per entry starting at 0. A failure at slot k leaves slots
// [0, k) populated; the returned error names k so the caller can observe
// the partial state and retry from there.
func (s *Sensor) ImportDatabase(db [][]byte) error {
	capacity, err := s.StorageCapacity()
	if err != nil {
		return err
	}
	if len(db) > capacity {
		return rangeErrf("%d records exceed storage capacity %d", len(db), capacity)
	}

	ok, err := s.ClearDatabase()
	if err != nil {
		return err
	}
	if !ok {
		return statusErr("import database", StatusClearDatabaseFailed)
	}

	for i, chars := range db {
		if err := s.UploadCharacteristics(Buffer1, chars); err != nil {
			return fmt.Errorf("import slot %d: %w", i, err)
		}
		if err := s.StoreTemplate(i, Buffer1); err != nil {
			return fmt.Errorf("import slot %d: %w", i, err)
		}
	}
	return nil
}

// waitFinger polls ReadImage until a finger is captured or ctx expires.
// Cancellation is checked between polls only; an in-flight frame read is
// never preempted.
func (s *Sensor) waitFinger(ctx context.Context) error {
	for {
		ok, err := s.ReadImage()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// waitFingerLift polls ReadImage until the finger has left the scanner.
func (s *Sensor) waitFingerLift(ctx context.Context) error {
	for {
		ok, err := s.ReadImage()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Scan waits for a finger, converts the capture into Buffer1 and searches
// the whole database. When minAccuracy is positive, a match scoring below
// it is reported as not found. The context bounds the wait for a finger;
// use context.WithTimeout for a deadline.
func (s *Sensor) Scan(ctx context.Context, minAccuracy int) (SearchResult, error) {
	if err := s.waitFinger(ctx); err != nil {
		return noMatch, err
	}
	if err := s.ConvertImage(Buffer1); err != nil {
		return noMatch, err
	}
	result, err := s.SearchTemplate(Buffer1, 0, -1)
	if err != nil {
		return noMatch, err
	}
	if minAccuracy > 0 && result.Found && result.Accuracy < int32(minAccuracy) {
		return noMatch, nil
	}
	return result, nil
}

// Enroll registers a new finger: two captures with a lift in between, a
// cross-check of the two characteristic sets, template creation and
// storage in the smallest free slot. It returns the stored position. A
// finger already enrolled aborts with its existing position in the error.
func (s *Sensor) Enroll(ctx context.Context) (int, error) {
	if err := s.waitFinger(ctx); err != nil {
		return 0, err
	}
	if err := s.ConvertImage(Buffer1); err != nil {
		return 0, err
	}

	existing, err := s.SearchTemplate(Buffer1, 0, -1)
	if err != nil {
		return 0, err
	}
	if existing.Found {
		return 0, fmt.Errorf("zfm: finger already enrolled at position %d", existing.Position)
	}

	if err := s.waitFingerLift(ctx); err != nil {
		return 0, err
	}
	if err := s.waitFinger(ctx); err != nil {
		return 0, err
	}
	if err := s.ConvertImage(Buffer2); err != nil {
		return 0, err
	}

	score, err := s.CompareCharacteristics()
	if err != nil {
		return 0, err
	}
	if score == 0 {
		return 0, fmt.Errorf("zfm: captures do not belong to the same finger")
	}

	ok, err := s.CreateTemplate()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("zfm: captures do not belong to the same finger")
	}

	return s.StoreTemplateAuto(Buffer1)
}
