package zfm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// queueSmallSensor makes the mock look like a sensor with the given
// capacity so index walks stay short.
func queueSmallSensor(ch *MockChannel, capacity byte) {
	params := append([]byte(nil), sysParamsPayload...)
	params[4], params[5] = 0x00, capacity
	ch.QueueAck(DefaultAddress, StatusOK, params...)
}

func TestNextFreeSlot_SmallestPosition(t *testing.T) {
	sensor, ch := newTestSensor()
	queueSmallSensor(ch, 16)
	// Slots 0..2 used: the first free position is 3.
	ch.QueueAck(DefaultAddress, StatusOK, 0x07, 0x00)

	position, err := sensor.NextFreeSlot()
	require.NoError(t, err)
	assert.Equal(t, 3, position)
}

func TestNextFreeSlot_DatabaseFull(t *testing.T) {
	sensor, ch := newTestSensor()
	queueSmallSensor(ch, 8)
	ch.QueueAck(DefaultAddress, StatusOK, 0xFF) // page 0: all 8 slots used
	ch.QueueAck(DefaultAddress, StatusOK, 0xFF) // page 1 read before the capacity check trips

	_, err := sensor.NextFreeSlot()
	assert.ErrorIs(t, err, ErrDatabaseFull)
}

func TestStoreTemplateAuto(t *testing.T) {
	sensor, ch := newTestSensor()
	queueSmallSensor(ch, 16)
	ch.QueueAck(DefaultAddress, StatusOK, 0x01, 0x00) // slot 0 used
	ch.QueueAck(DefaultAddress, StatusOK)             // store accepted

	position, err := sensor.StoreTemplateAuto(Buffer1)
	require.NoError(t, err)
	assert.Equal(t, 1, position)
}

func TestExportDatabase(t *testing.T) {
	sensor, ch := newTestSensor()
	queueSmallSensor(ch, 8)
	// Slots 0 and 2 occupied.
	ch.QueueAck(DefaultAddress, StatusOK, 0x05)

	chars0 := []byte{0x10, 0x20, 0x30}
	chars2 := []byte{0x0A, 0x0B}
	for _, chars := range [][]byte{chars0, chars2} {
		ch.QueueAck(DefaultAddress, StatusOK) // load template
		queueCharsEcho(ch, chars, 128)        // download characteristics
	}

	records, err := sensor.ExportDatabase()
	require.NoError(t, err)

	sum0 := sha256.Sum256(chars0)
	sum2 := sha256.Sum256(chars2)
	want := []Record{
		{Position: 0, SHA256: hex.EncodeToString(sum0[:]), Characteristics: chars0},
		{Position: 2, SHA256: hex.EncodeToString(sum2[:]), Characteristics: chars2},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestImportDatabase(t *testing.T) {
	sensor, ch := newTestSensor()
	queueSmallSensor(ch, 8)
	ch.QueueAck(DefaultAddress, StatusOK) // clear database

	db := [][]byte{{0x01, 0x02}, {0x03}}
	for _, chars := range db {
		ch.QueueAck(DefaultAddress, StatusOK) // upload command
		queueCharsEcho(ch, chars, 128)        // read-back verification
		ch.QueueAck(DefaultAddress, StatusOK) // store template
	}

	require.NoError(t, sensor.ImportDatabase(db))
}

func TestImportDatabase_TooManyRecords(t *testing.T) {
	sensor, ch := newTestSensor()
	queueSmallSensor(ch, 2)

	err := sensor.ImportDatabase([][]byte{{1}, {2}, {3}})
	assert.ErrorIs(t, err, ErrInvalidRange)

	// Nothing beyond the parameter read goes over the wire.
	frames := parseWrittenFrames(t, ch.Written(), DefaultAddress)
	assert.Len(t, frames, 1)
}

func TestImportDatabase_PartialFailure(t *testing.T) {
	sensor, ch := newTestSensor()
	queueSmallSensor(ch, 8)
	ch.QueueAck(DefaultAddress, StatusOK) // clear database

	// Slot 0 succeeds.
	ch.QueueAck(DefaultAddress, StatusOK)
	queueCharsEcho(ch, []byte{0x01}, 128)
	ch.QueueAck(DefaultAddress, StatusOK)
	// Slot 1's store is refused.
	ch.QueueAck(DefaultAddress, StatusOK)
	queueCharsEcho(ch, []byte{0x02}, 128)
	ch.QueueAck(DefaultAddress, StatusFlashWriteFailed)

	err := sensor.ImportDatabase([][]byte{{0x01}, {0x02}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slot 1")
	assert.True(t, IsStatus(err, StatusFlashWriteFailed))
}

func TestScan_Match(t *testing.T) {
	sensor, ch := newTestSensor()

	ch.QueueAck(DefaultAddress, StatusNoFinger) // first poll: nothing yet
	ch.QueueAck(DefaultAddress, StatusOK)       // finger captured
	ch.QueueAck(DefaultAddress, StatusOK)       // convert
	queueSmallSensor(ch, 8)                     // capacity read for the whole-db search
	ch.QueueAck(DefaultAddress, StatusOK, 0, 5, 0x01, 0x2C) // match at 5, accuracy 300

	result, err := sensor.Scan(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, SearchResult{Found: true, Position: 5, Accuracy: 300}, result)
}

func TestScan_MinAccuracyFilter(t *testing.T) {
	sensor, ch := newTestSensor()

	ch.QueueAck(DefaultAddress, StatusOK)
	ch.QueueAck(DefaultAddress, StatusOK)
	queueSmallSensor(ch, 8)
	ch.QueueAck(DefaultAddress, StatusOK, 0, 5, 0x00, 0x32) // accuracy 50

	result, err := sensor.Scan(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, SearchResult{Found: false, Position: -1, Accuracy: -1}, result)
}

func TestScan_DeadlineExpires(t *testing.T) {
	defer goleak.VerifyNone(t)

	sensor, ch := newTestSensor()
	for i := 0; i < 64; i++ {
		ch.QueueAck(DefaultAddress, StatusNoFinger)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := sensor.Scan(ctx, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScan_Canceled(t *testing.T) {
	defer goleak.VerifyNone(t)

	sensor, ch := newTestSensor()
	ch.QueueAck(DefaultAddress, StatusNoFinger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sensor.Scan(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnroll(t *testing.T) {
	sensor, ch := newTestSensor()

	ch.QueueAck(DefaultAddress, StatusOK)              // first capture
	ch.QueueAck(DefaultAddress, StatusOK)              // convert into buffer 1
	queueSmallSensor(ch, 8)                            // capacity read for the duplicate search
	ch.QueueAck(DefaultAddress, StatusNoTemplateFound) // not already enrolled
	ch.QueueAck(DefaultAddress, StatusNoFinger)        // finger lifted
	ch.QueueAck(DefaultAddress, StatusOK)              // second capture
	ch.QueueAck(DefaultAddress, StatusOK)              // convert into buffer 2
	ch.QueueAck(DefaultAddress, StatusOK, 0x00, 0x96)  // compare: score 150
	ch.QueueAck(DefaultAddress, StatusOK)              // create template
	ch.QueueAck(DefaultAddress, StatusOK, 0x00)        // index page 0: all free
	ch.QueueAck(DefaultAddress, StatusOK)              // store

	position, err := sensor.Enroll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, position)
}

func TestEnroll_AlreadyEnrolled(t *testing.T) {
	sensor, ch := newTestSensor()

	ch.QueueAck(DefaultAddress, StatusOK)                   // capture
	ch.QueueAck(DefaultAddress, StatusOK)                   // convert
	queueSmallSensor(ch, 8)                                 // capacity read for the search
	ch.QueueAck(DefaultAddress, StatusOK, 0, 3, 0x00, 0xC8) // found at 3

	_, err := sensor.Enroll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already enrolled at position 3")
}

// TestIndexPopcountMatchesTemplateCount checks the occupancy pages and the
// template counter agree on a scripted database of 5 templates.
func TestIndexPopcountMatchesTemplateCount(t *testing.T) {
	sensor, ch := newTestSensor()

	pages := [][]byte{{0x13, 0x00}, {0x01, 0x00}, {0x00, 0x00}, {0x80, 0x00}}
	total := 0
	for page, bits := range pages {
		ch.QueueAck(DefaultAddress, StatusOK, bits...)
		index, err := sensor.TemplateIndex(page)
		require.NoError(t, err)
		for _, used := range index {
			if used {
				total++
			}
		}
	}

	ch.QueueAck(DefaultAddress, StatusOK, 0x00, 0x05)
	count, err := sensor.TemplateCount()
	require.NoError(t, err)
	assert.Equal(t, count, total)
}

var errBoom = errors.New("boom")

func TestScan_ChannelError(t *testing.T) {
	sensor, ch := newTestSensor()
	ch.ReadError = errBoom

	_, err := sensor.Scan(context.Background(), 0)
	assert.ErrorIs(t, err, errBoom)
}
