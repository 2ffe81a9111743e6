package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/touchstone/internal/store"
	"github.com/banshee-data/touchstone/zfm"
)

// factoryParams mirrors a ZFM-20 at factory settings: capacity 192,
// security 3, 128-byte packets, 57600 bps.
var factoryParams = []byte{
	0x00, 0x00,
	0x00, 0x00,
	0x00, 0xC0,
	0x00, 0x03,
	0xFF, 0xFF, 0xFF, 0xFF,
	0x00, 0x02,
	0x00, 0x06,
}

func newTestServer(t *testing.T) (*Server, *zfm.MockChannel, *store.Store) {
	t.Helper()

	ch := zfm.NewMockChannel()
	sensor := zfm.New(ch, zfm.DefaultAddress, zfm.DefaultPassword)

	db, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewServer(sensor, db), ch, db
}

func TestHandleParams(t *testing.T) {
	server, ch, _ := newTestServer(t)
	ch.QueueAck(zfm.DefaultAddress, zfm.StatusOK, factoryParams...)
	ch.QueueAck(zfm.DefaultAddress, zfm.StatusOK, 0x00, 0x07)

	rec := httptest.NewRecorder()
	server.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/params", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 192, body["storage_capacity"])
	assert.EqualValues(t, 128, body["packet_size"])
	assert.EqualValues(t, 57600, body["baud_rate"])
	assert.EqualValues(t, 7, body["template_count"])
}

func TestHandleIdentify(t *testing.T) {
	server, ch, db := newTestServer(t)
	ch.QueueAck(zfm.DefaultAddress, zfm.StatusOK)                   // finger present
	ch.QueueAck(zfm.DefaultAddress, zfm.StatusOK)                   // convert
	ch.QueueAck(zfm.DefaultAddress, zfm.StatusOK, factoryParams...) // params for whole-db search
	ch.QueueAck(zfm.DefaultAddress, zfm.StatusOK, 0, 9, 0x00, 0x7B) // match at 9, accuracy 123

	rec := httptest.NewRecorder()
	server.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/identify?timeout=2s", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var result zfm.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Found)
	assert.EqualValues(t, 9, result.Position)
	assert.EqualValues(t, 123, result.Accuracy)

	// The attempt is logged to the store.
	events, err := db.Scans(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Matched)
	assert.Equal(t, 9, events[0].Position)
}

func TestHandleIdentify_MethodNotAllowed(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/identify", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleRecords(t *testing.T) {
	server, _, db := newTestServer(t)
	_, err := db.SaveExport([]zfm.Record{
		{Position: 0, SHA256: "abc", Characteristics: []byte{1, 2, 3}},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var listed []struct {
		Position int    `json:"position"`
		SHA256   string `json:"sha256"`
		Size     int    `json:"size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "abc", listed[0].SHA256)
	assert.Equal(t, 3, listed[0].Size)
	// Raw characteristics never leave via the listing.
	assert.NotContains(t, rec.Body.String(), "characteristics")
}

func TestHandleScans_InvalidLimit(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scans?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEnroll_SensorError(t *testing.T) {
	server, ch, _ := newTestServer(t)
	ch.QueueAck(zfm.DefaultAddress, zfm.StatusReadImageFailed)

	rec := httptest.NewRecorder()
	server.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/enroll?timeout=1s", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
