package store

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/touchstone/zfm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRunsMigrations(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestSaveAndLoadExport(t *testing.T) {
	s := openTestStore(t)

	records := []zfm.Record{
		{Position: 0, SHA256: "aa", Characteristics: []byte{0x01, 0x02}},
		{Position: 3, SHA256: "bb", Characteristics: []byte{0x03}},
	}
	batchID, err := s.SaveExport(records)
	require.NoError(t, err)
	require.NotEmpty(t, batchID)

	got, err := s.Records(batchID)
	require.NoError(t, err)
	if diff := cmp.Diff(records, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordsDefaultsToLatestBatch(t *testing.T) {
	s := openTestStore(t)

	_, err := s.SaveExport([]zfm.Record{{Position: 0, SHA256: "old", Characteristics: []byte{0x01}}})
	require.NoError(t, err)
	latest, err := s.SaveExport([]zfm.Record{{Position: 0, SHA256: "new", Characteristics: []byte{0x02}}})
	require.NoError(t, err)

	batchID, err := s.LatestBatch()
	require.NoError(t, err)
	assert.Equal(t, latest, batchID)

	got, err := s.Records("")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].SHA256)
}

func TestRecords_EmptyStore(t *testing.T) {
	s := openTestStore(t)

	batchID, err := s.LatestBatch()
	require.NoError(t, err)
	assert.Empty(t, batchID)

	got, err := s.Records("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLogAndListScans(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.LogScan(zfm.SearchResult{Found: true, Position: 5, Accuracy: 120}))
	require.NoError(t, s.LogScan(zfm.SearchResult{Found: false, Position: -1, Accuracy: -1}))

	events, err := s.Scans(10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Most recent first.
	assert.False(t, events[0].Matched)
	assert.True(t, events[1].Matched)
	assert.Equal(t, 5, events[1].Position)
	assert.Equal(t, 120, events[1].Accuracy)
}
