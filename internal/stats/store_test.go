package stats

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ledwall/internal/display"
)

func newTestStore(t *testing.T, scene string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stats.db")
	s, err := NewStore(path, scene)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesSession(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, "fireplace")
	assert.NotEmpty(t, s.SessionID())

	summaries, err := s.Sessions()
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, s.SessionID(), summaries[0].SessionID)
	assert.Equal(t, "fireplace", summaries[0].Scene)
	assert.Equal(t, 0, summaries[0].Frames)
}

func TestRecordFrame_RoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, "snake")

	report := display.FrameReport{Mode: "sparse", Dirty: 7, Packets: 2, Bytes: 21}
	require.NoError(t, s.RecordFrame(0, report, 1500*time.Microsecond))
	require.NoError(t, s.RecordFrame(1, display.FrameReport{Mode: "full", Dirty: 256, Packets: 2, Bytes: 768}, 2*time.Millisecond))

	records, err := s.Frames(s.SessionID())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[0].Timestamp.IsZero())

	want := []FrameRecord{
		{SessionID: s.SessionID(), Frame: 0, Mode: "sparse", Dirty: 7, Packets: 2, Bytes: 21, RenderTime: 1500 * time.Microsecond},
		{SessionID: s.SessionID(), Frame: 1, Mode: "full", Dirty: 256, Packets: 2, Bytes: 768, RenderTime: 2 * time.Millisecond},
	}
	if diff := cmp.Diff(want, records, cmpopts.IgnoreFields(FrameRecord{}, "Timestamp")); diff != "" {
		t.Errorf("frame records mismatch (-want +got):\n%s", diff)
	}
}

func TestFrames_OrderedByFrameNumber(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, "life")
	for _, frame := range []int{2, 0, 1} {
		require.NoError(t, s.RecordFrame(frame, display.FrameReport{Mode: "sparse"}, time.Millisecond))
	}

	records, err := s.Frames(s.SessionID())
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, i, r.Frame)
	}
}

func TestSessions_Aggregates(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, "fireplace")
	require.NoError(t, s.RecordFrame(0, display.FrameReport{Mode: "full", Bytes: 768}, time.Millisecond))
	require.NoError(t, s.RecordFrame(1, display.FrameReport{Mode: "sparse", Bytes: 30}, time.Millisecond))
	require.NoError(t, s.RecordFrame(2, display.FrameReport{Mode: "sparse", Bytes: 12}, time.Millisecond))
	require.NoError(t, s.RecordFrame(3, display.FrameReport{Mode: "skip"}, time.Millisecond))

	summaries, err := s.Sessions()
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	sum := summaries[0]
	assert.Equal(t, 4, sum.Frames)
	assert.Equal(t, int64(810), sum.TotalBytes)
	assert.Equal(t, 1, sum.FullFrames)
	assert.Equal(t, 2, sum.SparseCount)
}

func TestLatestSessionID(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stats.db")

	first, err := NewStore(path, "fireplace")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// Make the second session unambiguously later.
	time.Sleep(50 * time.Millisecond)

	second, err := NewStore(path, "snake")
	require.NoError(t, err)
	defer second.Close()

	latest, err := second.LatestSessionID()
	require.NoError(t, err)
	assert.Equal(t, second.SessionID(), latest)
	assert.NotEqual(t, first.SessionID(), latest)
}

func TestOpenStore_ReadsExistingData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stats.db")
	writer, err := NewStore(path, "snowfall")
	require.NoError(t, err)
	require.NoError(t, writer.RecordFrame(0, display.FrameReport{Mode: "full", Bytes: 10}, time.Millisecond))
	sessionID := writer.SessionID()
	require.NoError(t, writer.Close())

	reader, err := OpenStore(path)
	require.NoError(t, err)
	defer reader.Close()

	records, err := reader.Frames(sessionID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "full", records[0].Mode)
}

func TestLatestSessionID_EmptyDatabase(t *testing.T) {
	t.Parallel()

	reader, err := OpenStore(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.LatestSessionID()
	assert.Error(t, err)
}
