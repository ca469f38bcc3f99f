package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debugmate-ai/debugmate/pkg/types"
)

func testRecord(id string) *types.AnalysisRecord {
	return &types.AnalysisRecord{
		ID:        id,
		Result:    &types.AnalysisResult{RCA: "rca " + id},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestPutAndGet(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	record := testRecord("01ARZ3NDEKTSV4RRFFQ69G5FAA")
	require.NoError(t, s.Put(ctx, "sess1", record))

	got, err := s.Get(ctx, "sess1", record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, "rca "+record.ID, got.Result.RCA)
	assert.Equal(t, record.CreatedAt, got.CreatedAt)
}

func TestGetNotFound(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Get(context.Background(), "sess1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrderedByID(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	// ULIDs are monotonically sortable; write out of order.
	ids := []string{
		ulid.MustNew(3000, nil).String(),
		ulid.MustNew(1000, nil).String(),
		ulid.MustNew(2000, nil).String(),
	}
	for _, id := range ids {
		require.NoError(t, s.Put(ctx, "sess1", testRecord(id)))
	}

	records, err := s.List(ctx, "sess1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.True(t, records[0].ID < records[1].ID)
	assert.True(t, records[1].ID < records[2].ID)
}

func TestListEmptySession(t *testing.T) {
	s := New(t.TempDir())
	records, err := s.List(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSessions(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a", testRecord("r1")))
	require.NoError(t, s.Put(ctx, "b", testRecord("r2")))

	ids, err := s.Sessions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestDelete(t *testing.T) {
	tmp := t.TempDir()
	s := New(tmp)
	ctx := context.Background()

	record := testRecord("r1")
	require.NoError(t, s.Put(ctx, "sess1", record))
	require.NoError(t, s.Delete(ctx, "sess1", "r1"))

	_, err := s.Get(ctx, "sess1", "r1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Idempotent.
	assert.NoError(t, s.Delete(ctx, "sess1", "r1"))

	// No stray lock files left behind.
	entries, err := os.ReadDir(filepath.Join(tmp, "record", "sess1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
