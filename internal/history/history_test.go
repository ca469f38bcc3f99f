package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debugmate-ai/debugmate/pkg/types"
)

func record(id string) *types.AnalysisRecord {
	return &types.AnalysisRecord{
		ID:        id,
		Result:    &types.AnalysisResult{RCA: "rca for " + id},
		CreatedAt: time.Now(),
	}
}

func TestEmptyNavigator(t *testing.T) {
	n := New()

	assert.Equal(t, -1, n.Cursor())
	assert.Equal(t, 0, n.Len())
	assert.Nil(t, n.Current())
	assert.Nil(t, n.Navigate(-1))
	assert.Nil(t, n.Navigate(1))
	assert.Equal(t, -1, n.Cursor())
}

func TestPushAdvancesCursor(t *testing.T) {
	n := New()
	n.Push(record("a"))
	assert.Equal(t, 0, n.Cursor())
	n.Push(record("b"))
	assert.Equal(t, 1, n.Cursor())
	require.NotNil(t, n.Current())
	assert.Equal(t, "b", n.Current().ID)
}

func TestNavigateClamps(t *testing.T) {
	n := New()
	n.Push(record("a"))
	n.Push(record("b"))
	n.Push(record("c"))

	got := n.Navigate(-1)
	require.NotNil(t, got)
	assert.Equal(t, "b", got.ID)
	assert.Equal(t, 1, n.Cursor())

	// Clamp at both ends.
	got = n.Navigate(-10)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, 0, n.Cursor())
	got = n.Navigate(10)
	assert.Equal(t, "c", got.ID)
	assert.Equal(t, 2, n.Cursor())
}

func TestPushTruncatesAbandonedBranch(t *testing.T) {
	n := New()
	n.Push(record("a"))
	n.Push(record("b"))
	n.Push(record("c"))

	got := n.Navigate(-1)
	require.Equal(t, "b", got.ID)

	n.Push(record("d"))
	assert.Equal(t, 3, n.Len())
	assert.Equal(t, 2, n.Cursor())
	assert.Equal(t, "d", n.Current().ID)

	// c is gone: walking back yields b then a.
	assert.Equal(t, "b", n.Navigate(-1).ID)
	assert.Equal(t, "a", n.Navigate(-1).ID)
}

func TestClear(t *testing.T) {
	n := New()
	for i := 0; i < 3; i++ {
		n.Push(record(fmt.Sprintf("r%d", i)))
	}

	n.Clear()
	assert.Equal(t, -1, n.Cursor())
	assert.Equal(t, 0, n.Len())
	assert.Nil(t, n.Current())
}

func TestCursorInvariant(t *testing.T) {
	n := New()
	deltas := []int{-1, 1, -3, 2, 5, -5, 0}

	for i := 0; i < 6; i++ {
		n.Push(record(fmt.Sprintf("r%d", i)))
		for _, d := range deltas {
			n.Navigate(d)
			require.GreaterOrEqual(t, n.Cursor(), 0)
			require.Less(t, n.Cursor(), n.Len())
		}
	}

	n.Clear()
	require.Equal(t, -1, n.Cursor())
}
