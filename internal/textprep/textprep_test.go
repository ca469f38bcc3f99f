package textprep

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNotebook = `{
	"cells": [
		{"cell_type": "code", "source": "print(1)"},
		{"cell_type": "markdown", "source": ["# ", "title"]},
		{"cell_type": "code", "source": ["print(2)"]}
	]
}`

func TestPrepareNotebookCells(t *testing.T) {
	got := Prepare("/tmp/demo.ipynb", sampleNotebook, Options{
		Limit:            1024,
		NotebookStrategy: StrategyCells,
	})

	require.True(t, got.Converted)
	assert.Equal(t, "Converted from .ipynb", got.Note)

	// Blocks are tagged and in original order.
	iFirst := strings.Index(got.Text, "# [code]\nprint(1)")
	iSecond := strings.Index(got.Text, "# [md]\n# title")
	iThird := strings.Index(got.Text, "# [code]\nprint(2)")
	require.GreaterOrEqual(t, iFirst, 0)
	require.Greater(t, iSecond, iFirst)
	require.Greater(t, iThird, iSecond)

	// Trimmed: no leading separator.
	assert.False(t, strings.HasPrefix(got.Text, "\n"))
}

func TestPrepareMalformedNotebookFallsBack(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":   "{ nope",
		"no cells":   `{"metadata": {}}`,
		"cells junk": `{"cells": [{"cell_type": "code", "source": 42}]}`,
	} {
		got := Prepare("x.ipynb", raw, Options{Limit: 1024, NotebookStrategy: StrategyCells})
		assert.Equal(t, raw, got.Text, name)
		assert.False(t, got.Converted, name)
		assert.Empty(t, got.Note, name)
	}
}

func TestPrepareRawStrategySkipsExtraction(t *testing.T) {
	got := Prepare("x.ipynb", sampleNotebook, Options{Limit: 1 << 20, NotebookStrategy: StrategyRaw})
	assert.Equal(t, sampleNotebook, got.Text)
	assert.False(t, got.Converted)
}

func TestPrepareNonNotebookPath(t *testing.T) {
	got := Prepare("trace.log", sampleNotebook, Options{Limit: 1 << 20, NotebookStrategy: StrategyCells})
	assert.Equal(t, sampleNotebook, got.Text)
	assert.False(t, got.Converted)
}

func TestPrepareTruncation(t *testing.T) {
	input := strings.Repeat("a", 101)

	got := Prepare("trace.log", input, Options{Limit: 100, NotebookStrategy: StrategyCells})
	require.True(t, got.Truncated)
	assert.Len(t, got.Text, 100)
	assert.Equal(t, "Truncated large input for performance", got.Note)

	got = Prepare("trace.log", input[:100], Options{Limit: 100, NotebookStrategy: StrategyCells})
	assert.False(t, got.Truncated)
	assert.Equal(t, input[:100], got.Text)
	assert.Empty(t, got.Note)
}

func TestPrepareNotebookThenTruncation(t *testing.T) {
	got := Prepare("demo.ipynb", sampleNotebook, Options{Limit: 12, NotebookStrategy: StrategyCells})
	require.True(t, got.Converted)
	require.True(t, got.Truncated)
	assert.Equal(t, "Converted from .ipynb; Truncated large input for performance", got.Note)
	assert.Len(t, got.Text, 12)
}

func TestClampUTF8Boundary(t *testing.T) {
	// "héllo": é is two bytes (0xC3 0xA9); a cut inside it must back off.
	s := "héllo"
	out, truncated := Clamp(s, 2)
	require.True(t, truncated)
	assert.Equal(t, "h", out)

	out, truncated = Clamp(s, len(s))
	assert.False(t, truncated)
	assert.Equal(t, s, out)
}

func TestClampDisabled(t *testing.T) {
	out, truncated := Clamp("anything", 0)
	assert.False(t, truncated)
	assert.Equal(t, "anything", out)
}

func TestExtractNotebookEmptyCells(t *testing.T) {
	_, ok := ExtractNotebook(`{"cells": []}`)
	assert.False(t, ok)
}
