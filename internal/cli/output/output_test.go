package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferRenderer(mode Mode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewRenderer(&out, &errOut, mode), &out, &errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		want Mode
	}{
		{name: "explicit text", mode: ModeText, want: ModeText},
		{name: "explicit json", mode: ModeJSON, want: ModeJSON},
		{name: "explicit markdown", mode: ModeMarkdown, want: ModeMarkdown},
		{name: "auto on a buffer is markdown", mode: ModeAuto, want: ModeMarkdown},
		{name: "empty defaults to auto", mode: "", want: ModeMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newBufferRenderer(tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestHeaderByMode(t *testing.T) {
	r, out, _ := newBufferRenderer(ModeMarkdown)
	r.Header(1, "Summary")
	r.Header(2, "Details")
	assert.Contains(t, out.String(), "# Summary")
	assert.Contains(t, out.String(), "## Details")

	r, out, _ = newBufferRenderer(ModeText)
	r.Header(1, "Summary")
	assert.Contains(t, out.String(), "Summary")
	assert.NotContains(t, out.String(), "# Summary")
}

func TestStatusLine(t *testing.T) {
	r, out, _ := newBufferRenderer(ModeText)

	r.StatusLine("clickhouse", "success", "connected")
	r.StatusLine("gemini", "failed", "")
	r.StatusLine("metadata", "warning", "file missing")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "✓")
	assert.Contains(t, lines[0], "clickhouse")
	assert.Contains(t, lines[0], "connected")
	assert.Contains(t, lines[1], "✗")
	assert.Contains(t, lines[2], "!")
}

func TestStatusAndErrorLinesSplitWriters(t *testing.T) {
	r, out, errOut := newBufferRenderer(ModeText)

	r.Success("saved")
	r.Error("broke")
	r.Warning("careful")

	assert.Contains(t, out.String(), "saved")
	assert.NotContains(t, out.String(), "broke")
	assert.Contains(t, errOut.String(), "broke")
	assert.Contains(t, errOut.String(), "careful")
}

func TestJSON(t *testing.T) {
	r, out, _ := newBufferRenderer(ModeJSON)

	require.NoError(t, r.JSON(map[string]int{"tables": 3}))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 3, decoded["tables"])
	assert.Contains(t, out.String(), "  \"tables\"", "output is indented")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(1, "Title"))
	assert.Equal(t, "### Deep", FormatHeader(3, "Deep"))
	assert.Equal(t, "- **Tables**: 12", FormatKeyValue("Tables", "12"))
	assert.Equal(t, "```sql\nSELECT 1\n```", FormatCodeBlock("sql", "SELECT 1"))
}

func TestSpinnerPlainFallback(t *testing.T) {
	r, out, errOut := newBufferRenderer(ModeText)

	s := r.NewSpinner("extracting")
	s.Start()
	s.Update("still extracting")
	s.Success("done")

	// Buffers are not TTYs, so the spinner must not animate; it prints
	// the label once and the outcome line.
	assert.Contains(t, out.String(), "extracting...")
	assert.Contains(t, out.String(), "done")
	assert.Empty(t, errOut.String())
}

func TestSpinnerFail(t *testing.T) {
	r, _, errOut := newBufferRenderer(ModeText)

	s := r.NewSpinner("connecting")
	s.Start()
	s.Fail("connection refused")

	assert.Contains(t, errOut.String(), "connection refused")
}
