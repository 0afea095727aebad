package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatters(t *testing.T) {
	assert.Contains(t, FormatSuccess("done"), SuccessIcon)
	assert.Contains(t, FormatError("failed"), ErrorIcon)
	assert.Contains(t, FormatWarning("careful"), "careful")
	assert.Contains(t, FormatInfo("note"), "note")
	assert.Contains(t, FormatTitle("Stats"), MathIcon)
	assert.Contains(t, RenderBox("Title", "body"), "body")
}

func TestRenderTable(t *testing.T) {
	assert.Empty(t, RenderTable(nil))

	out := RenderTable([][]string{
		{"Total", "10"},
		{"Positive rate", "70.0%"},
	})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, strings.Index(lines[0], "10"), strings.Index(lines[1], "70.0%"))
}
