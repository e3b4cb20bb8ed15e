package output_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/reclinepreview/internal/cli/output"
	"github.com/leapstack-labs/reclinepreview/internal/cli/testutil"
)

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want output.OutputMode
	}{
		{in: "text", want: output.ModeText},
		{in: "markdown", want: output.ModeMarkdown},
		{in: "json", want: output.ModeJSON},
		{in: "auto", want: output.ModeAuto},
		{in: "", want: output.ModeAuto},
		{in: "yaml", want: output.ModeAuto},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, output.Mode(tt.in))
		})
	}
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  output.OutputMode
		isTTY bool
		want  output.OutputMode
	}{
		{name: "auto on tty", mode: output.ModeAuto, isTTY: true, want: output.ModeText},
		{name: "auto piped", mode: output.ModeAuto, isTTY: false, want: output.ModeMarkdown},
		{name: "explicit text piped", mode: output.ModeText, isTTY: false, want: output.ModeText},
		{name: "explicit json on tty", mode: output.ModeJSON, isTTY: true, want: output.ModeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := testutil.NewTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, tr.EffectiveMode())
			assert.Equal(t, tt.isTTY, tr.IsTTY())
		})
	}
}

func TestRenderer_Markdown(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()

	tr.Header(1, "Resources (2)")
	tr.Table([]string{"ID", "Name"}, [][]string{{"r1", "prices"}, {"r2", "addresses"}})
	tr.Println(output.FormatKeyValue("Format", "CSV"))
	tr.Println(output.FormatCodeBlock("html", "<div></div>\n"))

	out := tr.Output()
	assert.True(t, strings.HasPrefix(out, "# Resources (2)\n"))
	assert.Contains(t, out, "| ID | Name |")
	assert.Contains(t, out, "| r1 | prices |")
	assert.Contains(t, out, "- **Format:** CSV")
	assert.Contains(t, out, "```html\n<div></div>\n```")
	testutil.AssertValidMarkdown(t, out)
	testutil.AssertOutputMode(t, tr, output.ModeMarkdown)
}

func TestRenderer_Text(t *testing.T) {
	tr := testutil.NewTestRendererText()

	tr.Header(2, "View types")
	tr.Table([]string{"Name"}, [][]string{{"recline_grid"}})
	tr.Success("done")
	tr.Muted("hint")

	out := tr.Output()
	assert.Contains(t, out, "View types")
	assert.Contains(t, out, "recline_grid")
	assert.Contains(t, out, "┌")
	assert.Contains(t, out, "✓ done")
	assert.Contains(t, out, "hint")
	assert.Empty(t, tr.ErrorOutput())
}

func TestRenderer_Diagnostics(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeText, false)

	tr.Warning("no datastore")
	tr.Error("failed")

	assert.Empty(t, tr.Output())
	assert.Contains(t, tr.ErrorOutput(), "! no datastore")
	assert.Contains(t, tr.ErrorOutput(), "✗ failed")
	testutil.AssertNoANSI(t, tr.ErrorOutput())
}

func TestRenderer_JSON(t *testing.T) {
	tr := testutil.NewTestRendererJSON()

	err := tr.JSON(output.RenderOutput{ViewType: "recline_grid", Template: "recline_view.html", HTML: "<div></div>"})
	require.NoError(t, err)

	out := tr.Output()
	assert.Contains(t, out, `"view_type": "recline_grid"`)
	assert.Contains(t, out, `"html": "<div></div>"`)
	testutil.AssertOutputMode(t, tr, output.ModeJSON)
}
