package ioformats

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitenav/internal/models"
)

func TestParseStep(t *testing.T) {
	s, err := ParseStep("  Click   #to-work ")
	require.NoError(t, err)
	assert.Equal(t, models.Step{Action: "click", Target: "#to-work"}, s)

	s, err = ParseStep("back")
	require.NoError(t, err)
	assert.Equal(t, models.Step{Action: "back"}, s)

	s, err = ParseStep(`click a[href="/work/"] span`)
	require.NoError(t, err)
	assert.Equal(t, `a[href="/work/"] span`, s.Target)

	_, err = ParseStep("click")
	assert.ErrorContains(t, err, "needs a target")
	_, err = ParseStep("back twice")
	assert.ErrorContains(t, err, "takes no target")
	_, err = ParseStep("hover #x")
	assert.ErrorContains(t, err, "unknown step action")
}

func TestReadSteps(t *testing.T) {
	dir := t.TempDir()
	want := []models.Step{
		{Action: "open", Target: "https://site.com/"},
		{Action: "click", Target: "#to-work"},
		{Action: "back"},
	}

	files := map[string]string{
		"walk.csv": "action,target\nopen,https://site.com/\nclick,#to-work\n,\nback,\n",
		"walk.ndjson": `{"action":"open","target":"https://site.com/"}
# comment
click #to-work

{"action":"back"}
`,
		"walk.txt": "open https://site.com/\nclick #to-work\nback\n",
	}
	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			got, err := ReadSteps(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("url\nhttps://site.com/\n"))
	assert.ErrorContains(t, err, "'action' header")

	_, err = ReadCSV(strings.NewReader("action,target\nclick,\n"))
	assert.ErrorContains(t, err, "csv row 2")
}

func TestReadNDJSONEmpty(t *testing.T) {
	_, err := ReadNDJSON(strings.NewReader("\n\n"))
	assert.Error(t, err)
}

func TestWriteNDJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(&buf,
		models.StepResult{Step: models.Step{Action: "back"}, Outcome: "navigated"},
		models.StepResult{Step: models.Step{Action: "theme"}, Error: "boom"},
	))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"outcome":"navigated"`)
	assert.Contains(t, lines[1], `"error":"boom"`)
}

func TestMarkdown(t *testing.T) {
	md := NewMarkdown()
	out, err := md.Convert(`<h1>Work</h1><p>See <a href="/contact/">contact</a>.</p>`, "https://site.com/work/")
	require.NoError(t, err)
	assert.Contains(t, out, "# Work")
	assert.Contains(t, out, "[contact](https://site.com/contact/)")

	out, err = md.Convert("<p><strong>bold</strong></p>", "")
	require.NoError(t, err)
	assert.Equal(t, "**bold**", out)
}
