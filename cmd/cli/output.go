package main

import (
	"fmt"
	"io"
	"strings"

	"sitenav/internal/ioformats"
	"sitenav/internal/models"
)

// recorder writes step results in the chosen format.
type recorder struct {
	w      io.Writer
	format string
	md     *ioformats.Markdown
}

func newRecorder(w io.Writer, format string) *recorder {
	r := &recorder{w: w, format: format}
	if format == formatMarkdown {
		r.md = ioformats.NewMarkdown()
	}
	return r
}

func (r *recorder) record(i int, res models.StepResult) error {
	if r.format != formatMarkdown {
		return ioformats.WriteNDJSON(r.w, res)
	}

	md, err := r.md.Convert(res.Snapshot.ContentHTML, res.Snapshot.Location)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %d. %s", i+1, res.Step.Action)
	if res.Step.Target != "" {
		fmt.Fprintf(&b, " `%s`", res.Step.Target)
	}
	b.WriteString("\n\n")
	if res.Error != "" {
		fmt.Fprintf(&b, "> error: %s\n\n", res.Error)
	} else {
		fmt.Fprintf(&b, "> %s: %s (%s)\n\n", res.Outcome, res.Snapshot.Meta.Title, res.Snapshot.Location)
	}
	if md != "" {
		b.WriteString(md)
		b.WriteString("\n\n")
	}
	_, err = io.WriteString(r.w, b.String())
	return err
}
