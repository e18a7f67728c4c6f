package ioformats

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// Markdown renders content region markup for terminal output.
type Markdown struct {
	conv *converter.Converter
}

func NewMarkdown() *Markdown {
	return &Markdown{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Convert turns markup into markdown. Relative links are made absolute
// against pageURL when it is set.
func (m *Markdown) Convert(markup, pageURL string) (string, error) {
	var out string
	var err error
	if pageURL != "" {
		out, err = m.conv.ConvertString(markup, converter.WithDomain(pageURL))
	} else {
		out, err = m.conv.ConvertString(markup)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
