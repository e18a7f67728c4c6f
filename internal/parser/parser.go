package parser

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"sitenav/internal/dom"
	"sitenav/internal/models"
)

type Parser struct {
	// BodyIDAttr is the body attribute reported as the page identifier.
	BodyIDAttr string
}

func New() *Parser { return &Parser{BodyIDAttr: "id"} }

// Parse decodes r to UTF-8 according to contentType and the document's own
// hints, and parses it into a detached document addressed at rawURL.
func (p *Parser) Parse(r io.Reader, contentType, rawURL string) (*dom.Document, error) {
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}
	data := buf.Bytes()

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return nil, err
		}
		utf8data = data
	}
	return dom.Parse(bytes.NewReader(utf8data), rawURL)
}

// Summarize reads the page metadata used for logging and session snapshots.
func (p *Parser) Summarize(doc *goquery.Document) models.PageMeta {
	head := doc.Find("head")

	title := strings.TrimSpace(head.Find("title").First().Text())
	desc := strings.TrimSpace(head.Find(`meta[name="description"]`).AttrOr("content", ""))
	if desc == "" {
		desc = strings.TrimSpace(head.Find(`meta[property="og:description"]`).AttrOr("content", ""))
	}

	var og map[string]string
	head.Find(`meta[property^="og:"]`).Each(func(i int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		content, _ := s.Attr("content")
		if prop != "" && content != "" {
			if og == nil {
				og = map[string]string{}
			}
			og[prop] = content
		}
	})

	attr := p.BodyIDAttr
	if attr == "" {
		attr = "id"
	}

	return models.PageMeta{
		Title:       title,
		Description: desc,
		Canonical:   strings.TrimSpace(head.Find(`link[rel="canonical"]`).AttrOr("href", "")),
		OG:          og,
		BodyID:      doc.Find("body").AttrOr(attr, ""),
		H1:          strings.TrimSpace(doc.Find("h1").First().Text()),
	}
}
