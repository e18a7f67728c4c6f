package effects

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var whitespaceSplit = regexp.MustCompile(`(\s+)`)

// hoverBlur splits the direct text of every .blur element under scope into
// one inline-block span per character, remembering the character for the
// scramble animation. Element children are left alone.
func hoverBlur(scope string) func(context.Context, *goquery.Document) error {
	return func(_ context.Context, doc *goquery.Document) error {
		doc.Find(scope + " .blur").Each(func(_ int, s *goquery.Selection) {
			for _, el := range s.Nodes {
				wrapChars(el)
			}
		})
		return nil
	}
}

func wrapChars(el *html.Node) {
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			for _, r := range c.Data {
				ch := string(r)
				span := newElement(atom.Span,
					html.Attribute{Key: "data-original-char", Val: ch},
					html.Attribute{Key: "style", Val: "display: inline-block;"},
				)
				span.AppendChild(textNode(ch))
				el.InsertBefore(span, c)
			}
			el.RemoveChild(c)
		}
		c = next
	}
}

// staggerFade wraps each word of a .stagger-fade element's direct text in a
// span so words can fade in one after another.
func staggerFade(_ context.Context, doc *goquery.Document) error {
	doc.Find(".stagger-fade").Each(func(_ int, s *goquery.Selection) {
		if s.AttrOr("data-staggered", "") == "true" {
			return
		}
		for _, el := range s.Nodes {
			wrapWords(el)
		}
		s.SetAttr("data-staggered", "true")
	})
	return nil
}

func wrapWords(el *html.Node) {
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode {
			for _, part := range splitKeepSpace(c.Data) {
				if strings.TrimSpace(part) == "" {
					el.InsertBefore(textNode(part), c)
					continue
				}
				span := newElement(atom.Span)
				span.AppendChild(textNode(part))
				el.InsertBefore(span, c)
			}
			el.RemoveChild(c)
		}
		c = next
	}
}

// splitKeepSpace splits s into alternating words and whitespace runs.
func splitKeepSpace(s string) []string {
	var out []string
	last := 0
	for _, loc := range whitespaceSplit.FindAllStringIndex(s, -1) {
		if loc[0] > last {
			out = append(out, s[last:loc[0]])
		}
		out = append(out, s[loc[0]:loc[1]])
		last = loc[1]
	}
	if last < len(s) {
		out = append(out, s[last:])
	}
	return out
}

// cursorLabel hides the floating cursor label left visible by the previous page.
func cursorLabel(_ context.Context, doc *goquery.Document) error {
	label := doc.Find("#cursorLabel").First()
	if label.Length() == 0 {
		return nil
	}
	setStyle(label, "opacity", "0")
	return nil
}
