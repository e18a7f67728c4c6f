// Package effects holds the site's effect installers. Each one performs the
// structural DOM work of an effect (wrapping text, building grids, applying
// the theme) and is safe to run repeatedly over the same tree.
package effects

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"sitenav/internal/lifecycle"
	"sitenav/internal/models"
	"sitenav/internal/prefs"
)

const builtAttr = "data-built"

type Options struct {
	ContentSelector string
	HeaderSelector  string
	FooterSelector  string
	BodyIDAttr      string
	Viewport        models.Viewport
	Prefs           prefs.Store
}

func (o Options) withDefaults() Options {
	if o.ContentSelector == "" {
		o.ContentSelector = "#content"
	}
	if o.HeaderSelector == "" {
		o.HeaderSelector = "#header"
	}
	if o.FooterSelector == "" {
		o.FooterSelector = "#footer"
	}
	if o.BodyIDAttr == "" {
		o.BodyIDAttr = "id"
	}
	if o.Viewport.Width == 0 || o.Viewport.Height == 0 {
		o.Viewport = models.Viewport{Width: 1440, Height: 900}
	}
	if o.Prefs == nil {
		o.Prefs = prefs.NewMemoryStore()
	}
	return o
}

// Register adds the site's installers to reg in their fixed order.
func Register(reg *lifecycle.Registry, opts Options) error {
	opts = opts.withDefaults()

	static := []struct {
		name string
		fn   lifecycle.InstallFunc
	}{
		{"theme", func(ctx context.Context, doc *goquery.Document) error {
			_, err := ApplyTheme(ctx, doc, opts.Prefs)
			return err
		}},
		{"hover-blur-header", hoverBlur(opts.HeaderSelector)},
		{"hover-blur-footer", hoverBlur(opts.FooterSelector)},
	}
	perContent := []struct {
		name string
		fn   lifecycle.InstallFunc
	}{
		{"work-slider", workSlider},
		{"hover-blur", hoverBlur(opts.ContentSelector)},
		{"cursor-label", cursorLabel},
		{"stagger-fade", staggerFade},
		{"pixel-reveal", pixelReveal},
		{"cursor-grid", cursorGrid(opts.Viewport)},
		{"circle-fill", circleFill(opts.BodyIDAttr)},
	}

	for _, in := range static {
		if err := reg.Register(in.name, lifecycle.Static, in.fn); err != nil {
			return err
		}
	}
	for _, in := range perContent {
		if err := reg.Register(in.name, lifecycle.PerContent, in.fn); err != nil {
			return err
		}
	}
	return nil
}

func newElement(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// setStyle sets one inline style property, keeping the others.
func setStyle(s *goquery.Selection, prop, value string) {
	var kept []string
	for _, decl := range strings.Split(s.AttrOr("style", ""), ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, _, _ := strings.Cut(decl, ":")
		if strings.EqualFold(strings.TrimSpace(name), prop) {
			continue
		}
		kept = append(kept, decl)
	}
	kept = append(kept, prop+": "+value)
	s.SetAttr("style", strings.Join(kept, "; ")+";")
}
