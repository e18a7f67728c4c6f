// Package chrome loads the shared header and footer partials into a freshly
// loaded document.
package chrome

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sitenav/internal/dom"
	"sitenav/pkg/logger"
)

// Fetcher is the subset of the HTTP client the loader needs.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, string, time.Duration, error)
}

// Partial maps a partial's path to the placeholder it fills.
type Partial struct {
	Path     string `yaml:"path" koanf:"path"`
	Selector string `yaml:"selector" koanf:"selector"`
}

var DefaultPartials = []Partial{
	{Path: "/utilities/header.html", Selector: "#header"},
	{Path: "/utilities/footer.html", Selector: "#footer"},
}

type Loader struct {
	fetcher  Fetcher
	partials []Partial
	log      *logger.Logger
}

func NewLoader(f Fetcher, partials []Partial, log *logger.Logger) *Loader {
	if partials == nil {
		partials = DefaultPartials
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{fetcher: f, partials: partials, log: log}
}

// Load fetches every partial relative to the document's address and sets it
// as the inner markup of its placeholder. A partial that fails to load is
// logged and skipped; the number loaded is returned.
func (l *Loader) Load(ctx context.Context, doc *dom.Document) int {
	loaded := 0
	for _, p := range l.partials {
		if err := l.loadOne(ctx, doc, p); err != nil {
			l.log.Errorf("chrome: failed to load %s: %v", p.Path, err)
			continue
		}
		loaded++
	}
	return loaded
}

func (l *Loader) loadOne(ctx context.Context, doc *dom.Document, p Partial) error {
	u, err := doc.Resolve(p.Path)
	if err != nil {
		return err
	}
	body, _, _, _, err := l.fetcher.Fetch(ctx, u.String())
	if err != nil {
		return err
	}
	defer body.Close()
	markup, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	return doc.Update(func(d *goquery.Document) error {
		target := d.Find(p.Selector).First()
		if target.Length() == 0 {
			return fmt.Errorf("no element matches %s", p.Selector)
		}
		target.SetHtml(string(markup))
		return nil
	})
}
