// Package dom holds the document capability set the navigation core runs
// against: selector queries, HTML parsing, subtree markup replacement and
// the document's address. A Document serializes all access through View and
// Update, so an update is atomic with respect to every other reader.
package dom

import (
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"sitenav/internal/urlnorm"
)

var ErrNoDocument = errors.New("dom: document not loaded")

type Document struct {
	mu  sync.RWMutex
	doc *goquery.Document
	url *url.URL
}

// New wraps an already parsed goquery document.
func New(doc *goquery.Document, u *url.URL) *Document {
	if doc != nil {
		doc.Url = u
	}
	return &Document{doc: doc, url: u}
}

// Empty returns a document with no tree, to be filled by Replace.
func Empty() *Document { return &Document{} }

// Parse reads an HTML document from r. rawURL becomes its address and may
// be empty.
func Parse(r io.Reader, rawURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	var u *url.URL
	if rawURL != "" {
		if u, err = url.Parse(rawURL); err != nil {
			return nil, err
		}
	}
	return New(doc, u), nil
}

// ParseString is Parse for in-memory markup.
func ParseString(markup, rawURL string) (*Document, error) {
	return Parse(strings.NewReader(markup), rawURL)
}

// View runs fn with shared access to the tree.
func (d *Document) View(fn func(doc *goquery.Document) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.doc == nil {
		return ErrNoDocument
	}
	return fn(d.doc)
}

// Update runs fn with exclusive access to the tree.
func (d *Document) Update(fn func(doc *goquery.Document) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.doc == nil {
		return ErrNoDocument
	}
	return fn(d.doc)
}

// UpdateLocation is Update for a change that also moves the document to u,
// as a same-document navigation does. The address only changes if fn
// succeeds.
func (d *Document) UpdateLocation(u *url.URL, fn func(doc *goquery.Document) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.doc == nil {
		return ErrNoDocument
	}
	if err := fn(d.doc); err != nil {
		return err
	}
	d.url = u
	d.doc.Url = u
	return nil
}

// Replace swaps in the tree and address of other, which must not be used
// afterwards. This is what a full (non-partial) navigation does.
func (d *Document) Replace(other *Document) {
	other.mu.Lock()
	doc, u := other.doc, other.url
	other.doc, other.url = nil, nil
	other.mu.Unlock()

	d.mu.Lock()
	d.doc, d.url = doc, u
	if d.doc != nil {
		d.doc.Url = u
	}
	d.mu.Unlock()
}

func (d *Document) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc != nil
}

// URL returns a copy of the document's address, or nil.
func (d *Document) URL() *url.URL {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.url == nil {
		return nil
	}
	u := *d.url
	return &u
}

// Resolve turns an href found in the document into an absolute URL, the way
// a browser computes a link's href property.
func (d *Document) Resolve(href string) (*url.URL, error) {
	base := d.URL()
	_ = d.View(func(doc *goquery.Document) error {
		if b, ok := doc.Find("head base[href]").First().Attr("href"); ok {
			if bu, err := urlnorm.Resolve(base, b); err == nil {
				base = bu
			}
		}
		return nil
	})
	return urlnorm.Resolve(base, href)
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	var out string
	err := d.View(func(doc *goquery.Document) error {
		var err error
		out, err = goquery.OuterHtml(doc.Selection)
		return err
	})
	return out, err
}

// ElementByID returns the first element whose id attribute equals id.
func ElementByID(doc *goquery.Document, id string) *goquery.Selection {
	return doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	}).First()
}
