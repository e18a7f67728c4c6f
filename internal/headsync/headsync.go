// Package headsync brings the replaceable part of a live document's head in
// line with a freshly fetched page.
package headsync

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// DefaultSelectors is the replaceable head tag set, in reconciliation order.
var DefaultSelectors = []string{
	`title`,
	`meta[name="description"]`,
	`meta[name="application-name"]`,
	`link[rel="canonical"]`,
	`link[rel="preload"]`,
	`meta[property^="og:"]`,
	`meta[name^="twitter:"]`,
}

type rule struct {
	selector string
	sel      cascadia.Selector
}

type Reconciler struct {
	rules []rule

	// BodyIDAttr is copied from the fetched body onto the live body.
	BodyIDAttr string
	// ClearStaleBodyID removes the live identifier when the fetched page
	// has none. When false the previous page's identifier is kept.
	ClearStaleBodyID bool
}

// Result counts what a reconciliation changed.
type Result struct {
	Removed int
	Added   int
	BodyID  string
}

// New compiles selectors. An empty list means DefaultSelectors.
func New(selectors []string) (*Reconciler, error) {
	if len(selectors) == 0 {
		selectors = DefaultSelectors
	}
	r := &Reconciler{BodyIDAttr: "id", ClearStaleBodyID: true}
	for _, s := range selectors {
		sel, err := cascadia.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("head selector %q: %w", s, err)
		}
		r.rules = append(r.rules, rule{selector: s, sel: sel})
	}
	return r, nil
}

// Selectors returns the selector source strings in order.
func (r *Reconciler) Selectors() []string {
	out := make([]string, len(r.rules))
	for i, rl := range r.rules {
		out[i] = rl.selector
	}
	return out
}

// Reconcile replaces, selector by selector, every live head element matching
// the selector with deep copies of the fetched head's matches. Head elements
// outside the set are left alone. The fetched document is not modified.
func (r *Reconciler) Reconcile(live, fetched *goquery.Document) Result {
	var res Result
	liveHead := live.Find("head").First()
	fetchedHead := fetched.Find("head").First()

	for _, rl := range r.rules {
		stale := liveHead.FindMatcher(rl.sel)
		res.Removed += stale.Length()
		stale.Remove()

		fresh := fetchedHead.FindMatcher(rl.sel)
		if fresh.Length() == 0 {
			continue
		}
		res.Added += fresh.Length()
		liveHead.AppendSelection(fresh.Clone())
	}

	res.BodyID = r.syncBodyID(live, fetched)
	return res
}

func (r *Reconciler) syncBodyID(live, fetched *goquery.Document) string {
	attr := r.BodyIDAttr
	if attr == "" {
		attr = "id"
	}
	liveBody := live.Find("body").First()
	if id, ok := fetched.Find("body").First().Attr(attr); ok && id != "" {
		liveBody.SetAttr(attr, id)
		return id
	}
	if r.ClearStaleBodyID {
		liveBody.RemoveAttr(attr)
		return ""
	}
	return liveBody.AttrOr(attr, "")
}
