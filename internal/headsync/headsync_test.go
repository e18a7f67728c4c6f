package headsync

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const livePage = `<html><head>
<meta charset="utf-8">
<title>Work</title>
<meta name="description" content="Selected work">
<meta property="og:title" content="Work">
<meta property="og:image" content="/work.png">
<link rel="stylesheet" href="/style.css">
<meta name="theme-color" content="#e2ebe9">
</head><body id="work"></body></html>`

const fetchedPage = `<html><head>
<title>Contact</title>
<meta name="twitter:card" content="summary">
<meta property="og:title" content="Contact">
<meta property="og:url" content="https://site.com/contact/">
<link rel="preload" href="/a.woff2" as="font">
<link rel="preload" href="/b.woff2" as="font">
</head><body id="contact"></body></html>`

func docFrom(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestReconcile(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	live, fetched := docFrom(t, livePage), docFrom(t, fetchedPage)
	res := r.Reconcile(live, fetched)

	head := live.Find("head")
	assert.Equal(t, 1, head.Find("title").Length())
	assert.Equal(t, "Contact", head.Find("title").Text())
	assert.Equal(t, 0, head.Find(`meta[name="description"]`).Length())
	assert.Equal(t, 0, head.Find(`meta[property="og:image"]`).Length())
	assert.Equal(t, "Contact", head.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	assert.Equal(t, 1, head.Find(`meta[name="twitter:card"]`).Length())

	// untouched tags
	assert.Equal(t, 1, head.Find(`link[rel="stylesheet"]`).Length())
	assert.Equal(t, 1, head.Find(`meta[name="theme-color"]`).Length())
	assert.Equal(t, 1, head.Find(`meta[charset]`).Length())

	// fetched order kept within a selector
	preloads := head.Find(`link[rel="preload"]`)
	require.Equal(t, 2, preloads.Length())
	assert.Equal(t, "/a.woff2", preloads.Eq(0).AttrOr("href", ""))
	assert.Equal(t, "/b.woff2", preloads.Eq(1).AttrOr("href", ""))

	assert.Equal(t, 4, res.Removed)
	assert.Equal(t, 6, res.Added)
	assert.Equal(t, "contact", res.BodyID)
	assert.Equal(t, "contact", live.Find("body").AttrOr("id", ""))

	// the fetched document keeps its own nodes
	assert.Equal(t, 1, fetched.Find("head title").Length())
}

func TestReconcileTwiceHasNoDuplicates(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	live := docFrom(t, livePage)
	r.Reconcile(live, docFrom(t, fetchedPage))
	r.Reconcile(live, docFrom(t, fetchedPage))

	assert.Equal(t, 1, live.Find("head title").Length())
	assert.Equal(t, 2, live.Find(`head link[rel="preload"]`).Length())
	assert.Equal(t, 2, live.Find(`head meta[property^="og:"]`).Length())
}

func TestBodyIDPolicy(t *testing.T) {
	noID := `<html><head><title>Plain</title></head><body></body></html>`

	r, err := New(nil)
	require.NoError(t, err)
	live := docFrom(t, livePage)
	res := r.Reconcile(live, docFrom(t, noID))
	assert.Equal(t, "", res.BodyID)
	_, ok := live.Find("body").Attr("id")
	assert.False(t, ok)

	r.ClearStaleBodyID = false
	live = docFrom(t, livePage)
	res = r.Reconcile(live, docFrom(t, noID))
	assert.Equal(t, "work", res.BodyID)
	assert.Equal(t, "work", live.Find("body").AttrOr("id", ""))
}

func TestNewRejectsBadSelector(t *testing.T) {
	_, err := New([]string{"title", "meta[name="})
	assert.Error(t, err)
}

func TestCustomSelectors(t *testing.T) {
	r, err := New([]string{"title"})
	require.NoError(t, err)
	assert.Equal(t, []string{"title"}, r.Selectors())

	live := docFrom(t, livePage)
	r.Reconcile(live, docFrom(t, fetchedPage))
	// description is no longer replaceable, so it survives
	assert.Equal(t, 1, live.Find(`head meta[name="description"]`).Length())
}
