package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc(t *testing.T) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body></body></html>`))
	require.NoError(t, err)
	return doc
}

func TestRunOrderAndErrors(t *testing.T) {
	r := NewRegistry(nil)
	var calls []string
	record := func(name string, err error) InstallFunc {
		return func(context.Context, *goquery.Document) error {
			calls = append(calls, name)
			return err
		}
	}
	r.MustRegister("header-blur", Static, record("header-blur", nil))
	r.MustRegister("fade", PerContent, record("fade", nil))
	r.MustRegister("broken", PerContent, record("broken", errors.New("boom")))
	r.MustRegister("grid", PerContent, record("grid", nil))

	afterRuns := 0
	r.AfterRun(func() { afterRuns++ })

	doc := testDoc(t)
	r.Run(context.Background(), doc)
	assert.Equal(t, []string{"fade", "broken", "grid"}, calls)
	assert.Equal(t, 1, r.Runs())
	assert.Equal(t, 1, afterRuns)

	assert.Equal(t, []string{"header-blur"}, r.Names(Static))
	assert.Equal(t, []string{"fade", "broken", "grid"}, r.Names(PerContent))
}

func TestStaticRunsOncePerDocument(t *testing.T) {
	r := NewRegistry(nil)
	n := 0
	r.MustRegister("theme", Static, func(context.Context, *goquery.Document) error {
		n++
		return nil
	})

	doc := testDoc(t)
	r.InstallStatic(context.Background(), doc)
	r.InstallStatic(context.Background(), doc)
	r.Run(context.Background(), doc)
	assert.Equal(t, 1, n)

	r.Reset()
	r.InstallStatic(context.Background(), doc)
	assert.Equal(t, 2, n)
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(nil)
	noop := func(context.Context, *goquery.Document) error { return nil }
	require.NoError(t, r.Register("a", PerContent, noop))
	assert.Error(t, r.Register("a", Static, noop))
	assert.Panics(t, func() { r.MustRegister("a", PerContent, noop) })
}

func TestRunIgnoresCancelledContext(t *testing.T) {
	r := NewRegistry(nil)
	n := 0
	r.MustRegister("a", PerContent, func(context.Context, *goquery.Document) error { n++; return nil })
	r.MustRegister("b", PerContent, func(context.Context, *goquery.Document) error { n++; return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Run(ctx, testDoc(t))
	assert.Equal(t, 2, n)
}
