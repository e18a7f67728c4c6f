package effects

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"sitenav/internal/prefs"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var themeColors = map[string]string{
	ThemeLight: "#e2ebe9",
	ThemeDark:  "#121212",
}

// ApplyTheme reads the stored theme (light when unset or unknown), applies
// it to the document and writes it back.
func ApplyTheme(ctx context.Context, doc *goquery.Document, store prefs.Store) (string, error) {
	theme, _, err := store.Get(ctx, prefs.ThemeKey)
	if err != nil {
		return "", fmt.Errorf("read theme: %w", err)
	}
	if _, ok := themeColors[theme]; !ok {
		theme = ThemeLight
	}
	setTheme(doc, theme, false)
	if err := store.Set(ctx, prefs.ThemeKey, theme); err != nil {
		return "", fmt.Errorf("store theme: %w", err)
	}
	return theme, nil
}

// ToggleTheme flips the document between light and dark and persists the
// choice.
func ToggleTheme(ctx context.Context, doc *goquery.Document, store prefs.Store) (string, error) {
	next := ThemeDark
	if CurrentTheme(doc) == ThemeDark {
		next = ThemeLight
	}
	setTheme(doc, next, true)
	if err := store.Set(ctx, prefs.ThemeKey, next); err != nil {
		return "", fmt.Errorf("store theme: %w", err)
	}
	return next, nil
}

// CurrentTheme is the theme applied to the document root.
func CurrentTheme(doc *goquery.Document) string {
	return doc.Find("html").First().AttrOr("data-theme", "")
}

func setTheme(doc *goquery.Document, theme string, paintBackground bool) {
	root := doc.Find("html").First()
	root.SetAttr("data-theme", theme)
	if paintBackground {
		setStyle(root, "background-color", themeColors[theme])
	}
	doc.Find(`meta[name="theme-color"]`).SetAttr("content", themeColors[theme])
}
