package effects

import (
	"context"
	"math"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"sitenav/internal/models"
)

const (
	revealCols = 10
	revealRows = 10
	circleCols = 10
	circleRows = 10
)

// homeBodyID marks the page whose hero circle fills with squares.
const homeBodyID = "homepage"

// pixelReveal fills the .pixel-grid of every .pixel-reveal container with a
// fixed grid of squares that later fade out to uncover the media below.
func pixelReveal(_ context.Context, doc *goquery.Document) error {
	doc.Find(".pixel-reveal").Each(func(_ int, container *goquery.Selection) {
		grid := container.Find(".pixel-grid").First()
		if grid.Length() == 0 || grid.AttrOr(builtAttr, "") == "true" {
			return
		}
		setStyle(grid, "display", "grid")
		setStyle(grid, "grid-template-columns", "repeat("+strconv.Itoa(revealCols)+", 1fr)")
		setStyle(grid, "grid-template-rows", "repeat("+strconv.Itoa(revealRows)+", 1fr)")
		fillSquares(grid, "pixel-square", revealCols*revealRows)
		grid.SetAttr(builtAttr, "true")
	})
	return nil
}

// circleFill builds the square grid inside the home page hero circle. It
// only runs when the body identifies the document as the home page.
func circleFill(bodyIDAttr string) func(context.Context, *goquery.Document) error {
	return func(_ context.Context, doc *goquery.Document) error {
		if doc.Find("body").AttrOr(bodyIDAttr, "") != homeBodyID {
			return nil
		}
		if doc.Find(".hero__round--bg-circle").Length() == 0 {
			return nil
		}
		grid := doc.Find(".circle-grid").First()
		if grid.Length() == 0 || grid.AttrOr(builtAttr, "") == "true" {
			return nil
		}
		setStyle(grid, "display", "grid")
		setStyle(grid, "grid-template-columns", "repeat("+strconv.Itoa(circleCols)+", 1fr)")
		setStyle(grid, "grid-template-rows", "repeat("+strconv.Itoa(circleRows)+", 1fr)")
		fillSquares(grid, "square", circleCols*circleRows)
		grid.SetAttr(builtAttr, "true")
		return nil
	}
}

// cursorGridSize picks the column count from the viewport width and derives
// enough rows of square cells to cover the height.
func cursorGridSize(vp models.Viewport) (cols, rows int) {
	switch {
	case vp.Width <= 480:
		cols = 12
	case vp.Width <= 768:
		cols = 20
	default:
		cols = 35
	}
	square := float64(vp.Width) / float64(cols)
	rows = int(math.Ceil(float64(vp.Height) / square))
	return cols, rows
}

// cursorGrid builds the cursor-following grid. Touch-only devices get none.
func cursorGrid(vp models.Viewport) func(context.Context, *goquery.Document) error {
	return func(_ context.Context, doc *goquery.Document) error {
		if vp.TouchOnly {
			return nil
		}
		grid := doc.Find(".cursor-grid").First()
		if grid.Length() == 0 || grid.AttrOr(builtAttr, "") == "true" {
			return nil
		}
		cols, rows := cursorGridSize(vp)
		setStyle(grid, "--cols", strconv.Itoa(cols))
		setStyle(grid, "--rows", strconv.Itoa(rows))
		setStyle(grid, "pointer-events", "none")
		grid.SetAttr(builtAttr, "true")
		fillSquares(grid, "cursor-square", cols*rows)
		return nil
	}
}

func fillSquares(grid *goquery.Selection, class string, n int) {
	grid.Empty()
	parent := grid.Get(0)
	for i := 0; i < n; i++ {
		parent.AppendChild(newElement(atom.Div, html.Attribute{Key: "class", Val: class}))
	}
}
