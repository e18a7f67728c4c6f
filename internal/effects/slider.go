package effects

import (
	"context"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// workSlider puts the work carousel on its first slide: the first .slide is
// active, prev is disabled and the counter reads 1 of n.
func workSlider(_ context.Context, doc *goquery.Document) error {
	slider := doc.Find(".slider").First()
	if slider.AttrOr(builtAttr, "") == "true" {
		return nil
	}
	slides := slider.Find(".slide")
	if slides.Length() == 0 {
		return nil
	}

	slides.RemoveClass("active")
	slides.First().AddClass("active")
	setStyle(slider, "transform", "translateX(0px)")

	doc.Find("#prev").AddClass("disabled")
	next := doc.Find("#next")
	if slides.Length() == 1 {
		next.AddClass("disabled")
	} else {
		next.RemoveClass("disabled")
	}

	doc.Find("#current-slide").SetText("1")
	doc.Find("#total-slides").SetText(strconv.Itoa(slides.Length()))
	slider.SetAttr(builtAttr, "true")
	return nil
}
