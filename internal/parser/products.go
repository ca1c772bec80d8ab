package parser

import (
	"iter"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"priceharvester/internal/models"
)

// Products yields one record per product container that has a price element,
// in document order. Containers without a price element are skipped.
func Products(doc *goquery.Document, containerSel, priceSel string) iter.Seq[models.ProductPriceRecord] {
	return func(yield func(models.ProductPriceRecord) bool) {
		if doc == nil {
			return
		}
		doc.Find(containerSel).EachWithBreak(func(_ int, container *goquery.Selection) bool {
			price := container.Find(priceSel).First()
			if price.Length() == 0 {
				return true
			}
			return yield(models.ProductPriceRecord{RawPriceText: strings.TrimSpace(price.Text())})
		})
	}
}
