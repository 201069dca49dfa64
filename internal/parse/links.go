// Package parse extracts candidate links from fetched HTML documents.
package parse

import (
	"io"

	"github.com/PuerkitoBio/goquery"
)

// ExtractLinks returns the raw href attribute of every anchor in document
// order. Hrefs are returned as found; resolution and filtering is the dedupe
// gate's job. A document with no anchors yields a nil slice.
func ExtractLinks(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs, nil
}
