// Package gather collects the scannable text of a web page: the HTML
// document itself, its inline script bodies, and the fetched bodies of its
// external scripts. A fetch failure for one script never aborts the rest;
// that source is simply absent from the scan.
package gather

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is the raw material gathered from one page before external script
// bodies are fetched.
type Page struct {
	URL             string
	HTML            string
	InlineScripts   []string
	ExternalScripts []string // absolute URLs
}

// Gatherer retrieves a page's HTML and script inventory.
type Gatherer interface {
	Gather(ctx context.Context, pageURL string) (*Page, error)
}

// ExtractScripts parses html and splits its script elements into inline
// bodies and external URLs. Relative src attributes are resolved against
// base; unresolvable ones are kept verbatim rather than dropped.
func ExtractScripts(html string, base *url.URL) (inline []string, external []string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, err
	}

	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok && strings.TrimSpace(src) != "" {
			src = strings.TrimSpace(src)
			if base != nil {
				if ref, err := url.Parse(src); err == nil {
					src = base.ResolveReference(ref).String()
				}
			}
			external = append(external, src)
			return
		}
		if body := sel.Text(); strings.TrimSpace(body) != "" {
			inline = append(inline, body)
		}
	})
	return inline, external, nil
}

// newPage builds a Page from fetched or rendered HTML.
func newPage(pageURL, html string) (*Page, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}
	inline, external, err := ExtractScripts(html, base)
	if err != nil {
		return nil, err
	}
	return &Page{
		URL:             pageURL,
		HTML:            html,
		InlineScripts:   inline,
		ExternalScripts: external,
	}, nil
}
