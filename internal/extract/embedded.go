package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// embeddedVariants scans inline script content for a variants array literal.
// The first script that parses as JSON and yields at least one variant wins.
func embeddedVariants(doc *goquery.Document) ([]rawVariant, bool) {
	var found []rawVariant

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		txt := strings.TrimSpace(s.Text())
		if txt == "" || !strings.Contains(txt, `"variants"`) {
			return true
		}

		payload, ok := decodePayload([]byte(txt))
		if !ok {
			return true
		}

		vs, ok := findVariants(payload)
		if !ok {
			return true
		}

		for _, v := range vs {
			if rv, ok := normalizeVariant(v); ok {
				found = append(found, rv)
			}
		}
		return len(found) == 0
	})

	return found, len(found) > 0
}

// ldOffer is the little that page-level structured markup can provide:
// a price, a currency, and a yes/no availability, with no per-variant
// breakdown.
type ldOffer struct {
	PriceCents *int64
	Currency   string
	Available  bool
}

// jsonLDOffer extracts price and availability from application/ld+json
// Product markup, the last resort of tier 3.
func jsonLDOffer(doc *goquery.Document) (*ldOffer, bool) {
	var offer *ldOffer

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(
		func(_ int, s *goquery.Selection) bool {
			payload, ok := decodePayload([]byte(s.Text()))
			if !ok {
				return true
			}

			if o, ok := offerFromLD(payload); ok {
				offer = o
				return false
			}
			return true
		},
	)

	return offer, offer != nil
}

func offerFromLD(payload any) (*ldOffer, bool) {
	for _, node := range ldNodes(payload) {
		if !strings.EqualFold(asString(node["@type"]), "Product") {
			continue
		}
		if o, ok := offerNode(node["offers"]); ok {
			return o, true
		}
	}
	return nil, false
}

// ldNodes flattens the possible top-level shapes of JSON-LD: a single
// object, a list of objects, or a @graph wrapper.
func ldNodes(payload any) []map[string]any {
	switch p := payload.(type) {
	case map[string]any:
		if graph, ok := p["@graph"].([]any); ok {
			return ldNodes(graph)
		}
		return []map[string]any{p}
	case []any:
		var nodes []map[string]any
		for _, item := range p {
			if m, ok := item.(map[string]any); ok {
				nodes = append(nodes, m)
			}
		}
		return nodes
	default:
		return nil
	}
}

func offerNode(v any) (*ldOffer, bool) {
	var m map[string]any
	switch o := v.(type) {
	case map[string]any:
		m = o
	case []any:
		for _, item := range o {
			if im, ok := item.(map[string]any); ok {
				m = im
				break
			}
		}
	}
	if m == nil {
		return nil, false
	}

	price := NormalizePrice(m["price"])
	if price == nil {
		price = NormalizePrice(m["lowPrice"])
	}

	return &ldOffer{
		PriceCents: price,
		Currency:   asString(m["priceCurrency"]),
		Available:  strings.Contains(asString(m["availability"]), "InStock"),
	}, true
}

// pageTitle resolves a product title from rendered or raw HTML:
// h1, then og:title, then the document title.
func pageTitle(doc *goquery.Document) string {
	if t := normalizeSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := normalizeSpace(og); t != "" {
			return t
		}
	}
	return normalizeSpace(doc.Find("title").First().Text())
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
