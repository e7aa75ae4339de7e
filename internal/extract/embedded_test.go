package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestEmbeddedVariants(t *testing.T) {
	t.Parallel()

	t.Run("variants in inline script", func(t *testing.T) {
		t.Parallel()

		doc := mustDoc(t, `<html><body>
			<script>var analytics = {};</script>
			<script>{"product":{"variants":[
				{"id":100,"option1":"M","option2":"Black","available":true,"price":15000}
			]}}</script>
		</body></html>`)

		rvs, ok := embeddedVariants(doc)
		require.True(t, ok)
		require.Len(t, rvs, 1)
		assert.Equal(t, int64(100), rvs[0].ID)
		assert.Equal(t, "M", rvs[0].Size)
		assert.Equal(t, "Black", rvs[0].Color)
		assert.True(t, rvs[0].Available)
	})

	t.Run("first parseable script wins", func(t *testing.T) {
		t.Parallel()

		doc := mustDoc(t, `<html><body>
			<script>if (window.foo) { "variants" }</script>
			<script>{"variants":[{"id":1}]}</script>
			<script>{"variants":[{"id":2}]}</script>
		</body></html>`)

		rvs, ok := embeddedVariants(doc)
		require.True(t, ok)
		require.Len(t, rvs, 1)
		assert.Equal(t, int64(1), rvs[0].ID)
	})

	t.Run("no variants anywhere", func(t *testing.T) {
		t.Parallel()

		doc := mustDoc(t, `<html><body><script>var x = 1;</script></body></html>`)
		_, ok := embeddedVariants(doc)
		assert.False(t, ok)
	})
}

func TestJSONLDOffer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		html   string
		want   *ldOffer
		wantOK bool
	}{
		{
			name: "single product node",
			html: `<script type="application/ld+json">{
				"@type": "Product",
				"name": "Jacket",
				"offers": {
					"price": "135.00",
					"priceCurrency": "USD",
					"availability": "https://schema.org/InStock"
				}
			}</script>`,
			want: &ldOffer{
				PriceCents: ptr64(13500),
				Currency:   "USD",
				Available:  true,
			},
			wantOK: true,
		},
		{
			name: "graph wrapper with offer list",
			html: `<script type="application/ld+json">{
				"@graph": [
					{"@type": "WebSite"},
					{"@type": "Product", "offers": [
						{"price": "99.95", "priceCurrency": "EUR",
						 "availability": "http://schema.org/OutOfStock"}
					]}
				]
			}</script>`,
			want: &ldOffer{
				PriceCents: ptr64(9995),
				Currency:   "EUR",
				Available:  false,
			},
			wantOK: true,
		},
		{
			name: "lowPrice fallback",
			html: `<script type="application/ld+json">{
				"@type": "Product",
				"offers": {"lowPrice": "20.00", "priceCurrency": "GBP",
					"availability": "InStock"}
			}</script>`,
			want: &ldOffer{
				PriceCents: ptr64(2000),
				Currency:   "GBP",
				Available:  true,
			},
			wantOK: true,
		},
		{
			name:   "no product node",
			html:   `<script type="application/ld+json">{"@type": "WebSite"}</script>`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			offer, ok := jsonLDOffer(mustDoc(t, "<html><head>"+tt.html+"</head></html>"))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, offer)
			}
		})
	}
}

func TestPageTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "h1 wins",
			html: `<head><title>Store</title></head><body><h1>  Alpha  Jacket </h1></body>`,
			want: "Alpha Jacket",
		},
		{
			name: "og:title when no h1",
			html: `<head><meta property="og:title" content="Beta Pant"><title>Store</title></head>`,
			want: "Beta Pant",
		},
		{
			name: "document title as last resort",
			html: `<head><title>Gamma Hoody</title></head>`,
			want: "Gamma Hoody",
		},
		{
			name: "nothing",
			html: `<body><p>hi</p></body>`,
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, pageTitle(mustDoc(t, "<html>"+tt.html+"</html>")))
		})
	}
}
