package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeListing struct {
	pages map[int][]byte
}

func (f *fakeListing) ListingPage(_ context.Context, page int) ([]byte, error) {
	body, ok := f.pages[page]
	if !ok {
		return nil, errors.New("no such page")
	}
	return body, nil
}

func (f *fakeListing) ProductJS(context.Context, string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeListing) ProductJSON(context.Context, string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeListing) ProductPage(context.Context, string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeListing) VariantInventory(context.Context, int64) (*int, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeListing) ProductURL(handle string) string {
	return "https://shop.example.com/products/" + handle
}

func (f *fakeListing) CollectionURL(page int) string {
	return fmt.Sprintf("https://shop.example.com/collections/all?page=%d", page)
}

type fakeRenderer struct {
	links map[string][]string
	err   error
}

func (f *fakeRenderer) CollectLinks(_ context.Context, url string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.links[url], nil
}

func (f *fakeRenderer) RenderedDocument(context.Context, string) (string, error) {
	return "", errors.New("not implemented")
}

func listingHTML(hrefs ...string) []byte {
	html := "<html><body>"
	for _, h := range hrefs {
		html += `<a href="` + h + `">x</a>`
	}
	return []byte(html + "</body></html>")
}

func TestDiscover_PaginatesAndDeduplicates(t *testing.T) {
	t.Parallel()

	client := &fakeListing{pages: map[int][]byte{
		1: listingHTML(
			"/products/alpha-jacket",
			"/products/alpha-jacket?variant=123",
			"/products/beta-pant#reviews",
			"/collections/all",
			"/pages/about",
		),
		2: listingHTML(
			"https://shop.example.com/products/gamma-hoody",
			"/products/alpha-jacket",
		),
		3: listingHTML("/products/alpha-jacket"), // nothing new: stop here
		4: listingHTML("/products/never-reached"),
	}}

	got := New(client).Discover(context.Background())
	assert.Equal(t, []string{"alpha-jacket", "beta-pant", "gamma-hoody"}, got)
}

func TestDiscover_StopsOnFetchError(t *testing.T) {
	t.Parallel()

	client := &fakeListing{pages: map[int][]byte{
		1: listingHTML("/products/alpha", "/products/beta", "/products/gamma"),
		// Page 2 missing: pagination ends, page 1 results survive.
	}}

	got := New(client).Discover(context.Background())
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, got)
}

func TestDiscover_MaxPagesCeiling(t *testing.T) {
	t.Parallel()

	pages := map[int][]byte{}
	for i := 1; i <= 10; i++ {
		pages[i] = listingHTML(fmt.Sprintf("/products/item-%02d", i))
	}
	client := &fakeListing{pages: pages}

	got := New(client, WithMaxPages(4)).Discover(context.Background())
	assert.Len(t, got, 4)
}

func TestDiscover_RendererFallbackBelowThreshold(t *testing.T) {
	t.Parallel()

	client := &fakeListing{pages: map[int][]byte{
		1: listingHTML("/products/only-one"),
	}}

	renderer := &fakeRenderer{links: map[string][]string{
		"https://shop.example.com/collections/all?page=1": {
			"/products/only-one",
			"/products/rendered-two",
			"/products/rendered-three",
		},
	}}

	got := New(client,
		WithRenderer(renderer),
		WithMinHandles(3),
	).Discover(context.Background())

	assert.Equal(t, []string{"only-one", "rendered-three", "rendered-two"}, got)
}

func TestDiscover_RendererNotUsedAboveThreshold(t *testing.T) {
	t.Parallel()

	client := &fakeListing{pages: map[int][]byte{
		1: listingHTML("/products/a", "/products/b", "/products/c"),
	}}

	renderer := &fakeRenderer{err: errors.New("renderer must not run")}

	got := New(client,
		WithRenderer(renderer),
		WithMinHandles(3),
	).Discover(context.Background())

	assert.Len(t, got, 3)
}

func TestDiscover_TotalFailureYieldsEmpty(t *testing.T) {
	t.Parallel()

	client := &fakeListing{pages: map[int][]byte{}}

	got := New(client).Discover(context.Background())
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNormalizeHandle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		href   string
		want   string
		wantOK bool
	}{
		{name: "relative path", href: "/products/alpha-jacket", want: "alpha-jacket", wantOK: true},
		{name: "query stripped", href: "/products/alpha?variant=1", want: "alpha", wantOK: true},
		{name: "fragment stripped", href: "/products/alpha#reviews", want: "alpha", wantOK: true},
		{name: "query and fragment", href: "/products/alpha?v=1#r", want: "alpha", wantOK: true},
		{
			name:   "absolute URL",
			href:   "https://shop.example.com/products/beta?variant=2",
			want:   "beta",
			wantOK: true,
		},
		{
			name:   "collection-scoped product link",
			href:   "/collections/all/products/gamma",
			want:   "gamma",
			wantOK: true,
		},
		{name: "trailing segment ignored", href: "/products/delta/reviews", want: "delta", wantOK: true},
		{name: "non-product link", href: "/pages/about", wantOK: false},
		{name: "bare products path", href: "/products/", wantOK: false},
		{name: "empty", href: "", wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := NormalizeHandle(tt.href)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
