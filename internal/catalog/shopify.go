package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxBodyBytes = 10 << 20 // cap on response body reads

// StorefrontClient implements Client against a live Shopify-style storefront.
type StorefrontClient struct {
	baseURL        string
	collectionPath string
	userAgent      string
	client         *http.Client
	limiter        *RateLimiter
	log            *slog.Logger
}

// StorefrontOption configures the StorefrontClient.
type StorefrontOption func(*StorefrontClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) StorefrontOption {
	return func(c *StorefrontClient) {
		c.client = hc
	}
}

// WithUserAgent overrides the User-Agent header sent on every request.
func WithUserAgent(ua string) StorefrontOption {
	return func(c *StorefrontClient) {
		c.userAgent = ua
	}
}

// WithRateLimiter injects a rate limiter. When set, every outbound request
// goes through Wait() first.
func WithRateLimiter(r *RateLimiter) StorefrontOption {
	return func(c *StorefrontClient) {
		c.limiter = r
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) StorefrontOption {
	return func(c *StorefrontClient) {
		c.log = l
	}
}

// NewStorefrontClient creates a client for the storefront at baseURL with
// its listing at collectionPath.
func NewStorefrontClient(
	baseURL, collectionPath string,
	opts ...StorefrontOption,
) *StorefrontClient {
	c := &StorefrontClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		collectionPath: collectionPath,
		client:         &http.Client{Timeout: 60 * time.Second},
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProductURL implements Client.
func (c *StorefrontClient) ProductURL(handle string) string {
	return c.baseURL + "/products/" + handle
}

// CollectionURL implements Client.
func (c *StorefrontClient) CollectionURL(page int) string {
	u := c.baseURL + c.collectionPath
	if page > 1 {
		u += "?page=" + strconv.Itoa(page)
	}
	return u
}

// ListingPage implements Client.
func (c *StorefrontClient) ListingPage(ctx context.Context, page int) ([]byte, error) {
	return c.get(ctx, c.CollectionURL(page))
}

// ProductJS implements Client.
func (c *StorefrontClient) ProductJS(ctx context.Context, handle string) ([]byte, error) {
	return c.get(ctx, c.ProductURL(handle)+".js")
}

// ProductJSON implements Client.
func (c *StorefrontClient) ProductJSON(ctx context.Context, handle string) ([]byte, error) {
	return c.get(ctx, c.ProductURL(handle)+".json")
}

// ProductPage implements Client.
func (c *StorefrontClient) ProductPage(ctx context.Context, handle string) ([]byte, error) {
	return c.get(ctx, c.ProductURL(handle))
}

type variantInventoryResponse struct {
	Variant struct {
		InventoryQuantity *int `json:"inventory_quantity"`
	} `json:"variant"`
}

// VariantInventory implements Client.
func (c *StorefrontClient) VariantInventory(ctx context.Context, id int64) (*int, error) {
	body, err := c.get(ctx, c.baseURL+"/variants/"+strconv.FormatInt(id, 10)+".json")
	if err != nil {
		return nil, err
	}

	var resp variantInventoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing variant inventory: %w", err)
	}

	return resp.Variant.InventoryQuantity, nil
}

func (c *StorefrontClient) get(ctx context.Context, u string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%s: %w", u, ErrNotFound)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%s: %w", u, ErrForbidden)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf(
			"storefront error (status %d) for %s: %s",
			resp.StatusCode, u, truncate(body, 200),
		)
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
