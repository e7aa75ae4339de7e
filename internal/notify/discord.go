package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rfountain/stockwatch/internal/metrics"
	"github.com/rfountain/stockwatch/pkg/types"
)

// Discord allows at most 10 embeds per webhook message.
const maxEmbedsPerPost = 10

const (
	colorGreen  = 0x2ECC71 // restock
	colorBlue   = 0x3498DB // new product / new variant
	colorYellow = 0xF1C40F // price drop
	colorOrange = 0xE67E22 // price rise
)

// DiscordNotifier implements Notifier via a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	batchPause time.Duration
	log        *slog.Logger
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// WithBatchPause sets the pause between webhook posts.
func WithBatchPause(p time.Duration) DiscordOption {
	return func(d *DiscordNotifier) {
		d.batchPause = p
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) DiscordOption {
	return func(d *DiscordNotifier) {
		d.log = l
	}
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
		batchPause: time.Second,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendEvents implements Notifier. Events are rendered into embeds and
// posted in batches under the per-message cap, with a pause between
// batches to respect channel payload limits. No event is silently dropped:
// a failed post reports the service's status and body in the error.
func (d *DiscordNotifier) SendEvents(ctx context.Context, events []types.Event) error {
	if len(events) == 0 {
		return nil
	}

	embeds := make([]discordEmbed, 0, len(events))
	for _, ev := range events {
		embeds = append(embeds, buildEmbed(ev))
	}

	for start := 0; start < len(embeds); start += maxEmbedsPerPost {
		end := min(start+maxEmbedsPerPost, len(embeds))

		if start > 0 && d.batchPause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.batchPause):
			}
		}

		if err := d.post(ctx, discordWebhookPayload{Embeds: embeds[start:end]}); err != nil {
			metrics.NotificationFailuresTotal.Inc()
			return fmt.Errorf("posting batch %d-%d of %d events: %w",
				start+1, end, len(events), err)
		}
		metrics.NotificationBatchesTotal.Inc()
	}

	return nil
}

// SendNoChanges implements Notifier.
func (d *DiscordNotifier) SendNoChanges(ctx context.Context) error {
	if err := d.post(ctx, discordWebhookPayload{Content: "No catalog changes."}); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		return err
	}
	metrics.NotificationBatchesTotal.Inc()
	return nil
}

func buildEmbed(ev types.Event) discordEmbed {
	switch e := ev.(type) {
	case types.NewProduct:
		return discordEmbed{
			Title: "🆕 New product · " + e.Title,
			URL:   e.URL,
			Color: colorBlue,
		}
	case types.NewVariant:
		embed := discordEmbed{
			Title:  "🆕 New variant · " + e.Title,
			URL:    e.URL,
			Color:  colorBlue,
			Fields: variantFields(e.Color, e.Size),
		}
		if e.PriceCents != nil {
			embed.Fields = append(embed.Fields, discordEmbedField{
				Name: "Price", Value: formatPrice(*e.PriceCents, ""), Inline: true,
			})
		}
		if e.SKU != "" {
			embed.Fields = append(embed.Fields, discordEmbedField{
				Name: "SKU", Value: e.SKU, Inline: true,
			})
		}
		return embed
	case types.PriceChange:
		title := "📈 Price up · " + e.Title
		color := colorOrange
		if e.NewPriceCents < e.OldPriceCents {
			title = "💸 Price drop · " + e.Title
			color = colorYellow
		}
		fields := variantFields(e.Color, e.Size)
		fields = append(fields, discordEmbedField{
			Name: "Change",
			Value: formatPrice(e.OldPriceCents, e.Currency) + " → " +
				formatPrice(e.NewPriceCents, e.Currency),
		})
		return discordEmbed{Title: title, URL: e.URL, Color: color, Fields: fields}
	case types.InventoryIncrease:
		fields := variantFields(e.Color, e.Size)
		change := "out of stock → in stock"
		if e.OldQty != nil && e.NewQty != nil {
			change = fmt.Sprintf("%d → %d", *e.OldQty, *e.NewQty)
		}
		fields = append(fields, discordEmbedField{Name: "Stock", Value: change})
		return discordEmbed{
			Title:  "🟢 Restock · " + e.Title,
			URL:    e.URL,
			Color:  colorGreen,
			Fields: fields,
		}
	case types.ProductRestock:
		return discordEmbed{
			Title: "🟢 More stock · " + e.Title,
			URL:   e.URL,
			Color: colorGreen,
			Fields: []discordEmbedField{{
				Name: "Purchasable variants",
				Value: fmt.Sprintf("%d → %d",
					e.OldAvailable, e.NewAvailable),
			}},
		}
	default:
		return discordEmbed{
			Title: fmt.Sprintf("Catalog change (%s)", ev.Kind()),
			Color: colorBlue,
		}
	}
}

func variantFields(color, size string) []discordEmbedField {
	return []discordEmbedField{
		{Name: "Color", Value: orDash(color), Inline: true},
		{Name: "Size", Value: orDash(size), Inline: true},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatPrice(cents int64, currency string) string {
	amount := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	switch currency {
	case "", "USD":
		return "$" + amount
	case "EUR":
		return "€" + amount
	case "GBP":
		return "£" + amount
	default:
		return amount + " " + currency
	}
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
