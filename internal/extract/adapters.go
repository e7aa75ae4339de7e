package extract

import (
	"bytes"
	"encoding/json"
)

// rawVariant is the normalized intermediate shape every adapter produces
// before domain conversion.
type rawVariant struct {
	ID           int64
	Title        string
	Color        string
	Size         string
	SKU          string
	Available    bool
	PriceCents   *int64
	InventoryQty *int
}

// VariantsAdapter extracts a variants array from an arbitrary decoded JSON
// payload. Adapters are total: a payload that doesn't match the shape
// returns (nil, false), never an error.
type VariantsAdapter func(payload any) ([]any, bool)

// variantsAdapters is the ordered fallback chain of payload shapes:
// a top-level variants array, a variants array nested one level down in
// any object field, and a list whose elements carry variants arrays.
var variantsAdapters = []VariantsAdapter{
	topLevelVariants,
	nestedVariants,
	listedVariants,
}

func topLevelVariants(payload any) ([]any, bool) {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, false
	}
	vs, ok := m["variants"].([]any)
	if !ok || len(vs) == 0 {
		return nil, false
	}
	return vs, true
}

func nestedVariants(payload any) ([]any, bool) {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, v := range m {
		if inner, ok := v.(map[string]any); ok {
			if vs, ok := inner["variants"].([]any); ok && len(vs) > 0 {
				return vs, true
			}
		}
	}
	return nil, false
}

func listedVariants(payload any) ([]any, bool) {
	list, ok := payload.([]any)
	if !ok {
		return nil, false
	}
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			if vs, ok := m["variants"].([]any); ok && len(vs) > 0 {
				return vs, true
			}
		}
	}
	return nil, false
}

// findVariants runs the adapter chain in order and returns the first hit.
func findVariants(payload any) ([]any, bool) {
	for _, adapt := range variantsAdapters {
		if vs, ok := adapt(payload); ok {
			return vs, true
		}
	}
	return nil, false
}

// decodePayload parses JSON preserving number fidelity: integer prices must
// stay distinguishable from decimal ones for minor-unit normalization.
func decodePayload(body []byte) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, false
	}
	return payload, true
}

// normalizeVariant converts one raw variant object into the intermediate
// shape. Field reconciliation is uniform across tiers: option1/option2 are
// the primary size/color pair, a generic options list is the fallback, and
// availability defaults to false when absent.
func normalizeVariant(v any) (rawVariant, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return rawVariant{}, false
	}

	rv := rawVariant{
		ID:         asInt64(m["id"]),
		Title:      asString(m["title"]),
		SKU:        asString(m["sku"]),
		PriceCents: NormalizePrice(m["price"]),
	}

	rv.Size = asString(m["option1"])
	if rv.Size == "" {
		rv.Size = asString(m["size"])
	}
	rv.Color = asString(m["option2"])
	if rv.Color == "" {
		rv.Color = asString(m["color"])
	}

	if rv.Color == "" {
		if opts, ok := m["options"].([]any); ok {
			switch {
			case len(opts) >= 2:
				rv.Color = asString(opts[0])
				rv.Size = asString(opts[1])
			case len(opts) == 1:
				rv.Size = asString(opts[0])
			}
		}
	}

	if avail, ok := m["available"].(bool); ok {
		rv.Available = avail
	} else if avail, ok := m["is_in_stock"].(bool); ok {
		rv.Available = avail
	}

	rv.InventoryQty = asIntPtr(m["inventory_quantity"])

	return rv, true
}

func asIntPtr(v any) *int {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return nil
		}
		q := int(i)
		return &q
	case float64:
		q := int(n)
		return &q
	default:
		return nil
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return i
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
