package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rfountain/stockwatch/pkg/types"
)

// Store persists and loads the last-known catalog state.
type Store interface {
	// Load returns the prior snapshot. Absence or corruption yields an
	// empty versioned snapshot, never an error: a broken snapshot is a
	// first run, not a fatality.
	Load(ctx context.Context) types.Snapshot

	// Save writes the snapshot, replacing the prior one wholesale.
	Save(ctx context.Context, snap types.Snapshot) error
}

// FileStore implements Store over a single JSON file, written atomically
// via a temp file and rename.
type FileStore struct {
	path string
	log  *slog.Logger
}

// FileStoreOption configures the FileStore.
type FileStoreOption func(*FileStore)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) FileStoreOption {
	return func(s *FileStore) {
		s.log = l
	}
}

// NewFileStore creates a FileStore at path.
func NewFileStore(path string, opts ...FileStoreOption) *FileStore {
	s := &FileStore{
		path: path,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context) types.Snapshot {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return types.Empty()
	}
	if err != nil {
		s.log.Warn("snapshot unreadable, treating as first run",
			"path", s.path, "error", err)
		return types.Empty()
	}

	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err == nil && snap.Variants != nil {
		if snap.Products == nil {
			// Versioned shape but no product index: rebuild it.
			snap.Products = productIndex(snap.Variants)
		}
		if snap.Version == "" {
			snap.Version = types.SnapshotVersion
		}
		return snap
	}

	// Older schema: a flat variant map with no products field or version tag.
	if legacy, ok := loadLegacy(data); ok {
		s.log.Info("upgraded legacy snapshot", "path", s.path,
			"variants", len(legacy.Variants))
		return legacy
	}

	s.log.Warn("snapshot corrupt, treating as first run", "path", s.path)
	return types.Empty()
}

func loadLegacy(data []byte) (types.Snapshot, bool) {
	var flat map[string]types.VariantRecord
	if err := json.Unmarshal(data, &flat); err != nil || len(flat) == 0 {
		return types.Snapshot{}, false
	}

	snap := types.Empty()
	for key, rec := range flat {
		if rec.Key == "" {
			rec.Key = key
		}
		if rec.Handle == "" {
			rec.Handle = handleFromURL(rec.URL)
		}
		snap.Variants[key] = rec
	}
	snap.Products = productIndex(snap.Variants)
	return snap, true
}

func productIndex(variants map[string]types.VariantRecord) map[string]string {
	products := map[string]string{}
	for _, rec := range variants {
		if rec.Handle != "" {
			products[rec.Handle] = rec.Title
		}
	}
	return products
}

func handleFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "products" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, snap types.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(s.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	s.log.Info("snapshot saved", "path", s.path,
		"products", len(snap.Products), "variants", len(snap.Variants))
	return nil
}
