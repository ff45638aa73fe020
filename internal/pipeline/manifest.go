package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mhartwig22/campuskg/api/schemas"
)

// manifestEntry is one line of the crawler's page manifest. Body content
// lives in separate files next to the manifest, referenced by relative
// path.
type manifestEntry struct {
	ID        string            `json:"id"`
	Kind      schemas.PageKind  `json:"kind"`
	FetchedAt string            `json:"fetched_at"`
	File      string            `json:"file"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// LoadManifest reads a JSON page manifest produced by the external crawler
// and loads the referenced page bodies from disk.
func LoadManifest(path string) ([]schemas.PageDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var entries []manifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	pages := make([]schemas.PageDocument, 0, len(entries))
	for i, e := range entries {
		if e.ID == "" || e.File == "" {
			return nil, fmt.Errorf("manifest entry %d: id and file are required", i)
		}
		page := schemas.PageDocument{ID: e.ID, Kind: e.Kind, Meta: e.Meta}
		if e.FetchedAt != "" {
			t, err := parseFetchedAt(e.FetchedAt)
			if err != nil {
				return nil, fmt.Errorf("manifest entry %s: %w", e.ID, err)
			}
			page.FetchedAt = t
		}
		body, err := os.ReadFile(filepath.Join(base, e.File))
		if err != nil {
			return nil, fmt.Errorf("manifest entry %s: %w", e.ID, err)
		}
		page.Body = body
		pages = append(pages, page)
	}
	return pages, nil
}
