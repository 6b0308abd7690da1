// Package feeds provides RSS/Atom article fetching over a configured feed set.
// Feeds fail independently; the fetcher returns the union of whatever sources
// succeeded.
package feeds

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed defaults/feeds.json
var defaultFeedsJSON []byte

// Entry is a single feed source from feeds.json.
type Entry struct {
	Name        string `json:"name"`
	XMLURL      string `json:"xml_url"`
	Type        string `json:"type"`     // "news" or "blog"
	Category    string `json:"category"` // informational only
	Enabled     bool   `json:"enabled"`
	Quick       bool   `json:"quick"` // included in quick mode
	HTMLURL     string `json:"html_url,omitempty"`
	Description string `json:"description,omitempty"`
}

type registryFile struct {
	Feeds []Entry `json:"feeds"`
}

// LoadRegistry loads enabled feed entries from a JSON file.
// An empty path loads the embedded default registry.
func LoadRegistry(path string) ([]Entry, error) {
	data := defaultFeedsJSON
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read feeds file %s: %w", path, err)
		}
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file: %w", err)
	}

	enabled := make([]Entry, 0, len(file.Feeds))
	for _, f := range file.Feeds {
		if f.Enabled {
			enabled = append(enabled, f)
		}
	}
	return enabled, nil
}

// NewsFeeds filters the registry down to news feeds, or the quick subset.
func NewsFeeds(entries []Entry, quick bool) []Entry {
	var out []Entry
	for _, f := range entries {
		if quick {
			if f.Quick {
				out = append(out, f)
			}
			continue
		}
		if f.Type == "news" {
			out = append(out, f)
		}
	}
	return out
}

// BlogFeeds filters the registry down to blog feeds.
func BlogFeeds(entries []Entry) []Entry {
	var out []Entry
	for _, f := range entries {
		if f.Type == "blog" {
			out = append(out, f)
		}
	}
	return out
}
