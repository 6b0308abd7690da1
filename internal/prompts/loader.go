// Package prompts holds the static blocks of the pipeline's LLM prompts.
// Blocks live in embedded JSON files, one file per consumer, so prompt
// wording can change without touching Go code.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed *.json
var promptFS embed.FS

var (
	mu     sync.Mutex
	loaded = make(map[string]map[string]string)
)

// Get returns the block stored under key in the given prompt file.
func Get(filename, key string) (string, error) {
	blocks, err := load(filename)
	if err != nil {
		return "", err
	}
	block, ok := blocks[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return block, nil
}

// MustGet is Get for blocks that must exist. A missing block is a defect
// in the embedded files, not a runtime condition.
func MustGet(filename, key string) string {
	block, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return block
}

// Format substitutes {{.Key}} placeholders with values from data. Keys
// absent from data are left in place.
func Format(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		result = strings.ReplaceAll(result, "{{."+key+"}}", value)
	}
	return result
}

// load parses a prompt file once and serves it from memory afterwards.
func load(filename string) (map[string]string, error) {
	mu.Lock()
	defer mu.Unlock()

	if blocks, ok := loaded[filename]; ok {
		return blocks, nil
	}

	data, err := promptFS.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	var blocks map[string]string
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	loaded[filename] = blocks
	return blocks, nil
}
