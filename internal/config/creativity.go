// Package config - creativity.go loads the creativity tables that drive
// weighted context generation: hook patterns, frameworks, content angles,
// style references, and wildcard constraints.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed defaults/creativity.yaml
var defaultCreativityYAML []byte

// HookPattern is one weighted hook option.
type HookPattern struct {
	Name        string  `yaml:"name" validate:"required"`
	Description string  `yaml:"description"`
	Weight      float64 `yaml:"weight" validate:"gt=0"`
}

// Framework is one weighted structural pattern for a post.
type Framework struct {
	Name        string   `yaml:"name" validate:"required"`
	Description string   `yaml:"description"`
	Structure   []string `yaml:"structure"`
	Weight      float64  `yaml:"weight" validate:"gt=0"`
}

// ContentAngle is one weighted message framing.
type ContentAngle struct {
	Name       string  `yaml:"name" validate:"required"`
	KeyMessage string  `yaml:"key_message" validate:"required"`
	Weight     float64 `yaml:"weight" validate:"gt=0"`
}

// StyleAuthor is a writing-style influence, restricted to certain personas.
type StyleAuthor struct {
	Name   string   `yaml:"name" validate:"required"`
	Style  string   `yaml:"style" validate:"required"`
	UseFor []string `yaml:"use_for"`
}

// StyleReferences configures optional style influence injection.
type StyleReferences struct {
	Enabled     bool          `yaml:"enabled"`
	Probability float64       `yaml:"probability" validate:"gte=0,lte=1"`
	Authors     []StyleAuthor `yaml:"authors" validate:"dive"`
}

// Wildcards configures optional one-off generation constraints.
type Wildcards struct {
	Probability float64  `yaml:"probability" validate:"gte=0,lte=1"`
	Constraints []string `yaml:"constraints"`
}

// AntiSlopConfig extends the built-in banned tables with custom entries.
type AntiSlopConfig struct {
	ExtraBannedWords   []string `yaml:"extra_banned_words"`
	ExtraBannedPhrases []string `yaml:"extra_banned_phrases"`
}

// CreativityConfig is the full creativity table set, loaded once at process
// start and treated as read-only afterwards.
type CreativityConfig struct {
	HookPatterns        []HookPattern   `yaml:"hook_patterns" validate:"min=1,dive"`
	Frameworks          []Framework     `yaml:"frameworks" validate:"min=1,dive"`
	ContentAngles       []ContentAngle  `yaml:"content_angles" validate:"min=1,dive"`
	StyleReferences     StyleReferences `yaml:"style_references"`
	Wildcards           Wildcards       `yaml:"wildcards"`
	AntiSlop            AntiSlopConfig  `yaml:"anti_slop"`
	MaxResampleAttempts int             `yaml:"max_resample_attempts" validate:"gte=0"`
}

type creativityFile struct {
	CreativityEngine CreativityConfig `yaml:"creativity_engine"`
}

// LoadCreativity loads the creativity configuration from a YAML file.
// An empty path loads the embedded defaults.
func LoadCreativity(path string) (*CreativityConfig, error) {
	data := defaultCreativityYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read creativity config %s: %w", path, err)
		}
	}

	var file creativityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse creativity config: %w", err)
	}

	cfg := file.CreativityEngine
	if cfg.MaxResampleAttempts == 0 {
		cfg.MaxResampleAttempts = 10
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid creativity config: %w", err)
	}

	return &cfg, nil
}
