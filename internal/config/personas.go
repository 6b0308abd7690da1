// Package config - personas.go loads persona and company profile tables.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/post-pilot/internal/types"
)

//go:embed defaults/personas.yaml
var defaultPersonasYAML []byte

//go:embed defaults/company.yaml
var defaultCompanyYAML []byte

type personasFile struct {
	Personas []types.Persona `yaml:"personas"`
}

// LoadPersonas loads persona definitions from a YAML file.
// An empty path loads the embedded defaults.
func LoadPersonas(path string) ([]types.Persona, error) {
	data := defaultPersonasYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read personas config %s: %w", path, err)
		}
	}

	var file personasFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse personas config: %w", err)
	}
	if len(file.Personas) == 0 {
		return nil, fmt.Errorf("personas config contains no personas")
	}

	v := validator.New()
	for i := range file.Personas {
		if err := v.Struct(&file.Personas[i]); err != nil {
			return nil, fmt.Errorf("invalid persona %q: %w", file.Personas[i].ID, err)
		}
	}

	return file.Personas, nil
}

type companyFile struct {
	Company types.CompanyProfile `yaml:"company"`
}

// LoadCompany loads the company profile from a YAML file.
// An empty path loads the embedded defaults.
func LoadCompany(path string) (*types.CompanyProfile, error) {
	data := defaultCompanyYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read company config %s: %w", path, err)
		}
	}

	var file companyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse company config: %w", err)
	}

	if err := validator.New().Struct(&file.Company); err != nil {
		return nil, fmt.Errorf("invalid company profile: %w", err)
	}

	return &file.Company, nil
}
