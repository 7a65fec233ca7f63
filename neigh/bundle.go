package neigh

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RequestBundle holds a complete neighbor configuration, loadable from a
// YAML file: the list requests plus the shared tuning knobs. Nil pointer
// fields mean "not set in YAML" and do not override built-in defaults.
type RequestBundle struct {
	Requests []RequestConfig `yaml:"requests"`

	Skin          *float64    `yaml:"skin"`
	BinSizeRatio  *float64    `yaml:"bin_size_ratio"`
	PageSize      *int        `yaml:"page_size"`
	StencilSlack  *float64    `yaml:"stencil_slack"`
	SpecialCoeffs *[3]float64 `yaml:"special_coeffs"`
}

// LoadRequestBundle reads and parses a YAML neighbor configuration file.
func LoadRequestBundle(path string) (*RequestBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading neighbor config: %w", err)
	}
	var bundle RequestBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parsing neighbor config: %w", err)
	}
	return &bundle, nil
}

// Validate checks every request and the parameter ranges in the bundle.
func (b *RequestBundle) Validate() error {
	if len(b.Requests) == 0 {
		return fmt.Errorf("neighbor config declares no requests")
	}
	for i := range b.Requests {
		if err := b.Requests[i].Validate(); err != nil {
			return fmt.Errorf("request %d: %w", i, err)
		}
	}
	if b.Skin != nil && *b.Skin < 0 {
		return fmt.Errorf("skin must be non-negative, got %f", *b.Skin)
	}
	if b.BinSizeRatio != nil && (*b.BinSizeRatio <= 0 || *b.BinSizeRatio > 1) {
		return fmt.Errorf("bin_size_ratio must be in (0, 1], got %f", *b.BinSizeRatio)
	}
	if b.PageSize != nil && *b.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", *b.PageSize)
	}
	if b.StencilSlack != nil && *b.StencilSlack < 0 {
		return fmt.Errorf("stencil_slack must be non-negative, got %f", *b.StencilSlack)
	}
	if b.SpecialCoeffs != nil {
		for c, w := range *b.SpecialCoeffs {
			if w < 0 || w > 1 {
				return fmt.Errorf("special coefficient for bond class %d must be in [0, 1], got %f", c+1, w)
			}
		}
	}
	return nil
}

// ManagerConfig converts the bundle's tuning knobs into a Config, applying
// defaults for unset fields.
func (b *RequestBundle) ManagerConfig() Config {
	cfg := Config{}
	if b.Skin != nil {
		cfg.Skin = *b.Skin
	}
	if b.BinSizeRatio != nil {
		cfg.Grid.BinSizeRatio = *b.BinSizeRatio
	}
	if b.PageSize != nil {
		cfg.PageSize = *b.PageSize
	}
	if b.StencilSlack != nil {
		cfg.StencilSlack = *b.StencilSlack
	}
	cfg.SpecialCoeffs = b.SpecialCoeffs
	return cfg
}
