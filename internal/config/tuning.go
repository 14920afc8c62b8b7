// Package config loads fill and fit tuning parameters from JSON files.
// Fields are pointers so partial configs merge cleanly over the defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TuningConfig is the JSON form of the pipeline tuning parameters. Omitted
// fields retain their defaults, so partial configs are safe.
type TuningConfig struct {
	// Summed-area box filler
	BoxHalfX      *int `json:"box_half_x,omitempty"`
	BoxHalfY      *int `json:"box_half_y,omitempty"`
	BoxIterations *int `json:"box_iterations,omitempty"`

	// Resolution-adaptive Gaussian filler
	Sigma              *float64 `json:"sigma,omitempty"`
	KernelRadius       *int     `json:"kernel_radius,omitempty"`
	AdaptiveIterations *int     `json:"adaptive_iterations,omitempty"`
	FillAll            *bool    `json:"fill_all,omitempty"`
}

// Tuning is the resolved parameter set used by the pipeline.
type Tuning struct {
	BoxHalfX           int
	BoxHalfY           int
	BoxIterations      int
	Sigma              float64
	KernelRadius       int
	AdaptiveIterations int
	FillAll            bool
}

// DefaultTuning returns the default parameter set.
func DefaultTuning() Tuning {
	return Tuning{
		BoxHalfX:           5,
		BoxHalfY:           5,
		BoxIterations:      10,
		Sigma:              1.0,
		KernelRadius:       8,
		AdaptiveIterations: 1,
		FillAll:            false,
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The path must
// carry a .json extension and the file must stay under the size cap.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg TuningConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// Apply overlays the non-nil fields of the config onto a resolved tuning.
func (c *TuningConfig) Apply(t *Tuning) {
	if c == nil || t == nil {
		return
	}
	if c.BoxHalfX != nil {
		t.BoxHalfX = *c.BoxHalfX
	}
	if c.BoxHalfY != nil {
		t.BoxHalfY = *c.BoxHalfY
	}
	if c.BoxIterations != nil {
		t.BoxIterations = *c.BoxIterations
	}
	if c.Sigma != nil {
		t.Sigma = *c.Sigma
	}
	if c.KernelRadius != nil {
		t.KernelRadius = *c.KernelRadius
	}
	if c.AdaptiveIterations != nil {
		t.AdaptiveIterations = *c.AdaptiveIterations
	}
	if c.FillAll != nil {
		t.FillAll = *c.FillAll
	}
}
