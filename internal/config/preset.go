package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Preset is a YAML file of render settings. Unset fields leave the
// corresponding setting to flags, user config or defaults.
//
//	input: snippets/hello.py
//	language: python
//	output: out/hello.webm
//	fps: 24
//	theme: monokai
//	show_cursor: false
//	line_duration: 0.5
type Preset struct {
	Input        string   `yaml:"input"`
	Language     string   `yaml:"language"`
	Output       string   `yaml:"output"`
	FPS          *int     `yaml:"fps"`
	Theme        string   `yaml:"theme"`
	ShowCursor   *bool    `yaml:"show_cursor"`
	LineDuration *float64 `yaml:"line_duration"`
}

// LoadPreset reads the preset at p. Unknown keys are rejected. A relative
// input path is resolved against the preset's directory.
func LoadPreset(p string) (Preset, error) {
	data, err := os.ReadFile(p) // #nosec G304 -- preset path comes from the user
	if err != nil {
		return Preset{}, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
	}

	pr, err := ParsePreset(data)
	if err != nil {
		return Preset{}, fmt.Errorf("%s: %w", p, err)
	}
	if pr.Input != "" && !filepath.IsAbs(pr.Input) {
		pr.Input = filepath.Join(filepath.Dir(p), pr.Input)
	}
	return pr, nil
}

// ParsePreset decodes preset YAML. An empty document is a valid, empty preset.
func ParsePreset(data []byte) (Preset, error) {
	var pr Preset

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pr); err != nil && !errors.Is(err, io.EOF) {
		return Preset{}, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
	}
	return pr, nil
}
