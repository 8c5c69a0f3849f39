// Package manifest loads declarative tool manifests from YAML.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load parses YAML bytes into a Manifest and validates it.
func Load(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := normalize(&m); err != nil {
		return nil, err
	}
	if err := Validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadFile reads, renders, and parses the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", path, err)
	}
	return LoadNamed(path, data)
}

// LoadNamed renders raw with environment references and parses the result.
func LoadNamed(name string, raw []byte) (*Manifest, error) {
	rendered, err := Render(name, raw)
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", name, err)
	}
	m, err := Load(rendered)
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", name, err)
	}
	return m, nil
}
