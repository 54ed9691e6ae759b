package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// passwordEnv overrides the manifest controller password when set, so
// credentials can stay out of committed manifests.
const passwordEnv = "EDA_PASSWORD"

// Loader parses and validates manifest files.
type Loader struct {
	validate *validator.Validate
}

// NewLoader creates a manifest loader.
func NewLoader() *Loader {
	return &Loader{validate: validator.New()}
}

// Load reads, parses, defaults, and validates the manifest at path.
func (l *Loader) Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return l.Parse(data)
}

// Parse parses a manifest from raw YAML. Unknown fields are rejected so a
// typo in a manifest fails loudly instead of silently dropping a field.
func (l *Loader) Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if pw := os.Getenv(passwordEnv); pw != "" {
		m.Controller.Password = pw
	}

	for i := range m.Activations {
		m.Activations[i].ApplyDefaults()
	}
	for i := range m.Users {
		m.Users[i].ApplyDefaults()
	}

	if err := m.Controller.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if err := l.validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}
