package identity

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/school-portal/internal/domain"
)

//go:embed seed/school.yaml
var schoolSeed []byte

type seedFile struct {
	Principals  []domain.Principal       `yaml:"principals"`
	Credentials []domain.CredentialEntry `yaml:"credentials"`
}

// LoadSeed returns the directory built from the embedded demo data.
func LoadSeed() (*Directory, error) {
	return ParseSeed(schoolSeed)
}

// ParseSeed builds and validates a directory from a YAML document.
func ParseSeed(data []byte) (*Directory, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse identity seed: %w", err)
	}
	dir, err := NewDirectory(seed.Principals, seed.Credentials)
	if err != nil {
		return nil, fmt.Errorf("index identity seed: %w", err)
	}
	if err := dir.Validate(); err != nil {
		return nil, err
	}
	return dir, nil
}
