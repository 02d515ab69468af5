package watchlist

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// SeedGroup is a platform and the titles to import for it.
type SeedGroup struct {
	Platform Platform    `yaml:"platform" json:"platform"`
	List     []SeedEntry `yaml:"list" json:"list"`
}

// SeedEntry is one title of a seed group.
type SeedEntry struct {
	Title string      `yaml:"title" json:"title"`
	Type  ContentType `yaml:"type" json:"type"`
}

// ParseSeed decodes a YAML seed list.
func ParseSeed(data []byte) ([]SeedGroup, error) {
	var groups []SeedGroup
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("failed to parse seed list: %w", err)
	}
	return groups, nil
}

// DefaultSeed returns the embedded starter watchlist.
func DefaultSeed() []SeedGroup {
	groups, err := ParseSeed(defaultSeed)
	if err != nil {
		panic(err)
	}
	return groups
}
