package scraper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Selectors contains CSS selectors for the elements of a search page
type Selectors struct {
	// Item selects one anchor per listing on the search page
	Item string `yaml:"item"`
	// Title selects the title within an item; the item's own text is
	// used when empty
	Title string `yaml:"title,omitempty"`
	// Price selects the price within an item; optional
	Price string `yaml:"price,omitempty"`
	// IDPattern is a regular expression with one capture group applied
	// to the listing URL. When empty the last path segment is used as
	// the id.
	IDPattern string `yaml:"id_pattern,omitempty"`
}

// Source describes one listings page to poll
type Source struct {
	Name         string    `yaml:"name"`
	URL          string    `yaml:"url"`
	BaseURL      string    `yaml:"base_url"`
	BlockSeconds int       `yaml:"block_seconds,omitempty"`
	Selectors    Selectors `yaml:"selectors"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// Validate checks that the source carries everything the scraper needs
func (s *Source) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("source %q: url is required", s.Name)
	}
	if s.Selectors.Item == "" {
		return fmt.Errorf("source %q: selectors.item is required", s.Name)
	}
	return nil
}

// LoadSources reads source definitions from a YAML file
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file %s: %w", path, err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}
	if len(f.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}

	for i := range f.Sources {
		if err := f.Sources[i].Validate(); err != nil {
			return nil, err
		}
	}

	return f.Sources, nil
}

// DefaultSource returns the built-in SAGA Hamburg source used when no
// sources file is configured
func DefaultSource(searchURL string) Source {
	return Source{
		Name:    "saga",
		URL:     searchURL,
		BaseURL: "https://www.saga.hamburg",
		Selectors: Selectors{
			Item:      `a[href*="/immobiliensuche/immo-detail/"]`,
			IDPattern: `/immo-detail/([^/]+)`,
		},
	}
}
