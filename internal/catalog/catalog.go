// Package catalog holds the festival schedule. The set of slugs it defines is
// the allowed value set for an event registration's event field.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed events.yaml
var defaultCatalog []byte

type Event struct {
	Slug  string `yaml:"slug" json:"slug"`
	Title string `yaml:"title" json:"title"`
	Time  string `yaml:"time" json:"time"`
	Venue string `yaml:"venue" json:"venue"`
}

type Day struct {
	Day    int     `yaml:"day" json:"day"`
	Events []Event `yaml:"events" json:"events"`
}

type Catalog struct {
	Festival string `yaml:"festival" json:"festival"`
	Days     []Day  `yaml:"days" json:"days"`

	bySlug map[string]Event
}

func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalogue file, falling back to the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c.bySlug = make(map[string]Event)
	for _, d := range c.Days {
		for _, e := range d.Events {
			if e.Slug == "" {
				return nil, fmt.Errorf("catalog: event %q on day %d has no slug", e.Title, d.Day)
			}
			if _, dup := c.bySlug[e.Slug]; dup {
				return nil, fmt.Errorf("catalog: duplicate slug %q", e.Slug)
			}
			c.bySlug[e.Slug] = e
		}
	}
	if len(c.bySlug) == 0 {
		return nil, fmt.Errorf("catalog: no events defined")
	}
	return &c, nil
}

func (c *Catalog) Has(slug string) bool {
	_, ok := c.bySlug[slug]
	return ok
}

// Title returns the display title for slug, or slug itself when unknown.
func (c *Catalog) Title(slug string) string {
	if e, ok := c.bySlug[slug]; ok {
		return e.Title
	}
	return slug
}
