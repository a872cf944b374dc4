package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Project is a single showcase entry under an expertise area.
type Project struct {
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description"`
	Technologies []string `yaml:"technologies" json:"technologies"`
	Demo         string   `yaml:"demo,omitempty" json:"demo,omitempty"`
	GitHub       string   `yaml:"github,omitempty" json:"github,omitempty"`
}

// Area is one expertise area. Aliases are the spoken phrases that select it
// directly ("show <alias>").
type Area struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Aliases     []string  `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Skills      []string  `yaml:"skills" json:"skills"`
	Projects    []Project `yaml:"projects" json:"projects"`
}

type Certification struct {
	Name         string `yaml:"name" json:"name"`
	Issuer       string `yaml:"issuer" json:"issuer"`
	Date         string `yaml:"date" json:"date"`
	CredentialID string `yaml:"credential_id,omitempty" json:"credential_id,omitempty"`
}

type Education struct {
	Degree         string          `yaml:"degree" json:"degree"`
	Institution    string          `yaml:"institution" json:"institution"`
	Year           string          `yaml:"year" json:"year"`
	Certifications []Certification `yaml:"certifications" json:"certifications"`
}

// Catalog is the read-only content the interpreter navigates. Area order is
// significant: name lookups return the first match and stepping wraps in
// this order.
type Catalog struct {
	Areas     []Area    `yaml:"areas" json:"areas"`
	Education Education `yaml:"education" json:"education"`
}

// ScopedProject is a project together with the area it belongs to.
type ScopedProject struct {
	AreaID string
	Project
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

// Load reads a YAML catalog from path. An empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every area has a unique, non-empty id and a name.
func (c *Catalog) Validate() error {
	if len(c.Areas) == 0 {
		return errors.New("catalog has no expertise areas")
	}
	seen := make(map[string]bool, len(c.Areas))
	for i, a := range c.Areas {
		if a.ID == "" {
			return fmt.Errorf("area %d: missing id", i)
		}
		if a.Name == "" {
			return fmt.Errorf("area %q: missing name", a.ID)
		}
		if seen[a.ID] {
			return fmt.Errorf("area %q: duplicate id", a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

// Area returns the area with the given id.
func (c *Catalog) Area(id string) (Area, bool) {
	i := c.Index(id)
	if i < 0 {
		return Area{}, false
	}
	return c.Areas[i], true
}

// Has reports whether id names an area.
func (c *Catalog) Has(id string) bool {
	return c.Index(id) >= 0
}

// Index returns the position of the area with the given id, or -1.
func (c *Catalog) Index(id string) int {
	if id == "" {
		return -1
	}
	for i, a := range c.Areas {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// FindByName returns the first area whose display name contains fragment,
// compared case-insensitively. An empty fragment matches nothing.
func (c *Catalog) FindByName(fragment string) (Area, bool) {
	fragment = strings.ToLower(strings.TrimSpace(fragment))
	if fragment == "" {
		return Area{}, false
	}
	for _, a := range c.Areas {
		if strings.Contains(strings.ToLower(a.Name), fragment) {
			return a, true
		}
	}
	return Area{}, false
}

// Projects lists every project in catalog order.
func (c *Catalog) Projects() []ScopedProject {
	var out []ScopedProject
	for _, a := range c.Areas {
		for _, p := range a.Projects {
			out = append(out, ScopedProject{AreaID: a.ID, Project: p})
		}
	}
	return out
}
