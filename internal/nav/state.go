package nav

import (
	"fmt"
	"strings"

	"github.com/kalambet/helm/internal/catalog"
)

// Section is a top-level view of the control panel.
type Section string

const (
	SectionExpertise Section = "expertise"
	SectionEducation Section = "education"
	SectionProjects  Section = "projects"
	SectionSkills    Section = "skills"
)

// Sections lists every section in display order.
var Sections = []Section{SectionExpertise, SectionEducation, SectionProjects, SectionSkills}

// Valid reports whether s is a known section.
func (s Section) Valid() bool {
	switch s {
	case SectionExpertise, SectionEducation, SectionProjects, SectionSkills:
		return true
	}
	return false
}

// Title returns the capitalised label used in breadcrumbs.
func (s Section) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// ParseSection maps a section name to a Section.
func ParseSection(name string) (Section, error) {
	s := Section(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown section %q", name)
	}
	return s, nil
}

// State is what the rendering layer shows. Empty ActiveExpertiseID means no
// drill-down; empty SearchScopeID means the last search was global.
type State struct {
	Section           Section `json:"section"`
	ActiveExpertiseID string  `json:"active_expertise_id,omitempty"`
	SearchQuery       string  `json:"search_query,omitempty"`
	SearchScopeID     string  `json:"search_scope_id,omitempty"`
}

// Initial returns the state a fresh session starts in.
func Initial() State {
	return State{Section: SectionExpertise}
}

// Validate checks the state against the catalog.
func (s State) Validate(c *catalog.Catalog) error {
	if !s.Section.Valid() {
		return fmt.Errorf("unknown section %q", s.Section)
	}
	if s.ActiveExpertiseID != "" && !c.Has(s.ActiveExpertiseID) {
		return fmt.Errorf("active expertise %q not in catalog", s.ActiveExpertiseID)
	}
	if s.SearchScopeID != "" && !c.Has(s.SearchScopeID) {
		return fmt.Errorf("search scope %q not in catalog", s.SearchScopeID)
	}
	return nil
}

// Step returns the id of the area delta positions away from the active one,
// wrapping around the catalog order. ok is false when nothing is active.
func Step(c *catalog.Catalog, activeID string, delta int) (id string, ok bool) {
	i := c.Index(activeID)
	if i < 0 || len(c.Areas) == 0 {
		return "", false
	}
	n := len(c.Areas)
	j := ((i+delta)%n + n) % n
	return c.Areas[j].ID, true
}
