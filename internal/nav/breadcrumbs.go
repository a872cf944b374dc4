package nav

import "github.com/kalambet/helm/internal/catalog"

// Crumb is one breadcrumb entry. Clearable crumbs, when clicked, drop the
// expertise drill-down.
type Crumb struct {
	Label     string `json:"label"`
	Clearable bool   `json:"clearable"`
}

// Breadcrumbs renders Home / Section / Area for s.
func Breadcrumbs(s State, c *catalog.Catalog) []Crumb {
	crumbs := []Crumb{{Label: "Home", Clearable: true}}
	if s.Section != "" {
		crumbs = append(crumbs, Crumb{Label: s.Section.Title(), Clearable: s.ActiveExpertiseID != ""})
	}
	if a, ok := c.Area(s.ActiveExpertiseID); ok {
		crumbs = append(crumbs, Crumb{Label: a.Name})
	}
	return crumbs
}
