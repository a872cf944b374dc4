package command

import (
	"fmt"

	"github.com/kalambet/helm/internal/catalog"
)

// HelpEntry documents one spoken or typed command.
type HelpEntry struct {
	Group       string `json:"group"`
	Command     string `json:"command"`
	Description string `json:"description"`
}

// Help lists the command vocabulary, including one "show <alias>" entry per
// catalog alias.
func Help(c *catalog.Catalog) []HelpEntry {
	entries := []HelpEntry{
		{"navigation", "show expertise", "Display all expertise areas"},
		{"navigation", "show education", "Display education and certifications"},
		{"navigation", "show projects", "Display all projects"},
		{"navigation", "show skills", "Display all skills"},
		{"navigation", "go back", "Leave the selected expertise area"},
		{"navigation", "next expertise", "Move to the next expertise area"},
		{"navigation", "previous expertise", "Move to the previous expertise area"},
	}
	for _, a := range c.Areas {
		for _, alias := range a.Aliases {
			entries = append(entries, HelpEntry{"expertise", "show " + alias, fmt.Sprintf("Display %s expertise", a.Name)})
		}
	}
	return append(entries,
		HelpEntry{"projects", "show projects in <area>", "Show projects for a specific expertise area"},
		HelpEntry{"projects", "show skills in <area>", "Show skills for a specific expertise area"},
		HelpEntry{"search", "search for <query>", "Search across all content"},
		HelpEntry{"search", "search in <area> <query>", "Search within a specific expertise area"},
		HelpEntry{"control", "help", "Show available voice commands"},
		HelpEntry{"control", "stop listening", "Disable voice control"},
	)
}
