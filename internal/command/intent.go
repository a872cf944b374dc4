package command

import (
	"fmt"

	"github.com/kalambet/helm/internal/nav"
)

// Kind tags an Intent.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindShowSection
	KindShowExpertise
	KindShowScopedProjects
	KindShowScopedSkills
	KindSearchGlobal
	KindSearchScoped
	KindShowHelp
	KindStopListening
	KindClearExpertise
	KindStepExpertise
)

var kindNames = map[Kind]string{
	KindUnrecognized:       "unrecognized",
	KindShowSection:        "show_section",
	KindShowExpertise:      "show_expertise",
	KindShowScopedProjects: "show_scoped_projects",
	KindShowScopedSkills:   "show_scoped_skills",
	KindSearchGlobal:       "search_global",
	KindSearchScoped:       "search_scoped",
	KindShowHelp:           "show_help",
	KindStopListening:      "stop_listening",
	KindClearExpertise:     "clear_expertise",
	KindStepExpertise:      "step_expertise",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown intent kind %d", int(k))
	}
	return []byte(name), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown intent kind %q", string(b))
}

// Intent is a recognised command. Only the fields relevant to Kind are set.
type Intent struct {
	Kind        Kind        `json:"kind"`
	Section     nav.Section `json:"section,omitempty"`
	ExpertiseID string      `json:"expertise_id,omitempty"`
	Query       string      `json:"query,omitempty"`
	Delta       int         `json:"delta,omitempty"`
	Raw         string      `json:"raw,omitempty"`
}

func ShowSection(s nav.Section) Intent {
	return Intent{Kind: KindShowSection, Section: s}
}

func ShowExpertise(id string) Intent {
	return Intent{Kind: KindShowExpertise, ExpertiseID: id}
}

func ShowScopedProjects(id string) Intent {
	return Intent{Kind: KindShowScopedProjects, ExpertiseID: id}
}

func ShowScopedSkills(id string) Intent {
	return Intent{Kind: KindShowScopedSkills, ExpertiseID: id}
}

func SearchGlobal(query string) Intent {
	return Intent{Kind: KindSearchGlobal, Query: query}
}

func SearchScoped(id, query string) Intent {
	return Intent{Kind: KindSearchScoped, ExpertiseID: id, Query: query}
}

func ShowHelp() Intent {
	return Intent{Kind: KindShowHelp}
}

func StopListening() Intent {
	return Intent{Kind: KindStopListening}
}

// ClearExpertise drops the drill-down, as the breadcrumb "back" does.
func ClearExpertise() Intent {
	return Intent{Kind: KindClearExpertise}
}

// StepExpertise moves the drill-down delta areas forward (negative: back).
func StepExpertise(delta int) Intent {
	return Intent{Kind: KindStepExpertise, Delta: delta}
}

// Unrecognized carries the input that matched no rule.
func Unrecognized(raw string) Intent {
	return Intent{Kind: KindUnrecognized, Raw: raw}
}

func (in Intent) String() string {
	switch in.Kind {
	case KindShowSection:
		return fmt.Sprintf("%s(%s)", in.Kind, in.Section)
	case KindShowExpertise, KindShowScopedProjects, KindShowScopedSkills:
		return fmt.Sprintf("%s(%s)", in.Kind, in.ExpertiseID)
	case KindSearchGlobal:
		return fmt.Sprintf("%s(%q)", in.Kind, in.Query)
	case KindSearchScoped:
		return fmt.Sprintf("%s(%s, %q)", in.Kind, in.ExpertiseID, in.Query)
	case KindStepExpertise:
		return fmt.Sprintf("%s(%+d)", in.Kind, in.Delta)
	case KindUnrecognized:
		return fmt.Sprintf("%s(%q)", in.Kind, in.Raw)
	}
	return in.Kind.String()
}

// Navigates reports whether applying the intent changes what is on screen.
func (in Intent) Navigates() bool {
	switch in.Kind {
	case KindShowSection, KindShowExpertise, KindShowScopedProjects, KindShowScopedSkills,
		KindClearExpertise, KindStepExpertise:
		return true
	}
	return false
}
