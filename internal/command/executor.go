package command

import (
	"github.com/kalambet/helm/internal/catalog"
	"github.com/kalambet/helm/internal/nav"
)

// Executor applies intents to navigation state.
type Executor struct {
	catalog *catalog.Catalog
}

// NewExecutor creates an Executor that validates area ids against c.
func NewExecutor(c *catalog.Catalog) *Executor {
	return &Executor{catalog: c}
}

// Apply returns the state after in and the effects it requests. It never
// fails: intents that cannot be honoured (unknown section or area, empty
// query) leave the state as it was and report the intent as unrecognised.
func (e *Executor) Apply(s nav.State, in Intent) (nav.State, []Effect) {
	switch in.Kind {
	case KindShowSection:
		if !in.Section.Valid() {
			return e.miss(s, in)
		}
		s.Section = in.Section
		s.ActiveExpertiseID = ""
		return s, nil

	case KindShowExpertise:
		if !e.catalog.Has(in.ExpertiseID) {
			return e.miss(s, in)
		}
		s.Section = nav.SectionExpertise
		s.ActiveExpertiseID = in.ExpertiseID
		return s, nil

	case KindShowScopedProjects, KindShowScopedSkills:
		if !e.catalog.Has(in.ExpertiseID) {
			return e.miss(s, in)
		}
		s.Section = nav.SectionProjects
		if in.Kind == KindShowScopedSkills {
			s.Section = nav.SectionSkills
		}
		s.ActiveExpertiseID = in.ExpertiseID
		return s, nil

	case KindSearchGlobal:
		if in.Query == "" {
			return e.miss(s, in)
		}
		s.SearchQuery = in.Query
		s.SearchScopeID = ""
		return s, []Effect{PerformSearch(in.Query, "")}

	case KindSearchScoped:
		if in.Query == "" || !e.catalog.Has(in.ExpertiseID) {
			return e.miss(s, in)
		}
		s.SearchQuery = in.Query
		s.SearchScopeID = in.ExpertiseID
		return s, []Effect{PerformSearch(in.Query, in.ExpertiseID)}

	case KindShowHelp:
		return s, []Effect{DisplayHelp()}

	case KindStopListening:
		return s, []Effect{DisableVoiceControl()}

	case KindClearExpertise:
		s.ActiveExpertiseID = ""
		return s, nil

	case KindStepExpertise:
		id, ok := nav.Step(e.catalog, s.ActiveExpertiseID, in.Delta)
		if !ok {
			return s, nil
		}
		s.ActiveExpertiseID = id
		return s, nil

	case KindUnrecognized:
		return s, []Effect{ReportUnrecognized(in.Raw)}
	}
	return e.miss(s, in)
}

func (e *Executor) miss(s nav.State, in Intent) (nav.State, []Effect) {
	return s, []Effect{ReportUnrecognized(in.String())}
}
