package command

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/helm/internal/catalog"
	"github.com/kalambet/helm/internal/nav"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	return NewExecutor(catalog.Default())
}

func TestApply(t *testing.T) {
	e := newTestExecutor(t)
	start := nav.State{
		Section:           nav.SectionExpertise,
		ActiveExpertiseID: "ai",
		SearchQuery:       "old",
		SearchScopeID:     "ml",
	}

	tests := []struct {
		name        string
		intent      Intent
		wantState   nav.State
		wantEffects []Effect
	}{
		{
			name:      "show section clears drill-down",
			intent:    ShowSection(nav.SectionEducation),
			wantState: nav.State{Section: nav.SectionEducation, SearchQuery: "old", SearchScopeID: "ml"},
		},
		{
			name:      "show expertise",
			intent:    ShowExpertise("ml"),
			wantState: nav.State{Section: nav.SectionExpertise, ActiveExpertiseID: "ml", SearchQuery: "old", SearchScopeID: "ml"},
		},
		{
			name:      "scoped projects",
			intent:    ShowScopedProjects("isd"),
			wantState: nav.State{Section: nav.SectionProjects, ActiveExpertiseID: "isd", SearchQuery: "old", SearchScopeID: "ml"},
		},
		{
			name:      "scoped skills",
			intent:    ShowScopedSkills("fullstack"),
			wantState: nav.State{Section: nav.SectionSkills, ActiveExpertiseID: "fullstack", SearchQuery: "old", SearchScopeID: "ml"},
		},
		{
			name:        "global search clears scope",
			intent:      SearchGlobal("neural"),
			wantState:   nav.State{Section: nav.SectionExpertise, ActiveExpertiseID: "ai", SearchQuery: "neural"},
			wantEffects: []Effect{PerformSearch("neural", "")},
		},
		{
			name:        "scoped search",
			intent:      SearchScoped("data-science", "dashboard"),
			wantState:   nav.State{Section: nav.SectionExpertise, ActiveExpertiseID: "ai", SearchQuery: "dashboard", SearchScopeID: "data-science"},
			wantEffects: []Effect{PerformSearch("dashboard", "data-science")},
		},
		{
			name:        "help",
			intent:      ShowHelp(),
			wantState:   start,
			wantEffects: []Effect{DisplayHelp()},
		},
		{
			name:        "stop listening",
			intent:      StopListening(),
			wantState:   start,
			wantEffects: []Effect{DisableVoiceControl()},
		},
		{
			name:        "unrecognized",
			intent:      Unrecognized("warp nine"),
			wantState:   start,
			wantEffects: []Effect{ReportUnrecognized("warp nine")},
		},
		{
			name:      "clear expertise",
			intent:    ClearExpertise(),
			wantState: nav.State{Section: nav.SectionExpertise, SearchQuery: "old", SearchScopeID: "ml"},
		},
		{
			name:      "step forward",
			intent:    StepExpertise(1),
			wantState: nav.State{Section: nav.SectionExpertise, ActiveExpertiseID: "data-science", SearchQuery: "old", SearchScopeID: "ml"},
		},
		{
			name:        "unknown area is a resolution miss",
			intent:      ShowExpertise("astrology"),
			wantState:   start,
			wantEffects: []Effect{ReportUnrecognized(`show_expertise(astrology)`)},
		},
		{
			name:        "unknown section",
			intent:      ShowSection("bridge"),
			wantState:   start,
			wantEffects: []Effect{ReportUnrecognized(`show_section(bridge)`)},
		},
		{
			name:        "empty search query",
			intent:      SearchGlobal(""),
			wantState:   start,
			wantEffects: []Effect{ReportUnrecognized(`search_global("")`)},
		},
		{
			name:        "unknown kind",
			intent:      Intent{Kind: Kind(99)},
			wantState:   start,
			wantEffects: []Effect{ReportUnrecognized("kind(99)")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, effects := e.Apply(start, tt.intent)
			if diff := cmp.Diff(tt.wantState, got); diff != "" {
				t.Errorf("state mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantEffects, effects); diff != "" {
				t.Errorf("effects mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApply_UnrecognizedLeavesStateEqual(t *testing.T) {
	e := newTestExecutor(t)
	states := []nav.State{
		nav.Initial(),
		{Section: nav.SectionSkills, ActiveExpertiseID: "ml"},
		{Section: nav.SectionProjects, SearchQuery: "q", SearchScopeID: "ai"},
	}
	for _, s := range states {
		got, _ := e.Apply(s, Unrecognized("anything"))
		if diff := cmp.Diff(s, got); diff != "" {
			t.Errorf("Apply(Unrecognized) changed state (-want +got):\n%s", diff)
		}
	}
}

func TestApply_ShowSectionIdempotent(t *testing.T) {
	e := newTestExecutor(t)
	s := nav.State{Section: nav.SectionExpertise, ActiveExpertiseID: "ai", SearchQuery: "x"}

	for _, sec := range nav.Sections {
		once, _ := e.Apply(s, ShowSection(sec))
		twice, _ := e.Apply(once, ShowSection(sec))
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("ShowSection(%s) not idempotent (-once +twice):\n%s", sec, diff)
		}
	}
}

func TestApply_ExpertiseRoundTrip(t *testing.T) {
	e := newTestExecutor(t)

	s, _ := e.Apply(nav.Initial(), ShowExpertise("ai"))
	s, _ = e.Apply(s, ShowSection(nav.SectionSkills))
	if s.ActiveExpertiseID != "" {
		t.Fatalf("ActiveExpertiseID = %q after ShowSection, want empty", s.ActiveExpertiseID)
	}
	s, _ = e.Apply(s, ShowExpertise("ai"))
	if s.ActiveExpertiseID != "ai" || s.Section != nav.SectionExpertise {
		t.Errorf("state = %+v, want expertise/ai", s)
	}
}

func TestApply_StepWithoutActiveIsNoop(t *testing.T) {
	e := newTestExecutor(t)
	s := nav.Initial()

	got, effects := e.Apply(s, StepExpertise(-1))
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("state changed (-want +got):\n%s", diff)
	}
	if len(effects) != 0 {
		t.Errorf("effects = %v, want none", effects)
	}
}

func TestParseThenApply_Scenarios(t *testing.T) {
	c := catalog.Default()
	p := NewParser(c)
	e := NewExecutor(c)

	in := p.Parse("show artificial intelligence")
	if in != ShowExpertise("ai") {
		t.Fatalf("Parse = %v, want show_expertise(ai)", in)
	}
	s, _ := e.Apply(nav.Initial(), in)
	want := nav.State{Section: nav.SectionExpertise, ActiveExpertiseID: "ai"}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	in = p.Parse("search for neural")
	_, effects := e.Apply(nav.Initial(), in)
	searches := 0
	for _, ef := range effects {
		if ef.Kind == EffectPerformSearch {
			searches++
			if ef.Query != "neural" || ef.ScopeID != "" {
				t.Errorf("effect = %+v, want PerformSearch(neural, none)", ef)
			}
		}
	}
	if searches != 1 {
		t.Errorf("PerformSearch emitted %d times, want 1", searches)
	}

	in = p.Parse("")
	if in != Unrecognized("") {
		t.Fatalf("Parse(\"\") = %v", in)
	}
	got, _ := e.Apply(nav.Initial(), in)
	if diff := cmp.Diff(nav.Initial(), got); diff != "" {
		t.Errorf("state changed on empty input (-want +got):\n%s", diff)
	}
}
