package nav

import (
	"reflect"
	"testing"

	"github.com/kalambet/helm/internal/catalog"
)

func TestInitial(t *testing.T) {
	s := Initial()
	if s.Section != SectionExpertise {
		t.Errorf("Section = %q, want %q", s.Section, SectionExpertise)
	}
	if s.ActiveExpertiseID != "" || s.SearchQuery != "" || s.SearchScopeID != "" {
		t.Errorf("Initial() = %+v, want empty optional fields", s)
	}
}

func TestParseSection(t *testing.T) {
	for _, sec := range Sections {
		got, err := ParseSection(string(sec))
		if err != nil {
			t.Errorf("ParseSection(%q): %v", sec, err)
		}
		if got != sec {
			t.Errorf("ParseSection(%q) = %q", sec, got)
		}
	}
	if _, err := ParseSection("planets"); err == nil {
		t.Error("ParseSection(planets) should fail")
	}
}

func TestSectionTitle(t *testing.T) {
	if got := SectionEducation.Title(); got != "Education" {
		t.Errorf("Title() = %q, want Education", got)
	}
}

func TestValidate(t *testing.T) {
	c := catalog.Default()

	tests := []struct {
		name    string
		state   State
		wantErr bool
	}{
		{"initial", Initial(), false},
		{"drill-down", State{Section: SectionExpertise, ActiveExpertiseID: "ai"}, false},
		{"unknown area", State{Section: SectionExpertise, ActiveExpertiseID: "cooking"}, true},
		{"unknown scope", State{Section: SectionProjects, SearchScopeID: "cooking"}, true},
		{"bad section", State{Section: "bridge"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate(c)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStep_WrapsAround(t *testing.T) {
	c := catalog.Default()

	tests := []struct {
		active string
		delta  int
		want   string
	}{
		{"isd", 1, "ai"},
		{"fullstack", 1, "isd"},
		{"isd", -1, "fullstack"},
		{"ml", -1, "data-science"},
	}
	for _, tt := range tests {
		got, ok := Step(c, tt.active, tt.delta)
		if !ok {
			t.Errorf("Step(%q, %d) not ok", tt.active, tt.delta)
			continue
		}
		if got != tt.want {
			t.Errorf("Step(%q, %d) = %q, want %q", tt.active, tt.delta, got, tt.want)
		}
	}

	if _, ok := Step(c, "", 1); ok {
		t.Error("Step with no active area should not be ok")
	}
}

func TestBreadcrumbs(t *testing.T) {
	c := catalog.Default()

	got := Breadcrumbs(State{Section: SectionExpertise, ActiveExpertiseID: "ai"}, c)
	want := []Crumb{
		{Label: "Home", Clearable: true},
		{Label: "Expertise", Clearable: true},
		{Label: "Artificial Intelligence"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Breadcrumbs() = %+v, want %+v", got, want)
	}

	got = Breadcrumbs(State{Section: SectionSkills}, c)
	want = []Crumb{
		{Label: "Home", Clearable: true},
		{Label: "Skills"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Breadcrumbs() = %+v, want %+v", got, want)
	}
}
