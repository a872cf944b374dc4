package command

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/helm/internal/catalog"
	"github.com/kalambet/helm/internal/nav"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(catalog.Default())
}

func TestParse(t *testing.T) {
	p := newTestParser(t)

	tests := []struct {
		input string
		want  Intent
	}{
		// control
		{"help", ShowHelp()},
		{"  Help. ", ShowHelp()},
		{"stop listening", StopListening()},
		{"help .", ShowHelp()},
		{"stop listening !", StopListening()},
		{"Stop listening . ?", StopListening()},
		{"show education ...", ShowSection(nav.SectionEducation)},
		{"search for help", SearchGlobal("help")},

		// scoped listings
		{"show projects in artificial", ShowScopedProjects("ai")},
		{"please show skills in data", ShowScopedSkills("data-science")},
		{"show projects in web development", ShowScopedProjects("fullstack")},
		{"show projects in astrology", Unrecognized("show projects in astrology")},
		{"show skills in", Unrecognized("show skills in")},

		// expertise phrases
		{"show artificial intelligence", ShowExpertise("ai")},
		{"show instructional design", ShowExpertise("isd")},
		{"Show Data Science!", ShowExpertise("data-science")},
		{"show machine learning", ShowExpertise("ml")},
		{"show full stack", ShowExpertise("fullstack")},

		// sections
		{"show expertise", ShowSection(nav.SectionExpertise)},
		{"show education", ShowSection(nav.SectionEducation)},
		{"show projects", ShowSection(nav.SectionProjects)},
		{"could you show skills", ShowSection(nav.SectionSkills)},
		{"show projects instantly", ShowSection(nav.SectionProjects)},
		{"go back", ClearExpertise()},
		{"next expertise", StepExpertise(1)},
		{"previous expertise", StepExpertise(-1)},

		// search
		{"search for neural", SearchGlobal("neural")},
		{"search for  cloud   platform", SearchGlobal("cloud platform")},
		{"search for", Unrecognized("search for")},
		{"search in artificial intelligence neural", SearchScoped("ai", "neural")},
		{"search in data science for dashboards", SearchScoped("data-science", "dashboards")},
		{"search in ml deployment", SearchScoped("ml", "deployment")},
		{"search in web for platform", SearchScoped("fullstack", "platform")},
		{"search in instructional systems design learning", SearchScoped("isd", "learning")},
		{"search in data science", Unrecognized("search in data science")},
		{"search in quantum stuff", Unrecognized("search in quantum stuff")},

		// fallthrough
		{"", Unrecognized("")},
		{"   ", Unrecognized("   ")},
		{"engage warp drive", Unrecognized("engage warp drive")},
		{"helpful", Unrecognized("helpful")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := p.Parse(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParse_ScopedBeforeSection(t *testing.T) {
	p := newTestParser(t)

	// "show projects in ..." also contains "show projects"; the scoped rule wins.
	got := p.Parse("show projects in machine")
	if got.Kind != KindShowScopedProjects {
		t.Errorf("Kind = %v, want %v", got.Kind, KindShowScopedProjects)
	}
}

func TestParse_AliasesLongestFirst(t *testing.T) {
	c, err := catalog.Parse([]byte(`areas:
  - id: data
    name: Data
    aliases: [data]
  - id: data-eng
    name: Data Engineering
    aliases: [data engineering]
`))
	if err != nil {
		t.Fatal(err)
	}
	p := NewParser(c)

	if got := p.Parse("show data engineering"); got != ShowExpertise("data-eng") {
		t.Errorf("Parse = %v, want show_expertise(data-eng)", got)
	}
	if got := p.Parse("show data"); got != ShowExpertise("data") {
		t.Errorf("Parse = %v, want show_expertise(data)", got)
	}
}

func TestParse_AreaNameContainingIn(t *testing.T) {
	c, err := catalog.Parse([]byte(`areas:
  - id: ml-in-prod
    name: ML in Production
`))
	if err != nil {
		t.Fatal(err)
	}
	p := NewParser(c)

	got := p.Parse("search in ml in production drift monitoring")
	want := SearchScoped("ml-in-prod", "drift monitoring")
	if got != want {
		t.Errorf("Parse = %v, want %v", got, want)
	}
}

// Parse is total: every input yields exactly one intent with a known kind.
func TestParse_Total(t *testing.T) {
	p := newTestParser(t)
	inputs := []string{
		"", " ", "\t\n", "show", "search", "search in", "show projects in in in",
		"stop", "stop listening please", "HELP ME", "search for for", "search in for x",
		"🚀 show skills", "show skills",
	}
	for _, in := range inputs {
		got := p.Parse(in)
		if _, ok := kindNames[got.Kind]; !ok {
			t.Errorf("Parse(%q) returned unknown kind %v", in, got.Kind)
		}
	}
}

func FuzzParse(f *testing.F) {
	for _, seed := range []string{
		"", "help", "help .", "stop listening !", "show projects in machine learning",
		"search in data science for dashboards", "search in", "next expertise", "🚀 show skills",
	} {
		f.Add(seed)
	}
	p := NewParser(catalog.Default())
	f.Fuzz(func(t *testing.T, input string) {
		got := p.Parse(input)
		if _, ok := kindNames[got.Kind]; !ok {
			t.Fatalf("Parse(%q) returned unknown kind %v", input, got.Kind)
		}
		if got.Kind == KindUnrecognized && got.Raw != input {
			t.Fatalf("Parse(%q) Raw = %q, want the input unchanged", input, got.Raw)
		}
	})
}
