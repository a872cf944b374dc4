package command

import (
	"sort"
	"strings"

	"github.com/kalambet/helm/internal/catalog"
	"github.com/kalambet/helm/internal/nav"
)

// rule inspects normalised text. A rule that matches returns ok=true even
// when the result is Unrecognized, which stops evaluation.
type rule struct {
	name  string
	match func(text string) (Intent, bool)
}

// phrase maps a spoken fragment to an area id.
type phrase struct {
	text string
	id   string
}

// Parser maps free text to exactly one Intent. Rules are evaluated in
// priority order and the first match wins.
type Parser struct {
	catalog *catalog.Catalog
	aliases []phrase // "show <alias>" targets, longest first
	areas   []phrase // names, aliases and ids for scoped search, longest first
	rules   []rule
}

// NewParser builds a parser over the catalog's areas and aliases.
func NewParser(c *catalog.Catalog) *Parser {
	p := &Parser{catalog: c}

	for _, a := range c.Areas {
		for _, alias := range a.Aliases {
			p.aliases = append(p.aliases, phrase{text: normalize(alias), id: a.ID})
		}
		p.areas = append(p.areas, phrase{text: normalize(a.Name), id: a.ID}, phrase{text: normalize(a.ID), id: a.ID})
		for _, alias := range a.Aliases {
			p.areas = append(p.areas, phrase{text: normalize(alias), id: a.ID})
		}
	}
	byLength := func(ps []phrase) {
		sort.SliceStable(ps, func(i, j int) bool { return len(ps[i].text) > len(ps[j].text) })
	}
	byLength(p.aliases)
	byLength(p.areas)

	p.rules = []rule{
		{"control", p.matchControl},
		{"scoped", p.matchScoped},
		{"expertise", p.matchExpertise},
		{"section", p.matchSection},
		{"search", p.matchSearch},
	}
	return p
}

// Parse never fails: input that matches no rule yields Unrecognized(raw).
func (p *Parser) Parse(raw string) Intent {
	text := normalize(raw)
	if text == "" {
		return Unrecognized(raw)
	}
	for _, r := range p.rules {
		if in, ok := r.match(text); ok {
			if in.Kind == KindUnrecognized {
				in.Raw = raw
			}
			return in
		}
	}
	return Unrecognized(raw)
}

func (p *Parser) matchControl(text string) (Intent, bool) {
	switch text {
	case "help":
		return ShowHelp(), true
	case "stop listening":
		return StopListening(), true
	}
	return Intent{}, false
}

func (p *Parser) matchScoped(text string) (Intent, bool) {
	if rest, ok := after(text, "show projects in"); ok {
		a, found := p.catalog.FindByName(rest)
		if !found {
			return Unrecognized(""), true
		}
		return ShowScopedProjects(a.ID), true
	}
	if rest, ok := after(text, "show skills in"); ok {
		a, found := p.catalog.FindByName(rest)
		if !found {
			return Unrecognized(""), true
		}
		return ShowScopedSkills(a.ID), true
	}
	return Intent{}, false
}

func (p *Parser) matchExpertise(text string) (Intent, bool) {
	for _, a := range p.aliases {
		if _, ok := after(text, "show "+a.text); ok {
			return ShowExpertise(a.id), true
		}
	}
	return Intent{}, false
}

var sectionPhrases = []struct {
	text    string
	section nav.Section
}{
	{"show expertise", nav.SectionExpertise},
	{"show education", nav.SectionEducation},
	{"show projects", nav.SectionProjects},
	{"show skills", nav.SectionSkills},
}

func (p *Parser) matchSection(text string) (Intent, bool) {
	for _, sp := range sectionPhrases {
		if _, ok := after(text, sp.text); ok {
			return ShowSection(sp.section), true
		}
	}
	switch {
	case contains(text, "go back"):
		return ClearExpertise(), true
	case contains(text, "next expertise"):
		return StepExpertise(1), true
	case contains(text, "previous expertise"):
		return StepExpertise(-1), true
	}
	return Intent{}, false
}

func (p *Parser) matchSearch(text string) (Intent, bool) {
	if rest, ok := after(text, "search for"); ok {
		if rest == "" {
			return Unrecognized(""), true
		}
		return SearchGlobal(rest), true
	}
	if rest, ok := after(text, "search in"); ok {
		id, query, found := p.splitScopedSearch(rest)
		if !found || query == "" {
			return Unrecognized(""), true
		}
		return SearchScoped(id, query), true
	}
	return Intent{}, false
}

// splitScopedSearch separates "<area> <query>". The longest area name, alias
// or id that is a word prefix of rest wins; otherwise rest must read
// "<fragment> for <query>" and the fragment is resolved by name. The text is
// never split on "in", so names containing that word stay intact.
func (p *Parser) splitScopedSearch(rest string) (id, query string, ok bool) {
	for _, a := range p.areas {
		if a.text == "" {
			continue
		}
		if rest == a.text || strings.HasPrefix(rest, a.text+" ") {
			return a.id, trimFor(rest[len(a.text):]), true
		}
	}
	i := strings.Index(rest, " for ")
	if i < 0 {
		return "", "", false
	}
	area, found := p.catalog.FindByName(rest[:i])
	if !found {
		return "", "", false
	}
	return area.ID, strings.TrimSpace(rest[i+len(" for "):]), true
}

func trimFor(s string) string {
	s = strings.TrimSpace(s)
	if s == "for" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(s, "for "))
}

// normalize lower-cases, collapses whitespace and drops trailing punctuation
// that speech engines tend to append.
func normalize(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	return strings.TrimRight(s, ".!?, ")
}

// after finds phrase in text on word boundaries and returns what follows it.
func after(text, phrase string) (string, bool) {
	i := indexWord(text, phrase)
	if i < 0 {
		return "", false
	}
	return strings.TrimSpace(text[i+len(phrase):]), true
}

func contains(text, phrase string) bool {
	return indexWord(text, phrase) >= 0
}

func indexWord(text, phrase string) int {
	for start := 0; start <= len(text)-len(phrase); {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return -1
		}
		i += start
		end := i + len(phrase)
		if (i == 0 || text[i-1] == ' ') && (end == len(text) || text[end] == ' ') {
			return i
		}
		start = i + 1
	}
	return -1
}
