package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kalambet/helm/internal/catalog"
	"github.com/kalambet/helm/internal/nav"
	"github.com/kalambet/helm/internal/session"
)

const logLines = 5

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("helm") + "  " + m.renderVoice() + "\n")

	if !m.loaded {
		b.WriteString(dimStyle.Render("  connecting...") + "\n")
	} else {
		b.WriteString(m.renderCrumbs() + "\n\n")
		if m.snap.Prompt != nil {
			p := m.snap.Prompt.Text
			if m.snap.Prompt.Hint != "" {
				p += "  " + m.snap.Prompt.Hint
			}
			b.WriteString(promptStyle.Render(p) + "\n\n")
		}
		if m.snap.HelpVisible {
			b.WriteString(m.renderHelpPanel() + "\n")
		}
		if m.snap.State.SearchQuery != "" {
			b.WriteString(m.renderSearch() + "\n")
		}
		b.WriteString(m.renderSection() + "\n")
		b.WriteString(m.renderLog())
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("  "+m.err.Error()) + "\n")
	}
	b.WriteString("\n" + m.input.View() + "\n")
	b.WriteString(helpStyle.Render("  Enter: run  Esc: quit"))
	return b.String()
}

func (m Model) renderVoice() string {
	v := m.snap.Voice
	if !v.Enabled || v.Session == nil {
		return dimStyle.Render("voice off")
	}
	return tagStyle.Render("voice " + string(v.Session.Status))
}

func (m Model) renderCrumbs() string {
	labels := make([]string, len(m.snap.Breadcrumbs))
	for i, c := range m.snap.Breadcrumbs {
		labels[i] = c.Label
	}
	line := crumbStyle.Render(strings.Join(labels, " / "))
	if m.snap.LastCommand != "" {
		line += dimStyle.Render(fmt.Sprintf("  last: %q", m.snap.LastCommand))
	}
	return line
}

func (m Model) renderSection() string {
	st := m.snap.State
	area, hasArea := m.catalog.Area(st.ActiveExpertiseID)

	var b strings.Builder
	switch st.Section {
	case nav.SectionExpertise:
		if hasArea {
			b.WriteString(headingStyle.Render(area.Name) + "\n")
			b.WriteString("  " + area.Description + "\n")
			b.WriteString("  " + tagStyle.Render(strings.Join(area.Skills, " · ")) + "\n")
			for _, p := range area.Projects {
				b.WriteString(renderProject(p))
			}
			break
		}
		b.WriteString(headingStyle.Render("Expertise") + "\n")
		for _, a := range m.catalog.Areas {
			b.WriteString(fmt.Sprintf("  %s  %s\n", activeStyle.Render(a.Name), dimStyle.Render(a.Description)))
		}

	case nav.SectionEducation:
		ed := m.catalog.Education
		b.WriteString(headingStyle.Render("Education") + "\n")
		b.WriteString(fmt.Sprintf("  %s, %s (%s)\n", ed.Degree, ed.Institution, ed.Year))
		for _, c := range ed.Certifications {
			b.WriteString(fmt.Sprintf("  %s  %s\n", activeStyle.Render(c.Name), dimStyle.Render(c.Issuer+" "+c.Date)))
		}

	case nav.SectionProjects:
		if hasArea {
			b.WriteString(headingStyle.Render("Projects in "+area.Name) + "\n")
			for _, p := range area.Projects {
				b.WriteString(renderProject(p))
			}
			break
		}
		b.WriteString(headingStyle.Render("Projects") + "\n")
		for _, sp := range m.catalog.Projects() {
			b.WriteString(renderProject(sp.Project))
		}

	case nav.SectionSkills:
		if hasArea {
			b.WriteString(headingStyle.Render("Skills in "+area.Name) + "\n")
			b.WriteString("  " + tagStyle.Render(strings.Join(area.Skills, " · ")) + "\n")
			break
		}
		b.WriteString(headingStyle.Render("Skills") + "\n")
		for _, a := range m.catalog.Areas {
			b.WriteString(fmt.Sprintf("  %s  %s\n", activeStyle.Render(a.Name), tagStyle.Render(strings.Join(a.Skills, " · "))))
		}
	}
	return b.String()
}

func renderProject(p catalog.Project) string {
	line := fmt.Sprintf("  %s  %s\n", activeStyle.Render(p.Title), p.Description)
	if len(p.Technologies) > 0 {
		line += "    " + dimStyle.Render(strings.Join(p.Technologies, ", ")) + "\n"
	}
	return line
}

func (m Model) renderSearch() string {
	st := m.snap.State
	heading := fmt.Sprintf("Search: %q", st.SearchQuery)
	if a, ok := m.catalog.Area(st.SearchScopeID); ok {
		heading += " in " + a.Name
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render(heading) + "\n")
	switch {
	case m.snap.Searching:
		b.WriteString(dimStyle.Render("  searching...") + "\n")
	case len(m.snap.Results) == 0:
		b.WriteString(dimStyle.Render("  no results") + "\n")
	default:
		for _, r := range m.snap.Results {
			line := fmt.Sprintf("  %s  %s", activeStyle.Render(r.Project.Title), dimStyle.Render(r.AreaName))
			if r.Snippet != "" {
				line += "\n    " + r.Snippet
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func (m Model) renderHelpPanel() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Commands") + "\n")
	group := ""
	for _, h := range m.snap.Help {
		if h.Group != group {
			group = h.Group
			b.WriteString(dimStyle.Render("  "+group) + "\n")
		}
		b.WriteString(fmt.Sprintf("    %-28s %s\n", h.Command, dimStyle.Render(h.Description)))
	}
	return b.String()
}

func (m Model) renderLog() string {
	entries := m.snap.Log
	if len(entries) > logLines {
		entries = entries[len(entries)-logLines:]
	}
	var b strings.Builder
	for _, e := range entries {
		style := dimStyle
		switch e.Level {
		case session.LevelWarn:
			style = warnStyle
		case session.LevelError:
			style = errorStyle
		}
		line := fmt.Sprintf("  %s %s", e.Time.Format("15:04:05"), e.Message)
		b.WriteString(style.Render(truncate(line, m.width)) + "\n")
	}
	return b.String()
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) > width-2 && width > 2 {
		return string(runes[:width-2]) + ".."
	}
	return s
}
