package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/dsm-insight/internal/cli"
	"github.com/Veraticus/dsm-insight/internal/model"
)

// View renders the explore screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sel := m.mgr.Snapshot()
	header := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("DSM explorer"),
		m.theme.Subtitle.Render(m.selectionLine(sel)),
		cli.KPICards(m.view.Portfolio.KPIs),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderStates(sel),
		m.renderSites(sel),
		m.renderDetail(),
	)

	parts := []string{header, body}
	if m.lastError != nil {
		parts = append(parts, m.theme.StatusError.Render("error: "+m.lastError.Error()))
	}
	parts = append(parts, m.help.View(m.keymap))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) selectionLine(sel model.Selection) string {
	state := "all states"
	if sel.HasState() {
		state = "state " + sel.State
	}
	sites := "no sites compared"
	if sel.HasSites() {
		sites = "comparing " + strings.Join(sel.Sites, ", ")
	}
	return state + " · " + sites
}

func (m Model) paneStyle(p Pane) lipgloss.Style {
	if m.pane == p {
		return m.theme.ActivePane
	}
	return m.theme.Pane
}

func (m Model) renderStates(sel model.Selection) string {
	lines := []string{m.theme.Bold.Render("States")}
	if len(m.states) == 0 {
		lines = append(lines, m.theme.Subtitle.Render("no data"))
	}
	for i := range m.states {
		s := &m.states[i]
		marker := "  "
		if s.Key == sel.State {
			marker = "● "
		}
		risk := m.theme.LowRisk
		if s.RiskLevel == model.RiskHigh {
			risk = m.theme.HighRisk
		}
		line := marker + fmt.Sprintf("%-4s %s", s.Key, risk.Render(fmt.Sprintf("%6.2f%%", s.LossPct)))
		lines = append(lines, m.cursorLine(line, PaneStates, i == m.stateCursor))
	}
	return m.paneStyle(PaneStates).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderSites(sel model.Selection) string {
	title := "Sites"
	if sel.HasState() {
		title += " in " + sel.State
	}
	lines := []string{m.theme.Bold.Render(title)}
	compared := make(map[string]int, len(sel.Sites))
	for i, s := range sel.Sites {
		compared[s] = i + 1
	}
	for i, site := range m.sites {
		marker := "   "
		if n, ok := compared[site]; ok {
			marker = fmt.Sprintf("%d. ", n)
		}
		lines = append(lines, m.cursorLine(marker+site, PaneSites, i == m.siteCursor))
	}
	return m.paneStyle(PaneSites).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) cursorLine(line string, p Pane, atCursor bool) string {
	switch {
	case atCursor && m.pane == p:
		return m.theme.Selected.Render(line)
	case atCursor:
		return m.theme.Highlighted.Render(line)
	default:
		return m.theme.Normal.Render(line)
	}
}

func (m Model) renderDetail() string {
	var lines []string

	if st := m.view.State; st != nil {
		lines = append(lines,
			m.theme.Bold.Render("State "+st.StateCode),
			fmt.Sprintf("gen %.2f MU · rev %.2f Cr · pen %.2f Cr · loss %.2f%%",
				st.KPIs.GenerationMU, st.KPIs.RevenueCr, st.KPIs.PenaltyCr, st.KPIs.LossPct),
			m.theme.Subtitle.Render("Top sites by penalty"),
		)
		for _, s := range st.TopSitesByPenalty {
			lines = append(lines, fmt.Sprintf("  %-12s %8.2f Cr", s.Site, s.PenaltyCr))
		}
		if len(st.TechnologyBreakdown) > 0 {
			lines = append(lines, m.theme.Subtitle.Render("Generation by technology"))
		}
		for _, t := range st.TechnologyBreakdown {
			lines = append(lines, fmt.Sprintf("  %-12s %8.2f MU", t.Technology, t.GenerationMU))
		}
	}

	if cmp := m.view.Comparison; cmp != nil {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, m.theme.Bold.Render("Comparison"))
		for i := range cmp.Sites {
			s := &cmp.Sites[i]
			if s.Summary.NoData {
				lines = append(lines, fmt.Sprintf("  %-12s %s", s.Site, m.theme.Subtitle.Render("no data")))
				continue
			}
			lines = append(lines, fmt.Sprintf("  %-12s loss %6.2f%%  score %6.2f",
				s.Site, s.Summary.LossPct, s.Radar.Overall))
		}
	}

	if len(lines) == 0 {
		lines = append(lines, m.theme.Subtitle.Render("Select a state or add sites to compare"))
	}
	return m.theme.Pane.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
