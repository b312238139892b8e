// Package tui is the interactive drill-down shell behind `dsm explore`.
package tui

import (
	"context"
	"sort"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/dsm-insight/internal/model"
	"github.com/Veraticus/dsm-insight/internal/report"
	"github.com/Veraticus/dsm-insight/internal/selection"
	"github.com/Veraticus/dsm-insight/internal/tui/themes"
)

// Pane is the list that receives cursor movement.
type Pane int

// Panes.
const (
	PaneStates Pane = iota
	PaneSites
)

type selectionSavedMsg struct {
	err error
}

// Model holds the explore shell state. Every transition goes through the
// selection manager and the view is recomputed from a fresh snapshot.
type Model struct {
	ctx         context.Context
	lastError   error
	save        SaveFunc
	mgr         *selection.Manager
	spec        model.FilterSpec
	theme       themes.Theme
	help        help.Model
	keymap      KeyMap
	view        report.View
	records     []model.Record
	filtered    []model.Record
	states      []model.GroupSummary
	sites       []string
	threshold   float64
	width       int
	height      int
	stateCursor int
	siteCursor  int
	pane        Pane
	quitting    bool
}

// New builds a Model over records. It fails if the filter names an unknown
// dimension or a record breaks the schema.
func New(ctx context.Context, opts ...Option) (Model, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	filtered, err := report.Apply(cfg.Records, cfg.Filter)
	if err != nil {
		return Model{}, err
	}
	states, err := report.Summarize(filtered, model.GroupState, cfg.Threshold)
	if err != nil {
		return Model{}, err
	}
	sort.SliceStable(states, func(i, j int) bool { return states[i].Key < states[j].Key })

	h := help.New()
	h.Width = cfg.Width

	m := Model{
		ctx:       ctx,
		save:      cfg.Save,
		mgr:       selection.Restore(cfg.Selection),
		spec:      cfg.Filter,
		theme:     cfg.Theme,
		help:      h,
		keymap:    DefaultKeyMap(),
		records:   cfg.Records,
		filtered:  filtered,
		states:    states,
		threshold: cfg.Threshold,
		width:     cfg.Width,
		height:    cfg.Height,
	}
	m.refresh()
	return m, nil
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Selection returns the current selection snapshot.
func (m Model) Selection() model.Selection {
	return m.mgr.Snapshot()
}

// Report returns the composed report currently on screen.
func (m Model) Report() report.View {
	return m.view
}

// Err returns the last error raised by a transition or a save.
func (m Model) Err() error {
	return m.lastError
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case selectionSavedMsg:
		m.lastError = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keymap.SwitchPane):
		if m.pane == PaneStates {
			m.pane = PaneSites
		} else {
			m.pane = PaneStates
		}
		return m, nil

	case key.Matches(msg, m.keymap.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keymap.SelectState):
		if m.pane != PaneStates || len(m.states) == 0 {
			return m, nil
		}
		m.mgr.SelectState(m.states[m.stateCursor].Key)
		m.siteCursor = 0

	case key.Matches(msg, m.keymap.ClearState):
		m.mgr.ClearState()
		m.siteCursor = 0

	case key.Matches(msg, m.keymap.AddSite):
		if len(m.sites) == 0 || !m.mgr.AddSite(m.sites[m.siteCursor]) {
			return m, nil
		}

	case key.Matches(msg, m.keymap.RemoveSite):
		sel := m.mgr.Snapshot()
		if len(sel.Sites) == 0 {
			return m, nil
		}
		if err := m.mgr.RemoveSite(len(sel.Sites) - 1); err != nil {
			m.lastError = err
			return m, nil
		}

	case key.Matches(msg, m.keymap.ClearSites):
		m.mgr.ClearSites()

	case key.Matches(msg, m.keymap.Reset):
		m.mgr.Reset()
		m.siteCursor = 0

	default:
		return m, nil
	}

	m.refresh()
	return m, m.saveCmd()
}

func (m *Model) moveCursor(delta int) {
	if m.pane == PaneStates {
		m.stateCursor = clamp(m.stateCursor+delta, len(m.states))
		return
	}
	m.siteCursor = clamp(m.siteCursor+delta, len(m.sites))
}

// refresh recomputes the composed view and the site list from a fresh snapshot.
func (m *Model) refresh() {
	sel := m.mgr.Snapshot()

	view, err := report.Compose(m.records, m.spec, sel, m.threshold)
	if err != nil {
		m.lastError = err
	} else {
		m.view = view
		m.lastError = nil
	}

	seen := make(map[string]struct{})
	sites := make([]string, 0, len(m.sites))
	for i := range m.filtered {
		r := &m.filtered[i]
		if sel.HasState() && r.StateCode != sel.State {
			continue
		}
		if _, ok := seen[r.Site]; ok {
			continue
		}
		seen[r.Site] = struct{}{}
		sites = append(sites, r.Site)
	}
	sort.Strings(sites)
	m.sites = sites

	m.stateCursor = clamp(m.stateCursor, len(m.states))
	m.siteCursor = clamp(m.siteCursor, len(m.sites))
}

func (m Model) saveCmd() tea.Cmd {
	if m.save == nil {
		return nil
	}
	ctx, save, sel := m.ctx, m.save, m.mgr.Snapshot()
	return func() tea.Msg {
		return selectionSavedMsg{err: save(ctx, sel)}
	}
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
