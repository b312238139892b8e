// Package selection owns the drill-down selection: at most one chosen state
// and an ordered, duplicate-free list of comparison sites.
package selection

import (
	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
)

// Manager is the only writer of a selection. It is not safe for concurrent
// use; callers sequence mutations before each recomputation.
type Manager struct {
	state string
	sites []string
}

// NewManager returns an idle manager.
func NewManager() *Manager {
	return &Manager{}
}

// Restore returns a manager seeded from a stored snapshot. Duplicate and
// empty sites in the snapshot are dropped.
func Restore(snap model.Selection) *Manager {
	m := &Manager{state: snap.State}
	for _, site := range snap.Sites {
		m.AddSite(site)
	}
	return m
}

// SelectState replaces the selected state.
func (m *Manager) SelectState(code string) {
	m.state = code
}

// ClearState deselects the state.
func (m *Manager) ClearState() {
	m.state = ""
}

// AddSite appends site unless it is already selected. It reports whether the
// selection changed.
func (m *Manager) AddSite(site string) bool {
	if site == "" || m.indexOf(site) >= 0 {
		return false
	}
	m.sites = append(m.sites, site)
	return true
}

// RemoveSite removes the site at index, shifting later sites down.
func (m *Manager) RemoveSite(index int) error {
	if index < 0 || index >= len(m.sites) {
		return &common.IndexOutOfRangeError{Index: index, Length: len(m.sites)}
	}
	m.sites = append(m.sites[:index:index], m.sites[index+1:]...)
	return nil
}

// ClearSites empties the comparison.
func (m *Manager) ClearSites() {
	m.sites = nil
}

// Reset returns the manager to idle.
func (m *Manager) Reset() {
	m.ClearState()
	m.ClearSites()
}

// Snapshot returns a copy that later mutations do not affect.
func (m *Manager) Snapshot() model.Selection {
	sites := make([]string, len(m.sites))
	copy(sites, m.sites)
	return model.Selection{State: m.state, Sites: sites}
}

// Contains reports whether site is in the comparison.
func (m *Manager) Contains(site string) bool {
	return m.indexOf(site) >= 0
}

func (m *Manager) indexOf(site string) int {
	for i, s := range m.sites {
		if s == site {
			return i
		}
	}
	return -1
}
