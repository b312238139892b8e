package model

// Selection is an immutable view of the user's drill-down choices. An empty
// State means no state is selected; Sites keeps insertion order.
type Selection struct {
	State string   `json:"selected_state,omitempty" yaml:"selected_state,omitempty"`
	Sites []string `json:"selected_sites" yaml:"selected_sites"`
}

// HasState reports whether a state is selected.
func (s Selection) HasState() bool {
	return s.State != ""
}

// HasSites reports whether the comparison is active.
func (s Selection) HasSites() bool {
	return len(s.Sites) > 0
}

// IsIdle reports whether neither axis is active.
func (s Selection) IsIdle() bool {
	return !s.HasState() && !s.HasSites()
}
