package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/dsm-insight/internal/model"
)

// Run starts the explore shell and returns the selection it ended with.
func Run(ctx context.Context, opts ...Option) (model.Selection, error) {
	m, err := New(ctx, opts...)
	if err != nil {
		return model.Selection{}, err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return m.Selection(), fmt.Errorf("explore shell failed: %w", err)
	}

	if fm, ok := final.(Model); ok {
		return fm.Selection(), fm.Err()
	}
	return m.Selection(), nil
}
