package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"long yes", "  YES \n", true},
		{"no", "n\n", false},
		{"blank", "\n", false},
		{"eof", "", false},
		{"yes without newline", "y", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			ok, err := NewConfirmer(strings.NewReader(tt.input), &out).Confirm(context.Background(), "Restore checkpoint?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "Restore checkpoint? [y/N]")
		})
	}
}

func TestConfirm_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := NewConfirmer(pr, io.Discard).Confirm(ctx, "Continue?")
	assert.ErrorIs(t, err, ErrInputCancelled)
	assert.False(t, ok)
}
