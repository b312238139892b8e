package selection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
)

func TestManager_StateAxis(t *testing.T) {
	m := NewManager()
	assert.True(t, m.Snapshot().IsIdle())

	m.SelectState("GJ")
	m.SelectState("GJ")
	assert.Equal(t, "GJ", m.Snapshot().State)

	m.SelectState("RJ")
	assert.Equal(t, "RJ", m.Snapshot().State)

	m.ClearState()
	m.ClearState()
	assert.False(t, m.Snapshot().HasState())
}

func TestManager_AddSite(t *testing.T) {
	m := NewManager()
	assert.True(t, m.AddSite("A"))
	assert.False(t, m.AddSite("A"))
	assert.Len(t, m.Snapshot().Sites, 1)

	assert.True(t, m.AddSite("C"))
	assert.True(t, m.AddSite("B"))
	assert.False(t, m.AddSite(""))
	assert.Equal(t, []string{"A", "C", "B"}, m.Snapshot().Sites)
	assert.True(t, m.Contains("C"))
}

func TestManager_RemoveSite(t *testing.T) {
	tests := []struct {
		name    string
		want    []string
		index   int
		wantErr bool
	}{
		{name: "first", index: 0, want: []string{"B", "C", "D"}},
		{name: "middle", index: 2, want: []string{"A", "B", "D"}},
		{name: "last", index: 3, want: []string{"A", "B", "C"}},
		{name: "equal to length", index: 4, wantErr: true, want: []string{"A", "B", "C", "D"}},
		{name: "negative", index: -1, wantErr: true, want: []string{"A", "B", "C", "D"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			for _, s := range []string{"A", "B", "C", "D"} {
				m.AddSite(s)
			}
			before := m.Snapshot()

			err := m.RemoveSite(tt.index)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrIndexOutOfRange)
				var ioe *common.IndexOutOfRangeError
				require.True(t, errors.As(err, &ioe))
				assert.Equal(t, tt.index, ioe.Index)
				assert.Equal(t, 4, ioe.Length)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, m.Snapshot().Sites)
			assert.Equal(t, []string{"A", "B", "C", "D"}, before.Sites)
		})
	}
}

func TestManager_RemoveFromEmpty(t *testing.T) {
	err := NewManager().RemoveSite(0)
	assert.Equal(t, "IndexOutOfRange", common.Kind(err))
}

func TestManager_AxesAreIndependent(t *testing.T) {
	m := NewManager()
	m.SelectState("GJ")
	m.AddSite("A")

	m.ClearSites()
	assert.Equal(t, "GJ", m.Snapshot().State)
	assert.Empty(t, m.Snapshot().Sites)

	m.AddSite("B")
	m.ClearState()
	assert.Equal(t, []string{"B"}, m.Snapshot().Sites)

	m.SelectState("MH")
	m.Reset()
	m.Reset()
	assert.True(t, m.Snapshot().IsIdle())
}

func TestManager_SnapshotIsolation(t *testing.T) {
	m := NewManager()
	m.AddSite("A")
	snap := m.Snapshot()

	m.AddSite("B")
	snap.Sites[0] = "changed"

	assert.Equal(t, []string{"A", "B"}, m.Snapshot().Sites)
	assert.Len(t, snap.Sites, 1)
}

func TestRestore(t *testing.T) {
	m := Restore(model.Selection{State: "KA", Sites: []string{"X", "Y", "X", ""}})
	assert.Equal(t, model.Selection{State: "KA", Sites: []string{"X", "Y"}}, m.Snapshot())
}
