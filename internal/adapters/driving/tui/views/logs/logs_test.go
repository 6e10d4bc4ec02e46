package logs

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

type stubSync struct {
	driving.SyncService
	lines []string
}

func (s *stubSync) Logs() []string { return s.lines }

func lines(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("line %02d", i)
	}
	return out
}

func TestView_Load(t *testing.T) {
	v := NewView(nil, &stubSync{lines: []string{"a", "b"}})

	msg, ok := v.Load()().(messages.LogsLoaded)

	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, msg.Lines)
}

func TestView_Load_NoService(t *testing.T) {
	v := NewView(nil, nil)

	msg := v.Load()().(messages.LogsLoaded)

	assert.Empty(t, msg.Lines)
}

func TestView_Empty(t *testing.T) {
	v := NewView(nil, nil)

	assert.Contains(t, v.View(), "No activity yet.")
}

func TestView_FollowsTail(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(80, 10) // five visible lines

	v.Update(messages.LogsLoaded{Lines: lines(20)})

	assert.Equal(t, 15, v.Offset())
	out := v.View()
	assert.Contains(t, out, "line 19")
	assert.NotContains(t, out, "line 14")

	v.Update(messages.LogsLoaded{Lines: lines(22)})
	assert.Equal(t, 17, v.Offset())
}

func TestView_ScrollStopsFollowing(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(80, 10)
	v.Update(messages.LogsLoaded{Lines: lines(20)})

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 14, v.Offset())

	v.Update(messages.LogsLoaded{Lines: lines(25)})
	assert.Equal(t, 14, v.Offset())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	assert.Equal(t, 0, v.Offset())
	assert.Contains(t, v.View(), "line 00")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	assert.Equal(t, 20, v.Offset())
}

func TestView_ShortLogNeverScrolls(t *testing.T) {
	v := NewView(nil, nil)
	v.Update(messages.LogsLoaded{Lines: lines(3)})

	v.Update(tea.KeyMsg{Type: tea.KeyDown})

	assert.Equal(t, 0, v.Offset())
}
