package domains

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

type stubState struct {
	driving.StateService
	calls map[domain.Domain]bool
	err   error
}

func (s *stubState) SetDomainEnabled(_ context.Context, d domain.Domain, enabled bool) error {
	if s.calls == nil {
		s.calls = make(map[domain.Domain]bool)
	}
	s.calls[d] = enabled
	return s.err
}

func TestNewView_HidesDeletedHalf(t *testing.T) {
	v := NewView(nil, &stubState{})

	assert.Len(t, v.Items(), len(domain.AllDomains())-1)
	assert.NotContains(t, v.Items(), domain.DomainResumeWatchingDeleted)
	assert.Equal(t, domain.DomainSettings, v.Selected())
}

func TestView_SetDisabled(t *testing.T) {
	v := NewView(nil, &stubState{})

	v.SetDisabled([]domain.Domain{domain.DomainRepositories})

	assert.False(t, v.Enabled(domain.DomainRepositories))
	assert.True(t, v.Enabled(domain.DomainSettings))
	assert.Contains(t, v.View(), "off")
}

func TestView_Toggle(t *testing.T) {
	state := &stubState{}
	v := NewView(nil, state)
	v.SetDisabled([]domain.Domain{domain.DomainHomeSettings})

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, domain.DomainHomeSettings, v.Selected())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd().(messages.DomainToggled)

	assert.True(t, msg.Enabled)
	assert.True(t, state.calls[domain.DomainHomeSettings])

	v.Update(msg)
	assert.True(t, v.Enabled(domain.DomainHomeSettings))
}

func TestView_Toggle_Error(t *testing.T) {
	state := &stubState{err: errors.New("locked")}
	v := NewView(nil, state)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())

	assert.True(t, v.Enabled(domain.DomainSettings))
	assert.Contains(t, v.View(), "Error: locked")
}

func TestView_Toggle_NoService(t *testing.T) {
	v := NewView(nil, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestView_Navigation_Bounds(t *testing.T) {
	v := NewView(nil, &stubState{})

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, domain.DomainSettings, v.Selected())

	for range 20 {
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, domain.DomainResumeWatching, v.Selected())
}
