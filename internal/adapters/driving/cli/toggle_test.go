package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

func TestToggleCmd_Switch(t *testing.T) {
	tests := []struct {
		arg  string
		want bool
	}{
		{"off", false},
		{"on", true},
		{"DISABLE", false},
		{"true", true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			state := newMockState()
			useServices(t, &mockSync{}, state)

			_, err := runCLI(t, "", "toggle", "accounts", tt.arg)

			require.NoError(t, err)
			got, ok := state.toggles[domain.DomainAccounts]
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToggleCmd_Rejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown domain", []string{"toggle", "bogus", "on"}, "unknown domain"},
		{"deleted half", []string{"toggle", "resume_watching_deleted", "off"}, "unknown domain"},
		{"bad state", []string{"toggle", "settings", "maybe"}, "expected on or off"},
		{"missing state", []string{"toggle", "settings"}, "usage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := newMockState()
			useServices(t, &mockSync{}, state)

			_, err := runCLI(t, "", tt.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, state.toggles)
		})
	}
}

func TestToggleCmd_List(t *testing.T) {
	sync := &mockSync{status: statusEnabled()}
	sync.status.Disabled = []domain.Domain{domain.DomainRepositories}
	useServices(t, sync, newMockState())

	out, err := runCLI(t, "", "toggle")

	require.NoError(t, err)
	assert.NotContains(t, out, "resume_watching_deleted")
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasPrefix(line, "repositories") {
			assert.Contains(t, line, "off")
		} else {
			assert.Contains(t, line, "on")
		}
	}
}
