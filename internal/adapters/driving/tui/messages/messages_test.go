package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/statesync/internal/adapters/driven/notify"
	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

func TestStatusLoaded(t *testing.T) {
	msg := StatusLoaded{Status: &driving.SyncStatus{Enabled: true}}
	assert.True(t, msg.Status.Enabled)
	assert.NoError(t, msg.Err)
}

func TestSyncCompleted_WithError(t *testing.T) {
	msg := SyncCompleted{Err: errors.New("boom")}
	assert.EqualError(t, msg.Err, "boom")
}

func TestDomainToggled(t *testing.T) {
	msg := DomainToggled{Domain: domain.DomainAccounts, Enabled: false}
	assert.Equal(t, domain.DomainAccounts, msg.Domain)
	assert.False(t, msg.Enabled)
}

func TestRemoteChanged(t *testing.T) {
	msg := RemoteChanged{Event: notify.EventSettings}
	assert.Equal(t, notify.EventSettings, msg.Event)
}

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view ViewType
		want string
	}{
		{ViewMenu, "menu"},
		{ViewDashboard, "dashboard"},
		{ViewDomains, "domains"},
		{ViewLogs, "logs"},
		{ViewPlugins, "plugins"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.view.String())
		})
	}
}

func TestViewType_Distinct(t *testing.T) {
	views := []ViewType{ViewMenu, ViewDashboard, ViewDomains, ViewLogs, ViewPlugins, ViewHelp}
	seen := make(map[ViewType]bool)
	for _, v := range views {
		assert.False(t, seen[v], "duplicate view type %d", v)
		seen[v] = true
	}
}
