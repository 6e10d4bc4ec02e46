package mcp

import (
	"context"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

// mockSyncService is a mock implementation of driving.SyncService.
type mockSyncService struct {
	status  *driving.SyncStatus
	logs    []string
	err     error
	flushes int
}

func (m *mockSyncService) Start(context.Context) error { return m.err }
func (m *mockSyncService) Stop(context.Context) error  { return m.err }

func (m *mockSyncService) Initialize(context.Context, domain.SyncConfig) error { return m.err }
func (m *mockSyncService) Reconnect(context.Context) error                     { return m.err }
func (m *mockSyncService) Disconnect(context.Context) error                    { return m.err }

func (m *mockSyncService) Push(context.Context, domain.Domain, string) error { return m.err }

func (m *mockSyncService) FlushNow(context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.flushes++
	return nil
}

func (m *mockSyncService) Status(context.Context) (*driving.SyncStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.status == nil {
		return &driving.SyncStatus{}, nil
	}
	return m.status, nil
}

func (m *mockSyncService) Logs() []string { return m.logs }

// mockStateService is a mock implementation of driving.StateService.
type mockStateService struct {
	plugins []domain.PluginRecord
	err     error
}

func (m *mockStateService) SetValue(context.Context, string, string) error { return m.err }

func (m *mockStateService) GetValue(context.Context, string) (string, bool, error) {
	return "", false, m.err
}

func (m *mockStateService) DeleteValue(context.Context, string) error { return m.err }

func (m *mockStateService) ListValues(context.Context, string) (map[string]string, error) {
	return nil, m.err
}

func (m *mockStateService) SaveResume(context.Context, domain.ResumeRecord) error { return m.err }
func (m *mockStateService) DeleteResume(context.Context, int) error               { return m.err }

func (m *mockStateService) ListResume(context.Context) ([]domain.ResumeRecord, domain.Tombstones, error) {
	return nil, nil, m.err
}

func (m *mockStateService) InstallPlugin(context.Context, domain.PluginRecord) error { return m.err }
func (m *mockStateService) RemovePlugin(context.Context, string) error               { return m.err }

func (m *mockStateService) ListPlugins(context.Context) ([]domain.PluginRecord, error) {
	return m.plugins, m.err
}

func (m *mockStateService) SetDomainEnabled(context.Context, domain.Domain, bool) error {
	return m.err
}
