package services

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  stdsync.Mutex
	now time.Time
}

func newFakeClock(ms int64) *fakeClock {
	return &fakeClock{now: time.UnixMilli(ms)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.UnixMilli(ms)
}

// recordingLoader records plugin-loader calls.
type recordingLoader struct {
	mu         stdsync.Mutex
	unloaded   []string
	deleted    []string
	downloads  []domain.AutoDownloadMode
	deleteErrs map[string]error
}

func newRecordingLoader() *recordingLoader {
	return &recordingLoader{deleteErrs: map[string]error{}}
}

func (l *recordingLoader) Unload(_ context.Context, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unloaded = append(l.unloaded, path)
	return nil
}

func (l *recordingLoader) DeleteFile(_ context.Context, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.deleteErrs[path]; err != nil {
		return err
	}
	l.deleted = append(l.deleted, path)
	return nil
}

func (l *recordingLoader) DownloadAndLoadMissing(_ context.Context, mode domain.AutoDownloadMode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.downloads = append(l.downloads, mode)
	return nil
}

func (l *recordingLoader) Deleted() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.deleted...)
}

func (l *recordingLoader) Downloads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.downloads)
}

// recordingNotifier counts reload notifications.
type recordingNotifier struct {
	mu        stdsync.Mutex
	settings  int
	account   int
	bookmarks int
}

func (n *recordingNotifier) SettingsChanged() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.settings++
}

func (n *recordingNotifier) AccountChanged() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.account++
}

func (n *recordingNotifier) BookmarksChanged() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookmarks++
}

func (n *recordingNotifier) Counts() (settings, account, bookmarks int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.settings, n.account, n.bookmarks
}
