package notify

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/statesync/internal/logger"
)

func TestBroadcaster_Delivers(t *testing.T) {
	b := NewBroadcaster()
	ch1, cancel1 := b.Subscribe(4)
	ch2, cancel2 := b.Subscribe(4)
	defer cancel2()

	b.SettingsChanged()
	b.AccountChanged()
	b.BookmarksChanged()

	for _, ch := range []<-chan Event{ch1, ch2} {
		assert.Equal(t, EventSettings, <-ch)
		assert.Equal(t, EventAccount, <-ch)
		assert.Equal(t, EventBookmarks, <-ch)
	}

	cancel1()
	cancel1()
	_, open := <-ch1
	assert.False(t, open)
	assert.Equal(t, 1, b.Subscribers())
}

func TestBroadcaster_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	for i := 0; i < 10; i++ {
		b.SettingsChanged()
	}
	assert.Len(t, ch, 1)
}

type counter struct{ settings, account, bookmarks int }

func (c *counter) SettingsChanged()  { c.settings++ }
func (c *counter) AccountChanged()   { c.account++ }
func (c *counter) BookmarksChanged() { c.bookmarks++ }

func TestMulti(t *testing.T) {
	a, b := &counter{}, &counter{}
	m := Multi{a, nil, b}

	m.SettingsChanged()
	m.AccountChanged()
	m.AccountChanged()
	m.BookmarksChanged()

	for _, c := range []*counter{a, b} {
		assert.Equal(t, counter{settings: 1, account: 2, bookmarks: 1}, *c)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(true)
	t.Cleanup(func() {
		logger.SetVerbose(false)
		logger.SetOutput(os.Stderr)
	})

	LogNotifier{}.AccountChanged()
	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), "account")
}
