package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

func TestResumeCmd_Add(t *testing.T) {
	sync, state := &mockSync{}, newMockState()
	useServices(t, sync, state)

	out, err := runCLI(t, "", "resume", "add", "42", "--season", "2", "--episode", "5", "--from-download")

	require.NoError(t, err)
	rec, ok := state.resume[42]
	require.True(t, ok)
	require.NotNil(t, rec.Season)
	require.NotNil(t, rec.Episode)
	assert.Equal(t, 2, *rec.Season)
	assert.Equal(t, 5, *rec.Episode)
	assert.Nil(t, rec.EpisodeID)
	assert.True(t, rec.IsFromDownload)
	assert.Contains(t, out, "Saved progress for 42.")
	assert.Equal(t, 1, sync.stopped)
}

func TestResumeCmd_AddWithoutOptionalFields(t *testing.T) {
	state := newMockState()
	useServices(t, &mockSync{}, state)

	_, err := runCLI(t, "", "resume", "add", "7")

	require.NoError(t, err)
	rec := state.resume[7]
	assert.Nil(t, rec.Season)
	assert.Nil(t, rec.Episode)
	assert.False(t, rec.IsFromDownload)
}

func TestResumeCmd_InvalidParentID(t *testing.T) {
	for _, arg := range []string{"abc", "0", "-3"} {
		t.Run(arg, func(t *testing.T) {
			useServices(t, &mockSync{}, newMockState())

			_, err := runCLI(t, "", "resume", "rm", "--", arg)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "positive integer")
		})
	}
}

func TestResumeCmd_RemoveAndList(t *testing.T) {
	state := newMockState()
	season, episode := 1, 3
	state.resume[5] = domain.ResumeRecord{ParentID: 5, Season: &season, Episode: &episode, UpdateTime: 1_700_000_000_000}
	state.resume[9] = domain.ResumeRecord{ParentID: 9, UpdateTime: 1_700_000_000_000}
	useServices(t, &mockSync{}, state)

	out, err := runCLI(t, "", "resume", "rm", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed progress for 9.")

	out, err = runCLI(t, "", "resume", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "5  updated")
	assert.Contains(t, out, "S01E03")
	assert.Contains(t, out, "9  deleted")
}

func TestResumeCmd_ListEmpty(t *testing.T) {
	useServices(t, &mockSync{}, newMockState())

	out, err := runCLI(t, "", "resume", "ls")

	require.NoError(t, err)
	assert.Contains(t, out, "No resume records.")
}

func TestParseParentID(t *testing.T) {
	id, err := parseParentID("12")
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	_, err = parseParentID("1.5")
	assert.Error(t, err)
}
