package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

func plugin(name string, added int64, deleted bool) domain.PluginRecord {
	return domain.PluginRecord{
		InternalName: name,
		FilePath:     "/plugins/" + name + ".cs3",
		AddedDate:    added,
		IsDeleted:    deleted,
	}
}

func TestMergePlugins_InBothLargerAddedDateWins(t *testing.T) {
	remote := []domain.PluginRecord{plugin("alpha", 100, true)}
	local := []domain.PluginRecord{plugin("alpha", 200, false)}

	m := MergePlugins(remote, local, 0, 1000)

	require.Len(t, m.Records, 1)
	assert.Equal(t, int64(200), m.Records[0].AddedDate)
	assert.False(t, m.Records[0].IsDeleted)
}

func TestMergePlugins_TieFavoursRemote(t *testing.T) {
	remote := []domain.PluginRecord{plugin("alpha", 100, true)}
	local := []domain.PluginRecord{plugin("alpha", 100, false)}

	m := MergePlugins(remote, local, 0, 1000)

	require.Len(t, m.Records, 1)
	assert.True(t, m.Records[0].IsDeleted)
}

func TestMergePlugins_RemoteOnlyKept(t *testing.T) {
	m := MergePlugins([]domain.PluginRecord{plugin("beta", 5, false)}, nil, 1000, 2000)

	require.Len(t, m.Records, 1)
	assert.Equal(t, "beta", m.Records[0].InternalName)
	assert.True(t, m.HasLive())
}

func TestMergePlugins_LocalOnlyNewerThanWatermarkKept(t *testing.T) {
	m := MergePlugins(nil, []domain.PluginRecord{plugin("gamma", 500, false)}, 400, 1000)

	require.Len(t, m.Records, 1)
	assert.False(t, m.Records[0].IsDeleted)
	assert.Equal(t, int64(500), m.Records[0].AddedDate)
	assert.Empty(t, m.Synthesized)
}

func TestMergePlugins_SoftDeletePropagates(t *testing.T) {
	m := MergePlugins(nil, []domain.PluginRecord{plugin("gamma", 300, false)}, 400, 1000)

	require.Len(t, m.Records, 1)
	assert.True(t, m.Records[0].IsDeleted)
	assert.Equal(t, int64(1000), m.Records[0].AddedDate)
	assert.Equal(t, []string{"gamma"}, m.Synthesized)
	assert.Len(t, m.Deleted(), 1)
	assert.False(t, m.HasLive())
}

func TestMergePlugins_AlreadyDeletedLocalOnlyUntouched(t *testing.T) {
	local := []domain.PluginRecord{plugin("gamma", 300, true)}

	m := MergePlugins(nil, local, 400, 1000)

	require.Len(t, m.Records, 1)
	assert.Equal(t, int64(300), m.Records[0].AddedDate)
	assert.Empty(t, m.Synthesized)
}

func TestMergePlugins_MatchesNamesCaseInsensitively(t *testing.T) {
	remote := []domain.PluginRecord{plugin("Alpha ", 100, false)}
	local := []domain.PluginRecord{plugin("alpha", 50, false)}

	m := MergePlugins(remote, local, 0, 1000)

	require.Len(t, m.Records, 1)
	assert.Equal(t, "Alpha ", m.Records[0].InternalName)
}

func TestMergePlugins_Idempotent(t *testing.T) {
	remote := []domain.PluginRecord{plugin("a", 10, false), plugin("b", 20, true)}
	local := []domain.PluginRecord{plugin("a", 5, false), plugin("c", 1, false), plugin("d", 900, false)}

	first := MergePlugins(remote, local, 100, 1000)
	second := MergePlugins(remote, first.Records, 100, 2000)

	assert.True(t, SamePlugins(first.Records, second.Records))
	assert.Empty(t, second.Synthesized)
}

func TestMergePlugins_SkipsBlankNames(t *testing.T) {
	m := MergePlugins([]domain.PluginRecord{plugin("  ", 1, false)}, nil, 0, 10)
	assert.Empty(t, m.Records)
}

func TestSamePlugins(t *testing.T) {
	a := []domain.PluginRecord{plugin("a", 1, false)}
	assert.True(t, SamePlugins(a, []domain.PluginRecord{plugin("a", 1, false)}))
	assert.False(t, SamePlugins(a, []domain.PluginRecord{plugin("a", 2, false)}))
	assert.False(t, SamePlugins(a, nil))
}
