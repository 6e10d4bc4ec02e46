package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteDocument_Accessors(t *testing.T) {
	doc := &RemoteDocument{
		AccountID: "acct",
		Fields:    map[string]string{"settings": `{"settings/theme":"dark"}`},
		Timestamps: map[string]int64{
			"settings_updated": 42,
			FieldLastSync:      99,
		},
	}

	payload, ok := doc.Payload(DomainSettings)
	require.True(t, ok)
	assert.Equal(t, `{"settings/theme":"dark"}`, payload)

	_, ok = doc.Payload(DomainAccounts)
	assert.False(t, ok)

	assert.Equal(t, int64(42), doc.UpdatedAt(DomainSettings))
	assert.Equal(t, int64(0), doc.UpdatedAt(DomainAccounts))
	assert.Equal(t, int64(99), doc.LastSync())
}

func TestRemoteDocument_NilSafe(t *testing.T) {
	var doc *RemoteDocument

	_, ok := doc.Payload(DomainSettings)
	assert.False(t, ok)
	assert.Zero(t, doc.UpdatedAt(DomainSettings))
	assert.Zero(t, doc.LastSync())
	assert.Nil(t, doc.Clone())
}

func TestRemoteDocument_CloneIsIndependent(t *testing.T) {
	doc := &RemoteDocument{
		Fields:     map[string]string{"repositories": "a"},
		Timestamps: map[string]int64{FieldLastSync: 1},
	}
	clone := doc.Clone()
	clone.Fields["repositories"] = "b"
	clone.Timestamps[FieldLastSync] = 2

	assert.Equal(t, "a", doc.Fields["repositories"])
	assert.Equal(t, int64(1), doc.LastSync())
}

func TestDocumentWrite_SetDomain(t *testing.T) {
	w := NewDocumentWrite()
	assert.True(t, w.IsEmpty())

	w.SetDomain(DomainPlugins, "[]")
	w.SetTimestamp(FieldLastSync, 1000)

	assert.False(t, w.IsEmpty())
	assert.Equal(t, "[]", w.Fields["plugins_online"])
	assert.Equal(t, []string{"plugins_online_updated"}, w.ServerTimestamps)
	assert.Equal(t, int64(1000), w.Timestamps[FieldLastSync])
}

func TestDocumentWrite_ZeroValueUsable(t *testing.T) {
	var w DocumentWrite
	w.SetDomain(DomainAccounts, "x")
	w.SetTimestamp(FieldLastSync, 5)

	assert.Equal(t, "x", w.Fields["accounts"])
	assert.Equal(t, int64(5), w.Timestamps[FieldLastSync])
}
