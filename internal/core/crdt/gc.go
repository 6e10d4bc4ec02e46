package crdt

import "github.com/custodia-labs/statesync/internal/core/domain"

// RetentionCutoff returns the time before which tombstones may be dropped.
// Tombstones are only collected once they are older than the last sync by
// at least the retention window. A non-positive retention or an unknown
// last sync disables collection and returns zero.
func RetentionCutoff(lastSync, retentionMs int64) int64 {
	if retentionMs <= 0 || lastSync <= 0 || lastSync <= retentionMs {
		return 0
	}
	return lastSync - retentionMs
}

// PruneTombstones returns a copy without tombstones deleted before cutoff,
// and the number removed. A zero cutoff keeps everything.
func PruneTombstones(t domain.Tombstones, cutoff int64) (domain.Tombstones, int) {
	out := t.Clone()
	if cutoff <= 0 {
		return out, 0
	}
	removed := 0
	for id, ts := range out {
		if ts < cutoff {
			delete(out, id)
			removed++
		}
	}
	return out, removed
}

// PrunePlugins drops soft-deleted plugin records whose deletion predates cutoff.
// Live records are always kept. A zero cutoff keeps everything.
func PrunePlugins(records []domain.PluginRecord, cutoff int64) ([]domain.PluginRecord, int) {
	out := make([]domain.PluginRecord, 0, len(records))
	removed := 0
	for _, r := range records {
		if cutoff > 0 && r.IsDeleted && r.AddedDate < cutoff {
			removed++
			continue
		}
		out = append(out, r)
	}
	return out, removed
}
