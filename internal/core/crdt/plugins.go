package crdt

import (
	"sort"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// PluginMerge is the outcome of merging two plugin lists.
type PluginMerge struct {
	// Records is the merged list sorted by plugin key.
	Records []domain.PluginRecord

	// Synthesized lists keys that were implicitly soft-deleted because the
	// remote side no longer carries a record the local side has had since
	// before the watermark.
	Synthesized []string
}

// Deleted returns every merged record with IsDeleted set.
func (m PluginMerge) Deleted() []domain.PluginRecord {
	var out []domain.PluginRecord
	for _, r := range m.Records {
		if r.IsDeleted {
			out = append(out, r)
		}
	}
	return out
}

// HasLive reports whether any merged record is not deleted.
func (m PluginMerge) HasLive() bool {
	for _, r := range m.Records {
		if !r.IsDeleted {
			return true
		}
	}
	return false
}

// MergePlugins merges remote and local plugin lists keyed by PluginRecord.Key.
//
//   - in both: the larger AddedDate wins, ties go to remote
//   - only remote: kept
//   - only local: kept when AddedDate > watermark, otherwise soft-deleted
//     with AddedDate = now (already deleted records are left untouched)
func MergePlugins(remote, local []domain.PluginRecord, watermark, now int64) PluginMerge {
	r := indexPlugins(remote)
	l := indexPlugins(local)

	keys := make([]string, 0, len(r)+len(l))
	for k := range r {
		keys = append(keys, k)
	}
	for k := range l {
		if _, ok := r[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var out PluginMerge
	out.Records = make([]domain.PluginRecord, 0, len(keys))
	for _, k := range keys {
		rr, inR := r[k]
		lr, inL := l[k]
		switch {
		case inR && inL:
			if lr.AddedDate > rr.AddedDate {
				out.Records = append(out.Records, lr)
			} else {
				out.Records = append(out.Records, rr)
			}
		case inR:
			out.Records = append(out.Records, rr)
		case lr.AddedDate > watermark || lr.IsDeleted:
			out.Records = append(out.Records, lr)
		default:
			lr.IsDeleted = true
			lr.AddedDate = now
			out.Records = append(out.Records, lr)
			out.Synthesized = append(out.Synthesized, k)
		}
	}
	return out
}

// indexPlugins keys records by identity. Duplicates collapse to the later
// AddedDate; on a tie the later entry in the list wins.
func indexPlugins(records []domain.PluginRecord) map[string]domain.PluginRecord {
	out := make(map[string]domain.PluginRecord, len(records))
	for _, rec := range records {
		k := rec.Key()
		if k == "" {
			continue
		}
		if cur, ok := out[k]; ok && cur.AddedDate > rec.AddedDate {
			continue
		}
		out[k] = rec
	}
	return out
}

// SamePlugins reports whether two lists hold identical records in identical order.
func SamePlugins(a, b []domain.PluginRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
