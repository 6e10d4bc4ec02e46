package crdt

import (
	"sort"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// ResumeState is one side of the resume-watching CRDT.
type ResumeState struct {
	Alive      map[int]domain.ResumeRecord
	Tombstones domain.Tombstones
}

// NewResumeState builds a state from a record list, collapsing duplicate
// parent ids with the same ordering MergeResume uses.
func NewResumeState(alive []domain.ResumeRecord, tombstones domain.Tombstones) ResumeState {
	s := ResumeState{
		Alive:      make(map[int]domain.ResumeRecord, len(alive)),
		Tombstones: tombstones.Clone(),
	}
	for _, rec := range alive {
		if cur, ok := s.Alive[rec.ParentID]; ok && !newerResume(rec, cur) {
			continue
		}
		s.Alive[rec.ParentID] = rec
	}
	return s
}

// Records returns the alive records sorted by parent id.
func (s ResumeState) Records() []domain.ResumeRecord {
	out := make([]domain.ResumeRecord, 0, len(s.Alive))
	for _, id := range sortedIDs(s.Alive) {
		out = append(out, s.Alive[id])
	}
	return out
}

// ResumeMerge is the merged local state plus the edits that produce it.
type ResumeMerge struct {
	State ResumeState

	// Upserts are records to write locally, sorted by parent id.
	Upserts []domain.ResumeRecord

	// Deletes are parent ids whose alive record must be removed locally.
	Deletes []int

	// TombstonesChanged reports whether the local tombstone map differs.
	TombstonesChanged bool
}

// IsNoop reports whether the merge leaves local state untouched.
func (m ResumeMerge) IsNoop() bool {
	return len(m.Upserts) == 0 && len(m.Deletes) == 0 && !m.TombstonesChanged
}

// MergeResume merges a remote snapshot into local state.
//
// Tombstones are combined by taking the later deletion time per id. The
// zombie pass then removes every local record whose tombstone is at least as
// new as the record, and clears tombstones for records that outlived them.
// The alive pass finally admits remote records newer than their tombstone,
// keeping the newer of the local and remote record.
func MergeResume(local, remote ResumeState) ResumeMerge {
	return MergeResumePruned(local, remote, 0)
}

// MergeResumePruned is MergeResume followed by dropping result tombstones
// deleted before cutoff. Pruned tombstones still take part in the zombie
// pass, so a stale record cannot outlive a collected deletion during the
// merge that collects it.
func MergeResumePruned(local, remote ResumeState, cutoff int64) ResumeMerge {
	merged := local.Tombstones.Clone()
	for id, ts := range remote.Tombstones {
		if cur, ok := merged[id]; !ok || ts > cur {
			merged[id] = ts
		}
	}

	alive := make(map[int]domain.ResumeRecord, len(local.Alive))
	for id, rec := range local.Alive {
		alive[id] = rec
	}
	tombs := local.Tombstones.Clone()

	// 1. Zombie pass
	for id, ts := range merged {
		rec, ok := alive[id]
		switch {
		case !ok:
			tombs[id] = ts
		case ts >= rec.UpdateTime:
			delete(alive, id)
			tombs[id] = ts
		default:
			delete(tombs, id)
		}
	}

	// 2. Alive pass
	for _, id := range sortedIDs(remote.Alive) {
		rec := remote.Alive[id]
		if ts, ok := merged[id]; ok && rec.UpdateTime <= ts {
			continue
		}
		if cur, ok := alive[id]; !ok || newerResume(rec, cur) {
			alive[id] = rec
		}
		delete(tombs, id)
	}

	tombs, _ = PruneTombstones(tombs, cutoff)

	out := ResumeMerge{State: ResumeState{Alive: alive, Tombstones: tombs}}
	for _, id := range sortedIDs(alive) {
		if cur, ok := local.Alive[id]; !ok || !sameResume(cur, alive[id]) {
			out.Upserts = append(out.Upserts, alive[id])
		}
	}
	for _, id := range sortedIDs(local.Alive) {
		if _, ok := alive[id]; !ok {
			out.Deletes = append(out.Deletes, id)
		}
	}
	out.TombstonesChanged = !sameTombstones(local.Tombstones, tombs)
	return out
}

// newerResume reports whether a should replace b. UpdateTime decides; equal
// times fall back to a fixed field order so both peers pick the same record.
func newerResume(a, b domain.ResumeRecord) bool {
	return compareResume(a, b) > 0
}

func compareResume(a, b domain.ResumeRecord) int {
	if c := cmpInt64(a.UpdateTime, b.UpdateTime); c != 0 {
		return c
	}
	if c := cmpOptional(a.EpisodeID, b.EpisodeID); c != 0 {
		return c
	}
	if c := cmpOptional(a.Season, b.Season); c != 0 {
		return c
	}
	if c := cmpOptional(a.Episode, b.Episode); c != 0 {
		return c
	}
	switch {
	case a.IsFromDownload == b.IsFromDownload:
		return 0
	case a.IsFromDownload:
		return 1
	default:
		return -1
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// cmpOptional orders nil before any value.
func cmpOptional(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmpInt64(int64(*a), int64(*b))
	}
}

func sameResume(a, b domain.ResumeRecord) bool {
	return a.ParentID == b.ParentID && compareResume(a, b) == 0
}

func sameTombstones(a, b domain.Tombstones) bool {
	if len(a) != len(b) {
		return false
	}
	for id, ts := range a {
		if other, ok := b[id]; !ok || other != ts {
			return false
		}
	}
	return true
}

func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
