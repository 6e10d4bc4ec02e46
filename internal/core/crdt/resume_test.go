package crdt

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

func intPtr(v int) *int { return &v }

func TestMergeResume_TombstoneKillsOlderLocalRecord(t *testing.T) {
	local := NewResumeState([]domain.ResumeRecord{{ParentID: 7, UpdateTime: 100}}, nil)
	remote := NewResumeState(nil, domain.Tombstones{7: 150})

	m := MergeResume(local, remote)

	assert.NotContains(t, m.State.Alive, 7)
	assert.Equal(t, domain.Tombstones{7: 150}, m.State.Tombstones)
	assert.Equal(t, []int{7}, m.Deletes)
	assert.True(t, m.TombstonesChanged)
}

func TestMergeResume_ZeroTimeTombstoneKeptInEitherOrder(t *testing.T) {
	local := NewResumeState(nil, domain.Tombstones{4: 5})
	remote := NewResumeState(nil, domain.Tombstones{2: 8, 3: 0})

	want := domain.Tombstones{2: 8, 3: 0, 4: 5}
	assert.Equal(t, want, MergeResume(local, remote).State.Tombstones)
	assert.Equal(t, want, MergeResume(remote, local).State.Tombstones)
}

func TestMergeResume_NewerRemoteRecordResurrects(t *testing.T) {
	local := NewResumeState(nil, domain.Tombstones{7: 100})
	remote := NewResumeState([]domain.ResumeRecord{{ParentID: 7, UpdateTime: 200}}, nil)

	m := MergeResume(local, remote)

	require.Contains(t, m.State.Alive, 7)
	assert.Equal(t, int64(200), m.State.Alive[7].UpdateTime)
	assert.NotContains(t, m.State.Tombstones, 7)
	assert.Len(t, m.Upserts, 1)
	assert.True(t, m.TombstonesChanged)
}

func TestMergeResume_LocalRecordNewerThanTombstoneSurvives(t *testing.T) {
	local := NewResumeState([]domain.ResumeRecord{{ParentID: 3, UpdateTime: 500}}, domain.Tombstones{3: 100})
	remote := NewResumeState(nil, domain.Tombstones{3: 300})

	m := MergeResume(local, remote)

	assert.Contains(t, m.State.Alive, 3)
	assert.NotContains(t, m.State.Tombstones, 3)
	assert.Empty(t, m.Deletes)
}

func TestMergeResume_EqualTimeTombstoneWins(t *testing.T) {
	local := NewResumeState([]domain.ResumeRecord{{ParentID: 1, UpdateTime: 100}}, nil)
	remote := NewResumeState([]domain.ResumeRecord{{ParentID: 1, UpdateTime: 100}}, domain.Tombstones{1: 100})

	m := MergeResume(local, remote)

	assert.Empty(t, m.State.Alive)
	assert.Equal(t, domain.Tombstones{1: 100}, m.State.Tombstones)
}

func TestMergeResume_AdoptsRemoteTombstoneWithoutLocalRecord(t *testing.T) {
	m := MergeResume(NewResumeState(nil, nil), NewResumeState(nil, domain.Tombstones{9: 10}))

	assert.Equal(t, domain.Tombstones{9: 10}, m.State.Tombstones)
	assert.True(t, m.TombstonesChanged)
}

func TestMergeResume_KeepsNewerLocalRecord(t *testing.T) {
	local := NewResumeState([]domain.ResumeRecord{{ParentID: 1, UpdateTime: 300, Episode: intPtr(4)}}, nil)
	remote := NewResumeState([]domain.ResumeRecord{{ParentID: 1, UpdateTime: 200, Episode: intPtr(2)}}, nil)

	m := MergeResume(local, remote)

	assert.True(t, m.IsNoop())
	assert.Equal(t, 4, *m.State.Alive[1].Episode)
}

func TestMergeResume_TieBreakIsDeterministic(t *testing.T) {
	a := NewResumeState([]domain.ResumeRecord{{ParentID: 1, UpdateTime: 100, Episode: intPtr(1)}}, nil)
	b := NewResumeState([]domain.ResumeRecord{{ParentID: 1, UpdateTime: 100, Episode: intPtr(2)}}, nil)

	ab := MergeResume(a, b)
	ba := MergeResume(b, a)

	assert.Equal(t, ab.State.Alive[1], ba.State.Alive[1])
	assert.Equal(t, 2, *ab.State.Alive[1].Episode)
}

func TestNewResumeState_CollapsesDuplicates(t *testing.T) {
	s := NewResumeState([]domain.ResumeRecord{
		{ParentID: 1, UpdateTime: 5},
		{ParentID: 1, UpdateTime: 9},
		{ParentID: 1, UpdateTime: 7},
	}, nil)

	require.Len(t, s.Alive, 1)
	assert.Equal(t, int64(9), s.Alive[1].UpdateTime)
	assert.Len(t, s.Records(), 1)
}

// randomState produces small states with heavy id overlap so the
// interesting cases (zombies, ties, resurrections) come up often.
func randomState(r *rand.Rand) ResumeState {
	var alive []domain.ResumeRecord
	tombs := domain.Tombstones{}
	for id := 0; id < 6; id++ {
		if r.Intn(2) == 0 {
			rec := domain.ResumeRecord{ParentID: id, UpdateTime: int64(r.Intn(10))}
			if r.Intn(2) == 0 {
				rec.Episode = intPtr(r.Intn(3))
			}
			alive = append(alive, rec)
		}
		if r.Intn(3) == 0 {
			tombs[id] = int64(r.Intn(10))
		}
	}
	return NewResumeState(alive, tombs)
}

func applyMerge(m ResumeMerge) ResumeState {
	return ResumeState{Alive: m.State.Alive, Tombstones: m.State.Tombstones}
}

func maxTombstone(a, b domain.Tombstones, id int) (int64, bool) {
	ta, okA := a[id]
	tb, okB := b[id]
	if !okA && !okB {
		return 0, false
	}
	if tb > ta {
		return tb, true
	}
	return ta, true
}

func TestMergeResume_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	for i := 0; i < 2000; i++ {
		local := randomState(r)
		remote := randomState(r)

		m := MergeResume(local, remote)

		// Idempotence
		again := MergeResume(applyMerge(m), remote)
		require.True(t, again.IsNoop(), "iteration %d: second apply changed state", i)

		for id, rec := range m.State.Alive {
			// Tombstone dominance
			if ts, ok := maxTombstone(local.Tombstones, remote.Tombstones, id); ok {
				require.Greater(t, rec.UpdateTime, ts, "iteration %d: id %d", i, id)
			}
			// Resolved view keeps records and tombstones exclusive
			require.NotContains(t, m.State.Tombstones, id)
		}

		// Resurrection
		for id, rec := range local.Alive {
			ts, _ := maxTombstone(local.Tombstones, remote.Tombstones, id)
			if rec.UpdateTime > ts {
				got, ok := m.State.Alive[id]
				require.True(t, ok, "iteration %d: id %d should survive", i, id)
				require.GreaterOrEqual(t, got.UpdateTime, rec.UpdateTime)
			}
		}

		// LWW determinism and order independence
		swapped := MergeResume(remote, local)
		require.Equal(t, m.State.Alive, swapped.State.Alive, "iteration %d", i)
		require.Equal(t, m.State.Tombstones, swapped.State.Tombstones, "iteration %d", i)
	}
}
