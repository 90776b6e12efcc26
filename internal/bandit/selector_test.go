package bandit

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSelector(t *testing.T, opts ...Option) *Selector {
	t.Helper()
	base := []Option{
		WithFeatureCount(2),
		WithRand(rand.New(rand.NewSource(42))),
	}
	return NewSelector(append(base, opts...)...)
}

// trainArm feeds enough batch samples to trigger one fit. Positive samples
// land on posContext, negative samples on negContext.
func trainArm(t *testing.T, s *Selector, id string, posContext, negContext []float64) {
	t.Helper()
	for i := 0; i < batchFitThreshold; i++ {
		rec := RewardRecord{CandidateID: id, TaskID: fmt.Sprintf("t-%d", i)}
		if i%2 == 0 {
			rec.Context = append([]float64(nil), posContext...)
			rec.Context[0] += float64(i) * 0.01
			rec.ClippedReward = 1.5
		} else {
			rec.Context = append([]float64(nil), negContext...)
			rec.Context[1] += float64(i) * 0.01
			rec.ClippedReward = -1.0
		}
		require.NoError(t, s.Update(rec, true))
	}
}

func TestSelectNoCandidates(t *testing.T) {
	s := newTestSelector(t)
	_, err := s.Select(nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestSelectColdStart(t *testing.T) {
	s := newTestSelector(t, WithEpsilon(0))
	d, err := s.Select([]Choice{{CandidateID: "c1", Context: []float64{0.5, 0.5}}})
	require.NoError(t, err)

	assert.Equal(t, "c1", d.CandidateID)
	assert.True(t, d.ColdStart)
	assert.False(t, d.Exploratory)
	assert.InDelta(t, coldStartBase, d.Score, 0.5)
}

func TestSelectGreedyDeterministic(t *testing.T) {
	s := newTestSelector(t, WithEpsilon(0))
	pos := []float64{1, 0}
	neg := []float64{0, 1}
	trainArm(t, s, "good", pos, neg)
	trainArm(t, s, "bad", neg, pos)

	choices := []Choice{
		{CandidateID: "good", Context: pos},
		{CandidateID: "bad", Context: pos},
	}
	first, err := s.Select(choices)
	require.NoError(t, err)
	assert.Equal(t, "good", first.CandidateID)
	assert.False(t, first.ColdStart)

	for i := 0; i < 20; i++ {
		d, err := s.Select(choices)
		require.NoError(t, err)
		assert.Equal(t, first.CandidateID, d.CandidateID)
		assert.Equal(t, first.Score, d.Score)
	}
}

func TestSelectContextSensitive(t *testing.T) {
	s := newTestSelector(t, WithEpsilon(0))
	pos := []float64{1, 0}
	neg := []float64{0, 1}
	trainArm(t, s, "good", pos, neg)
	trainArm(t, s, "bad", neg, pos)

	d, err := s.Select([]Choice{
		{CandidateID: "good", Context: neg},
		{CandidateID: "bad", Context: neg},
	})
	require.NoError(t, err)
	assert.Equal(t, "bad", d.CandidateID, "flipped context should flip the winner")
}

func TestSelectAlwaysExplores(t *testing.T) {
	s := newTestSelector(t, WithEpsilon(1))
	choices := []Choice{
		{CandidateID: "a", Context: []float64{0, 0}},
		{CandidateID: "b", Context: []float64{0, 0}},
		{CandidateID: "c", Context: []float64{0, 0}},
	}

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		d, err := s.Select(choices)
		require.NoError(t, err)
		assert.True(t, d.Exploratory)
		assert.Contains(t, []string{"a", "b", "c"}, d.CandidateID)
		seen[d.CandidateID] = true
	}
	assert.Len(t, seen, 3, "uniform exploration should reach every candidate")
}

func TestUpdateBatchThreshold(t *testing.T) {
	s := newTestSelector(t)

	for i := 0; i < batchFitThreshold-1; i++ {
		rec := RewardRecord{
			CandidateID:   "c1",
			Context:       []float64{float64(i), float64(i % 3)},
			ClippedReward: float64(i%2)*2 - 1,
		}
		require.NoError(t, s.Update(rec, true))
	}
	st := s.Stats()
	assert.False(t, st.Arms["c1"].Trained, "no fit before the threshold")
	assert.Equal(t, batchFitThreshold-1, st.Arms["c1"].BufferedSamples)

	require.NoError(t, s.Update(RewardRecord{
		CandidateID:   "c1",
		Context:       []float64{9, 0},
		ClippedReward: 1,
	}, true))

	st = s.Stats()
	arm := st.Arms["c1"]
	assert.True(t, arm.Trained)
	assert.Equal(t, 1, arm.Fits)
	assert.Equal(t, 0, arm.BufferedSamples, "successful batch fit purges the buffer")
	assert.Equal(t, batchFitThreshold, arm.ObservedSamples)
}

func TestUpdateImmediateMode(t *testing.T) {
	s := newTestSelector(t)

	require.NoError(t, s.Update(RewardRecord{
		CandidateID:   "c1",
		Context:       []float64{0.8, 0.2},
		ClippedReward: 1.2,
	}, false))

	st := s.Stats()
	arm := st.Arms["c1"]
	assert.True(t, arm.Trained, "immediate mode fits on the single sample")
	assert.Equal(t, 1, arm.Fits)
	assert.Equal(t, 1, arm.BufferedSamples, "immediate mode keeps the buffer")
}

func TestUpdateLabelFromClippedReward(t *testing.T) {
	s := newTestSelector(t)
	require.NoError(t, s.Update(RewardRecord{CandidateID: "c1", Context: []float64{1, 0}, ClippedReward: 0.1}, true))
	require.NoError(t, s.Update(RewardRecord{CandidateID: "c1", Context: []float64{0, 1}, ClippedReward: 0}, true))
	require.NoError(t, s.Update(RewardRecord{CandidateID: "c1", Context: []float64{1, 1}, ClippedReward: -0.5}, true))

	s.mu.RLock()
	a := s.arms["c1"]
	s.mu.RUnlock()
	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Equal(t, 1, a.samples[0].Label)
	assert.Equal(t, 0, a.samples[1].Label, "zero reward is not a success")
	assert.Equal(t, 0, a.samples[2].Label)
}

func TestUpdateDimensionAdjusted(t *testing.T) {
	s := newTestSelector(t)
	require.NoError(t, s.Update(RewardRecord{
		CandidateID:   "c1",
		Context:       []float64{1, 2, 3, 4},
		ClippedReward: 1,
	}, false))

	s.mu.RLock()
	a := s.arms["c1"]
	s.mu.RUnlock()
	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Equal(t, []float64{1, 2}, a.samples[0].Context, "oversized context is truncated")
}

func TestSnapshotRestore(t *testing.T) {
	s := newTestSelector(t, WithEpsilon(0))
	pos := []float64{1, 0}
	neg := []float64{0, 1}
	trainArm(t, s, "good", pos, neg)
	require.NoError(t, s.Update(RewardRecord{CandidateID: "pending", Context: pos, ClippedReward: 1}, true))

	data, err := s.Snapshot()
	require.NoError(t, err)

	restored := newTestSelector(t, WithEpsilon(0))
	require.NoError(t, restored.Restore(data))

	assert.Equal(t, s.Stats(), restored.Stats())

	want, err := s.Select([]Choice{{CandidateID: "good", Context: pos}})
	require.NoError(t, err)
	got, err := restored.Select([]Choice{{CandidateID: "good", Context: pos}})
	require.NoError(t, err)
	assert.Equal(t, want.Score, got.Score)

	assert.Error(t, restored.Restore([]byte("{not json")))
}

func TestReset(t *testing.T) {
	s := newTestSelector(t)
	trainArm(t, s, "c1", []float64{1, 0}, []float64{0, 1})
	require.NotZero(t, s.Stats().TotalArms)

	s.Reset()
	st := s.Stats()
	assert.Zero(t, st.TotalArms)
	assert.Zero(t, st.TrainedArms)
}

func TestConcurrentUpdatesAcrossArms(t *testing.T) {
	s := newTestSelector(t)

	var wg sync.WaitGroup
	for c := 0; c < 8; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			id := fmt.Sprintf("c-%d", c)
			for i := 0; i < 25; i++ {
				rec := RewardRecord{
					CandidateID:   id,
					Context:       []float64{float64(i), float64((i + c) % 4)},
					ClippedReward: float64(i%2)*2 - 1,
				}
				_ = s.Update(rec, true)
				_, _ = s.Select([]Choice{{CandidateID: id, Context: []float64{0.5, 0.5}}})
			}
		}(c)
	}
	wg.Wait()

	st := s.Stats()
	assert.Equal(t, 8, st.TotalArms)
	for id, arm := range st.Arms {
		assert.Equal(t, 25, arm.ObservedSamples, id)
		assert.True(t, arm.Trained, id)
	}
}
