package bandit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitLogisticSeparableData(t *testing.T) {
	features := [][]float64{
		{2.0, 0.1}, {1.8, 0.2}, {2.2, 0.0}, {1.9, 0.3},
		{0.1, 2.0}, {0.2, 1.8}, {0.0, 2.2}, {0.3, 1.9},
	}
	labels := []int{1, 1, 1, 1, 0, 0, 0, 0}

	model, err := fitLogistic(features, labels)
	require.NoError(t, err)

	pPos, err := model.predictProb([]float64{2.0, 0.1})
	require.NoError(t, err)
	pNeg, err := model.predictProb([]float64{0.1, 2.0})
	require.NoError(t, err)

	assert.Greater(t, pPos, 0.7, "clearly positive context should score high")
	assert.Less(t, pNeg, 0.3, "clearly negative context should score low")
}

func TestFitLogisticDeterministic(t *testing.T) {
	features := [][]float64{{1, 0}, {0, 1}, {1, 1}, {0, 0}}
	labels := []int{1, 0, 1, 0}

	a, err := fitLogistic(features, labels)
	require.NoError(t, err)
	b, err := fitLogistic(features, labels)
	require.NoError(t, err)

	assert.Equal(t, a.Weights, b.Weights)
	assert.Equal(t, a.Bias, b.Bias)
}

func TestFitLogisticSingleClass(t *testing.T) {
	model, err := fitLogistic([][]float64{{1, 2}}, []int{1})
	require.NoError(t, err)

	p, err := model.predictProb([]float64{1, 2})
	require.NoError(t, err)
	assert.Greater(t, p, 0.5, "single positive sample should pull prediction above 0.5")
}

func TestFitLogisticBalancedWeights(t *testing.T) {
	// Nine positives against one negative. Without class weighting the
	// lone failure would be drowned out and its context would still
	// score near 1.
	features := make([][]float64, 0, 10)
	labels := make([]int, 0, 10)
	for i := 0; i < 9; i++ {
		features = append(features, []float64{1.0, float64(i) * 0.1})
		labels = append(labels, 1)
	}
	features = append(features, []float64{-1.0, 0.5})
	labels = append(labels, 0)

	model, err := fitLogistic(features, labels)
	require.NoError(t, err)

	p, err := model.predictProb([]float64{-1.0, 0.5})
	require.NoError(t, err)
	assert.Less(t, p, 0.5, "minority-class context should still score below 0.5")
}

func TestFitLogisticErrors(t *testing.T) {
	_, err := fitLogistic(nil, nil)
	assert.Error(t, err)

	_, err = fitLogistic([][]float64{{1}}, []int{1, 0})
	assert.Error(t, err)

	_, err = fitLogistic([][]float64{{1, 2}, {1}}, []int{1, 0})
	assert.Error(t, err)
}

func TestPredictProbDimensionMismatch(t *testing.T) {
	model := &logisticModel{Weights: []float64{1, 2}}
	_, err := model.predictProb([]float64{1})
	assert.Error(t, err)
}

func TestFitScaler(t *testing.T) {
	scaler := fitScaler([][]float64{{1, 5}, {3, 5}})
	require.NotNil(t, scaler)

	assert.InDelta(t, 2.0, scaler.Mean[0], 1e-9)
	assert.InDelta(t, 1.0, scaler.Std[0], 1e-9)
	assert.Equal(t, 1.0, scaler.Std[1], "zero deviation falls back to 1")

	out, err := scaler.transform([]float64{3, 5})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out[0], 1e-9)
	assert.InDelta(t, 0.0, out[1], 1e-9)

	_, err = scaler.transform([]float64{1})
	assert.Error(t, err)
}
