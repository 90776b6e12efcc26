package bandit

import (
	"errors"
	"fmt"
	"math"
)

const (
	gradientIterations = 500
	learningRate       = 0.1
)

var errNoSamples = errors.New("no training samples")

// logisticModel is a binary logistic classifier trained by full-batch
// gradient descent. Training is deterministic: weights start at zero and
// the sample order never changes between runs.
type logisticModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// fitLogistic trains a classifier on standardized features and binary
// labels. When both classes are present each sample is weighted by
// n/(2*n_class) so a success-heavy or failure-heavy buffer does not drown
// out the minority outcome. With a single class present all weights are 1,
// which lets immediate-mode refits learn from one sample at a time.
func fitLogistic(features [][]float64, labels []int) (*logisticModel, error) {
	if len(features) == 0 {
		return nil, errNoSamples
	}
	if len(features) != len(labels) {
		return nil, fmt.Errorf("feature/label length mismatch: %d vs %d", len(features), len(labels))
	}
	dim := len(features[0])
	for i, x := range features {
		if len(x) != dim {
			return nil, fmt.Errorf("sample %d has %d features, expected %d", i, len(x), dim)
		}
	}

	var pos, neg float64
	for _, y := range labels {
		if y == 1 {
			pos++
		} else {
			neg++
		}
	}
	n := float64(len(labels))
	posWeight, negWeight := 1.0, 1.0
	if pos > 0 && neg > 0 {
		posWeight = n / (2 * pos)
		negWeight = n / (2 * neg)
	}

	m := &logisticModel{Weights: make([]float64, dim)}
	gradW := make([]float64, dim)

	for iter := 0; iter < gradientIterations; iter++ {
		for i := range gradW {
			gradW[i] = 0
		}
		gradB := 0.0
		for i, x := range features {
			p := sigmoid(m.decision(x))
			w := negWeight
			if labels[i] == 1 {
				w = posWeight
			}
			err := w * (p - float64(labels[i]))
			for j := range x {
				gradW[j] += err * x[j]
			}
			gradB += err
		}
		for j := range m.Weights {
			m.Weights[j] -= learningRate * gradW[j] / n
		}
		m.Bias -= learningRate * gradB / n
	}

	return m, nil
}

func (m *logisticModel) decision(x []float64) float64 {
	z := m.Bias
	for i := range x {
		z += m.Weights[i] * x[i]
	}
	return z
}

// predictProb returns the probability of a positive outcome for the given
// standardized context.
func (m *logisticModel) predictProb(x []float64) (float64, error) {
	if len(x) != len(m.Weights) {
		return 0, fmt.Errorf("model dimension mismatch: expected %d features, got %d", len(m.Weights), len(x))
	}
	return sigmoid(m.decision(x)), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
