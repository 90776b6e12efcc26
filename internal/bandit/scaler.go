package bandit

import (
	"fmt"
	"math"
)

// featureScaler standardizes context features to zero mean and unit
// variance, fitted per arm so each candidate's model sees its own scale.
type featureScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// fitScaler computes per-dimension mean and standard deviation over the
// sample set. A zero deviation is replaced by 1 so constant features pass
// through unchanged.
func fitScaler(samples [][]float64) *featureScaler {
	if len(samples) == 0 {
		return nil
	}
	dim := len(samples[0])
	mean := make([]float64, dim)
	std := make([]float64, dim)

	for _, x := range samples {
		for i := 0; i < dim; i++ {
			mean[i] += x[i]
		}
	}
	for i := range mean {
		mean[i] /= float64(len(samples))
	}

	for _, x := range samples {
		for i := 0; i < dim; i++ {
			d := x[i] - mean[i]
			std[i] += d * d
		}
	}
	for i := range std {
		std[i] = math.Sqrt(std[i] / float64(len(samples)))
		if std[i] == 0 {
			std[i] = 1
		}
	}

	return &featureScaler{Mean: mean, Std: std}
}

func (s *featureScaler) transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler dimension mismatch: expected %d features, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i := range x {
		out[i] = (x[i] - s.Mean[i]) / s.Std[i]
	}
	return out, nil
}
