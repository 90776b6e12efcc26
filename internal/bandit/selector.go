// Package bandit implements epsilon-greedy contextual selection with one
// logistic classifier per candidate arm. Arms train independently on the
// reward records observed for their candidate, so a busy candidate's model
// never blocks reads or updates for any other candidate.
package bandit

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

const (
	defaultEpsilon      = 0.1
	defaultFeatureCount = 8

	// batchFitThreshold is the buffered-sample count that triggers a
	// batch refit; minFitSamples is the floor below which no batch fit
	// is attempted.
	batchFitThreshold = 10
	minFitSamples     = 5

	coldStartBase  = 0.5
	coldStartSigma = 0.1
)

// ErrNoCandidates is returned by Select when the candidate set is empty.
var ErrNoCandidates = errors.New("no candidates to select from")

// RewardRecord is one observed outcome for a candidate on a task. Label is
// derived from ClippedReward during Update and does not need to be set by
// the caller.
type RewardRecord struct {
	CandidateID   string    `json:"candidate_id"`
	TaskID        string    `json:"task_id"`
	Context       []float64 `json:"context"`
	RawReward     float64   `json:"raw_reward"`
	ClippedReward float64   `json:"clipped_reward"`
	Label         int       `json:"label"`
	Timestamp     time.Time `json:"timestamp"`
}

// Choice pairs a candidate with the context vector describing that
// candidate against the task at hand.
type Choice struct {
	CandidateID string    `json:"candidate_id"`
	Context     []float64 `json:"context"`
}

// Decision is the outcome of one Select call.
type Decision struct {
	CandidateID string    `json:"candidate_id"`
	Context     []float64 `json:"context"`
	Score       float64   `json:"score"`
	Exploratory bool      `json:"exploratory"`
	ColdStart   bool      `json:"cold_start"`
}

type arm struct {
	mu      sync.Mutex
	model   *logisticModel
	scaler  *featureScaler
	samples []RewardRecord

	fits     int
	observed int
}

// Selector routes tasks to candidates. All methods are safe for concurrent
// use; updates to different arms proceed in parallel.
type Selector struct {
	mu   sync.RWMutex
	arms map[string]*arm

	epsilon   float64
	nFeatures int
	logger    *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Selector.
type Option func(*Selector)

// WithEpsilon sets the exploration rate, clamped to [0, 1].
func WithEpsilon(eps float64) Option {
	return func(s *Selector) {
		if eps < 0 {
			eps = 0
		}
		if eps > 1 {
			eps = 1
		}
		s.epsilon = eps
	}
}

// WithFeatureCount sets the expected context vector length.
func WithFeatureCount(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.nFeatures = n
		}
	}
}

// WithRand sets the randomness source used for exploration draws and
// cold-start noise. Pass a seeded source for reproducible runs.
func WithRand(r *rand.Rand) Option {
	return func(s *Selector) { s.rng = r }
}

// WithLogger sets the structured logger for fit failures and dimension
// warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSelector builds a Selector with epsilon 0.1 and an 8-feature context
// unless overridden by options.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		arms:      make(map[string]*arm),
		epsilon:   defaultEpsilon,
		nFeatures: defaultFeatureCount,
		logger:    slog.Default(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select picks one candidate. With probability epsilon it explores
// uniformly at random; otherwise it returns the candidate whose model
// predicts the highest success probability for its context. Candidates
// without a trained model score from the cold-start distribution instead
// of a model prediction.
func (s *Selector) Select(choices []Choice) (Decision, error) {
	if len(choices) == 0 {
		return Decision{}, ErrNoCandidates
	}

	if s.randFloat() < s.epsilon {
		choice := choices[s.randIntn(len(choices))]
		context := s.fitContext(choice.Context)
		score, cold := s.predict(choice.CandidateID, context)
		return Decision{
			CandidateID: choice.CandidateID,
			Context:     context,
			Score:       score,
			Exploratory: true,
			ColdStart:   cold,
		}, nil
	}

	best := Decision{Score: -1}
	for _, choice := range choices {
		context := s.fitContext(choice.Context)
		score, cold := s.predict(choice.CandidateID, context)
		if score > best.Score {
			best = Decision{
				CandidateID: choice.CandidateID,
				Context:     context,
				Score:       score,
				ColdStart:   cold,
			}
		}
	}
	return best, nil
}

// predict scores one candidate. Any failure in scaling or prediction falls
// back to a cold-start draw for that candidate only.
func (s *Selector) predict(id string, context []float64) (score float64, coldStart bool) {
	s.mu.RLock()
	a := s.arms[id]
	s.mu.RUnlock()
	if a == nil {
		return s.coldStartScore(), true
	}

	a.mu.Lock()
	model, scaler := a.model, a.scaler
	a.mu.Unlock()
	if model == nil {
		return s.coldStartScore(), true
	}

	x := context
	if scaler != nil {
		scaled, err := scaler.transform(context)
		if err != nil {
			s.logger.Warn("context scaling failed, using cold start",
				"candidate_id", id, "error", err)
			return s.coldStartScore(), true
		}
		x = scaled
	}
	p, err := model.predictProb(x)
	if err != nil {
		s.logger.Warn("model prediction failed, using cold start",
			"candidate_id", id, "error", err)
		return s.coldStartScore(), true
	}
	return p, false
}

// Update records an observed reward for a candidate. In batch mode the
// sample is buffered and a refit runs once the buffer reaches the batch
// threshold; the buffer is purged only when that fit succeeds. In
// immediate mode the model refits on the single new sample right away.
func (s *Selector) Update(rec RewardRecord, batchMode bool) error {
	rec.Context = s.fitContext(rec.Context)
	rec.Label = 0
	if rec.ClippedReward > 0 {
		rec.Label = 1
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	a := s.armFor(rec.CandidateID)
	a.mu.Lock()
	defer a.mu.Unlock()

	a.samples = append(a.samples, rec)
	a.observed++

	if !batchMode {
		return s.fitArmLocked(a, rec.CandidateID, []RewardRecord{rec}, false)
	}
	if len(a.samples) >= batchFitThreshold && len(a.samples) >= minFitSamples {
		return s.fitArmLocked(a, rec.CandidateID, a.samples, true)
	}
	return nil
}

// fitArmLocked trains a fresh scaler and model from the given samples and
// installs them on the arm. The caller must hold the arm lock. On failure
// the previous model stays in place so selection degrades to it, or to
// cold start if the arm was never trained.
func (s *Selector) fitArmLocked(a *arm, candidateID string, samples []RewardRecord, purge bool) error {
	features := make([][]float64, len(samples))
	labels := make([]int, len(samples))
	for i, rec := range samples {
		features[i] = rec.Context
		labels[i] = rec.Label
	}

	scaler := fitScaler(features)
	scaled := make([][]float64, len(features))
	for i, x := range features {
		sx, err := scaler.transform(x)
		if err != nil {
			s.logger.Warn("model fit skipped", "candidate_id", candidateID, "error", err)
			return fmt.Errorf("fit candidate %s: %w", candidateID, err)
		}
		scaled[i] = sx
	}

	model, err := fitLogistic(scaled, labels)
	if err != nil {
		s.logger.Warn("model fit failed", "candidate_id", candidateID,
			"samples", len(samples), "error", err)
		return fmt.Errorf("fit candidate %s: %w", candidateID, err)
	}

	a.model = model
	a.scaler = scaler
	a.fits++
	if purge {
		a.samples = nil
	}
	return nil
}

func (s *Selector) armFor(id string) *arm {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.arms[id]
	if !ok {
		a = &arm{}
		s.arms[id] = a
	}
	return a
}

// fitContext pads short vectors with zeros and truncates long ones so every
// arm trains and predicts on the same dimensionality.
func (s *Selector) fitContext(context []float64) []float64 {
	if len(context) == s.nFeatures {
		return context
	}
	s.logger.Warn("context dimension adjusted",
		"got", len(context), "expected", s.nFeatures)
	out := make([]float64, s.nFeatures)
	copy(out, context)
	return out
}

func (s *Selector) coldStartScore() float64 {
	return coldStartBase + s.randNorm()*coldStartSigma
}

func (s *Selector) randFloat() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

func (s *Selector) randIntn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *Selector) randNorm() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.NormFloat64()
}

// ArmStats describes one candidate's training state.
type ArmStats struct {
	Trained         bool `json:"trained"`
	BufferedSamples int  `json:"buffered_samples"`
	ObservedSamples int  `json:"observed_samples"`
	Fits            int  `json:"fits"`
}

// Stats is a point-in-time view of the whole selector.
type Stats struct {
	Epsilon       float64             `json:"epsilon"`
	FeatureCount  int                 `json:"feature_count"`
	TotalArms     int                 `json:"total_arms"`
	TrainedArms   int                 `json:"trained_arms"`
	TotalBuffered int                 `json:"total_buffered"`
	Arms          map[string]ArmStats `json:"arms"`
}

// Stats reports per-arm and aggregate training state.
func (s *Selector) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Epsilon:      s.epsilon,
		FeatureCount: s.nFeatures,
		TotalArms:    len(s.arms),
		Arms:         make(map[string]ArmStats, len(s.arms)),
	}
	for id, a := range s.arms {
		a.mu.Lock()
		as := ArmStats{
			Trained:         a.model != nil,
			BufferedSamples: len(a.samples),
			ObservedSamples: a.observed,
			Fits:            a.fits,
		}
		a.mu.Unlock()
		st.Arms[id] = as
		st.TotalBuffered += as.BufferedSamples
		if as.Trained {
			st.TrainedArms++
		}
	}
	return st
}

// Reset discards every arm, returning the selector to a fully untrained
// state.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arms = make(map[string]*arm)
}

type armSnapshot struct {
	Model    *logisticModel `json:"model,omitempty"`
	Scaler   *featureScaler `json:"scaler,omitempty"`
	Samples  []RewardRecord `json:"samples,omitempty"`
	Fits     int            `json:"fits"`
	Observed int            `json:"observed"`
}

type snapshot struct {
	Epsilon      float64                 `json:"epsilon"`
	FeatureCount int                     `json:"feature_count"`
	SavedAt      time.Time               `json:"saved_at"`
	Arms         map[string]*armSnapshot `json:"arms"`
}

// Snapshot serializes all arms, including buffered samples, so training
// state survives a restart.
func (s *Selector) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		Epsilon:      s.epsilon,
		FeatureCount: s.nFeatures,
		SavedAt:      time.Now().UTC(),
		Arms:         make(map[string]*armSnapshot, len(s.arms)),
	}
	for id, a := range s.arms {
		a.mu.Lock()
		samples := make([]RewardRecord, len(a.samples))
		copy(samples, a.samples)
		snap.Arms[id] = &armSnapshot{
			Model:    a.model,
			Scaler:   a.scaler,
			Samples:  samples,
			Fits:     a.fits,
			Observed: a.observed,
		}
		a.mu.Unlock()
	}
	return json.Marshal(snap)
}

// Restore replaces all arm state with a previously captured snapshot.
func (s *Selector) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode bandit snapshot: %w", err)
	}

	arms := make(map[string]*arm, len(snap.Arms))
	for id, as := range snap.Arms {
		arms[id] = &arm{
			model:    as.Model,
			scaler:   as.Scaler,
			samples:  as.Samples,
			fits:     as.Fits,
			observed: as.Observed,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.arms = arms
	if snap.FeatureCount > 0 {
		s.nFeatures = snap.FeatureCount
	}
	return nil
}
