// Package service orchestrates the assignment pipeline: candidate scoring,
// embedding similarity filtering, bandit selection, and reward feedback. It
// sits between the HTTP handlers and the engine, bandit, and database
// packages, and owns the "soft failure" policy: once a reward has been
// computed, persistence problems degrade to warnings instead of failing the
// request, because the caller's feedback must not be lost to a flaky write.
package service

import (
	"context"
	"math"
	"time"

	"github.com/mileshq/miles-brain/internal/bandit"
	"github.com/mileshq/miles-brain/internal/database"
	"github.com/mileshq/miles-brain/internal/embeddings"
	"github.com/mileshq/miles-brain/internal/engine"
	apperrors "github.com/mileshq/miles-brain/internal/errors"
	"github.com/mileshq/miles-brain/internal/monitoring"
	"github.com/mileshq/miles-brain/internal/resilience"
	"github.com/mileshq/miles-brain/internal/types"
)

// recentOutcomeWindow bounds how many past rewards feed a candidate's
// history bonus.
const recentOutcomeWindow = 10

// Store is the persistence surface the service needs. *database.Repository
// satisfies it; tests substitute a fake.
type Store interface {
	ListEmployees(ctx context.Context) ([]*database.Employee, error)
	GetEmployee(ctx context.Context, id string) (*database.Employee, error)
	GetEmployeeSkills(ctx context.Context, employeeID string) (map[string]int, error)
	GetTask(ctx context.Context, id string) (*database.Task, error)
	GetTaskSkills(ctx context.Context, taskID string) ([]database.SkillRequirement, error)
	GetActiveTasks(ctx context.Context, employeeID string) ([]*database.Task, error)
	GetRecentOutcomes(ctx context.Context, employeeID string, limit int) ([]float64, error)
	CreateAssignment(ctx context.Context, a *database.Assignment) error
	GetAssignment(ctx context.Context, id string) (*database.Assignment, error)
	CompleteAssignment(ctx context.Context, id, status string, completedAt time.Time, rawReward, clippedReward float64) error
	UpdateProductivity(ctx context.Context, employeeID string, score float64) error
	UpdateWorkload(ctx context.Context, employeeID string, percent int) error
	SaveBanditSnapshot(ctx context.Context, snapshot []byte) error
	LoadBanditSnapshot(ctx context.Context) ([]byte, error)
	DeleteBanditSnapshot(ctx context.Context) error
}

// Service wires the scoring engine, the bandit, and the store into the
// operations the HTTP layer exposes.
type Service struct {
	store    Store
	embedder embeddings.Provider
	selector *bandit.Selector

	scorer       *engine.Scorer
	filter       *engine.SimilarityFilter
	rewards      *engine.RewardEngine
	workload     *engine.WorkloadScorer
	productivity *engine.ProductivityUpdater

	metrics *monitoring.Metrics
	logger  *monitoring.Logger

	batchUpdate bool
	now         func() time.Time
}

// Options tune service behavior; zero values fall back to defaults.
type Options struct {
	// TopK is the similarity filter size. Non-positive means the default.
	TopK int
	// BatchUpdate buffers reward samples and refits per-arm models in
	// batches instead of after every single sample.
	BatchUpdate bool
}

// New builds a Service. metrics and logger must be non-nil.
func New(store Store, embedder embeddings.Provider, selector *bandit.Selector, metrics *monitoring.Metrics, logger *monitoring.Logger, opts Options) *Service {
	return &Service{
		store:        store,
		embedder:     embedder,
		selector:     selector,
		scorer:       engine.NewScorer(nil),
		filter:       engine.NewSimilarityFilter(opts.TopK),
		rewards:      engine.NewRewardEngine(),
		workload:     engine.NewWorkloadScorer(),
		productivity: engine.NewProductivityUpdater(),
		metrics:      metrics,
		logger:       logger,
		batchUpdate:  opts.BatchUpdate,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// candidateRecord keeps the engine's view of a candidate together with the
// employee row it came from, so responses can carry display fields.
type candidateRecord struct {
	employee  *database.Employee
	candidate engine.Candidate
}

// loadTask assembles the engine's task requirement from the shared store,
// embedding the required skill names for similarity filtering.
func (s *Service) loadTask(ctx context.Context, taskID string) (engine.TaskRequirement, *database.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		if err == database.ErrNotFound {
			return engine.TaskRequirement{}, nil, apperrors.NewNotFoundError("task", taskID)
		}
		return engine.TaskRequirement{}, nil, apperrors.WrapError(err, "load task %s", taskID)
	}

	skills, err := s.store.GetTaskSkills(ctx, taskID)
	if err != nil {
		return engine.TaskRequirement{}, nil, apperrors.WrapError(err, "load task skills for %s", taskID)
	}

	req := engine.TaskRequirement{
		ID:         task.ID,
		Priority:   task.Priority,
		Difficulty: task.Difficulty,
		DueAt:      task.DueAt,
	}
	names := make([]string, 0, len(skills))
	for _, sk := range skills {
		req.RequiredSkills = append(req.RequiredSkills, engine.RequiredSkill{
			Name:          sk.Skill,
			RequiredLevel: normalizeLevel(sk.RequiredLevel),
		})
		names = append(names, sk.Skill)
	}
	if len(names) > 0 {
		vecs, err := s.embedder.EmbedSkills(ctx, names)
		if err != nil {
			return engine.TaskRequirement{}, nil, apperrors.NewUpstreamError("embeddings", err)
		}
		req.SkillEmbeddings = vecs
	}
	return req, task, nil
}

// loadCandidates builds the candidate pool from every known employee.
func (s *Service) loadCandidates(ctx context.Context) ([]candidateRecord, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, apperrors.WrapError(err, "list employees")
	}
	if len(employees) == 0 {
		return nil, apperrors.NewMissingDataError("employees", nil)
	}

	// A candidate whose data cannot be loaded drops out of the pool; the
	// rest still compete.
	records := make([]candidateRecord, 0, len(employees))
	for _, emp := range employees {
		cand, err := s.buildCandidate(ctx, emp)
		if err != nil {
			s.logger.Warn("Skipping candidate", "employee_id", emp.ID, "error", err)
			continue
		}
		records = append(records, candidateRecord{employee: emp, candidate: cand})
	}
	if len(records) == 0 {
		return nil, apperrors.NewMissingDataError("candidates", nil)
	}
	return records, nil
}

// buildCandidate converts one employee row into the engine's normalized
// candidate view.
func (s *Service) buildCandidate(ctx context.Context, emp *database.Employee) (engine.Candidate, error) {
	rawSkills, err := s.store.GetEmployeeSkills(ctx, emp.ID)
	if err != nil {
		return engine.Candidate{}, apperrors.WrapError(err, "load skills for employee %s", emp.ID)
	}

	proficiency := make(map[string]float64, len(rawSkills))
	names := make([]string, 0, len(rawSkills))
	for skill, level := range rawSkills {
		proficiency[skill] = normalizeLevel(level)
		names = append(names, skill)
	}

	var vecs [][]float64
	if len(names) > 0 {
		vecs, err = s.embedder.EmbedSkills(ctx, names)
		if err != nil {
			return engine.Candidate{}, apperrors.NewUpstreamError("embeddings", err)
		}
	}

	outcomes, err := s.store.GetRecentOutcomes(ctx, emp.ID, recentOutcomeWindow)
	if err != nil {
		return engine.Candidate{}, apperrors.WrapError(err, "load outcomes for employee %s", emp.ID)
	}

	active, err := s.store.GetActiveTasks(ctx, emp.ID)
	if err != nil {
		return engine.Candidate{}, apperrors.WrapError(err, "load active tasks for employee %s", emp.ID)
	}

	productivity := emp.ProductivityScore
	if productivity <= 0 {
		productivity = engine.InitialProductivity(emp.ExperienceMonths, emp.TenureMonths)
	}

	return engine.Candidate{
		ID:                emp.ID,
		SkillProficiency:  proficiency,
		SkillEmbeddings:   vecs,
		ProductivityScore: productivity,
		WorkloadScore:     s.workload.Score(toActiveTasks(active)),
		RecentOutcomes:    outcomes,
	}, nil
}

// SuggestForTask ranks every candidate for a task by the deterministic
// score, annotated with the score breakdown and embedding similarity. It
// does not record an assignment and does not touch the bandit.
func (s *Service) SuggestForTask(ctx context.Context, taskID string) (*types.SuggestResponse, error) {
	task, _, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	records, err := s.loadCandidates(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]candidateRecord, len(records))
	candidates := make([]engine.Candidate, 0, len(records))
	for _, rec := range records {
		byID[rec.employee.ID] = rec
		candidates = append(candidates, rec.candidate)
	}

	scores := s.scorer.ScoreAll(candidates, task)
	s.metrics.RecordCandidatesScored(len(scores))

	resp := &types.SuggestResponse{
		TaskID:      taskID,
		Suggestions: make([]types.SuggestionEntry, 0, len(scores)),
		GeneratedAt: s.now(),
	}
	for _, sc := range scores {
		rec := byID[sc.CandidateID]
		resp.Suggestions = append(resp.Suggestions, types.SuggestionEntry{
			EmployeeID:   sc.CandidateID,
			Name:         rec.employee.Name,
			Score:        sc.Total,
			SkillFit:     sc.Breakdown.SkillFit,
			HistoryBonus: sc.Breakdown.HistoryBonus,
			Momentum:     sc.Breakdown.Momentum,
			HealthCost:   sc.Breakdown.HealthCost,
			Similarity:   engine.MeanSimilarity(task.SkillEmbeddings, rec.candidate.SkillEmbeddings),
			WorkloadTier: string(sc.WorkloadTier),
		})
	}
	return resp, nil
}

// AssignTask runs the full pipeline for one task: score all candidates,
// keep the top K by embedding similarity, let the bandit pick from the
// survivors, and record the assignment.
func (s *Service) AssignTask(ctx context.Context, taskID string) (*types.AssignResponse, error) {
	started := s.now()

	task, _, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	records, err := s.loadCandidates(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]engine.Candidate, 0, len(records))
	for _, rec := range records {
		candidates = append(candidates, rec.candidate)
	}
	scores := s.scorer.ScoreAll(candidates, task)
	s.metrics.RecordCandidatesScored(len(scores))
	if len(scores) > 0 {
		s.logger.Debug("Deterministic front-runner",
			"task_id", taskID,
			"candidate_id", scores[0].CandidateID,
			"score", scores[0].Total,
		)
	}

	pool := s.filter.TopCandidates(task, candidates)
	choices := make([]bandit.Choice, 0, len(pool))
	for _, cs := range pool {
		choices = append(choices, bandit.Choice{
			CandidateID: cs.Candidate.ID,
			Context:     engine.BuildContext(cs.Candidate, task, started),
		})
	}

	decision, err := s.selector.Select(choices)
	if err != nil {
		if err == bandit.ErrNoCandidates {
			return nil, apperrors.NewMissingDataError("candidates", err)
		}
		return nil, apperrors.NewInternalError("candidate selection failed", err)
	}

	mode := "exploit"
	if decision.Exploratory {
		mode = "explore"
	}
	s.metrics.RecordSelection(mode)
	s.metrics.RecordSelectionLatency(s.now().Sub(started))
	s.logger.SelectionLogger(taskID, decision.CandidateID, decision.Score,
		decision.Exploratory, decision.ColdStart, len(pool))

	assignment := database.NewAssignment(taskID, decision.CandidateID,
		decision.Context, decision.Score, decision.Exploratory, decision.ColdStart)
	err = resilience.RetryWithConfig(ctx, resilience.StoreRetryConfig(), func() error {
		return s.store.CreateAssignment(ctx, assignment)
	})
	if err != nil {
		return nil, apperrors.WrapError(err, "record assignment for task %s", taskID)
	}

	return &types.AssignResponse{
		AssignmentID: assignment.ID,
		TaskID:       taskID,
		EmployeeID:   decision.CandidateID,
		Score:        decision.Score,
		Exploratory:  decision.Exploratory,
		ColdStart:    decision.ColdStart,
	}, nil
}

// SubmitFeedback closes the loop on an assignment: it computes the clipped
// per-assignment reward and the multi-objective reward, updates the bandit
// arm, and refreshes the employee's productivity and workload. Reward
// computation errors fail the request; persistence and model-fit errors
// after that point are reported as warnings.
func (s *Service) SubmitFeedback(ctx context.Context, assignmentID string, req types.FeedbackRequest) (*types.FeedbackResponse, error) {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, apperrors.NewNotFoundError("assignment", assignmentID)
		}
		return nil, apperrors.WrapError(err, "load assignment %s", assignmentID)
	}
	if assignment.CompletedAt != nil {
		return nil, apperrors.NewValidationError("feedback already submitted for assignment " + assignmentID)
	}

	var warnings []string

	// The task row supplies the difficulty behind the hard-task bonus. A
	// deleted task should not block feedback on its old assignment.
	taskReq := engine.TaskRequirement{ID: assignment.TaskID}
	if task, err := s.store.GetTask(ctx, assignment.TaskID); err == nil {
		taskReq.Priority = task.Priority
		taskReq.Difficulty = task.Difficulty
		taskReq.DueAt = task.DueAt
	} else if err != database.ErrNotFound {
		return nil, apperrors.WrapError(err, "load task %s", assignment.TaskID)
	} else {
		warnings = append(warnings, "task no longer exists, hard-task bonus skipped")
	}

	outcome := engine.CompletionOutcome{
		Completed:      req.Completed,
		OnTime:         req.OnTime,
		Rating:         req.Rating,
		GoodBehavior:   req.GoodBehavior,
		Failed:         req.Failed,
		ReworkRequired: req.ReworkRequired,
		OverdueDays:    int(math.Round(req.DaysOverdue)),
	}
	reward := s.rewards.Calculate(taskReq, outcome)
	s.metrics.RecordReward(reward.TotalClipped)

	multi := s.rewards.MultiObjective(engine.OutcomeMetrics{
		PredictedHours:   req.PredictedHours,
		ActualHours:      req.ActualHours,
		Bugs:             req.BugsIntroduced,
		ReviewComments:   req.ReviewComments,
		SkillImprovement: req.SkillImprovement,
		BurnoutIncrease:  engine.BurnoutIncrease(req.HoursWorkedPerDay),
		Confidence:       req.ConfidenceEstimate,
		Success:          boolToFloat(req.Completed),
		Satisfaction:     req.Rating,
	})

	// The multi-objective total is unclipped; surface the extreme cases so
	// the productivity smoothing stays observable.
	if math.Abs(multi.Total) > 2 {
		s.logger.Warn("Extreme multi-objective reward",
			"assignment_id", assignmentID,
			"employee_id", assignment.EmployeeID,
			"reward", multi.Total,
		)
	}

	warnings = append(warnings, s.updateModel(assignment, reward)...)
	warnings = append(warnings, s.persistOutcome(ctx, assignment, req, reward)...)
	productivity, prodWarnings := s.updateProductivity(ctx, assignment.EmployeeID, multi.Total)
	warnings = append(warnings, prodWarnings...)
	workloadPercent, loadWarnings := s.refreshWorkload(ctx, assignment.EmployeeID)
	warnings = append(warnings, loadWarnings...)

	s.logger.FeedbackLogger(assignmentID, assignment.EmployeeID,
		reward.TotalRaw, reward.TotalClipped, productivity)

	return &types.FeedbackResponse{
		AssignmentID:         assignmentID,
		EmployeeID:           assignment.EmployeeID,
		RawReward:            reward.TotalRaw,
		ClippedReward:        reward.TotalClipped,
		MultiObjectiveReward: multi.Total,
		Productivity:         productivity,
		WorkloadPercent:      workloadPercent,
		Warnings:             warnings,
	}, nil
}

// updateModel feeds the reward into the bandit arm. Fit failures leave the
// previous model in place, so they are warnings, not request errors.
func (s *Service) updateModel(assignment *database.Assignment, reward engine.RewardComponents) []string {
	fitsBefore := s.selector.Stats().Arms[assignment.EmployeeID].Fits

	err := s.selector.Update(bandit.RewardRecord{
		CandidateID:   assignment.EmployeeID,
		TaskID:        assignment.TaskID,
		Context:       assignment.Context,
		RawReward:     reward.TotalRaw,
		ClippedReward: reward.TotalClipped,
		Timestamp:     s.now(),
	}, s.batchUpdate)

	samples := s.selector.Stats().Arms[assignment.EmployeeID].ObservedSamples
	if err != nil {
		s.metrics.RecordModelFit(false)
		s.logger.ModelFitLogger(assignment.EmployeeID, samples, err)
		return []string{"model update failed, previous model kept: " + err.Error()}
	}
	if s.selector.Stats().Arms[assignment.EmployeeID].Fits > fitsBefore {
		s.metrics.RecordModelFit(true)
		s.logger.ModelFitLogger(assignment.EmployeeID, samples, nil)
	}
	return nil
}

func (s *Service) persistOutcome(ctx context.Context, assignment *database.Assignment, req types.FeedbackRequest, reward engine.RewardComponents) []string {
	status := database.AssignmentCompleted
	if req.Failed && !req.Completed {
		status = database.AssignmentFailed
	}
	err := resilience.RetryWithConfig(ctx, resilience.StoreRetryConfig(), func() error {
		return s.store.CompleteAssignment(ctx, assignment.ID, status, s.now(),
			reward.TotalRaw, reward.TotalClipped)
	})
	if err != nil {
		return []string{"assignment outcome not persisted: " + err.Error()}
	}
	return nil
}

func (s *Service) updateProductivity(ctx context.Context, employeeID string, reward float64) (float64, []string) {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return 0, []string{"productivity not updated: " + err.Error()}
	}
	old := emp.ProductivityScore
	if old <= 0 {
		old = engine.InitialProductivity(emp.ExperienceMonths, emp.TenureMonths)
	}
	updated := s.productivity.Update(old, reward)

	err = resilience.RetryWithConfig(ctx, resilience.StoreRetryConfig(), func() error {
		return s.store.UpdateProductivity(ctx, employeeID, updated)
	})
	if err != nil {
		return updated, []string{"productivity not persisted: " + err.Error()}
	}
	s.metrics.SetProductivity(employeeID, updated)
	return updated, nil
}

func (s *Service) refreshWorkload(ctx context.Context, employeeID string) (int, []string) {
	active, err := s.store.GetActiveTasks(ctx, employeeID)
	if err != nil {
		return 0, []string{"workload not refreshed: " + err.Error()}
	}
	percent := s.workload.ScorePercent(toActiveTasks(active))
	err = resilience.RetryWithConfig(ctx, resilience.StoreRetryConfig(), func() error {
		return s.store.UpdateWorkload(ctx, employeeID, percent)
	})
	if err != nil {
		return percent, []string{"workload not persisted: " + err.Error()}
	}
	return percent, nil
}

// BanditStats reports the selector's per-arm training state.
func (s *Service) BanditStats() bandit.Stats {
	return s.selector.Stats()
}

// ResetModels discards all learned arms and the persisted snapshot.
func (s *Service) ResetModels(ctx context.Context) error {
	s.selector.Reset()
	if err := s.store.DeleteBanditSnapshot(ctx); err != nil && err != database.ErrNotFound {
		return apperrors.WrapError(err, "delete bandit snapshot")
	}
	s.logger.SystemLogger("models_reset", "all bandit arms discarded")
	return nil
}

// SaveModels persists the selector state for recovery across restarts.
func (s *Service) SaveModels(ctx context.Context) error {
	data, err := s.selector.Snapshot()
	if err != nil {
		return apperrors.WrapError(err, "snapshot bandit state")
	}
	err = resilience.RetryWithConfig(ctx, resilience.StoreRetryConfig(), func() error {
		return s.store.SaveBanditSnapshot(ctx, data)
	})
	if err != nil {
		return apperrors.WrapError(err, "persist bandit snapshot")
	}
	return nil
}

// LoadModels restores the selector from the last persisted snapshot, if
// one exists.
func (s *Service) LoadModels(ctx context.Context) error {
	data, err := s.store.LoadBanditSnapshot(ctx)
	if err != nil {
		if err == database.ErrNotFound {
			return nil
		}
		return apperrors.WrapError(err, "load bandit snapshot")
	}
	if err := s.selector.Restore(data); err != nil {
		return apperrors.WrapError(err, "restore bandit state")
	}
	s.logger.SystemLogger("models_restored", "bandit state loaded from snapshot")
	return nil
}

func toActiveTasks(tasks []*database.Task) []engine.ActiveTask {
	out := make([]engine.ActiveTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, engine.ActiveTask{
			Status:     t.Status,
			Priority:   t.Priority,
			Difficulty: t.Difficulty,
		})
	}
	return out
}

func normalizeLevel(level int) float64 {
	if level < 1 {
		level = 1
	}
	if level > 10 {
		level = 10
	}
	return float64(level) / 10.0
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
