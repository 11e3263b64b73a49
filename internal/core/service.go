package core

import (
	"context"
	"errors"
	"fmt"
	"slowpoke/pkg/domain"
	"time"

	"github.com/google/uuid"
)

// Clock supplies timestamps for journal records.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function into a Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// Logger is the structured logging surface the service writes to. Arguments
// are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetricsRecorder observes the outcome and latency of service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// ViolationRecorder is implemented by metrics recorders that also count
// rule findings.
type ViolationRecorder interface {
	ObserveViolations(ctx context.Context, workflow string, violations []domain.Violation)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// TraceSpan ends a traced operation.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopTracer struct{}

type noopSpan struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

func (noopSpan) End(error) {}

// Executor drives a sequenced plan against a robot and keeps the journal
// record of the run current.
type Executor interface {
	Execute(ctx context.Context, run domain.Run, plan domain.Plan) (domain.Run, error)
}

// ArtifactPublisher stores the files an operator needs alongside a run.
type ArtifactPublisher interface {
	Publish(ctx context.Context, runID string, recipe domain.Recipe, plan domain.Plan) ([]string, error)
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithClock overrides the clock used for run timestamps.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithJournal records runs in the supplied store.
func WithJournal(journal domain.JournalStore) ServiceOption {
	return func(s *Service) {
		s.journal = journal
	}
}

// WithArtifacts publishes run artifacts through the supplied publisher.
func WithArtifacts(publisher ArtifactPublisher) ServiceOption {
	return func(s *Service) {
		s.artifacts = publisher
	}
}

// WithIDGenerator overrides how run identifiers are minted.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Service validates recipes, sequences plans and hands them to executors.
type Service struct {
	registry  *WorkflowRegistry
	journal   domain.JournalStore
	artifacts ArtifactPublisher
	clock     Clock
	logger    Logger
	metrics   MetricsRecorder
	tracer    Tracer
	newID     func() string
}

// NewService constructs a service over the workflows in the registry. A nil
// registry falls back to the built-in profiles.
func NewService(registry *WorkflowRegistry, opts ...ServiceOption) *Service {
	if registry == nil {
		registry = DefaultRegistry()
	}
	s := &Service{
		registry: registry,
		clock:    ClockFunc(func() time.Time { return time.Now().UTC() }),
		logger:   noopLogger{},
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the workflow registry.
func (s *Service) Registry() *WorkflowRegistry {
	return s.registry
}

// Journal returns the configured journal, or nil.
func (s *Service) Journal() domain.JournalStore {
	return s.journal
}

// Validate evaluates the shared and workflow rules against a recipe without
// sequencing it.
func (s *Service) Validate(ctx context.Context, recipe domain.Recipe) (domain.Result, error) {
	var res domain.Result
	err := s.observe(ctx, "validate", func(ctx context.Context) error {
		w, err := s.registry.Lookup(recipe.Workflow)
		if err != nil {
			return err
		}
		res, err = s.evaluate(ctx, w, NewRecipeView(recipe, w.Profile()))
		return err
	})
	return res, err
}

// Plan validates the recipe and sequences it. Blocking violations are
// returned as a domain.RuleViolationError before anything is sequenced.
func (s *Service) Plan(ctx context.Context, recipe domain.Recipe) (domain.Plan, error) {
	var plan domain.Plan
	err := s.observe(ctx, "plan", func(ctx context.Context) error {
		var err error
		plan, err = s.plan(ctx, recipe)
		return err
	})
	return plan, err
}

func (s *Service) plan(ctx context.Context, recipe domain.Recipe) (domain.Plan, error) {
	w, err := s.registry.Lookup(recipe.Workflow)
	if err != nil {
		return domain.Plan{}, err
	}
	view := NewRecipeView(recipe, w.Profile())
	res, err := s.evaluate(ctx, w, view)
	if err != nil {
		return domain.Plan{}, err
	}
	for _, v := range res.Warnings() {
		s.logger.Warn("rule warning", "workflow", w.Name(), "rule", v.Rule, "subject", v.Subject, "message", v.Message)
	}
	if err := res.Err(); err != nil {
		return domain.Plan{}, err
	}
	plan, err := w.Sequence(ctx, view)
	if err != nil {
		return domain.Plan{}, err
	}
	plan.Warnings = res.Warnings()
	s.logger.Info("plan sequenced",
		"workflow", w.Name(),
		"combinations", len(recipe.Combinations),
		"operations", len(plan.Operations),
		"tips", plan.Tips.Total,
		"checkpoints", len(plan.Checkpoints()))
	return plan, nil
}

func (s *Service) evaluate(ctx context.Context, w Workflow, view RecipeView) (domain.Result, error) {
	engine := NewDefaultRulesEngine()
	for _, rule := range w.Rules() {
		engine.Register(rule)
	}
	res, err := engine.Evaluate(ctx, view)
	if err != nil {
		return res, err
	}
	if vr, ok := s.metrics.(ViolationRecorder); ok && len(res.Violations) > 0 {
		vr.ObserveViolations(ctx, w.Name(), res.Violations)
	}
	return res, nil
}

// EstimateTips plans the recipe and reports its tip requirement.
func (s *Service) EstimateTips(ctx context.Context, recipe domain.Recipe) (domain.TipEstimate, error) {
	plan, err := s.Plan(ctx, recipe)
	if err != nil {
		return domain.TipEstimate{}, err
	}
	return plan.Tips, nil
}

// Run plans the recipe, journals the run, publishes its artifacts and
// executes it. The returned run reflects the final journal state even when
// execution fails.
func (s *Service) Run(ctx context.Context, recipe domain.Recipe, executor Executor) (domain.Run, error) {
	if executor == nil {
		return domain.Run{}, errors.New("executor required")
	}
	var run domain.Run
	err := s.observe(ctx, "run", func(ctx context.Context) error {
		plan, err := s.plan(ctx, recipe)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		run = domain.Run{
			ID:           s.newID(),
			Workflow:     plan.Workflow,
			Status:       domain.RunPlanned,
			Combinations: len(recipe.Combinations),
			Operations:   len(plan.Operations),
			Tips:         plan.Tips.Total,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if s.journal != nil {
			if run, err = s.journal.CreateRun(ctx, run); err != nil {
				return fmt.Errorf("journal run: %w", err)
			}
		}
		if s.artifacts != nil {
			keys, err := s.artifacts.Publish(ctx, run.ID, recipe, plan)
			if err != nil {
				err = fmt.Errorf("publish artifacts: %w", err)
				run = s.failRun(ctx, run, err)
				return err
			}
			s.logger.Info("artifacts published", "run", run.ID, "keys", keys)
		}
		run, err = executor.Execute(ctx, run, plan)
		return err
	})
	return run, err
}

// failRun marks a journaled run failed before it reached the executor.
func (s *Service) failRun(ctx context.Context, run domain.Run, cause error) domain.Run {
	run.Status = domain.RunFailed
	run.Error = cause.Error()
	run.UpdatedAt = s.clock.Now()
	if s.journal == nil {
		return run
	}
	updated, err := s.journal.UpdateRun(context.WithoutCancel(ctx), run.ID, func(r *domain.Run) error {
		r.Status = run.Status
		r.Error = run.Error
		r.UpdatedAt = run.UpdatedAt
		return nil
	})
	if err != nil {
		s.logger.Error("journal failed run", "run", run.ID, "error", err)
		return run
	}
	return updated
}

// Runs lists journaled runs.
func (s *Service) Runs(ctx context.Context) ([]domain.Run, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.ListRuns(ctx)
}

func (s *Service) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, operation)
	start := s.clock.Now()
	err := fn(ctx)
	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	if err != nil {
		s.logger.Error("operation failed", "operation", operation, "error", err, "duration", duration)
	} else {
		s.logger.Debug("operation completed", "operation", operation, "duration", duration)
	}
	return err
}
