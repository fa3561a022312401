package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
)

// ExactLookup finds a stored recipe for an exact ingredient set
type ExactLookup interface {
	LookupExact(ctx context.Context, ingredients []string, difficulty recipe.Difficulty, language recipe.Language) (*recipe.Recipe, error)
}

// SemanticLookup finds the nearest stored recipe within a distance threshold
type SemanticLookup interface {
	LookupSemantic(ctx context.Context, ingredients []string, difficulty recipe.Difficulty, language recipe.Language, threshold float64) (*recipe.Recipe, error)
}

// WebSearcher extracts a recipe from web search results
type WebSearcher interface {
	SearchWeb(ctx context.Context, ingredients []string, difficulty recipe.Difficulty, language recipe.Language) (*recipe.Recipe, error)
}

// Generator asks the LLM for a fresh recipe
type Generator interface {
	Generate(ctx context.Context, ingredients []string, difficulty recipe.Difficulty, language recipe.Language) (*recipe.Recipe, error)
}

// Validator judges a candidate recipe
type Validator interface {
	Validate(ctx context.Context, candidate *recipe.Recipe, ingredients []string, difficulty recipe.Difficulty, language recipe.Language, source recipe.Source) recipe.Verdict
}

// Persister stores a successful recipe without blocking the caller
type Persister interface {
	Persist(ctx context.Context, r *recipe.Recipe, ingredients []string, difficulty recipe.Difficulty, language recipe.Language)
}

// Metrics receives workflow measurements
type Metrics interface {
	ObserveStep(step string, outcome string, duration time.Duration)
	ObserveRun(status string, source string, iterations int, extras int, duration time.Duration)
}

// Stages bundles the collaborators of the state machine.
// Web and Persister may be nil.
type Stages struct {
	Exact     ExactLookup
	Semantic  SemanticLookup
	Web       WebSearcher
	Generator Generator
	Validator Validator
	Persister Persister
}

// Options tunes the retry budgets
type Options struct {
	MaxIterations     int
	MaxExtras         int
	SemanticThreshold float64
}

// DefaultOptions returns the production budgets
func DefaultOptions() Options {
	return Options{
		MaxIterations:     3,
		MaxExtras:         2,
		SemanticThreshold: 0.55,
	}
}

// Status is the terminal outcome of a run
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Event is emitted to the optional observer on every transition
type Event struct {
	Step      Step
	Message   string
	Iteration int
}

// Request is the input of one run
type Request struct {
	Ingredients []string
	Difficulty  recipe.Difficulty
	Language    recipe.Language
	Observer    func(Event)
}

// Result is the terminal outcome of one run
type Result struct {
	Status       Status
	Recipe       *recipe.Recipe
	Source       recipe.Source
	ErrorMessage string
	ExtrasAdded  []string
	Iterations   int
	// Ingredients is the final requested list including extras
	Ingredients []string
	// Cause carries the underlying error for logging, never shown to users
	Cause error
}

// Orchestrator drives requests through the recipe state machine
type Orchestrator struct {
	stages  Stages
	opts    Options
	logger  *zap.Logger
	metrics Metrics
	tracer  trace.Tracer
}

// New creates an orchestrator
func New(stages Stages, opts Options, logger *zap.Logger, metrics Metrics) *Orchestrator {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultOptions().MaxIterations
	}
	if opts.MaxExtras < 0 {
		opts.MaxExtras = 0
	}
	if opts.SemanticThreshold <= 0 {
		opts.SemanticThreshold = DefaultOptions().SemanticThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Orchestrator{
		stages:  stages,
		opts:    opts,
		logger:  logger.Named("workflow"),
		metrics: metrics,
		tracer:  otel.Tracer("github.com/alchemorsel/pantrychef/internal/application/workflow"),
	}
}

// Options returns the effective budgets
func (o *Orchestrator) Options() Options {
	return o.opts
}

// maxSteps bounds the transitions of a run: three lookups, then at most one
// generate and one review per iteration, plus slack for the terminal step
func (o *Orchestrator) maxSteps() int {
	return 5 + 2*o.opts.MaxIterations
}

// Run executes the state machine until a terminal state is reached
func (o *Orchestrator) Run(ctx context.Context, req Request) Result {
	start := time.Now()
	st := NewState(req.Ingredients, req.Difficulty, req.Language)

	ctx, span := o.tracer.Start(ctx, "workflow.run", trace.WithAttributes(
		attribute.String("recipe.difficulty", string(st.Difficulty)),
		attribute.String("recipe.language", string(st.Language)),
		attribute.Int("recipe.ingredients", len(st.RequestedIngredients)),
	))
	defer span.End()

	if len(st.RequestedIngredients) == 0 {
		st = st.Merge(Update{Error: recipe.Message(recipe.MsgMinIngredients, st.Language)})
		return o.finish(ctx, span, st, recipe.ErrMinIngredients, start)
	}

	var (
		cause error
		prev  Step
		step  = StepSearchCache
	)
	for n := 0; step != StepDone; n++ {
		if n >= o.maxSteps() {
			cause = fmt.Errorf("workflow exceeded %d steps", o.maxSteps())
			st = st.Merge(Update{ClearRecipe: true, Error: recipe.Message(recipe.MsgGenerationError, st.Language)})
			break
		}
		if err := ctx.Err(); err != nil {
			cause = err
			st = st.Merge(Update{ClearRecipe: true, Error: recipe.Message(recipe.MsgGenerationError, st.Language)})
			break
		}

		stepStart := time.Now()
		upd, next, err := o.execute(ctx, step, prev, st, req.Observer)
		st = st.Merge(upd)
		o.metrics.ObserveStep(string(step), outcome(next, err), time.Since(stepStart))
		if err != nil {
			cause = err
		}
		if checkErr := st.Check(); checkErr != nil {
			o.logger.Error("illegal workflow state", zap.String("step", string(step)), zap.Error(checkErr))
			cause = checkErr
			st = st.Merge(Update{ClearRecipe: true})
			break
		}
		prev, step = step, next
	}

	return o.finish(ctx, span, st, cause, start)
}

func (o *Orchestrator) execute(ctx context.Context, step, prev Step, st State, observer func(Event)) (Update, Step, error) {
	ctx, span := o.tracer.Start(ctx, "workflow."+string(step), trace.WithAttributes(
		attribute.Int("workflow.iteration", st.IterationCount),
	))
	defer span.End()

	switch step {
	case StepSearchCache:
		return o.searchCache(ctx, st, observer)
	case StepSemanticSearch:
		return o.semanticSearch(ctx, st, observer)
	case StepWebSearch:
		return o.webSearch(ctx, st, observer)
	case StepGenerate:
		upd, next, err := o.generate(ctx, prev, st, observer)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "generation failed")
		}
		return upd, next, err
	case StepReview:
		return o.review(ctx, st, observer)
	default:
		return Update{}, StepDone, fmt.Errorf("unknown workflow step %q", step)
	}
}

func (o *Orchestrator) searchCache(ctx context.Context, st State, observer func(Event)) (Update, Step, error) {
	iteration := st.IterationCount + 1
	emit(observer, StepSearchCache, recipe.Message(recipe.MsgSearchingCache, st.Language), iteration)

	found, err := o.stages.Exact.LookupExact(ctx, st.RequestedIngredients, st.Difficulty, st.Language)
	if err != nil {
		o.logger.Warn("exact lookup failed, treating as miss", zap.Error(err))
		found = nil
	}
	if found.Complete() {
		o.logger.Debug("exact cache hit", zap.String("name", found.Name))
		return Update{
			Recipe:    found.Tag(recipe.SourceCache, st.Difficulty),
			Source:    recipe.SourceCache,
			Iteration: iteration,
		}, StepDone, nil
	}
	return Update{Iteration: iteration}, StepSemanticSearch, nil
}

func (o *Orchestrator) semanticSearch(ctx context.Context, st State, observer func(Event)) (Update, Step, error) {
	found, err := o.stages.Semantic.LookupSemantic(ctx, st.RequestedIngredients, st.Difficulty, st.Language, o.opts.SemanticThreshold)
	if err != nil {
		o.logger.Warn("semantic lookup failed, treating as miss", zap.Error(err))
		found = nil
	}
	if found.Complete() {
		emit(observer, StepSemanticSearch, recipe.Message(recipe.MsgSemanticHit, st.Language), st.IterationCount)
		return Update{
			Recipe: found.Tag(recipe.SourceSemantic, st.Difficulty),
			Source: recipe.SourceSemantic,
		}, StepDone, nil
	}
	emit(observer, StepSemanticSearch, recipe.Message(recipe.MsgSemanticMiss, st.Language), st.IterationCount)
	return Update{}, StepWebSearch, nil
}

func (o *Orchestrator) webSearch(ctx context.Context, st State, observer func(Event)) (Update, Step, error) {
	var found *recipe.Recipe
	if o.stages.Web != nil {
		var err error
		found, err = o.stages.Web.SearchWeb(ctx, st.RequestedIngredients, st.Difficulty, st.Language)
		if err != nil {
			o.logger.Warn("web search failed, treating as miss", zap.Error(err))
			found = nil
		}
	}
	if found.Complete() {
		emit(observer, StepWebSearch, recipe.Message(recipe.MsgWebHit, st.Language), st.IterationCount)
		return Update{
			Recipe: found.Tag(recipe.SourceWeb, st.Difficulty),
			Source: recipe.SourceWeb,
		}, StepReview, nil
	}
	emit(observer, StepWebSearch, recipe.Message(recipe.MsgWebMiss, st.Language), st.IterationCount)
	return Update{}, StepGenerate, nil
}

func (o *Orchestrator) generate(ctx context.Context, prev Step, st State, observer func(Event)) (Update, Step, error) {
	iteration := st.IterationCount
	if prev == StepReview {
		iteration++
	}
	emit(observer, StepGenerate, recipe.Message(recipe.MsgGeneratingRecipe, st.Language), iteration)

	generated, err := o.stages.Generator.Generate(ctx, st.RequestedIngredients, st.Difficulty, st.Language)
	if err == nil && !generated.Complete() {
		err = fmt.Errorf("generator returned an incomplete recipe: %w", generated.CheckComplete())
	}
	if err != nil {
		o.logger.Error("recipe generation failed", zap.Int("iteration", iteration), zap.Error(err))
		return Update{
			ClearRecipe: true,
			Iteration:   iteration,
			Error:       recipe.Message(recipe.MsgGenerationError, st.Language),
		}, StepDone, err
	}

	return Update{
		Recipe:    generated.Tag(recipe.SourceGenerate, st.Difficulty),
		Source:    recipe.SourceGenerate,
		Iteration: iteration,
	}, StepReview, nil
}

func (o *Orchestrator) review(ctx context.Context, st State, observer func(Event)) (Update, Step, error) {
	if st.Recipe == nil || st.Terminal() {
		return Update{}, StepDone, nil
	}
	if st.SourceStage.PreValidated() {
		return Update{}, StepDone, nil
	}

	verdict := o.stages.Validator.Validate(ctx, st.Recipe, st.RequestedIngredients, st.Difficulty, st.Language, st.SourceStage)
	if verdict.Valid {
		emit(observer, StepReview, recipe.Message(recipe.MsgRecipeValidated, st.Language), st.IterationCount)
		return Update{}, StepDone, nil
	}

	emit(observer, StepReview, recipe.Message(recipe.MsgRecipeRejected, st.Language), st.IterationCount)
	o.logger.Info("recipe rejected",
		zap.Int("iteration", st.IterationCount),
		zap.String("source", string(st.SourceStage)),
		zap.String("reasoning", verdict.Reasoning),
	)

	if st.IterationCount >= o.opts.MaxIterations {
		return Update{
			ClearRecipe: true,
			Error:       recipe.Message(recipe.MsgRecipeNotFound, st.Language),
		}, StepDone, nil
	}

	suggested := freshExtras(verdict.SuggestedExtras, st.RequestedIngredients)
	remaining := o.opts.MaxExtras - len(st.ExtraIngredientsAdded)
	if len(suggested) > 0 && remaining > 0 {
		if len(suggested) > remaining {
			suggested = suggested[:remaining]
		}
		o.logger.Debug("adding extra ingredients", zap.Strings("extras", suggested))
		return Update{ClearRecipe: true, AddExtras: suggested}, StepGenerate, nil
	}

	return Update{ClearRecipe: true}, StepGenerate, nil
}

func (o *Orchestrator) finish(ctx context.Context, span trace.Span, st State, cause error, start time.Time) Result {
	res := Result{
		Status:      StatusSuccess,
		Recipe:      st.Recipe,
		Source:      st.SourceStage,
		ExtrasAdded: st.ExtraIngredientsAdded,
		Iterations:  st.IterationCount,
		Ingredients: st.RequestedIngredients,
		Cause:       cause,
	}
	if st.Error != "" || st.Recipe == nil {
		res.Status = StatusError
		res.Recipe = nil
		res.Source = ""
		res.ErrorMessage = st.Error
		if res.ErrorMessage == "" {
			res.ErrorMessage = recipe.Message(recipe.MsgRecipeNotFound, st.Language)
		}
	}

	span.SetAttributes(
		attribute.String("workflow.status", string(res.Status)),
		attribute.String("workflow.source", string(res.Source)),
		attribute.Int("workflow.iterations", res.Iterations),
	)
	if res.Status == StatusError {
		span.SetStatus(codes.Error, res.ErrorMessage)
	}
	o.metrics.ObserveRun(string(res.Status), string(res.Source), res.Iterations, len(res.ExtrasAdded), time.Since(start))

	if res.Status == StatusSuccess && res.Source.Cacheable() && o.stages.Persister != nil {
		base := recipe.FilterPantryDefaults(st.OriginalIngredients)
		o.stages.Persister.Persist(ctx, res.Recipe, base, st.Difficulty, st.Language)
	}

	o.logger.Info("workflow finished",
		zap.String("status", string(res.Status)),
		zap.String("source", string(res.Source)),
		zap.Int("iterations", res.Iterations),
		zap.Strings("extras", res.ExtrasAdded),
		zap.Duration("duration", time.Since(start)),
	)
	return res
}

// freshExtras trims suggestions and drops those already requested
func freshExtras(suggested, requested []string) []string {
	have := make(map[string]struct{}, len(requested))
	for _, ing := range requested {
		have[strings.ToLower(strings.TrimSpace(ing))] = struct{}{}
	}
	out := make([]string, 0, len(suggested))
	for _, s := range suggested {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" {
			continue
		}
		if _, ok := have[key]; ok {
			continue
		}
		have[key] = struct{}{}
		out = append(out, s)
		if len(out) == recipe.MaxSuggestedExtras {
			break
		}
	}
	return out
}

func emit(observer func(Event), step Step, message string, iteration int) {
	if observer == nil {
		return
	}
	observer(Event{Step: step, Message: message, Iteration: iteration})
}

func outcome(next Step, err error) string {
	if err != nil {
		return "error"
	}
	return string(next)
}

type nopMetrics struct{}

func (nopMetrics) ObserveStep(string, string, time.Duration)          {}
func (nopMetrics) ObserveRun(string, string, int, int, time.Duration) {}
