package jexpr

import (
	"context"
	cryptorand "crypto/rand"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Config controls evaluation bounds and engine collaborators.
type Config struct {
	// StepQuota caps the number of nodes visited per evaluation, including
	// nested evaluations. Zero selects the default; negative disables it.
	StepQuota int
	// RecursionLimit caps nested evaluations (user functions, EVALUATE).
	RecursionLimit int
	// CacheSize bounds the parse cache. Zero selects the default; negative
	// disables caching.
	CacheSize int

	Logger       *slog.Logger
	Observer     Observer
	RandomReader io.Reader
	Clock        func() time.Time

	// Functions are registered after the built-ins and may replace them.
	Functions []Function
}

const (
	DefaultStepQuota      = 100000
	DefaultRecursionLimit = 64
	DefaultCacheSize      = 1024
)

// Engine parses and evaluates expressions. It is safe for concurrent use.
type Engine struct {
	config   Config
	logger   *slog.Logger
	observer Observer
	registry *Registry
	cache    *parseCache
	base     []Function
}

// NewEngine constructs an Engine with defaults applied and all built-in
// functions registered.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.StepQuota == 0 {
		cfg.StepQuota = DefaultStepQuota
	}
	if cfg.RecursionLimit <= 0 {
		cfg.RecursionLimit = DefaultRecursionLimit
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	if cfg.RandomReader == nil {
		cfg.RandomReader = cryptorand.Reader
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	engine := &Engine{
		config:   cfg,
		logger:   cfg.Logger,
		observer: cfg.Observer,
		cache:    newParseCache(cfg.CacheSize),
		base:     append(builtinFunctions(), cfg.Functions...),
	}

	registry, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	registry.onSwap = engine.registrySwapped
	if err := registry.Register(engine.base...); err != nil {
		return nil, err
	}
	engine.registry = registry
	return engine, nil
}

// MustNewEngine is NewEngine that panics on error.
func MustNewEngine(cfg Config) *Engine {
	engine, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return engine
}

func (e *Engine) registrySwapped(table *FunctionTable) {
	e.logger.Info("function registry updated", "functions", table.Len(), "version", table.Version())
	e.observer.ObserveRegistrySwap(table.Version(), table.Len())
}

// Registry returns the engine's function registry. Registering on it is
// visible to evaluations that start afterwards.
func (e *Engine) Registry() *Registry { return e.registry }

// Functions returns the current function table.
func (e *Engine) Functions() *FunctionTable { return e.registry.Snapshot() }

// Config returns the engine configuration with defaults applied.
func (e *Engine) Config() Config { return e.config }

func (e *Engine) Tokenize(source string) ([]Token, error) {
	return Tokenize(source)
}

// Parse returns the syntax tree for source, consulting the parse cache.
func (e *Engine) Parse(source string) (Node, error) {
	start := time.Now()
	if node, ok := e.cache.get(source); ok {
		e.observer.ObserveParse(true, nil, time.Since(start))
		return node, nil
	}
	node, err := Parse(source)
	e.observer.ObserveParse(false, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	e.logger.Debug("expression parsed", "source", source, "cached", e.cache.len())
	e.cache.add(source, node)
	return node, nil
}

// CheckSyntax parses source and reports only the syntax error, if any.
func (e *Engine) CheckSyntax(source string) error {
	_, err := e.Parse(source)
	return err
}

// Evaluate evaluates expr against env. The environment is only modified by
// functions registered with CapMutatesEnv.
func (e *Engine) Evaluate(expr *Expression, env Env) (Value, error) {
	return e.EvaluateContext(context.Background(), expr, env)
}

// EvaluateContext is Evaluate with cancellation. A blank expression
// evaluates to true.
func (e *Engine) EvaluateContext(ctx context.Context, expr *Expression, env Env) (Value, error) {
	if expr == nil || isBlank(expr.Source()) {
		return NewBool(true), nil
	}
	node, err := expr.parse(e)
	if err != nil {
		return NewNull(), err
	}
	return e.EvaluateNode(ctx, node, expr.Source(), env)
}

// EvaluateString evaluates source directly.
func (e *Engine) EvaluateString(source string, env Env) (Value, error) {
	return e.EvaluateContext(context.Background(), NewExpression(source), env)
}

// EvaluateNode evaluates an already parsed tree. source is attached to
// errors for diagnostics.
func (e *Engine) EvaluateNode(ctx context.Context, node Node, source string, env Env) (Value, error) {
	start := time.Now()
	ev := &evaluation{
		ctx:    ctx,
		engine: e,
		source: source,
		env:    env,
		table:  e.registry.Snapshot(),
		budget: &budget{quota: max(e.config.StepQuota, 0)},
	}
	v, err := ev.eval(node)
	e.observer.ObserveEvaluation(err, ev.budget.steps, time.Since(start))
	if err != nil {
		e.logger.Debug("expression evaluation failed", "source", source, "kind", ErrorKind(err))
		return NewNull(), err
	}
	return v, nil
}

// isBlank reports whether source holds nothing but whitespace and an
// optional trailing `;`.
func isBlank(source string) bool {
	trimmed := strings.TrimSuffix(strings.TrimSpace(source), ";")
	return strings.TrimSpace(trimmed) == ""
}

var defaultEngine = sync.OnceValue(func() *Engine {
	return MustNewEngine(Config{})
})

// DefaultEngine returns the process-wide engine used by the package-level
// helpers.
func DefaultEngine() *Engine { return defaultEngine() }
