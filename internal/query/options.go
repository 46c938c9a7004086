package query

// Option configures one Satisfy run.
type Option func(*runConfig)

type runConfig struct {
	maxSteps int
	tracer   Tracer
	tokens   TokenGenerator
	clock    *Clock
}

// WithMaxSteps bounds the number of candidates a run may try. Zero, the
// default, means unlimited.
func WithMaxSteps(n int) Option {
	return func(c *runConfig) { c.maxSteps = n }
}

// WithTracer attaches a tracer to the run.
func WithTracer(t Tracer) Option {
	return func(c *runConfig) { c.tracer = t }
}

// WithTokens overrides the run token generator. Tests pass a
// FixedGenerator for deterministic trace output.
func WithTokens(g TokenGenerator) Option {
	return func(c *runConfig) { c.tokens = g }
}

// WithClock overrides the trace clock, for appending to an existing trace.
func WithClock(c *Clock) Option {
	return func(rc *runConfig) { rc.clock = c }
}

// run is the per-Satisfy state shared by every component search: the step
// budget, the trace clock, and the run token. Components never get their
// own run; a budget spans the whole query.
type run struct {
	budget *StepBudget
	clock  *Clock
	tracer Tracer
	token  string
}

func newRun(opts []Option) *run {
	cfg := runConfig{
		tokens: UUIDv7Generator{},
		clock:  NewClock(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &run{
		budget: NewStepBudget(cfg.maxSteps),
		clock:  cfg.clock,
		tracer: cfg.tracer,
		token:  cfg.tokens.Generate(),
	}
}

// step charges the budget for one candidate.
func (r *run) step() error {
	return r.budget.Check(r.token)
}

// trace stamps and emits one event. No-op without a tracer, and the clock
// does not advance, so untraced runs stay cheap.
func (r *run) trace(ev TraceEvent) {
	if r.tracer == nil {
		return
	}
	ev.Seq = r.clock.Next()
	ev.Token = r.token
	r.tracer.Trace(ev)
}
