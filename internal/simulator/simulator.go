package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/dealersim/internal/config"
	"github.com/lox/dealersim/internal/dealer"
	"github.com/lox/dealersim/internal/deck"
	"github.com/lox/dealersim/internal/randutil"
)

// MinSnapshotInterval is the shortest spacing between two intermediate
// snapshots, whatever the configured interval says.
const MinSnapshotInterval = 500 * time.Millisecond

var errStopped = errors.New("stopped by user")

// Config holds everything a single run needs
type Config struct {
	Strategies         []int
	GamesPerStrategy   int
	NumDecks           int
	ReshuffleThreshold float64
	TargetDuration     time.Duration
	Seed               int64 // zero picks a time-based seed

	Snapshots        bool
	SnapshotInterval time.Duration // raised to MinSnapshotInterval when shorter
}

// ConfigFrom converts a resolved application config into a run config
func ConfigFrom(c *config.Config) Config {
	rt := c.Simulation.Realtime
	return Config{
		Strategies:         append([]int(nil), c.Simulation.Strategies...),
		GamesPerStrategy:   c.Simulation.GamesPerStrategy,
		NumDecks:           c.Game.Decks,
		ReshuffleThreshold: c.Game.ReshuffleThreshold,
		TargetDuration:     c.TargetDuration(),
		Seed:               c.Simulation.Seed,
		Snapshots:          rt.IsEnabled(),
		SnapshotInterval:   rt.Interval(c.TotalGames()),
	}
}

// Validate rejects run parameters the engine cannot honour
func (c Config) Validate() error {
	if len(c.Strategies) == 0 {
		return fmt.Errorf("%w: no strategies", config.ErrInvalid)
	}
	seen := make(map[int]bool, len(c.Strategies))
	for _, s := range c.Strategies {
		if err := dealer.ValidateStrategy(s); err != nil {
			return err
		}
		if seen[s] {
			return fmt.Errorf("%w: strategy %d listed twice", config.ErrInvalid, s)
		}
		seen[s] = true
	}
	if c.GamesPerStrategy <= 0 {
		return fmt.Errorf("%w: games per strategy must be positive, got %d", config.ErrInvalid, c.GamesPerStrategy)
	}
	if c.NumDecks <= 0 {
		return fmt.Errorf("%w: got %d", deck.ErrInvalidDeckCount, c.NumDecks)
	}
	if c.ReshuffleThreshold <= 0 || c.ReshuffleThreshold >= 1 {
		return fmt.Errorf("%w: reshuffle threshold must be in (0,1), got %v", config.ErrInvalid, c.ReshuffleThreshold)
	}
	if c.TargetDuration <= 0 {
		return fmt.Errorf("%w: target duration must be positive, got %v", config.ErrInvalid, c.TargetDuration)
	}
	return nil
}

func (c Config) snapshotGate() time.Duration {
	return max(MinSnapshotInterval, c.SnapshotInterval)
}

// Engine runs paced dealer simulations in the background
type Engine struct {
	logger *log.Logger
	clock  quartz.Clock
	play   func(*dealer.Policy, *deck.Deck) (dealer.Round, error)
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces the wall clock used for pacing and snapshot spacing
func WithClock(clock quartz.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// New creates an engine
func New(logger *log.Logger, opts ...Option) *Engine {
	e := &Engine{
		logger: logger.WithPrefix("simulator"),
		clock:  quartz.NewReal(),
		play:   (*dealer.Policy).PlayHand,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Status is how a run ended
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Outcome is the final state of a run, available once it is done
type Outcome struct {
	Status   Status
	Results  Results
	Failures map[int]error
	Err      error
}

// Run is a simulation in progress. Its event stream must be drained until
// it closes; the worker itself never waits on the consumer.
type Run struct {
	engine *Engine
	cfg    Config
	seed   int64
	box    *mailbox
	cancel context.CancelFunc
	done   chan struct{}

	outcome Outcome
}

// Start validates cfg and launches the run on its own goroutine. Invalid
// configuration is reported here, before anything is simulated.
func (e *Engine) Start(ctx context.Context, cfg Config) (*Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Strategies = append([]int(nil), cfg.Strategies...)

	ctx, cancel := context.WithCancel(ctx)
	r := &Run{
		engine:  e,
		cfg:     cfg,
		seed:    randutil.ResolveSeed(cfg.Seed),
		box:     newMailbox(),
		cancel:  cancel,
		done:    make(chan struct{}),
		outcome: Outcome{Status: StatusRunning},
	}

	e.logger.Info("Starting simulation",
		"strategies", cfg.Strategies,
		"games", cfg.GamesPerStrategy,
		"decks", cfg.NumDecks,
		"target", cfg.TargetDuration,
		"seed", r.seed)

	go r.execute(ctx)
	return r, nil
}

// Events returns the run's event stream. It closes after the terminal event.
func (r *Run) Events() <-chan Event {
	return r.box.out
}

// Cancel asks the run to stop. It takes effect at the next batch boundary or
// immediately while the worker is pacing. Safe to call more than once.
func (r *Run) Cancel() {
	r.cancel()
}

// Wait blocks until the worker finishes and returns the outcome
func (r *Run) Wait() Outcome {
	<-r.done
	return r.outcome
}

// Seed returns the seed actually used, after resolving zero
func (r *Run) Seed() int64 {
	return r.seed
}

// Config returns the configuration the run was started with
func (r *Run) Config() Config {
	return r.cfg
}

func (r *Run) execute(ctx context.Context) {
	defer close(r.done)
	defer r.box.close()
	defer r.cancel()

	e := r.engine
	started := e.clock.Now()
	n := len(r.cfg.Strategies)
	results := make(Results, n)
	failures := make(map[int]error)
	perStrategy := r.cfg.TargetDuration / time.Duration(n)
	stopped := false

	for i, strategy := range r.cfg.Strategies {
		if ctx.Err() != nil {
			stopped = true
			break
		}

		p := progressOf(i, n, 0, r.cfg.GamesPerStrategy)
		r.box.push(Progress{
			Percent:  p,
			Message:  fmt.Sprintf("Simulating strategy %d...", strategy),
			Strategy: strategy,
			Total:    r.cfg.GamesPerStrategy,
		})

		err := r.runStrategy(ctx, i, strategy, perStrategy, results)
		if errors.Is(err, errStopped) {
			stopped = true
			break
		}
		if err != nil {
			serr := &StrategyError{Strategy: strategy, Err: err}
			failures[strategy] = serr
			e.logger.Warn("Strategy failed", "strategy", strategy, "error", err)
			r.box.push(StrategyFailed{Strategy: strategy, Err: serr})
		}
	}

	elapsed := e.clock.Since(started)
	switch {
	case stopped:
		e.logger.Info("Simulation stopped by user", "elapsed", elapsed, "completed", results.Counts())
		r.outcome = Outcome{Status: StatusCancelled, Results: results, Failures: failures}
		r.box.push(Cancelled{Results: results})

	case len(failures) == n:
		errs := make([]error, 0, n)
		for _, s := range r.cfg.Strategies {
			errs = append(errs, failures[s])
		}
		err := fmt.Errorf("all strategies failed: %w", errors.Join(errs...))
		e.logger.Error("Simulation failed", "error", err)
		r.outcome = Outcome{Status: StatusFailed, Results: results, Failures: failures, Err: err}
		r.box.push(Failed{Results: results, Err: err})

	default:
		e.logger.Info("Simulation complete", "elapsed", elapsed, "target", r.cfg.TargetDuration)
		r.box.push(Progress{Percent: 100, Message: "All simulations complete", Total: r.cfg.GamesPerStrategy})
		r.outcome = Outcome{Status: StatusCompleted, Results: results, Failures: failures}
		r.box.push(Completed{Results: results, Failures: failures})
	}
}

// runStrategy plays every batch for one strategy, appending finished batches
// to results. A batch is recorded whole or not at all.
func (r *Run) runStrategy(ctx context.Context, index, strategy int, budget time.Duration, results Results) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	e := r.engine
	games := r.cfg.GamesPerStrategy

	policy, err := dealer.NewPolicy(strategy, r.cfg.ReshuffleThreshold)
	if err != nil {
		return err
	}
	shoe, err := deck.New(r.cfg.NumDecks, randutil.Stream(r.seed, index))
	if err != nil {
		return err
	}

	plan := planBatches(games)
	perBatch := budget / time.Duration(len(plan))
	results[strategy] = make([]dealer.Round, 0, games)

	started := e.clock.Now()
	lastSnapshot := started
	completed := 0

	for b, size := range plan {
		if ctx.Err() != nil {
			return errStopped
		}

		batchStart := e.clock.Now()
		batch := make([]dealer.Round, 0, size)
		for k := range size {
			round, err := e.play(policy, shoe)
			if err != nil {
				return fmt.Errorf("game %d: %w", completed+k+1, err)
			}
			round.Strategy = strategy
			round.GameIndex = completed + k + 1
			batch = append(batch, round)
		}
		results[strategy] = append(results[strategy], batch...)
		completed += size

		r.box.push(Progress{
			Percent:   progressOf(index, len(r.cfg.Strategies), completed, games),
			Message:   fmt.Sprintf("Strategy %d: completed %d/%d", strategy, completed, games),
			Strategy:  strategy,
			Completed: completed,
			Total:     games,
		})

		if r.cfg.Snapshots && e.clock.Since(lastSnapshot) >= r.cfg.snapshotGate() {
			r.box.push(Snapshot{Results: results.Clone(), Strategy: strategy})
			lastSnapshot = e.clock.Now()
		}

		if b < len(plan)-1 {
			if wait := perBatch - e.clock.Since(batchStart); wait > 0 {
				e.logger.Debug("Pacing", "strategy", strategy, "batch", b+1, "wait", wait)
				r.sleep(ctx, wait)
			}
		}
	}

	if r.cfg.Snapshots {
		r.box.push(Snapshot{Results: results.Clone(), Strategy: strategy, Final: true})
	}

	e.logger.Info("Strategy complete",
		"strategy", strategy,
		"games", completed,
		"batches", len(plan),
		"decks", shoe.NumDecks(),
		"elapsed", e.clock.Since(started),
		"budget", budget)
	return nil
}

// sleep waits for d or until ctx is cancelled, whichever comes first
func (r *Run) sleep(ctx context.Context, d time.Duration) {
	t := r.engine.clock.NewTimer(d, "simulator", "pace")
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// progressOf weights each strategy equally: strategy i of n owns the span
// [i/n, (i+1)/n) of the bar.
func progressOf(i, n, completed, games int) int {
	span := 100 / float64(n)
	return int(float64(i)*span + float64(completed)/float64(games)*span)
}
