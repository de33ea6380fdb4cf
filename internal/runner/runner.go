package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/studiowebux/stampede/internal/actor"
	"github.com/studiowebux/stampede/internal/client"
	"github.com/studiowebux/stampede/internal/stats"
	"github.com/studiowebux/stampede/internal/store"
	"github.com/studiowebux/stampede/internal/types"
)

// ProfileSpec pairs an actor profile with the number of simulated users to
// spawn for it.
type ProfileSpec struct {
	Profile *actor.Profile
	Users   int
}

// Config is the runtime configuration for a load test run.
type Config struct {
	Scenario       string // display name for the run record
	Host           string
	Profiles       []ProfileSpec
	SpawnRate      float64       // users started per second
	Duration       time.Duration // 0 = until stopped
	Iterations     int           // per-user task iterations; 0 = unlimited
	Seed           int64         // 0 = time-based seeding
	RequestTimeout time.Duration
	TLS            *types.TLSConfig
	Logger         *slog.Logger
}

// Validate validates the run configuration.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.SpawnRate <= 0 {
		return fmt.Errorf("spawn rate must be greater than 0")
	}
	total := 0
	for _, spec := range c.Profiles {
		if spec.Users < 0 {
			return fmt.Errorf("profile %q: users cannot be negative", spec.Profile.Name)
		}
		total += spec.Users
	}
	if total == 0 {
		return fmt.Errorf("at least one profile must have users > 0")
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration cannot be negative")
	}
	if c.Iterations < 0 {
		return fmt.Errorf("iterations cannot be negative")
	}
	return nil
}

// TotalUsers returns the total number of simulated users.
func (c *Config) TotalUsers() int {
	total := 0
	for _, spec := range c.Profiles {
		total += spec.Users
	}
	return total
}

// Runner spawns and drives the simulated users of one load test run.
type Runner struct {
	cfg         Config
	client      *client.Client
	store       *store.Store // nil disables persistence
	run         *store.Run
	stats       *stats.Stats
	statsMu     sync.Mutex
	ctx         context.Context
	cancelFunc  context.CancelFunc
	wg          sync.WaitGroup
	resultChan  chan *types.RequestResult
	closeOnce   sync.Once // Ensures resultChan is only closed once
	collectDone chan struct{}
	testStart   time.Time
	activeUsers int32
	metricsBuf  []*store.Metric
	bufferSize  int
	log         *slog.Logger
}

// New creates a runner for the given configuration. A nil store disables
// persistence; results are then only aggregated in memory.
func New(cfg Config, st *store.Store) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	// One pooled HTTP client shared by every simulated user
	c, err := client.New(client.Options{
		Host:           cfg.Host,
		RequestTimeout: cfg.RequestTimeout,
		MaxConns:       cfg.TotalUsers(),
		TLS:            cfg.TLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	run := &store.Run{
		Scenario:   cfg.Scenario,
		Host:       cfg.Host,
		Seed:       cfg.Seed,
		TotalUsers: cfg.TotalUsers(),
		StartedAt:  time.Now(),
		Status:     "running",
	}
	if st != nil {
		if err := st.CreateRun(run); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create run record: %w", err)
		}
	}

	total := cfg.TotalUsers()
	return &Runner{
		cfg:         cfg,
		client:      c,
		store:       st,
		run:         run,
		stats:       stats.New(),
		ctx:         ctx,
		cancelFunc:  cancel,
		resultChan:  make(chan *types.RequestResult, total*2),
		collectDone: make(chan struct{}),
		metricsBuf:  make([]*store.Metric, 0, 100),
		bufferSize:  100,
		log:         log,
	}, nil
}

// Start begins spawning users and collecting results. Every user slot is
// registered with the WaitGroup up front, so Wait and Stop cannot observe a
// zero counter while the spawner is still ramping up.
func (r *Runner) Start() {
	r.testStart = time.Now()

	r.wg.Add(r.cfg.TotalUsers())
	go r.collectResults()
	go r.spawnUsers()

	if r.cfg.Duration > 0 {
		go r.durationTimer(r.cfg.Duration)
	}
}

// durationTimer cancels the run after the configured duration
func (r *Runner) durationTimer(duration time.Duration) {
	select {
	case <-time.After(duration):
		// Duration elapsed, stop the run
		r.cancelFunc()
	case <-r.ctx.Done():
		// Run already cancelled/completed
		return
	}
}

// spawnUsers starts user goroutines at the configured spawn rate. Slots were
// registered in Start; users skipped on cancellation release theirs here.
func (r *Runner) spawnUsers() {
	interval := time.Duration(float64(time.Second) / r.cfg.SpawnRate)
	total := r.cfg.TotalUsers()
	idx := 0

	defer func() {
		for ; idx < total; idx++ {
			r.wg.Done()
		}
	}()

	for _, spec := range r.cfg.Profiles {
		for u := 0; u < spec.Users; u++ {
			select {
			case <-r.ctx.Done():
				return
			default:
			}

			go r.user(spec.Profile, idx)
			idx++

			if idx < total {
				select {
				case <-r.ctx.Done():
					return
				case <-time.After(interval):
				}
			}
		}
	}

	r.log.Info("all users spawned", "users", idx)
}

// user is one isolated simulated-user loop: authenticate once, then pick a
// weighted task, execute it, sleep a random interval, repeat. No failure is
// fatal; the loop runs until cancelled or the iteration cap is reached.
func (r *Runner) user(p *actor.Profile, idx int) {
	defer r.wg.Done()

	atomic.AddInt32(&r.activeUsers, 1)
	defer atomic.AddInt32(&r.activeUsers, -1)

	// Per-user PRNG: a fixed scenario seed makes every user's task
	// sequence reproducible across runs.
	seed := r.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sess := actor.NewSession(seed + int64(idx)*7919)

	if result := p.Login(r.ctx, r.client, sess); result != nil {
		if result.AuthFailure {
			r.log.Warn("authentication failed, continuing on placeholder token",
				"profile", p.Name, "user", sess.UserID[:8], "detail", result.Message)
		}
		r.emit(result)
	}

	for i := 0; r.cfg.Iterations == 0 || i < r.cfg.Iterations; i++ {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		task := p.Pick(sess.Rng)
		if result := p.Execute(r.ctx, r.client, task, sess); result != nil {
			r.emit(result)
		}

		wait := p.Wait(sess.Rng)
		if wait > 0 {
			select {
			case <-r.ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
}

// emit sends a result to the collector unless the run is shutting down.
// The channel is only closed after cancellation, so the done check must win
// before the send is attempted.
func (r *Runner) emit(result *types.RequestResult) {
	select {
	case <-r.ctx.Done():
		return
	default:
	}
	select {
	case <-r.ctx.Done():
	case r.resultChan <- result:
	}
}

// collectResults aggregates results into stats and buffers metrics for
// batched persistence.
func (r *Runner) collectResults() {
	defer close(r.collectDone)

	for result := range r.resultChan {
		r.statsMu.Lock()
		r.stats.Add(result)
		r.statsMu.Unlock()

		if r.store == nil {
			continue
		}

		metric := &store.Metric{
			RunID:          r.run.ID,
			Timestamp:      result.Timestamp,
			ElapsedMs:      result.Timestamp.Sub(r.testStart).Milliseconds(),
			Profile:        result.Profile,
			Task:           result.Task,
			Endpoint:       result.Endpoint,
			StatusCode:     result.Status,
			DurationMs:     result.DurationMs,
			RequestSize:    result.RequestSize,
			ResponseSize:   result.ResponseSize,
			FailureMessage: result.Message,
		}
		r.metricsBuf = append(r.metricsBuf, metric)

		// Flush buffer if full
		if len(r.metricsBuf) >= r.bufferSize {
			r.flushMetrics()
		}
	}

	// Flush any remaining metrics
	r.flushMetrics()
}

// flushMetrics writes buffered metrics to the store
func (r *Runner) flushMetrics() {
	if r.store == nil || len(r.metricsBuf) == 0 {
		return
	}

	if err := r.store.SaveMetricsBatch(r.metricsBuf); err != nil {
		// Log error but don't stop execution
		r.log.Error("failed to save metrics", "error", err)
	}

	r.metricsBuf = r.metricsBuf[:0]
}

// closeResultChan safely closes the result channel (only once)
func (r *Runner) closeResultChan() {
	r.closeOnce.Do(func() {
		close(r.resultChan)
	})
}

// Stop cancels the run and waits for users to drain.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.closeResultChan()
	<-r.collectDone
	r.finalize("cancelled")
}

// StopWithContext cancels the run with a cleanup deadline.
// Returns an error if users don't drain within the context deadline.
func (r *Runner) StopWithContext(ctx context.Context) error {
	r.cancelFunc()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.closeResultChan()
		<-r.collectDone
		r.finalize("cancelled")
		return nil
	case <-ctx.Done():
		// Deadline hit - still close channels to prevent leaks
		r.closeResultChan()
		r.finalize("cancelled (timeout)")
		return ctx.Err()
	}
}

// Wait blocks until every user loop has returned, then finalizes the run.
func (r *Runner) Wait() error {
	r.wg.Wait()

	// Natural completion (iteration cap) and duration expiry both count
	// as "completed"; anything else that cancelled the context is a stop.
	// The status must be read before the context is released below.
	status := "completed"
	select {
	case <-r.ctx.Done():
		elapsed := time.Since(r.testStart)
		if r.cfg.Duration > 0 && elapsed >= r.cfg.Duration {
			status = "completed"
		} else {
			status = "cancelled"
		}
	default:
	}

	// Release the context so the duration timer does not outlive the run.
	r.cancelFunc()
	r.closeResultChan()
	<-r.collectDone

	r.finalize(status)
	return nil
}

// Cancel requests cancellation without waiting for drain.
func (r *Runner) Cancel() {
	r.cancelFunc()
}

// GetStats returns a snapshot of the current statistics (thread-safe)
func (r *Runner) GetStats() *stats.Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	snapshot := r.stats.Clone()
	snapshot.ActiveUsers = int(atomic.LoadInt32(&r.activeUsers))
	return snapshot
}

// GetRun returns the current run record
func (r *Runner) GetRun() *store.Run {
	return r.run
}

// Elapsed returns the time since the run started.
func (r *Runner) Elapsed() time.Duration {
	if r.testStart.IsZero() {
		return 0
	}
	return time.Since(r.testStart)
}

// finalize completes the run record with final statistics
func (r *Runner) finalize(status string) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	now := time.Now()
	r.run.CompletedAt = &now
	r.run.Status = status
	r.run.TotalRequests = r.stats.CompletedRequests
	r.run.TotalSuccess = r.stats.SuccessCount
	r.run.TotalFailures = r.stats.FailureCount
	r.run.AuthFailures = r.stats.AuthFailures
	r.run.AvgDurationMs = r.stats.AvgDurationMs()
	r.run.MinDurationMs = r.stats.Min()
	r.run.MaxDurationMs = r.stats.Max()
	r.run.P50DurationMs = r.stats.P50()
	r.run.P95DurationMs = r.stats.P95()
	r.run.P99DurationMs = r.stats.P99()

	if r.store != nil {
		if err := r.store.UpdateRun(r.run); err != nil {
			r.log.Error("failed to update run record", "error", err)
		}
	}
}
