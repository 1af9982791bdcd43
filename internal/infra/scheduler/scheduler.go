package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"expiry_reminder_service/internal/infra/metrics"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PassRunner executes one scheduling pass; implemented by the
// notification service.
type PassRunner interface {
	RunPass(ctx context.Context) error
}

const (
	stateIdle int32 = iota
	stateRunning
)

// Driver triggers scheduling passes on a cron cadence. It holds an explicit
// Idle/Running state: a tick that arrives while a pass is still running is
// skipped outright, never queued, so no two passes ever overlap. The driver
// returns to Idle unconditionally — a pass that fails or panics must not
// leave it stuck in Running.
type Driver struct {
	cronEngine  *cron.Cron
	runner      PassRunner
	logger      *logrus.Logger
	metrics     *metrics.Metrics
	cronSpec    string
	passTimeout time.Duration
	state       atomic.Int32
}

func NewDriver(
	runner PassRunner,
	logger *logrus.Logger,
	m *metrics.Metrics,
	cronSpec string, // e.g. "@every 1m" or "*/5 * * * *"
	passTimeout time.Duration,
) *Driver {
	return &Driver{
		cronEngine:  cron.New(cron.WithLocation(time.UTC)),
		runner:      runner,
		logger:      logger,
		metrics:     m,
		cronSpec:    cronSpec,
		passTimeout: passTimeout,
	}
}

// Start registers the dispatch job and starts the cron engine.
func (d *Driver) Start() error {
	if _, err := d.cronEngine.AddFunc(d.cronSpec, d.Tick); err != nil {
		return err
	}
	d.cronEngine.Start()
	d.logger.WithField("cron_spec", d.cronSpec).Info("Scheduling driver started")
	return nil
}

// Tick attempts one Idle -> Running transition and runs a pass. Called by
// the cron engine; exported so tests can drive ticks directly.
func (d *Driver) Tick() {
	if !d.state.CompareAndSwap(stateIdle, stateRunning) {
		d.logger.Warn("Previous pass still running; skipping tick")
		d.metrics.PassesSkipped.Inc()
		return
	}
	defer d.state.Store(stateIdle)
	d.runPass()
}

func (d *Driver) runPass() {
	// A panic during a pass is a driver fault, not a crash: log it and let
	// the deferred state reset allow the next tick to proceed.
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithField("panic", r).Error("Scheduling pass panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.passTimeout)
	defer cancel()

	d.metrics.PassesRun.Inc()
	start := time.Now()
	if err := d.runner.RunPass(ctx); err != nil {
		d.logger.WithError(err).Error("Scheduling pass failed")
	}
	d.metrics.PassDuration.Observe(time.Since(start).Seconds())
}

// Stop halts the cron engine and waits for a running pass to drain.
func (d *Driver) Stop() {
	d.logger.Info("Stopping scheduling driver...")
	ctx := d.cronEngine.Stop() // No new ticks; running jobs keep going.
	<-ctx.Done()               // Wait for graceful shutdown
	d.logger.Info("Scheduling driver stopped")
}
