package scheduler

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"expiry_reminder_service/internal/infra/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingRunner lets a test hold a pass open and observe invocations.
type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	runs    atomic.Int32
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (r *blockingRunner) RunPass(ctx context.Context) error {
	r.runs.Add(1)
	r.started <- struct{}{}
	select {
	case <-r.release:
	case <-ctx.Done():
	}
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestDriver(runner PassRunner) *Driver {
	return NewDriver(runner, quietLogger(), metrics.New(prometheus.NewRegistry()), "@every 1h", time.Minute)
}

func TestTick_OverlappingTickIsSkippedEntirely(t *testing.T) {
	runner := newBlockingRunner()
	driver := newTestDriver(runner)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		driver.Tick()
	}()
	<-runner.started // First pass is now running

	// Second tick arrives while the first pass holds the Running state.
	driver.Tick()
	assert.Equal(t, int32(1), runner.runs.Load(), "overlapping tick must not start a second pass")

	close(runner.release)
	wg.Wait()
}

func TestTick_DriverReturnsToIdleAfterPass(t *testing.T) {
	runner := newBlockingRunner()
	close(runner.release) // Passes complete immediately
	driver := newTestDriver(runner)

	driver.Tick()
	<-runner.started
	driver.Tick()
	<-runner.started

	assert.Equal(t, int32(2), runner.runs.Load())
}

type panickingRunner struct {
	calls atomic.Int32
}

func (r *panickingRunner) RunPass(ctx context.Context) error {
	r.calls.Add(1)
	panic("unexpected fault during pass")
}

func TestTick_PanicInPassDoesNotStickTheDriverInRunning(t *testing.T) {
	runner := new(panickingRunner)
	driver := newTestDriver(runner)

	require.NotPanics(t, func() { driver.Tick() })
	// The driver must be Idle again: the next tick runs a fresh pass.
	require.NotPanics(t, func() { driver.Tick() })
	assert.Equal(t, int32(2), runner.calls.Load())
}

type erroringRunner struct {
	calls atomic.Int32
}

func (r *erroringRunner) RunPass(ctx context.Context) error {
	r.calls.Add(1)
	return context.DeadlineExceeded
}

func TestTick_PassErrorIsLoggedAndTickingContinues(t *testing.T) {
	runner := new(erroringRunner)
	driver := newTestDriver(runner)

	driver.Tick()
	driver.Tick()

	assert.Equal(t, int32(2), runner.calls.Load())
}
