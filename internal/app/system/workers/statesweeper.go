// internal/app/system/workers/statesweeper.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Evictor drops state idle longer than threshold and reports how many
// entries went. *appstate.Registry implements it.
type Evictor interface {
	EvictIdle(now time.Time, threshold time.Duration) int
}

// StateSweeper is a background worker that evicts idle per-browser state.
type StateSweeper struct {
	target        Evictor
	log           *zap.Logger
	interval      time.Duration
	idleThreshold time.Duration
	now           func() time.Time
	stopCh        chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// NewStateSweeper creates a new sweeper.
//
// Parameters:
//   - target: what to sweep (the controller registry)
//   - logger: zap logger for logging
//   - interval: how often to sweep (e.g., 1 minute)
//   - idleThreshold: how long state must be untouched before eviction (e.g., 30 minutes)
func NewStateSweeper(target Evictor, logger *zap.Logger, interval, idleThreshold time.Duration) *StateSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateSweeper{
		target:        target,
		log:           logger,
		interval:      interval,
		idleThreshold: idleThreshold,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *StateSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("state sweeper started",
		zap.Duration("interval", w.interval),
		zap.Duration("idle_threshold", w.idleThreshold))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *StateSweeper) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("state sweeper stopped")
}

// Sweep runs one pass immediately.
func (w *StateSweeper) Sweep() int {
	count := w.target.EvictIdle(w.now(), w.idleThreshold)
	if count > 0 {
		w.log.Info("evicted idle browser state", zap.Int("count", count))
	}
	return count
}

func (w *StateSweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}
