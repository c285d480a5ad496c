// Package monitoring provides the batch memory watchdog and run
// progress snapshots for the status server.
package monitoring

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Watchdog periodically samples runtime memory stats and logs them.
// It observes only; long batches are expected to survive pressure by
// backpressure in the output writer, not by the watchdog killing work.
type Watchdog struct {
	interval time.Duration
	warnMB   uint64
}

// NewWatchdog creates a watchdog sampling at the given interval.
// warnMB is the heap size above which samples log at warn level;
// zero disables the elevated level.
func NewWatchdog(interval time.Duration, warnMB uint64) *Watchdog {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watchdog{interval: interval, warnMB: warnMB}
}

// Run samples until the context is cancelled.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w *Watchdog) sample() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	heapMB := ms.HeapAlloc / (1 << 20)
	fields := []zap.Field{
		zap.Uint64("heap_mb", heapMB),
		zap.Uint64("sys_mb", ms.Sys/(1<<20)),
		zap.Uint32("gc_cycles", ms.NumGC),
		zap.Int("goroutines", runtime.NumGoroutine()),
	}
	if w.warnMB > 0 && heapMB >= w.warnMB {
		zap.L().Warn("memory high", fields...)
		return
	}
	zap.L().Debug("memory sample", fields...)
}
