package timing

import (
	"sync"
	"time"

	"dualview/internal/logger"
)

// Tracker records how long named operations take and reports a summary on
// shutdown.
type Tracker struct {
	timings map[string][]time.Duration
	mu      sync.RWMutex
	logger  logger.Logger
	now     func() time.Time
}

func NewTracker(log logger.Logger) *Tracker {
	return &Tracker{
		timings: make(map[string][]time.Duration),
		logger:  log,
		now:     time.Now,
	}
}

// Start begins timing operation. Calling the returned func records the
// elapsed time; later calls are ignored.
func (t *Tracker) Start(operation string) func() {
	start := t.now()
	var once sync.Once
	return func() {
		once.Do(func() {
			d := t.now().Sub(start)

			t.mu.Lock()
			t.timings[operation] = append(t.timings[operation], d)
			t.mu.Unlock()

			t.logger.Debug("Timing", "operation completed", map[string]interface{}{
				"operation":   operation,
				"duration_ms": d.Milliseconds(),
			})
		})
	}
}

func (t *Tracker) Timings(operation string) []time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	timings := t.timings[operation]
	if timings == nil {
		return nil
	}
	result := make([]time.Duration, len(timings))
	copy(result, timings)
	return result
}

func (t *Tracker) Average(operation string) time.Duration {
	timings := t.Timings(operation)
	if len(timings) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range timings {
		total += d
	}
	return total / time.Duration(len(timings))
}

// Shutdown logs one line per recorded operation.
func (t *Tracker) Shutdown() {
	t.mu.RLock()
	ops := make([]string, 0, len(t.timings))
	for op := range t.timings {
		ops = append(ops, op)
	}
	t.mu.RUnlock()

	for _, op := range ops {
		t.logger.Info("Timing", "operation summary", map[string]interface{}{
			"operation":  op,
			"count":      len(t.Timings(op)),
			"average_ms": t.Average(op).Milliseconds(),
		})
	}
}
