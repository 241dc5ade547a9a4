package extensions

import (
	"context"
	"fmt"
	"sync"
)

// HookPoint names a place in the pipeline where observers can attach
type HookPoint string

const (
	HookEventProcessed    HookPoint = "event_processed"
	HookMoodShifted       HookPoint = "mood_shifted"
	HookMemoryFormed      HookPoint = "memory_formed"
	HookAlertRaised       HookPoint = "alert_raised"
	HookPredictionEmitted HookPoint = "prediction_emitted"
)

// Hook observes data flowing past a hook point. Hooks must not retain or
// mutate the payload.
type Hook func(ctx context.Context, data interface{}) error

// HookManager holds the registered hooks per point. Registration happens at
// startup; execution is concurrent with the pipeline.
type HookManager struct {
	mu    sync.RWMutex
	hooks map[HookPoint][]Hook
}

// NewHookManager creates an empty hook manager
func NewHookManager() *HookManager {
	return &HookManager{hooks: make(map[HookPoint][]Hook)}
}

// Register attaches a hook to a point
func (m *HookManager) Register(point HookPoint, hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[point] = append(m.hooks[point], hook)
}

// Execute runs all hooks for a point in registration order, stopping at the
// first failure.
func (m *HookManager) Execute(ctx context.Context, point HookPoint, data interface{}) error {
	m.mu.RLock()
	hooks := m.hooks[point]
	m.mu.RUnlock()

	for i, hook := range hooks {
		if err := hook(ctx, data); err != nil {
			return fmt.Errorf("hook %d at %s failed: %w", i, point, err)
		}
	}
	return nil
}

// ExecuteAsync runs all hooks for a point without waiting; errors are
// discarded. The pipeline uses this so observers never add latency.
func (m *HookManager) ExecuteAsync(ctx context.Context, point HookPoint, data interface{}) {
	m.mu.RLock()
	hooks := m.hooks[point]
	m.mu.RUnlock()

	for _, hook := range hooks {
		go func(h Hook) {
			_ = h(ctx, data)
		}(hook)
	}
}

// Clear removes all hooks for a point
func (m *HookManager) Clear(point HookPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hooks, point)
}
