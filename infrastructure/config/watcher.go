package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	domaincfg "sage-backend/domain/config"
)

// DomainOverrides is the YAML shape of the tuning overrides file. Every field
// is optional; absent fields keep their environment defaults.
type DomainOverrides struct {
	SignificanceThreshold   *float64 `yaml:"significanceThreshold"`
	DefaultTransmissionRate *float64 `yaml:"defaultTransmissionRate"`
	DefaultDecayRate        *float64 `yaml:"defaultDecayRate"`
	StressAlertThreshold    *float64 `yaml:"stressAlertThreshold"`
	IsolationAlertThreshold *float64 `yaml:"isolationAlertThreshold"`
	MoodTrendThreshold      *float64 `yaml:"moodTrendThreshold"`
	VolatilityThreshold     *float64 `yaml:"volatilityThreshold"`
	CommunityIdleTTLHours   *int     `yaml:"communityIdleTTLHours"`
}

// OverridesWatcher hot-reloads domain tuning overrides from a YAML file.
// Each reload builds a fresh config from the base environment defaults and
// hands it to the registered callbacks; the config shared with running
// services is never written to, so readers need no synchronization with the
// watcher. Delivery to live communities goes through the registry, which
// installs the snapshot under each community's own lock.
type OverridesWatcher struct {
	path      string
	base      domaincfg.DomainConfig
	callbacks []func(*domaincfg.DomainConfig)
	mu        sync.Mutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewOverridesWatcher creates a watcher for the overrides file, keeping a
// private copy of the base config to rebuild snapshots from. Register
// callbacks with OnChange before calling Start.
func NewOverridesWatcher(path string, base *domaincfg.DomainConfig, logger *zap.Logger) *OverridesWatcher {
	if base == nil {
		base = domaincfg.DefaultDomainConfig()
	}
	return &OverridesWatcher{
		path:   path,
		base:   *base,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Start performs the initial load, notifies the callbacks, and begins
// watching the file. A missing or empty path disables watching; the returned
// watcher is still safe to Stop.
func (w *OverridesWatcher) Start() error {
	if w.path == "" {
		w.logger.Info("domain overrides file not configured, hot reload disabled")
		return nil
	}

	if err := w.reload(); err != nil {
		return fmt.Errorf("failed to load domain overrides: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(w.path); err != nil {
		fsWatcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.watcher = fsWatcher

	go w.watchLoop()
	w.logger.Info("domain overrides hot reload enabled", zap.String("file", w.path))

	return nil
}

// OnChange registers a callback invoked with the fresh config snapshot after
// each successful reload
func (w *OverridesWatcher) OnChange(callback func(*domaincfg.DomainConfig)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// Stop stops the watcher goroutine
func (w *OverridesWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

func (w *OverridesWatcher) watchLoop() {
	// Debounce so editors that write-then-rename don't trigger double reloads
	var debounce *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				if err := w.reload(); err != nil {
					w.logger.Error("failed to reload domain overrides", zap.Error(err))
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("overrides watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

// reload parses the overrides file, applies it to a copy of the base config
// and notifies the callbacks. Always rebuilding from the base is what makes
// removing an override from the file revert the field.
func (w *OverridesWatcher) reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}

	var overrides DomainOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse %s: %w", w.path, err)
	}

	next := w.base
	applied := applyOverrides(&next, &overrides)
	if len(applied) > 0 {
		w.logger.Info("applied domain overrides", zap.Strings("fields", applied))
	}
	w.notify(&next)
	return nil
}

func (w *OverridesWatcher) notify(cfg *domaincfg.DomainConfig) {
	w.mu.Lock()
	callbacks := make([]func(*domaincfg.DomainConfig), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

// applyOverrides copies non-nil override fields onto the config snapshot and
// reports which fields changed.
func applyOverrides(cfg *domaincfg.DomainConfig, o *DomainOverrides) []string {
	applied := make([]string, 0)

	setFloat := func(name string, dst *float64, src *float64) {
		if src != nil && *dst != *src {
			*dst = *src
			applied = append(applied, name)
		}
	}

	setFloat("significanceThreshold", &cfg.SignificanceThreshold, o.SignificanceThreshold)
	setFloat("defaultTransmissionRate", &cfg.DefaultTransmissionRate, o.DefaultTransmissionRate)
	setFloat("defaultDecayRate", &cfg.DefaultDecayRate, o.DefaultDecayRate)
	setFloat("stressAlertThreshold", &cfg.StressAlertThreshold, o.StressAlertThreshold)
	setFloat("isolationAlertThreshold", &cfg.IsolationAlertThreshold, o.IsolationAlertThreshold)
	setFloat("moodTrendThreshold", &cfg.MoodTrendThreshold, o.MoodTrendThreshold)
	setFloat("volatilityThreshold", &cfg.VolatilityThreshold, o.VolatilityThreshold)

	if o.CommunityIdleTTLHours != nil {
		ttl := time.Duration(*o.CommunityIdleTTLHours) * time.Hour
		if ttl > 0 && cfg.CommunityIdleTTL != ttl {
			cfg.CommunityIdleTTL = ttl
			applied = append(applied, "communityIdleTTLHours")
		}
	}

	return applied
}
