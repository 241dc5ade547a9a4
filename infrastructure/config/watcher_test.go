package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domaincfg "sage-backend/domain/config"
)

func writeOverridesFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestWatcherDeliversSnapshotsWithoutMutatingBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	writeOverridesFile(t, path, "significanceThreshold: 0.9\ndefaultDecayRate: 0.25\n")

	base := domaincfg.DefaultDomainConfig()
	watcher := NewOverridesWatcher(path, base, zap.NewNop())

	var got *domaincfg.DomainConfig
	watcher.OnChange(func(cfg *domaincfg.DomainConfig) { got = cfg })
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	require.NotNil(t, got)
	assert.Equal(t, 0.9, got.SignificanceThreshold)
	assert.Equal(t, 0.25, got.DefaultDecayRate)
	assert.NotSame(t, base, got)

	// The config shared with running services is never written to; reloads
	// only ever hand out fresh snapshots
	defaults := domaincfg.DefaultDomainConfig()
	assert.Equal(t, defaults.SignificanceThreshold, base.SignificanceThreshold)
	assert.Equal(t, defaults.DefaultDecayRate, base.DefaultDecayRate)
}

func TestWatcherReloadsOnFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	writeOverridesFile(t, path, "stressAlertThreshold: 0.8\n")

	watcher := NewOverridesWatcher(path, domaincfg.DefaultDomainConfig(), zap.NewNop())

	updates := make(chan *domaincfg.DomainConfig, 4)
	watcher.OnChange(func(cfg *domaincfg.DomainConfig) { updates <- cfg })
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	first := <-updates
	assert.Equal(t, 0.8, first.StressAlertThreshold)

	writeOverridesFile(t, path, "stressAlertThreshold: 0.55\n")

	select {
	case next := <-updates:
		assert.Equal(t, 0.55, next.StressAlertThreshold)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after overrides file change")
	}
}

func TestWatcherDisabledWithoutPath(t *testing.T) {
	watcher := NewOverridesWatcher("", domaincfg.DefaultDomainConfig(), zap.NewNop())
	require.NoError(t, watcher.Start())
	watcher.Stop()
}

func TestWatcherRejectsMalformedOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	writeOverridesFile(t, path, "significanceThreshold: [not, a, number]\n")

	watcher := NewOverridesWatcher(path, domaincfg.DefaultDomainConfig(), zap.NewNop())
	assert.Error(t, watcher.Start())
}

func TestApplyOverridesReportsChangedFields(t *testing.T) {
	cfg := domaincfg.DefaultDomainConfig()
	threshold := 0.9
	hours := 12

	applied := applyOverrides(cfg, &DomainOverrides{
		SignificanceThreshold: &threshold,
		CommunityIdleTTLHours: &hours,
	})

	assert.ElementsMatch(t, []string{"significanceThreshold", "communityIdleTTLHours"}, applied)
	assert.Equal(t, 0.9, cfg.SignificanceThreshold)
	assert.Equal(t, 12*time.Hour, cfg.CommunityIdleTTL)

	// Re-applying identical overrides is a no-op
	assert.Empty(t, applyOverrides(cfg, &DomainOverrides{
		SignificanceThreshold: &threshold,
		CommunityIdleTTLHours: &hours,
	}))
}
