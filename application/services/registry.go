package services

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"sage-backend/domain/config"
	"sage-backend/domain/core/aggregates"
)

// communityEntry pairs one community's state with its lock. The lock is the
// community's unit of mutual exclusion: every mutation of mood history,
// memory graph, wellness profiles or contagion model runs under it.
type communityEntry struct {
	mu    sync.Mutex
	state *aggregates.CommunityState
}

// registryShard holds a slice of the community map under its own lock so
// unrelated communities never contend on a single map mutex.
type registryShard struct {
	mu      sync.Mutex
	entries map[string]*communityEntry
}

// CommunityRegistry is the bounded in-process store of per-community state:
// a sharded map with idle-TTL eviction, replacing unbounded tuple-keyed maps
// so memory stays bounded with many communities over a long run.
type CommunityRegistry struct {
	// cfg is swapped atomically on override reload; resident states pick the
	// new config up under their own locks in ApplyConfig
	cfg    atomic.Pointer[config.DomainConfig]
	shards []*registryShard
	logger *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewCommunityRegistry creates a registry and starts its eviction janitor
func NewCommunityRegistry(cfg *config.DomainConfig, logger *zap.Logger) *CommunityRegistry {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	count := cfg.RegistryShardCount
	if count <= 0 {
		count = 16
	}
	shards := make([]*registryShard, count)
	for i := range shards {
		shards[i] = &registryShard{entries: map[string]*communityEntry{}}
	}

	r := &CommunityRegistry{
		shards: shards,
		logger: logger,
		stop:   make(chan struct{}),
	}
	r.cfg.Store(cfg)
	go r.janitor()
	return r
}

// ApplyConfig installs new domain tunables: communities created from now on
// use them, and every resident community picks them up under its own lock.
// This is the delivery path for hot-reloaded overrides.
func (r *CommunityRegistry) ApplyConfig(cfg *config.DomainConfig) {
	if cfg == nil {
		return
	}
	r.cfg.Store(cfg)

	updated := 0
	for _, shard := range r.shards {
		shard.mu.Lock()
		for _, entry := range shard.entries {
			entry.mu.Lock()
			entry.state.SetConfig(cfg)
			entry.mu.Unlock()
			updated++
		}
		shard.mu.Unlock()
	}
	r.logger.Info("applied domain config", zap.Int("communities", updated))
}

// WithCommunity runs fn with exclusive access to the community's state,
// creating the state lazily on first use. fn must not call back into the
// registry for another community; cross-community reads go through Snapshot.
func (r *CommunityRegistry) WithCommunity(communityID string, fn func(state *aggregates.CommunityState) error) error {
	entry := r.entry(communityID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.state.Touch()
	return fn(entry.state)
}

// Snapshot runs fn under the community lock for read-only aggregation. The
// caller must copy out what it needs; retaining references after return races
// with writers.
func (r *CommunityRegistry) Snapshot(communityID string, fn func(state *aggregates.CommunityState)) {
	entry := r.entry(communityID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	fn(entry.state)
}

// CommunityIDs lists the communities currently resident in the registry
func (r *CommunityRegistry) CommunityIDs() []string {
	ids := make([]string, 0)
	for _, shard := range r.shards {
		shard.mu.Lock()
		for id := range shard.entries {
			ids = append(ids, id)
		}
		shard.mu.Unlock()
	}
	return ids
}

// Close stops the eviction janitor
func (r *CommunityRegistry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *CommunityRegistry) entry(communityID string) *communityEntry {
	shard := r.shards[r.shardIndex(communityID)]

	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, ok := shard.entries[communityID]
	if !ok {
		entry = &communityEntry{state: aggregates.NewCommunityState(communityID, r.cfg.Load())}
		shard.entries[communityID] = entry
	}
	return entry
}

func (r *CommunityRegistry) shardIndex(communityID string) int {
	h := fnv.New32a()
	h.Write([]byte(communityID))
	return int(h.Sum32() % uint32(len(r.shards)))
}

// janitor periodically evicts communities idle past the TTL
func (r *CommunityRegistry) janitor() {
	interval := r.cfg.Load().CommunityIdleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.evictIdle(time.Now())
		}
	}
}

func (r *CommunityRegistry) evictIdle(now time.Time) {
	cutoff := now.Add(-r.cfg.Load().CommunityIdleTTL)
	evicted := 0

	for _, shard := range r.shards {
		shard.mu.Lock()
		for id, entry := range shard.entries {
			// TryLock skips communities mid-operation; they are not idle.
			if !entry.mu.TryLock() {
				continue
			}
			idle := entry.state.LastTouched().Before(cutoff)
			entry.mu.Unlock()
			if idle {
				delete(shard.entries, id)
				evicted++
			}
		}
		shard.mu.Unlock()
	}

	if evicted > 0 {
		r.logger.Debug("evicted idle community state", zap.Int("count", evicted))
	}
}
