package engine

import (
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
)

// JobMap resolves engine job ids to backtest ids. Entries expire after
// the configured TTL; a successful resolution consumes the entry so
// each mapping is used at most once.
type JobMap struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewJobMap creates a job map whose entries live for ttl.
func NewJobMap(ttl time.Duration) *JobMap {
	return &JobMap{
		cache: cache.New(ttl, ttl/2),
		ttl:   ttl,
	}
}

// Register records a jobID -> backtestID mapping when a run is started.
func (m *JobMap) Register(jobID string, backtestID uuid.UUID) {
	m.cache.Set(jobID, backtestID, m.ttl)
}

// Resolve returns the backtest id for a job id and clears the mapping.
func (m *JobMap) Resolve(jobID string) (uuid.UUID, bool) {
	v, found := m.cache.Get(jobID)
	if !found {
		return uuid.Nil, false
	}
	m.cache.Delete(jobID)

	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return id, true
}

// Len returns the number of live mappings, expired entries included
// until the next sweep.
func (m *JobMap) Len() int {
	return m.cache.ItemCount()
}
