package store

import (
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/okravets/shepard/internal/model"
)

// NodeCache fronts the durable store with an in-memory layer and serializes
// writes per opinion id. Concurrent workers that reach the same opinion share
// one analysis instead of double-spending an external call.
type NodeCache struct {
	store  *Store
	memory *gocache.Cache
	group  singleflight.Group
}

// NewNodeCache creates a node cache over the given store
func NewNodeCache(store *Store, memoryTTL time.Duration) *NodeCache {
	return &NodeCache{
		store:  store,
		memory: gocache.New(memoryTTL, 10*time.Minute),
	}
}

// Get returns the latest assessment for an opinion if one exists
func (c *NodeCache) Get(opinionID string) (*model.NodeAssessment, bool) {
	if val, found := c.memory.Get(opinionID); found {
		return val.(*model.NodeAssessment), true
	}
	a, err := c.store.GetAssessment(opinionID)
	if err != nil {
		return nil, false
	}
	c.memory.SetDefault(opinionID, a)
	return a, true
}

// Put writes a new assessment version through to the store
func (c *NodeCache) Put(a *model.NodeAssessment) error {
	if err := c.store.PutAssessment(a); err != nil {
		return err
	}
	c.memory.SetDefault(a.OpinionID, a)
	return nil
}

// GetOrAnalyze returns the cached assessment for an opinion, or claims the id
// and runs analyze exactly once across concurrent callers. The bool reports
// whether the result came from cache.
func (c *NodeCache) GetOrAnalyze(opinionID string, analyze func() (*model.NodeAssessment, error)) (*model.NodeAssessment, bool, error) {
	if a, found := c.Get(opinionID); found {
		return a, true, nil
	}

	hit := true
	val, err, _ := c.group.Do(opinionID, func() (interface{}, error) {
		// Another caller may have finished between the lookup and the claim
		if a, found := c.Get(opinionID); found {
			return a, nil
		}
		hit = false
		a, err := analyze()
		if err != nil {
			return nil, err
		}
		if err := c.Put(a); err != nil {
			return nil, err
		}
		return a, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*model.NodeAssessment), hit, nil
}

// Invalidate drops the memory entry for an opinion so the next read goes to
// the store. Used when a forced refresh writes a new version elsewhere.
func (c *NodeCache) Invalidate(opinionID string) {
	c.memory.Delete(opinionID)
}

// IsNotFound reports whether an error is the store's missing-key error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
