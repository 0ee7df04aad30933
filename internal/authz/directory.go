package authz

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CachedRoleDirectory memoizes RolesOf results for the lifetime of one
// request. List pages filter many records owned by few users; caching keeps
// the owner role lookup at one store round trip per owner. Build a fresh
// instance per request so permission changes are picked up on the next one.
type CachedRoleDirectory struct {
	inner RoleDirectory
	group singleflight.Group

	mu    sync.RWMutex
	cache map[int64][]int64
}

// NewCachedRoleDirectory wraps a RoleDirectory with request-scoped caching.
func NewCachedRoleDirectory(inner RoleDirectory) *CachedRoleDirectory {
	return &CachedRoleDirectory{inner: inner, cache: make(map[int64][]int64)}
}

// RolesOf returns the user's active role IDs, consulting the store at most
// once per user even under concurrent callers.
func (d *CachedRoleDirectory) RolesOf(ctx context.Context, userID int64) ([]int64, error) {
	d.mu.RLock()
	roles, ok := d.cache[userID]
	d.mu.RUnlock()
	if ok {
		return roles, nil
	}

	ch := d.group.DoChan(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		fetched, err := d.inner.RolesOf(ctx, userID)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.cache[userID] = fetched
		d.mu.Unlock()
		return fetched, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]int64), nil
	}
}

var _ RoleDirectory = (*CachedRoleDirectory)(nil)

// EvaluatorFactory hands out request-scoped Evaluators over one shared
// RoleDirectory. Every New call wraps the directory in a fresh
// CachedRoleDirectory, so a role revocation is visible on the next request
// while a single list-page filter still hits the store once per owner.
type EvaluatorFactory struct {
	directory RoleDirectory
}

// NewEvaluatorFactory constructs an EvaluatorFactory.
func NewEvaluatorFactory(directory RoleDirectory) *EvaluatorFactory {
	return &EvaluatorFactory{directory: directory}
}

// New returns an Evaluator with its own empty role cache.
func (f *EvaluatorFactory) New() *Evaluator {
	return NewEvaluator(NewCachedRoleDirectory(f.directory))
}
