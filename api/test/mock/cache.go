// test/mock/cache.go
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/dev-mohitbeniwal/argus/api/model"
)

// FakeAuditCache is an in-memory stand-in for the Redis-backed cache and
// per-audit lock. The lock is a real mutex-guarded set, so lock contention
// behaves like the production SetNX path.
type FakeAuditCache struct {
	mu     sync.Mutex
	audits map[model.AuditKey]model.Audit
	locks  map[model.AuditKey]bool
}

func NewFakeAuditCache() *FakeAuditCache {
	return &FakeAuditCache{
		audits: make(map[model.AuditKey]model.Audit),
		locks:  make(map[model.AuditKey]bool),
	}
}

func (f *FakeAuditCache) GetAudit(ctx context.Context, key model.AuditKey) (*model.Audit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if audit, ok := f.audits[key]; ok {
		return &audit, nil
	}
	return nil, nil
}

func (f *FakeAuditCache) SetAudit(ctx context.Context, audit model.Audit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits[audit.Key()] = audit
	return nil
}

func (f *FakeAuditCache) DeleteAudit(ctx context.Context, key model.AuditKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.audits, key)
	return nil
}

func (f *FakeAuditCache) LockAudit(ctx context.Context, key model.AuditKey, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locks[key] {
		return false, nil
	}
	f.locks[key] = true
	return true, nil
}

func (f *FakeAuditCache) UnlockAudit(ctx context.Context, key model.AuditKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locks, key)
	return nil
}

// FakeNotifier records lifecycle notifications for assertions.
type FakeNotifier struct {
	mu      sync.Mutex
	Changes []string
}

func (f *FakeNotifier) NotifyAuditChange(ctx context.Context, changeType string, audit model.Audit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Changes = append(f.Changes, changeType)
	return nil
}
