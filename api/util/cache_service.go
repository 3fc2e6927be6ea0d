// api/util/cache_service.go

package util

import (
	"context"
	"time"

	"github.com/dev-mohitbeniwal/argus/api/db"
	"github.com/dev-mohitbeniwal/argus/api/model"
)

type CacheService struct{}

func NewCacheService() *CacheService {
	return &CacheService{}
}

func (c *CacheService) GetAudit(ctx context.Context, key model.AuditKey) (*model.Audit, error) {
	return db.GetCachedAudit(ctx, key)
}

func (c *CacheService) SetAudit(ctx context.Context, audit model.Audit) error {
	return db.CacheAudit(ctx, &audit)
}

func (c *CacheService) DeleteAudit(ctx context.Context, key model.AuditKey) error {
	return db.DeleteCachedAudit(ctx, key)
}

func (c *CacheService) GetTicketStatus(ctx context.Context, ticketKey string) (string, error) {
	return db.GetCachedTicketStatus(ctx, ticketKey)
}

func (c *CacheService) SetTicketStatus(ctx context.Context, ticketKey, status string) error {
	return db.CacheTicketStatus(ctx, ticketKey, status)
}

func (c *CacheService) LockAudit(ctx context.Context, key model.AuditKey, ttl time.Duration) (bool, error) {
	return db.LockAudit(ctx, key, ttl)
}

func (c *CacheService) UnlockAudit(ctx context.Context, key model.AuditKey) error {
	return db.UnlockAudit(ctx, key)
}
