// api/db/redis.go
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/argus/api/logging"
	"github.com/dev-mohitbeniwal/argus/api/model"
)

var RedisClient *redis.Client

func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
		PoolTimeout:  viper.GetDuration("redis.poolTimeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

func CacheAudit(ctx context.Context, audit *model.Audit) error {
	auditJSON, err := json.Marshal(audit)
	if err != nil {
		return fmt.Errorf("failed to marshal audit: %w", err)
	}

	key := fmt.Sprintf("audit:%s", audit.Key())
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, auditJSON, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache audit: %w", err)
	}

	logger.Debug("Audit cached successfully", zap.String("auditKey", audit.Key().String()))
	return nil
}

func GetCachedAudit(ctx context.Context, auditKey model.AuditKey) (*model.Audit, error) {
	key := fmt.Sprintf("audit:%s", auditKey)
	auditJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Audit not found in cache", zap.String("auditKey", auditKey.String()))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get audit from cache: %w", err)
	}

	var audit model.Audit
	err = json.Unmarshal([]byte(auditJSON), &audit)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit: %w", err)
	}

	logger.Debug("Audit retrieved from cache", zap.String("auditKey", auditKey.String()))
	return &audit, nil
}

func DeleteCachedAudit(ctx context.Context, auditKey model.AuditKey) error {
	key := fmt.Sprintf("audit:%s", auditKey)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete audit from cache: %w", err)
	}
	logger.Debug("Audit deleted from cache", zap.String("auditKey", auditKey.String()))
	return nil
}

func CacheTicketStatus(ctx context.Context, ticketKey, status string) error {
	key := fmt.Sprintf("ticket:%s", ticketKey)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err := RedisClient.Set(ctx, key, status, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache ticket status: %w", err)
	}
	logger.Debug("Ticket status cached", zap.String("ticketKey", ticketKey), zap.String("status", status))
	return nil
}

func GetCachedTicketStatus(ctx context.Context, ticketKey string) (string, error) {
	key := fmt.Sprintf("ticket:%s", ticketKey)
	status, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("failed to get ticket status from cache: %w", err)
	}
	return status, nil
}

func RateLimit(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	pipe := RedisClient.Pipeline()
	now := time.Now().UnixNano()
	key = fmt.Sprintf("ratelimit:%s", key)

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now-(per.Nanoseconds())))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit commands: %w", err)
	}

	count := cmds[2].(*redis.IntCmd).Val()
	allowed := count <= int64(limit)
	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Int("limit", limit),
		zap.Bool("allowed", allowed))
	return allowed, nil
}

// LockAudit serializes conflicting operations on the same audit key across
// concurrent request handlers. Work on different keys proceeds independently.
func LockAudit(ctx context.Context, auditKey model.AuditKey, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:audit:%s", auditKey)
	locked, err := RedisClient.SetNX(ctx, key, "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	logger.Debug("Lock acquisition attempt",
		zap.String("auditKey", auditKey.String()),
		zap.Bool("locked", locked))
	return locked, nil
}

func UnlockAudit(ctx context.Context, auditKey model.AuditKey) error {
	key := fmt.Sprintf("lock:audit:%s", auditKey)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	logger.Debug("Lock released", zap.String("auditKey", auditKey.String()))
	return nil
}
