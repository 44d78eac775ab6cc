package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jafrulamin/Class-Connect/config"
	pkgerrors "github.com/jafrulamin/Class-Connect/pkg/errors"
)

// Client Redis 客户端封装
// 用于 Token 黑名单、滑动窗口限流，以及本地存储（按课程分键的 JSON 集合）
type Client struct {
	rdb       *goredis.Client
	txRetries int
	logger    *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	retries := cfg.TxRetries
	if retries <= 0 {
		retries = 5
	}
	return &Client{rdb: rdb, txRetries: retries, logger: logger}, nil
}

// ── Token 黑名单 ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken 将 JWT ID 加入黑名单，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Token 已过期，无需加入黑名单
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── 滑动窗口限流 ──

// CheckRateLimit 记录一次请求并判断窗口内是否仍在 limit 之内
// 使用 ZSET：score 为毫秒时间戳，先清理窗口外的记录再计数
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixMilli()
	windowStart := now - window.Milliseconds()

	var card *goredis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
		pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now), Member: uuid.New().String()})
		card = pipe.ZCard(ctx, key)
		pipe.PExpire(ctx, key, window)
		return nil
	})
	if err != nil {
		return false, err
	}

	return card.Val() <= int64(limit), nil
}

// PeekRateLimit 只读查询：窗口内记录数是否仍小于 limit，不写入新记录
func (c *Client) PeekRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	windowStart := time.Now().UnixMilli() - window.Milliseconds()
	n, err := c.rdb.ZCount(ctx, key, "("+strconv.FormatInt(windowStart, 10), "+inf").Result()
	if err != nil {
		return false, err
	}
	return n < int64(limit), nil
}

// ResetRateLimit 清空某个限流键（如登录成功后清空失败计数）
func (c *Client) ResetRateLimit(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// ── KV：本地存储后端 ──

// Get 读取键值；键不存在时返回 nil, nil
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	return b, err
}

// Update 以 WATCH/MULTI 乐观事务执行读改写
// fn 收到当前值（不存在时为 nil），返回新值；返回 nil 表示删除该键。
// 事务冲突时重试，超过重试预算返回 ErrOptimisticLock。
func (c *Client) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	txf := func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if errors.Is(err, goredis.Nil) {
			current = nil
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			if next == nil {
				pipe.Del(ctx, key)
			} else {
				pipe.Set(ctx, key, next, 0)
			}
			return nil
		})
		return err
	}

	for i := 0; i < c.txRetries; i++ {
		err := c.rdb.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			c.logger.Debug("Redis 乐观事务冲突，重试", zap.String("key", key), zap.Int("attempt", i+1))
			continue
		}
		return err
	}

	c.logger.Warn("Redis 乐观事务重试耗尽", zap.String("key", key), zap.Int("retries", c.txRetries))
	return pkgerrors.ErrOptimisticLock
}

// Delete 删除一个或多个键
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
