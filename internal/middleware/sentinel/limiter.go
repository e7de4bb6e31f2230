package sentinel

import (
	"context"
	"fmt"
	"sync"
	"time"

	mycontext "github.com/ayxworxfr/scada_web/pkg/context"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/ayxworxfr/scada_web/pkg/metrics"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiterConfig 限流配置
type RateLimiterConfig struct {
	RefreshInterval time.Duration // 清理间隔
	ExpiryTime      time.Duration // 空闲多久后丢弃
}

// IPLimiter 每个客户端 IP 一个令牌桶
type IPLimiter struct {
	rps      rate.Limit
	burst    int
	cfg      RateLimiterConfig
	mu       sync.Mutex
	limiters map[string]*ipEntry
	now      func() time.Time
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPLimiter cfg 为 nil 时 10 分钟清理一次，空闲 30 分钟丢弃
func NewIPLimiter(rps, burst int, cfg *RateLimiterConfig) *IPLimiter {
	if cfg == nil {
		cfg = &RateLimiterConfig{
			RefreshInterval: 10 * time.Minute,
			ExpiryTime:      30 * time.Minute,
		}
	}
	return &IPLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		cfg:      *cfg,
		limiters: make(map[string]*ipEntry),
		now:      time.Now,
	}
}

// Allow 消耗 ip 的一个令牌
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	e, ok := l.limiters[ip]
	if !ok {
		e = &ipEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = e
	}
	now := l.now()
	e.lastSeen = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Cleanup 丢弃空闲过久的令牌桶，返回剩余数量
func (l *IPLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for ip, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.cfg.ExpiryTime {
			delete(l.limiters, ip)
		}
	}
	return len(l.limiters)
}

// Run 定期清理，ctx 取消后退出
func (l *IPLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// Middleware 超出配额返回 429
func (l *IPLimiter) Middleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		ip := c.ClientIP()
		if !l.Allow(ip) {
			path := string(c.Path())
			metrics.RequestsBlockedTotal.WithLabelValues("ip", path).Inc()
			logger.Warn(ctx, "Request blocked by rate limiter", zap.String("ip", ip), zap.String("path", path))
			abortTooMany(c)
			return
		}
		c.Next(ctx)
	}
}

// IPRateLimiterMiddleware 创建 IP 限流中间件并启动清理
func IPRateLimiterMiddleware(ctx context.Context, rps, burst int, cfg *RateLimiterConfig) app.HandlerFunc {
	l := NewIPLimiter(rps, burst, cfg)
	go l.Run(ctx)
	return l.Middleware()
}

// 令牌桶脚本，返回 1 表示放行
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local ttl = math.floor(capacity / rate * 2) + 1

local tokens = tonumber(redis.call('get', key))
if tokens == nil then
	tokens = capacity
end
local last = tonumber(redis.call('get', key .. ':ts'))
if last == nil then
	last = 0
end

local filled = math.min(capacity, tokens + math.max(0, now - last) * rate)
local allowed = 0
if filled >= requested then
	filled = filled - requested
	allowed = 1
end

redis.call('set', key, filled, 'EX', ttl)
redis.call('set', key .. ':ts', now, 'EX', ttl)
return allowed
`)

// RedisRateLimiter 多实例共享配额的令牌桶，会话存储为 redis 时使用
func RedisRateLimiter(client redis.UniversalClient, rps, burst int, keyPrefix string) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		ip := c.ClientIP()
		path := string(c.Path())
		key := fmt.Sprintf("%s:ratelimit:%s:%s", keyPrefix, ip, path)

		allowed, err := tokenBucketScript.Run(ctx, client, []string{key}, rps, burst, time.Now().Unix(), 1).Int()
		if err != nil {
			// redis 不可用时放行
			logger.Error(ctx, "Distributed rate limiting failed", zap.String("ip", ip), zap.Error(err))
			c.Next(ctx)
			return
		}
		if allowed == 0 {
			metrics.RequestsBlockedTotal.WithLabelValues("redis", path).Inc()
			logger.Warn(ctx, "Request blocked by distributed rate limiter", zap.String("ip", ip), zap.String("path", path))
			abortTooMany(c)
			return
		}
		c.Next(ctx)
	}
}

func abortTooMany(c *app.RequestContext) {
	c.AbortWithStatusJSON(consts.StatusTooManyRequests, mycontext.RateLimit("Too many requests, please try again later"))
}
