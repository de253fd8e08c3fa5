package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamRateLimiter limita la frecuencia de envíos de chat por usuario.
type StreamRateLimiter interface {
	Allow(key string) bool
}

type streamRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	counts map[string]windowCount
}

type windowCount struct {
	resetAt time.Time
	n       int
}

// NewStreamRateLimiter crea un rate limiter en memoria.
func NewStreamRateLimiter(window time.Duration, max int) StreamRateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &streamRateLimiter{
		window: window,
		max:    max,
		counts: make(map[string]windowCount),
	}
}

func (l *streamRateLimiter) Allow(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	c, ok := l.counts[key]
	if !ok || now.After(c.resetAt) {
		l.counts[key] = windowCount{resetAt: now.Add(l.window), n: 1}
		return true
	}
	c.n++
	l.counts[key] = c
	return c.n <= l.max
}

const redisStreamAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisStreamRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

// NewRedisStreamRateLimiter crea un rate limiter respaldado en Redis, para
// despliegues con más de una réplica del servidor.
func NewRedisStreamRateLimiter(client *redis.Client, window time.Duration, max int) StreamRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisStreamRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "chat:rl:",
	}
}

func (l *redisStreamRateLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisStreamAllowScript, []string{l.prefix + key}, seconds).Int()
	if err != nil {
		// Redis caído no debe cortar el chat; se degrada a permitir.
		return true
	}
	return count <= l.max
}
