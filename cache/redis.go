package cache

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Cache operations must give up well before a backend query would.
const DefaultTimeout = 2 * time.Second

type RedisOptions struct {
	Host     string
	Port     int
	Password string
	DB       int
	Timeout  time.Duration
}

// Provider backed by a shared Redis server, so that all instances
// of the service see the same entries.
type RedisProvider struct {
	client  *redis.Client
	timeout time.Duration
	logger  *log.Logger
}

func NewRedisProvider(opts RedisOptions, logger *log.Logger) *RedisProvider {
	timeout := opts.Timeout
	if timeout <= 0 || timeout > DefaultTimeout {
		timeout = DefaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   -1,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	return NewRedisProviderFromClient(client, timeout, logger)
}

// Wraps an existing client. Mostly useful in tests.
func NewRedisProviderFromClient(client *redis.Client, timeout time.Duration, logger *log.Logger) *RedisProvider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RedisProvider{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

func (p *RedisProvider) Get(ctx context.Context, key string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	val, err := p.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		p.fail("get", key, err)
		return "", false
	}

	return val, true
}

func (p *RedisProvider) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if ttl < 0 {
		ttl = 0
	}

	err := p.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		p.fail("set", key, err)
	}
}

func (p *RedisProvider) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (p *RedisProvider) Close() error {
	return p.client.Close()
}

func (p *RedisProvider) fail(op string, key string, err error) {
	errorCount.With(prometheus.Labels{"op": op}).Inc()
	p.logger.Printf("cache %s %s: %v: %v", op, key, ErrUnavailable, err)
}
