package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"FloorSignin/config"
)

const defaultPrefix = "floor"

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// Options 连接参数，Service 用于 span 命名
type Options struct {
	Addr     string
	Password string
	DB       int
	Service  string
}

// NewClient 创建带追踪 hook 的客户端并 Ping 一次
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
		PoolSize:     4, // 单进程顺序执行，连接不需要多
	})
	cli.AddHook(NewTracingHook(opts.Service, opts.DB))

	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return cli, nil
}

// Init 仅在 STORE_BACKEND=redis 时调用
func Init() error {
	once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, initErr = NewClient(ctx, Options{
			Addr:     config.Cfg.RedisAddr,
			Password: config.Cfg.RedisPassword,
			DB:       config.Cfg.RedisDB,
			Service:  config.Cfg.ServiceName,
		})
	})

	return initErr
}

func Client() *redis.Client {
	if client == nil {
		panic("Redis client not init")
	}
	return client
}

func Enabled() bool {
	return client != nil
}

func Close(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// Key 拼接带前缀的键名，空段忽略：Key("session", acct) -> floor:session:acct
func Key(parts ...string) string {
	prefix := config.Cfg.RedisPrefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, prefix)
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return strings.Join(segments, ":")
}
