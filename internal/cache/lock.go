package cache

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"FloorSignin/storage/redis"
)

// 使用 redis 后端时，同一时刻只允许一轮批量签到，通过 SetNX 实现
const (
	lockPrefix = "lock"
)

// RunLock 基于 SetNX 的批次锁，owner 用于释放时校验
type RunLock struct {
	client *goredis.Client
	key    string
	owner  string
}

func NewRunLock(client *goredis.Client, name, owner string) *RunLock {
	return &RunLock{
		client: client,
		key:    redis.Key(lockPrefix, name),
		owner:  owner,
	}
}

func (l *RunLock) TryLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.owner, ttl).Result()
}

// 仅删除自己持有的锁
var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *RunLock) Unlock(ctx context.Context) error {
	return unlockScript.Run(ctx, l.client, []string{l.key}, l.owner).Err()
}
