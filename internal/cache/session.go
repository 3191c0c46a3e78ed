package cache

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"FloorSignin/internal/model"
	"FloorSignin/pkg/errors"
	"FloorSignin/pkg/logger"
	"FloorSignin/storage/file"
	"FloorSignin/storage/redis"
	"FloorSignin/utils"
)

const (
	sessionPrefix = "session"

	// DefaultSessionValidity 短于远端真实有效期，宁可多登录几次也不用失效令牌
	DefaultSessionValidity = 60 * time.Minute
)

// SessionStore 账号令牌缓存
type SessionStore interface {
	// Load 不存在、已过期或过期时间无法解析时返回 nil, nil
	Load(ctx context.Context, accountID string) (*model.SessionToken, error)
	// Save 覆盖写入，过期时间 = 当前时间 + validity
	Save(ctx context.Context, accountID, authKey, userID string, validity time.Duration) (*model.SessionToken, error)
}

// sessionRecord 与 session.json 中的字段保持一致
// expire_time 保留原始 JSON，单条记录格式错误不影响整张表的读取
type sessionRecord struct {
	AuthKey    string           `json:"_key"`
	UserID     model.FlexString `json:"user_id"`
	ExpireTime json.RawMessage  `json:"expire_time"`
}

func newSessionRecord(authKey, userID string, expiresAt time.Time) sessionRecord {
	expire, _ := json.Marshal(utils.FormatISOTime(expiresAt))
	return sessionRecord{
		AuthKey:    authKey,
		UserID:     model.FlexString(userID),
		ExpireTime: expire,
	}
}

// token 解析记录并判断是否过期，解析失败按未命中处理
func (r sessionRecord) token(accountID string, now time.Time) *model.SessionToken {
	var raw string
	err := json.Unmarshal(r.ExpireTime, &raw)
	var expiresAt time.Time
	if err == nil {
		expiresAt, err = utils.ParseISOTime(raw)
	}
	if err != nil {
		logger.Logger.Warn("Failed to parse cached session expire time",
			zap.String("account", accountID),
			zap.ByteString("expire_time", r.ExpireTime),
			zap.Error(err),
		)
		return nil
	}

	t := &model.SessionToken{
		AuthKey:   r.AuthKey,
		UserID:    string(r.UserID),
		ExpiresAt: expiresAt,
	}
	if !t.Valid(now) {
		logger.Logger.Debug("Cached session expired",
			zap.String("account", accountID),
			zap.Time("expires_at", expiresAt),
		)
		return nil
	}
	return t
}

// FileSessionStore 对应 session.json，每次 Load 都重新读取文件
type FileSessionStore struct {
	table *file.Table[sessionRecord]
	now   func() time.Time
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{
		table: file.NewTable[sessionRecord](path),
		now:   utils.Now,
	}
}

func (s *FileSessionStore) Load(ctx context.Context, accountID string) (*model.SessionToken, error) {
	rec, ok, err := s.table.Get(accountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return rec.token(accountID, s.now()), nil
}

func (s *FileSessionStore) Save(ctx context.Context, accountID, authKey, userID string, validity time.Duration) (*model.SessionToken, error) {
	expiresAt := s.now().Add(validity).Truncate(time.Microsecond)
	if err := s.table.Put(accountID, newSessionRecord(authKey, userID, expiresAt)); err != nil {
		return nil, err
	}

	return &model.SessionToken{AuthKey: authKey, UserID: userID, ExpiresAt: expiresAt}, nil
}

// RedisSessionStore 令牌以 JSON 存储，TTL 与有效期一致
// redis 不可用时读取按未命中处理，由熔断器限制重试频率
type RedisSessionStore struct {
	client  *goredis.Client
	breaker *CircuitBreaker
	now     func() time.Time
}

func NewRedisSessionStore(client *goredis.Client, breaker *CircuitBreaker) *RedisSessionStore {
	if breaker == nil {
		breaker = SessionBreaker
	}
	return &RedisSessionStore{
		client:  client,
		breaker: breaker,
		now:     utils.Now,
	}
}

func (s *RedisSessionStore) Load(ctx context.Context, accountID string) (*model.SessionToken, error) {
	var data []byte
	err := s.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		data, err = s.client.Get(ctx, redis.Key(sessionPrefix, accountID)).Bytes()
		if err == goredis.Nil {
			data = nil
			return nil
		}
		return err
	})
	if err != nil {
		logger.Logger.Warn("Session cache unavailable, falling back to login",
			zap.String("account", accountID),
			zap.Error(err),
		)
		return nil, nil
	}
	if data == nil {
		return nil, nil
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.Logger.Warn("Failed to decode cached session",
			zap.String("account", accountID),
			zap.Error(err),
		)
		return nil, nil
	}
	return rec.token(accountID, s.now()), nil
}

func (s *RedisSessionStore) Save(ctx context.Context, accountID, authKey, userID string, validity time.Duration) (*model.SessionToken, error) {
	expiresAt := s.now().Add(validity).Truncate(time.Microsecond)
	data, err := json.Marshal(newSessionRecord(authKey, userID, expiresAt))
	if err != nil {
		return nil, errors.StoreWriteFailed.Wrap("encode session %s: %v", accountID, err)
	}

	err = s.breaker.Call(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, redis.Key(sessionPrefix, accountID), data, validity).Err()
	})
	if err != nil {
		return nil, errors.StoreWriteFailed.Wrap("redis set session %s: %v", accountID, err)
	}

	return &model.SessionToken{AuthKey: authKey, UserID: userID, ExpiresAt: expiresAt}, nil
}
