package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"

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
	devicePrefix = "device"

	deviceCodeMin = 111
	deviceCodeMax = 987
)

// DeviceStore 账号与设备标识的对应关系，一经生成不再变化
type DeviceStore interface {
	// Get 不存在时返回 nil, nil
	Get(ctx context.Context, accountID string) (*model.DeviceFingerprint, error)
	// GetOrCreate 不存在时生成并立即落盘，created 表示本次新生成
	GetOrCreate(ctx context.Context, accountID string) (fp *model.DeviceFingerprint, created bool, err error)
}

// NewFingerprint 随机生成设备标识，数字段取值 [111, 987]
func NewFingerprint() *model.DeviceFingerprint {
	n := utils.RandomIntInclusive(deviceCodeMin, deviceCodeMax)
	return &model.DeviceFingerprint{
		DeviceCode: fmt.Sprintf("%%5Bd%%5D5125c3c6-f%d-4c6b-81cf-9bc467522d61", n),
		BrandTag:   model.Brands[rand.IntN(len(model.Brands))],
	}
}

// FileDeviceStore 对应 hlxconfig.json，新增记录时整体回写
type FileDeviceStore struct {
	table    *file.Table[model.DeviceFingerprint]
	generate func() *model.DeviceFingerprint
}

func NewFileDeviceStore(path string) *FileDeviceStore {
	return &FileDeviceStore{
		table:    file.NewTable[model.DeviceFingerprint](path),
		generate: NewFingerprint,
	}
}

func (s *FileDeviceStore) Get(ctx context.Context, accountID string) (*model.DeviceFingerprint, error) {
	fp, ok, err := s.table.Get(accountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &fp, nil
}

func (s *FileDeviceStore) GetOrCreate(ctx context.Context, accountID string) (*model.DeviceFingerprint, bool, error) {
	fp, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, false, err
	}
	if fp != nil {
		return fp, false, nil
	}

	fp = s.generate()
	if err := s.table.Put(accountID, *fp); err != nil {
		return nil, false, err
	}

	logger.Logger.Info("Device fingerprint created",
		zap.String("account", accountID),
		zap.String("device_code", fp.DeviceCode),
		zap.String("brand", string(fp.BrandTag)),
		zap.String("store", s.table.String()),
	)
	return fp, true, nil
}

// RedisDeviceStore 每个账号一个 key，不设过期时间
type RedisDeviceStore struct {
	client   *goredis.Client
	generate func() *model.DeviceFingerprint
}

func NewRedisDeviceStore(client *goredis.Client) *RedisDeviceStore {
	return &RedisDeviceStore{
		client:   client,
		generate: NewFingerprint,
	}
}

func (s *RedisDeviceStore) Get(ctx context.Context, accountID string) (*model.DeviceFingerprint, error) {
	data, err := s.client.Get(ctx, redis.Key(devicePrefix, accountID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.StoreCorrupt.Wrap("redis get device %s: %v", accountID, err)
	}

	var fp model.DeviceFingerprint
	if err := json.Unmarshal(data, &fp); err != nil {
		return nil, errors.StoreCorrupt.Wrap("decode device %s: %v", accountID, err)
	}
	return &fp, nil
}

func (s *RedisDeviceStore) GetOrCreate(ctx context.Context, accountID string) (*model.DeviceFingerprint, bool, error) {
	fp, err := s.Get(ctx, accountID)
	if err != nil || fp != nil {
		return fp, false, err
	}

	fp = s.generate()
	data, err := json.Marshal(fp)
	if err != nil {
		return nil, false, errors.StoreWriteFailed.Wrap("encode device %s: %v", accountID, err)
	}

	// SETNX 保证并发首次生成时只有一份生效
	created, err := s.client.SetNX(ctx, redis.Key(devicePrefix, accountID), data, 0).Result()
	if err != nil {
		return nil, false, errors.StoreWriteFailed.Wrap("redis set device %s: %v", accountID, err)
	}
	if !created {
		fp, err = s.Get(ctx, accountID)
		return fp, false, err
	}

	logger.Logger.Info("Device fingerprint created",
		zap.String("account", accountID),
		zap.String("device_code", fp.DeviceCode),
		zap.String("brand", string(fp.BrandTag)),
		zap.String("store", "redis"),
	)
	return fp, true, nil
}
