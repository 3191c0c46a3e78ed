package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"FloorSignin/pkg/logger"
	"FloorSignin/storage/redis"
)

// Close 关闭存储连接；文件后端每次写入已落盘，无需额外处理
func Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if !redis.Enabled() {
		return
	}

	if err := redis.Close(ctx); err != nil {
		logger.Logger.Error("Failed to close Redis connection", zap.Error(err))
	} else {
		logger.Logger.Info("Redis connection closed successfully")
	}
}
