package storage

import (
	"FloorSignin/config"
	"FloorSignin/storage/redis"
)

// 统一 init storage 层，文件后端无需初始化

func Init() error {
	if config.Cfg.UseRedis() {
		if err := redis.Init(); err != nil {
			return err
		}
	}

	return nil
}
