package service

import (
	"context"
	"time"

	"FloorSignin/utils"
)

// Pacer 两次操作之间的等待，控制对远端的请求频率
type Pacer interface {
	Wait(ctx context.Context) error
}

// RandomPacer 每次等待 [Min, Max) 内的随机时长，阻塞直到结束或 ctx 取消
type RandomPacer struct {
	Min, Max time.Duration
}

func NewRandomPacer(min, max time.Duration) *RandomPacer {
	return &RandomPacer{Min: min, Max: max}
}

func (p *RandomPacer) Wait(ctx context.Context) error {
	d := utils.RandomDuration(p.Min, p.Max)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
