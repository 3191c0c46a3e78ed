package utils

import (
	"math/rand/v2"
	"time"
)

// RandomDuration 返回 [min, max) 区间内均匀分布的时长，max <= min 时直接返回 min
func RandomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)))
}

// RandomIntInclusive 返回 [min, max] 区间内的整数
func RandomIntInclusive(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.IntN(max-min+1)
}
