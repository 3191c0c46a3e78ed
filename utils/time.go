package utils

import (
	"time"
)

// 与 python datetime.isoformat() 输出一致：有微秒时固定 6 位，否则省略小数部分
const (
	ISOLayout       = "2006-01-02T15:04:05.000000-07:00"
	ISOLayoutNoFrac = "2006-01-02T15:04:05-07:00"
)

// Shanghai 固定 UTC+8，不依赖宿主机时区数据
var Shanghai = time.FixedZone("CST", 8*60*60)

// Now 返回 UTC+8 的当前时间，测试可替换
var Now = func() time.Time {
	return time.Now().In(Shanghai)
}

// ParseISOTime 解析带偏移的 ISO-8601 时间，兼容无小数秒与纳秒精度
func ParseISOTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(Shanghai), nil
}

func FormatISOTime(t time.Time) string {
	t = t.In(Shanghai)
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(ISOLayoutNoFrac)
	}
	return t.Format(ISOLayout)
}
