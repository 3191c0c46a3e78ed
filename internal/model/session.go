package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// SessionToken 登录后获得的令牌，ExpiresAt 之前可跳过登录
type SessionToken struct {
	AuthKey   string
	UserID    string
	ExpiresAt time.Time
}

// Valid 判断令牌在 now 时刻是否仍可使用
func (t *SessionToken) Valid(now time.Time) bool {
	return t != nil && now.Before(t.ExpiresAt)
}

// FlexString 兼容远端和历史缓存中数字或字符串两种形式的 ID
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// MarshalJSON 规范十进制整数按数字输出，与原有缓存文件格式保持一致
// "007"、"+5" 这类写法不是合法的 JSON 数字，仍按字符串输出
func (f FlexString) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(f), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(f) {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}
