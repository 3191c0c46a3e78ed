package errors

import "fmt"

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// Wrap 携带上下文信息，保留 errors.Is 匹配能力
func (d Definition) Wrap(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", d, fmt.Sprintf(format, args...))
}

// 账号相关错误。
var (
	AccountsMalformed  = Definition{Code: "ACCOUNTS_MALFORMED", Message: "Accounts malformed"}
	LoginFailed        = Definition{Code: "LOGIN_FAILED", Message: "Login failed"}
	ProfileUnavailable = Definition{Code: "PROFILE_UNAVAILABLE", Message: "Profile unavailable"}
)

// 远端接口错误，均在客户端边界转换，不向上抛出 panic。
var (
	RemoteTransport = Definition{Code: "REMOTE_TRANSPORT", Message: "Remote transport failure"}
	RemoteRejected  = Definition{Code: "REMOTE_REJECTED", Message: "Remote rejected request"}
	RemoteMalformed = Definition{Code: "REMOTE_MALFORMED", Message: "Remote response malformed"}
)

// 本地存储错误，需要暴露给运维。
var (
	StoreCorrupt     = Definition{Code: "STORE_CORRUPT", Message: "Local store corrupt"}
	StoreWriteFailed = Definition{Code: "STORE_WRITE_FAILED", Message: "Local store write failed"}
)

// 通知模块错误。
var (
	NotifierUnsupported   = Definition{Code: "NOTIFIER_UNSUPPORTED", Message: "Notifier unsupported"}
	NotifierNotConfigured = Definition{Code: "NOTIFIER_NOT_CONFIGURED", Message: "Notifier not configured"}
	NotifyFailed          = Definition{Code: "NOTIFY_FAILED", Message: "Notify failed"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	AccountsMalformed.Code:     AccountsMalformed,
	LoginFailed.Code:           LoginFailed,
	ProfileUnavailable.Code:    ProfileUnavailable,
	RemoteTransport.Code:       RemoteTransport,
	RemoteRejected.Code:        RemoteRejected,
	RemoteMalformed.Code:       RemoteMalformed,
	StoreCorrupt.Code:          StoreCorrupt,
	StoreWriteFailed.Code:      StoreWriteFailed,
	NotifierUnsupported.Code:   NotifierUnsupported,
	NotifierNotConfigured.Code: NotifierNotConfigured,
	NotifyFailed.Code:          NotifyFailed,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// IsPersistence 判断是否为本地存储错误
func IsPersistence(err error) bool {
	return is(err, StoreCorrupt) || is(err, StoreWriteFailed)
}
