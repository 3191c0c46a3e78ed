package model

import (
	"strings"

	"FloorSignin/pkg/errors"
)

// Account 单个签到账号，运行期间不可变
type Account struct {
	Identifier string
	Secret     string
}

// ParseAccounts 解析 "email:password,email:password" 格式的账号列表
// 账号之间用逗号分隔，账号与密码之间取第一个冒号分隔，空项忽略
func ParseAccounts(raw string) ([]Account, error) {
	accounts := make([]Account, 0)
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		id, secret, ok := strings.Cut(item, ":")
		if !ok || id == "" {
			return nil, errors.AccountsMalformed.Wrap("entry %d has no identifier:secret pair", len(accounts)+1)
		}
		accounts = append(accounts, Account{Identifier: id, Secret: secret})
	}
	return accounts, nil
}
