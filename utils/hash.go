package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// MD5Hex 返回小写十六进制 md5 摘要，远端登录接口要求密码以此形式提交
func MD5Hex(text string) string {
	sum := md5.Sum([]byte(text))

	return hex.EncodeToString(sum[:])
}
