package errors

import stderrors "errors"

func is(err error, target error) bool {
	return stderrors.Is(err, target)
}

// Is 透传标准库 errors.Is，避免调用方同时引入两个 errors 包
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
