package auth

import (
	"errors"
	"fmt"
)

// ErrUnauthorized 所有令牌校验失败的根错误
var ErrUnauthorized = errors.New("unauthorized")

var (
	ErrTokenInvalid = fmt.Errorf("%w: token invalid", ErrUnauthorized)
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrTokenRevoked = fmt.Errorf("%w: token revoked", ErrUnauthorized)
)
