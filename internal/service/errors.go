package service

import (
	"errors"

	"github.com/d60-Lab/postjournal/internal/auth"
)

// 业务层错误，handler 通过 errors.Is 映射 HTTP 状态码
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = auth.ErrUnauthorized
	ErrForbidden    = errors.New("forbidden")
	ErrPersistence  = errors.New("persistence failure")
)
