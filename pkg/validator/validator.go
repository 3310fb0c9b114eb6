package validator

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const passwordSpecials = "@$!%*?&"

// PasswordRuleMessage 密码规则说明，直接返回给调用方
const PasswordRuleMessage = "password must be 8-72 characters with at least one uppercase letter and one of @$!%*?&, using only letters, digits and @$!%*?&"

var (
	std     = validator.New()
	regOnce sync.Once
	regErr  error
)

func init() {
	_ = std.RegisterValidation("password", passwordRule)
}

// Register 把自定义规则注册到 gin 的 binding 校验器，可重复调用
func Register() error {
	regOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		regErr = v.RegisterValidation("password", passwordRule)
	})
	return regErr
}

func passwordRule(fl validator.FieldLevel) bool {
	return Password(fl.Field().String())
}

// Password 长度 8-72，至少一个大写字母和一个特殊字符，只允许字母、数字和 @$!%*?&
func Password(s string) bool {
	if len(s) < 8 || len(s) > 72 {
		return false
	}
	var upper, special bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return upper && special
}

// Email 校验邮箱格式与长度
func Email(s string) error {
	return std.Var(s, "required,email,max=200")
}
