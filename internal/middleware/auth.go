package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/postjournal/internal/auth"
	"github.com/d60-Lab/postjournal/pkg/logger"
	"github.com/d60-Lab/postjournal/pkg/response"
)

const identityKey = "identity"

// TokenValidator 校验 bearer 令牌
type TokenValidator interface {
	Validate(ctx context.Context, raw string) (auth.Claims, error)
}

// Auth 要求请求携带有效的 bearer 令牌，身份写入 gin 上下文和 request context
func Auth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, "missing bearer token")
			return
		}

		claims, err := v.Validate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthorized) {
				response.InternalError(c, err)
				return
			}
			logger.Debug("auth middleware validation failed", zap.Error(err))
			response.Unauthorized(c, unauthorizedMessage(err))
			return
		}

		id := auth.Identity{UserID: claims.UserID, Username: claims.Username, Email: claims.Email, Token: token}
		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// CurrentIdentity 取出 Auth 写入的身份
func CurrentIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenRevoked):
		return "token revoked"
	case errors.Is(err, auth.ErrTokenExpired):
		return "token expired"
	}
	return "invalid token"
}

func extractBearerToken(value string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
