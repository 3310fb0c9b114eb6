// Package auth issues, validates and revokes bearer session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims 令牌中携带的身份信息
type Claims struct {
	UserID    string
	Username  string
	Email     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Authority HS256 令牌的签发与校验；吊销状态由 RevocationSet 保存
type Authority struct {
	secret  []byte
	ttl     time.Duration
	issuer  string
	revoked RevocationSet
	now     func() time.Time
}

func NewAuthority(secret string, ttl time.Duration, issuer string, revoked RevocationSet) *Authority {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if revoked == nil {
		revoked = NewMemoryRevocationSet()
	}
	return &Authority{
		secret:  []byte(secret),
		ttl:     ttl,
		issuer:  issuer,
		revoked: revoked,
		now:     time.Now,
	}
}

// SetClock 替换时钟，测试用
func (a *Authority) SetClock(now func() time.Time) { a.now = now }

// TTL 默认有效期
func (a *Authority) TTL() time.Duration { return a.ttl }

// Issue 签发令牌；ttl<=0 时使用默认有效期
func (a *Authority) Issue(c Claims, ttl time.Duration) (string, time.Time, error) {
	if len(a.secret) == 0 {
		return "", time.Time{}, errors.New("jwt secret is empty")
	}
	if strings.TrimSpace(c.UserID) == "" {
		return "", time.Time{}, errors.New("invalid token subject")
	}
	if ttl <= 0 {
		ttl = a.ttl
	}

	now := a.now().UTC()
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		Username: c.Username,
		Email:    c.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   c.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate 依次检查：是否已吊销、签名、过期时间
func (a *Authority) Validate(ctx context.Context, raw string) (Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return Claims{}, ErrTokenInvalid
	}

	revoked, err := a.revoked.Contains(ctx, raw)
	if err != nil {
		return Claims{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Claims{}, ErrTokenRevoked
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithoutClaimsValidation())
	if err != nil || token == nil || !token.Valid {
		return Claims{}, ErrTokenInvalid
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return Claims{}, ErrTokenInvalid
	}
	if !a.now().Before(claims.ExpiresAt.Time) {
		return Claims{}, ErrTokenExpired
	}

	out := Claims{
		UserID:    claims.Subject,
		Username:  claims.Username,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// Revoke 在令牌剩余的自然有效期内拒绝它；读不到 exp 时按默认有效期保存
func (a *Authority) Revoke(ctx context.Context, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrTokenInvalid
	}
	until := a.now().Add(a.ttl)
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err == nil && claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if !until.After(a.now()) {
		// 已过期的令牌本身就无法通过校验
		return nil
	}
	return a.revoked.Add(ctx, raw, until)
}
