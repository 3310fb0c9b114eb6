package model

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDLength 所有实体 ID 的长度（32 位十六进制）
const IDLength = 32

// TimeLayout 对外输出的时间格式：UTC、定长、可按字典序排序
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// NewID 生成 32 位小写十六进制 ID
func NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// IsID 判断字符串是否为合法 ID，只接受小写
func IsID(s string) bool {
	if len(s) != IDLength || s != strings.ToLower(s) {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// FormatTime 按 TimeLayout 输出
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Now 截断到微秒，与 postgres timestamp 精度一致
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
