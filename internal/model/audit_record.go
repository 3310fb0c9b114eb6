package model

import (
	"fmt"
	"time"
)

// JournalField 被审计的用户字段（封闭枚举）
type JournalField string

const (
	FieldUsername JournalField = "username"
	FieldEmail    JournalField = "email"
	FieldPassword JournalField = "password"
)

// RedactedValue 密码记录的前后值一律使用该占位
const RedactedValue = "***"

// ParseJournalField 解析字段名，未知字段返回错误
func ParseJournalField(s string) (JournalField, error) {
	switch f := JournalField(s); f {
	case FieldUsername, FieldEmail, FieldPassword:
		return f, nil
	}
	return "", fmt.Errorf("unknown journal field %q", s)
}

// AuditRecord 字段变更日志，写入后不可修改
// Seq 为插入顺序，同一时间戳按 Seq 决定先后
type AuditRecord struct {
	Seq         int64        `json:"-" gorm:"primaryKey;autoIncrement"`
	ID          string       `json:"id" gorm:"type:varchar(32);uniqueIndex;not null"`
	SubjectID   string       `json:"subject_id" gorm:"type:varchar(32);index:idx_audit_subject_field_ts;not null"`
	Field       JournalField `json:"field" gorm:"type:varchar(16);index:idx_audit_subject_field_ts;not null"`
	StateBefore string       `json:"state_before" gorm:"type:text;not null"`
	StateAfter  string       `json:"state_after" gorm:"type:text;not null"`
	Timestamp   time.Time    `json:"timestamp" gorm:"column:recorded_at;index:idx_audit_subject_field_ts;not null"`
}

func (AuditRecord) TableName() string { return "audit_records" }

// Redact 密码记录不保留真实值
func (r *AuditRecord) Redact() {
	if r.Field == FieldPassword {
		r.StateBefore = RedactedValue
		r.StateAfter = RedactedValue
	}
}
