package model

import "time"

// User 用户；PasswordHash 永不序列化
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(32)"`
	Username     string    `json:"username" gorm:"type:varchar(64);not null"`
	Email        string    `json:"email" gorm:"type:varchar(200);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(100);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
