package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/postjournal/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Migrate 建表/补索引
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.User{}, &model.Post{}, &model.Comment{}, &model.AuditRecord{})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
