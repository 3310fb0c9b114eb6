package model

import "time"

// Post 帖子；AutoReply* 字段决定创建后是否排期自动回复
type Post struct {
	ID                string    `json:"id" gorm:"primaryKey;type:varchar(32)"`
	AuthorID          string    `json:"author_id" gorm:"type:varchar(32);index:idx_post_author;not null"`
	Title             string    `json:"title" gorm:"type:varchar(255);not null"`
	Content           string    `json:"content" gorm:"type:text;not null"`
	AutoReplyEnabled  bool      `json:"auto_reply_enabled" gorm:"not null;default:false"`
	AutoReplyDelay    int       `json:"auto_reply_delay" gorm:"not null;default:60"` // 秒
	AutoReplyTemplate string    `json:"auto_reply_template,omitempty" gorm:"type:text"`
	Blocked           bool      `json:"blocked" gorm:"index;not null;default:false"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Post) TableName() string { return "posts" }
