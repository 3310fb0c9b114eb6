package model

import "time"

// Comment 评论；AutoReply 标记由调度器生成的自动回复
// Seq 为插入顺序，同一帖子下的评论按 Seq 排列
type Comment struct {
	Seq       int64     `json:"-" gorm:"primaryKey;autoIncrement"`
	ID        string    `json:"id" gorm:"type:varchar(32);uniqueIndex;not null"`
	PostID    string    `json:"post_id" gorm:"type:varchar(32);index:idx_comment_post_seq;not null"`
	AuthorID  string    `json:"author_id" gorm:"type:varchar(32);index;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Blocked   bool      `json:"blocked" gorm:"not null;default:false"`
	AutoReply bool      `json:"auto_reply" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Comment) TableName() string { return "comments" }
