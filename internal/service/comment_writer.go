package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/postjournal/internal/model"
	"github.com/d60-Lab/postjournal/internal/repository"
)

// Moderator 判断文本是否需要屏蔽
type Moderator interface {
	IsBlocked(text string) bool
}

// CommentWriter 评论的唯一写入路径，用户评论和自动回复都经过这里
type CommentWriter struct {
	comments  repository.CommentRepository
	moderator Moderator
}

func NewCommentWriter(comments repository.CommentRepository, moderator Moderator) *CommentWriter {
	return &CommentWriter{comments: comments, moderator: moderator}
}

// Write 先过屏蔽词再落库；命中屏蔽词的评论照常保存，只是标记 blocked
func (w *CommentWriter) Write(ctx context.Context, c *model.Comment) error {
	if w.moderator != nil {
		c.Blocked = w.moderator.IsBlocked(c.Content)
	}
	if err := w.comments.Insert(ctx, c); err != nil {
		return fmt.Errorf("%w: insert comment: %v", ErrPersistence, err)
	}
	return nil
}
