package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/postjournal/internal/model"
	"github.com/d60-Lab/postjournal/internal/repository"
	"github.com/d60-Lab/postjournal/pkg/logger"
)

const (
	maxTitleLen       = 255
	defaultPageSize   = 20
	maxPageSize       = 100
	maxAnalyticsRange = 366 * 24 * time.Hour

	// MaxAutoReplyDelay 未配置 scheduler.max_delay 时的延迟上限
	MaxAutoReplyDelay = 365 * 24 * time.Hour
)

// AutoReplyScheduler 内容服务只需要排期能力
type AutoReplyScheduler interface {
	Schedule(a Action) *Pending
}

// CreatePostInput 创建帖子参数；AutoReplyDelay 为空时使用默认延迟
type CreatePostInput struct {
	Title             string
	Content           string
	AutoReplyEnabled  bool
	AutoReplyDelay    *int
	AutoReplyTemplate string
}

// ContentService 帖子与评论
type ContentService struct {
	posts        repository.PostRepository
	comments     repository.CommentRepository
	writer       *CommentWriter
	moderator    Moderator
	scheduler    AutoReplyScheduler
	defaultDelay time.Duration
	maxDelay     time.Duration
}

func NewContentService(posts repository.PostRepository, comments repository.CommentRepository, writer *CommentWriter, moderator Moderator, scheduler AutoReplyScheduler, defaultDelay, maxDelay time.Duration) *ContentService {
	if defaultDelay <= 0 {
		defaultDelay = 60 * time.Second
	}
	if maxDelay <= 0 || maxDelay > MaxAutoReplyDelay {
		maxDelay = MaxAutoReplyDelay
	}
	return &ContentService{
		posts:        posts,
		comments:     comments,
		writer:       writer,
		moderator:    moderator,
		scheduler:    scheduler,
		defaultDelay: defaultDelay,
		maxDelay:     maxDelay,
	}
}

// CreatePost 保存帖子；开启自动回复时排期一条回复，返回的 Pending 为 nil 表示未排期
func (s *ContentService) CreatePost(ctx context.Context, authorID string, in CreatePostInput) (*model.Post, *Pending, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > maxTitleLen {
		return nil, nil, fmt.Errorf("%w: title must be 1-%d characters", ErrValidation, maxTitleLen)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	delay := int(s.defaultDelay / time.Second)
	if in.AutoReplyDelay != nil {
		// 先按秒比较再换算成 Duration，避免溢出
		maxSeconds := int64(s.maxDelay / time.Second)
		if *in.AutoReplyDelay < 0 || int64(*in.AutoReplyDelay) > maxSeconds {
			return nil, nil, fmt.Errorf("%w: auto_reply_delay must be 0-%d seconds", ErrValidation, maxSeconds)
		}
		delay = *in.AutoReplyDelay
	}
	if err := ValidateTemplate(in.AutoReplyTemplate); err != nil {
		return nil, nil, fmt.Errorf("%w: auto_reply_template: %v", ErrValidation, err)
	}

	p := &model.Post{
		AuthorID:          authorID,
		Title:             title,
		Content:           in.Content,
		AutoReplyEnabled:  in.AutoReplyEnabled,
		AutoReplyDelay:    delay,
		AutoReplyTemplate: in.AutoReplyTemplate,
	}
	if s.moderator != nil {
		p.Blocked = s.moderator.IsBlocked(title) || s.moderator.IsBlocked(in.Content)
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("%w: create post: %v", ErrPersistence, err)
	}
	logger.Info("post created", zap.String("post", p.ID), zap.String("author", authorID), zap.Bool("blocked", p.Blocked))

	var pending *Pending
	if p.AutoReplyEnabled && s.scheduler != nil {
		pending = s.scheduler.Schedule(Action{
			PostID:   p.ID,
			Delay:    time.Duration(p.AutoReplyDelay) * time.Second,
			Template: p.AutoReplyTemplate,
		})
	}
	return p, pending, nil
}

// GetPost 只返回未屏蔽的帖子
func (s *ContentService) GetPost(ctx context.Context, id string) (*model.Post, error) {
	p, err := s.posts.FindVisible(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: post", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load post: %v", ErrPersistence, err)
	}
	return p, nil
}

func (s *ContentService) ListPosts(ctx context.Context, offset, limit int) ([]*model.Post, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	res, err := s.posts.ListVisible(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list posts: %v", ErrPersistence, err)
	}
	if res == nil {
		res = []*model.Post{}
	}
	return res, nil
}

// DeletePost 只有作者可以删除；评论随帖子一起删除
func (s *ContentService) DeletePost(ctx context.Context, userID, postID string) error {
	p, err := s.posts.FindByID(ctx, postID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: post", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: load post: %v", ErrPersistence, err)
	}
	if p.AuthorID != userID {
		return fmt.Errorf("%w: not the post author", ErrForbidden)
	}
	if _, err := s.posts.Delete(ctx, postID); err != nil {
		return fmt.Errorf("%w: delete post: %v", ErrPersistence, err)
	}
	logger.Info("post deleted", zap.String("post", postID))
	return nil
}

// CreateComment 帖子不存在返回 ErrNotFound，帖子被屏蔽返回 ErrForbidden
func (s *ContentService) CreateComment(ctx context.Context, authorID, postID, content string) (*model.Comment, *Pending, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	p, err := s.posts.FindByID(ctx, postID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: post", ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: load post: %v", ErrPersistence, err)
	}
	if p.Blocked {
		return nil, nil, fmt.Errorf("%w: post is blocked", ErrForbidden)
	}

	c := &model.Comment{PostID: p.ID, AuthorID: authorID, Content: content}
	if err := s.writer.Write(ctx, c); err != nil {
		return nil, nil, err
	}

	var pending *Pending
	if p.AutoReplyEnabled && !c.Blocked && s.scheduler != nil {
		pending = s.scheduler.Schedule(Action{
			PostID:    p.ID,
			CommentID: c.ID,
			Delay:     time.Duration(p.AutoReplyDelay) * time.Second,
			Template:  p.AutoReplyTemplate,
		})
	}
	return c, pending, nil
}

// ListComments 未屏蔽的评论，按创建顺序；没有评论时返回空列表
func (s *ContentService) ListComments(ctx context.Context, postID string) ([]*model.Comment, error) {
	res, err := s.comments.ListByPost(ctx, postID, false)
	if err != nil {
		return nil, fmt.Errorf("%w: list comments: %v", ErrPersistence, err)
	}
	if res == nil {
		res = []*model.Comment{}
	}
	return res, nil
}

// DailyComments 按天统计 [from, to] 之间的评论数；两个日期都按整天计算
func (s *ContentService) DailyComments(ctx context.Context, from, to time.Time) ([]repository.DailyCount, error) {
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: date_to is before date_from", ErrValidation)
	}
	if to.Sub(from) > maxAnalyticsRange {
		return nil, fmt.Errorf("%w: date range too large", ErrValidation)
	}
	end := to.Add(24*time.Hour - time.Microsecond)
	res, err := s.comments.CountByDay(ctx, from, end)
	if err != nil {
		return nil, fmt.Errorf("%w: count comments: %v", ErrPersistence, err)
	}
	return res, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
