package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/postjournal/internal/model"
	"github.com/d60-Lab/postjournal/internal/repository"
	"github.com/d60-Lab/postjournal/pkg/logger"
)

const (
	DefaultPostReplyTemplate    = "Auto-reply to your post: {{.PostTitle}}"
	DefaultCommentReplyTemplate = "Auto-reply to comment: {{.CommentContent}}"
)

// Outcome 一次排期动作的最终结果
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeReplied
	OutcomeRepliedToPost // 评论已不存在，回复到帖子
	OutcomeTargetGone
	OutcomeFailed
	OutcomeDropped
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeReplied:
		return "replied"
	case OutcomeRepliedToPost:
		return "replied_to_post"
	case OutcomeTargetGone:
		return "target_gone"
	case OutcomeFailed:
		return "failed"
	case OutcomeDropped:
		return "dropped"
	}
	return "unknown"
}

// Action 延迟执行的自动回复；CommentID 为空表示回复帖子
type Action struct {
	PostID    string
	CommentID string
	Delay     time.Duration
	Template  string
}

// ReplyData 模板可用的字段，取自触发时刻的最新数据
type ReplyData struct {
	PostTitle      string
	PostContent    string
	CommentContent string
}

// Pending 已排期动作的句柄，只读
type Pending struct {
	action      Action
	scheduledAt time.Time
	done        chan struct{}

	mu      sync.Mutex
	outcome Outcome
	reply   *model.Comment
}

func newPending(a Action) *Pending {
	return &Pending{action: a, scheduledAt: time.Now(), done: make(chan struct{})}
}

// Done 动作结束（无论结果）后关闭
func (p *Pending) Done() <-chan struct{} { return p.done }

func (p *Pending) Outcome() Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outcome
}

// Reply 写入的自动回复，没有写入时为 nil
func (p *Pending) Reply() *model.Comment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reply
}

func (p *Pending) Action() Action { return p.action }

func (p *Pending) complete(o Outcome, reply *model.Comment) {
	p.mu.Lock()
	p.outcome = o
	p.reply = reply
	p.mu.Unlock()
	close(p.done)
}

// SchedulerOptions 调度器参数，零值使用默认
type SchedulerOptions struct {
	MaxDelay    time.Duration
	FireTimeout time.Duration
	MaxPending  int
}

// Scheduler 进程内延迟动作调度器：每个动作一个 goroutine，触发时重新读取帖子/评论
// 不落盘，进程退出时未触发的动作直接丢弃
type Scheduler struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	writer   *CommentWriter
	opts     SchedulerOptions
	after    func(time.Duration) <-chan time.Time

	mu      sync.Mutex
	pending map[*Pending]struct{}
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	metricsCh chan time.Duration
}

func NewScheduler(posts repository.PostRepository, comments repository.CommentRepository, writer *CommentWriter, opts SchedulerOptions) *Scheduler {
	if opts.FireTimeout <= 0 {
		opts.FireTimeout = 5 * time.Second
	}
	return &Scheduler{
		posts:     posts,
		comments:  comments,
		writer:    writer,
		opts:      opts,
		after:     time.After,
		pending:   make(map[*Pending]struct{}),
		stopCh:    make(chan struct{}),
		metricsCh: make(chan time.Duration, 65536),
	}
}

// SetAfter 替换计时函数，测试中用来手动触发
func (s *Scheduler) SetAfter(after func(time.Duration) <-chan time.Time) { s.after = after }

// Schedule 立即返回；动作在 Delay 之后于后台执行
func (s *Scheduler) Schedule(a Action) *Pending {
	p := newPending(a)
	if a.PostID == "" {
		logger.Warn("auto-reply without target post, drop")
		p.complete(OutcomeDropped, nil)
		return p
	}
	if a.Delay < 0 {
		a.Delay = 0
	}
	if s.opts.MaxDelay > 0 && a.Delay > s.opts.MaxDelay {
		logger.Warn("auto-reply delay clamped", zap.String("post", a.PostID), zap.Duration("delay", a.Delay), zap.Duration("max", s.opts.MaxDelay))
		a.Delay = s.opts.MaxDelay
	}
	p.action = a

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		logger.Warn("scheduler stopped, drop auto-reply", zap.String("post", a.PostID))
		p.complete(OutcomeDropped, nil)
		return p
	}
	if s.opts.MaxPending > 0 && len(s.pending) >= s.opts.MaxPending {
		s.mu.Unlock()
		logger.Warn("scheduler full, drop auto-reply", zap.String("post", a.PostID), zap.Int("pending", s.opts.MaxPending))
		p.complete(OutcomeDropped, nil)
		return p
	}
	s.pending[p] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(p)
	return p
}

// Pending 尚未结束的动作数
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Metrics 返回从排期到回复落库耗时的只读通道（每写入一条回复发送一次）
func (s *Scheduler) Metrics() <-chan time.Duration { return s.metricsCh }

// Stop 取消所有仍在等待的动作，并等待正在执行的动作结束或 ctx 到期
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.stopCh)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(p *Pending) {
	defer s.wg.Done()

	select {
	case <-s.after(p.action.Delay):
	case <-s.stopCh:
		s.finish(p, OutcomeDropped, nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.FireTimeout)
	outcome, reply := s.fire(ctx, p.action)
	cancel()

	if reply != nil {
		select {
		case s.metricsCh <- time.Since(p.scheduledAt):
		default:
		}
	}
	s.finish(p, outcome, reply)
}

func (s *Scheduler) finish(p *Pending, o Outcome, reply *model.Comment) {
	s.mu.Lock()
	delete(s.pending, p)
	s.mu.Unlock()
	p.complete(o, reply)
}

func (s *Scheduler) fire(ctx context.Context, a Action) (Outcome, *model.Comment) {
	post, err := s.posts.FindByID(ctx, a.PostID)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Info("auto-reply target post gone", zap.String("post", a.PostID))
		return OutcomeTargetGone, nil
	}
	if err != nil {
		logger.Error("auto-reply load post failed", zap.String("post", a.PostID), zap.Error(err))
		return OutcomeFailed, nil
	}
	if post.Blocked {
		logger.Warn("auto-reply on blocked post", zap.String("post", post.ID))
	}

	data := ReplyData{PostTitle: post.Title, PostContent: post.Content}
	outcome := OutcomeReplied
	tmpl := a.Template
	if a.CommentID != "" {
		c, err := s.comments.FindByID(ctx, a.CommentID)
		switch {
		case err == nil && c.PostID == post.ID:
			data.CommentContent = c.Content
			if tmpl == "" {
				tmpl = DefaultCommentReplyTemplate
			}
		case err == nil || errors.Is(err, repository.ErrNotFound):
			logger.Warn("auto-reply comment gone, falling back to post", zap.String("post", post.ID), zap.String("comment", a.CommentID))
			outcome = OutcomeRepliedToPost
		default:
			logger.Error("auto-reply load comment failed", zap.String("comment", a.CommentID), zap.Error(err))
			return OutcomeFailed, nil
		}
	}
	if tmpl == "" {
		tmpl = DefaultPostReplyTemplate
	}

	content, err := RenderReply(tmpl, data)
	if err != nil {
		logger.Warn("auto-reply template failed, action dropped", zap.String("post", post.ID), zap.Error(err))
		return OutcomeFailed, nil
	}
	if strings.TrimSpace(content) == "" {
		logger.Warn("auto-reply rendered empty, action dropped", zap.String("post", post.ID))
		return OutcomeFailed, nil
	}

	reply := &model.Comment{
		PostID:    post.ID,
		AuthorID:  post.AuthorID,
		Content:   content,
		AutoReply: true,
	}
	if err := s.writer.Write(ctx, reply); err != nil {
		logger.Error("auto-reply insert failed", zap.String("post", post.ID), zap.Error(err))
		return OutcomeFailed, nil
	}
	logger.Info("auto-reply created", zap.String("post", post.ID), zap.String("comment", reply.ID), zap.String("outcome", outcome.String()))
	return outcome, reply
}

// RenderReply 渲染自动回复模板
func RenderReply(tmpl string, data ReplyData) (string, error) {
	t, err := template.New("auto-reply").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ValidateTemplate 提前检查模板语法，供创建帖子时校验
func ValidateTemplate(tmpl string) error {
	if tmpl == "" {
		return nil
	}
	_, err := RenderReply(tmpl, ReplyData{})
	return err
}
