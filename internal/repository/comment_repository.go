package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/postjournal/internal/model"
)

// DailyCount 单日评论统计
type DailyCount struct {
	Date    string `json:"date"` // YYYY-MM-DD (UTC)
	Total   int64  `json:"total_comments"`
	Blocked int64  `json:"blocked_comments"`
}

type CommentRepository interface {
	Insert(ctx context.Context, c *model.Comment) error
	FindByID(ctx context.Context, id string) (*model.Comment, error)
	ListByPost(ctx context.Context, postID string, includeBlocked bool) ([]*model.Comment, error)
	CountByDay(ctx context.Context, from, to time.Time) ([]DailyCount, error)
	WithTx(tx *gorm.DB) CommentRepository
}

type commentRepository struct{ db *gorm.DB }

func NewCommentRepository(db *gorm.DB) CommentRepository { return &commentRepository{db: db} }

func (r *commentRepository) WithTx(tx *gorm.DB) CommentRepository { return &commentRepository{db: tx} }

func (r *commentRepository) Insert(ctx context.Context, c *model.Comment) error {
	if c.ID == "" {
		c.ID = model.NewID()
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *commentRepository) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// ListByPost 按插入顺序返回评论
func (r *commentRepository) ListByPost(ctx context.Context, postID string, includeBlocked bool) ([]*model.Comment, error) {
	q := r.db.WithContext(ctx).Where("post_id = ?", postID)
	if !includeBlocked {
		q = q.Where("blocked = ?", false)
	}
	var res []*model.Comment
	err := q.Order("seq ASC").Find(&res).Error
	return res, err
}

// CountByDay 统计 [from, to] 区间内每天的评论数与被屏蔽数
// 日期函数各方言不同，这里取出时间戳后在内存里分桶
func (r *commentRepository) CountByDay(ctx context.Context, from, to time.Time) ([]DailyCount, error) {
	type row struct {
		CreatedAt time.Time
		Blocked   bool
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Select("created_at", "blocked").
		Where("created_at >= ? AND created_at <= ?", from, to).
		Order("created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	res := make([]DailyCount, 0)
	for _, it := range rows {
		day := it.CreatedAt.UTC().Format("2006-01-02")
		if n := len(res); n == 0 || res[n-1].Date != day {
			res = append(res, DailyCount{Date: day})
		}
		cur := &res[len(res)-1]
		cur.Total++
		if it.Blocked {
			cur.Blocked++
		}
	}
	return res, nil
}
