package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/postjournal/internal/model"
)

type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	// FindByID 不区分是否被屏蔽，供调度器做存在性检查
	FindByID(ctx context.Context, id string) (*model.Post, error)
	// FindVisible 只返回未屏蔽的帖子
	FindVisible(ctx context.Context, id string) (*model.Post, error)
	ListVisible(ctx context.Context, offset, limit int) ([]*model.Post, error)
	// Delete 删除帖子及其全部评论
	Delete(ctx context.Context, id string) (int64, error)
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
	WithTx(tx *gorm.DB) PostRepository
}

type postRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) WithTx(tx *gorm.DB) PostRepository { return &postRepository{db: tx} }

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	if p.ID == "" {
		p.ID = model.NewID()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *postRepository) FindVisible(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Where("id = ? AND blocked = ?", id, false).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *postRepository) ListVisible(ctx context.Context, offset, limit int) ([]*model.Post, error) {
	var res []*model.Post
	err := r.db.WithContext(ctx).
		Where("blocked = ?", false).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *postRepository) Delete(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Post{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

func (r *postRepository) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&model.Post{}).Select("id").Where("author_id = ?", authorID)
		if err := tx.Where("post_id IN (?)", sub).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("author_id = ?", authorID).Delete(&model.Post{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}
