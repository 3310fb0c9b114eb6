package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/postjournal/internal/model"
)

// JournalRepository 字段审计日志，只追加
type JournalRepository interface {
	Append(ctx context.Context, rec *model.AuditRecord) error
	// Query 按 recorded_at DESC, seq DESC 返回；field 为空表示全部字段
	Query(ctx context.Context, subjectID string, field *model.JournalField) ([]*model.AuditRecord, error)
	// Latest 主体最近一条记录，没有时返回 ErrNotFound
	Latest(ctx context.Context, subjectID string) (*model.AuditRecord, error)
	DeleteBySubject(ctx context.Context, subjectID string) (int64, error)
	WithTx(tx *gorm.DB) JournalRepository
}

type journalRepository struct{ db *gorm.DB }

func NewJournalRepository(db *gorm.DB) JournalRepository { return &journalRepository{db: db} }

func (r *journalRepository) WithTx(tx *gorm.DB) JournalRepository { return &journalRepository{db: tx} }

func (r *journalRepository) Append(ctx context.Context, rec *model.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = model.NewID()
	}
	rec.Redact()
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *journalRepository) Query(ctx context.Context, subjectID string, field *model.JournalField) ([]*model.AuditRecord, error) {
	q := r.db.WithContext(ctx).Where("subject_id = ?", subjectID)
	if field != nil {
		q = q.Where("field = ?", *field)
	}
	res := make([]*model.AuditRecord, 0)
	err := q.Order("recorded_at DESC, seq DESC").Find(&res).Error
	return res, err
}

func (r *journalRepository) Latest(ctx context.Context, subjectID string) (*model.AuditRecord, error) {
	var rec model.AuditRecord
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("recorded_at DESC, seq DESC").
		First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (r *journalRepository) DeleteBySubject(ctx context.Context, subjectID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).Delete(&model.AuditRecord{})
	return res.RowsAffected, res.Error
}
