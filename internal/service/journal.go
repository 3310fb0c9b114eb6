package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/postjournal/internal/model"
	"github.com/d60-Lab/postjournal/internal/repository"
)

// Journal 用户字段变更日志，只追加
type Journal struct {
	repo repository.JournalRepository
	now  func() time.Time
}

func NewJournal(repo repository.JournalRepository) *Journal {
	return &Journal{repo: repo, now: model.Now}
}

// WithTx 绑定到事务，用于与字段更新一起提交
func (j *Journal) WithTx(tx *gorm.DB) *Journal {
	return &Journal{repo: j.repo.WithTx(tx), now: j.now}
}

// Append 写入一条记录；密码字段的前后值会被替换为 ***
func (j *Journal) Append(ctx context.Context, rec *model.AuditRecord) error {
	if rec.SubjectID == "" {
		return fmt.Errorf("%w: subject id is required", ErrValidation)
	}
	if _, err := model.ParseJournalField(string(rec.Field)); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = j.now()
	}
	// 同一主体的时间戳不回退
	last, err := j.repo.Latest(ctx, rec.SubjectID)
	switch {
	case err == nil:
		if rec.Timestamp.Before(last.Timestamp) {
			rec.Timestamp = last.Timestamp
		}
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: load latest audit record: %v", ErrPersistence, err)
	}
	if err := j.repo.Append(ctx, rec); err != nil {
		return fmt.Errorf("%w: append audit record: %v", ErrPersistence, err)
	}
	return nil
}

// RecordFieldChange 记录一次字段变更
func (j *Journal) RecordFieldChange(ctx context.Context, subjectID string, field model.JournalField, before, after string) (*model.AuditRecord, error) {
	rec := &model.AuditRecord{
		SubjectID:   subjectID,
		Field:       field,
		StateBefore: before,
		StateAfter:  after,
	}
	if err := j.Append(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Query 返回主体的全部记录（field 非空时只返回该字段），最新的在前
func (j *Journal) Query(ctx context.Context, subjectID string, field *model.JournalField) ([]*model.AuditRecord, error) {
	res, err := j.repo.Query(ctx, subjectID, field)
	if err != nil {
		return nil, fmt.Errorf("%w: query journal: %v", ErrPersistence, err)
	}
	return res, nil
}
