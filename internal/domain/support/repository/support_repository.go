package repository

import (
	"context"

	"postboard/internal/domain/support/model"

	"gorm.io/gorm"
)

// SupportRepository 留言仓库
type SupportRepository interface {
	Create(ctx context.Context, msg *model.SupportMessage) error
	GetByID(ctx context.Context, id string) (*model.SupportMessage, error)
	List(ctx context.Context, status string) ([]model.SupportMessage, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type supportRepository struct {
	db *gorm.DB
}

func NewSupportRepository(db *gorm.DB) SupportRepository {
	return &supportRepository{db: db}
}

func (r *supportRepository) Create(ctx context.Context, msg *model.SupportMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *supportRepository) GetByID(ctx context.Context, id string) (*model.SupportMessage, error) {
	var msg model.SupportMessage
	if err := r.db.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// List 最新在前，status 为空时返回全部
func (r *supportRepository) List(ctx context.Context, status string) ([]model.SupportMessage, error) {
	var msgs []model.SupportMessage
	query := r.db.WithContext(ctx)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at DESC, id DESC").Find(&msgs).Error
	return msgs, err
}

func (r *supportRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res := r.db.WithContext(ctx).Model(&model.SupportMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
