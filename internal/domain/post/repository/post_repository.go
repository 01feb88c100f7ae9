package repository

import (
	"context"
	"time"

	"postboard/internal/domain/post/model"

	"gorm.io/gorm"
)

// PostRepository 帖子仓库接口
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	ListAll(ctx context.Context) ([]model.Post, error)
	ListAfter(ctx context.Context, createdAt time.Time, id string, limit int) ([]model.Post, error)
	ListFirst(ctx context.Context, limit int) ([]model.Post, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// newestFirst 排序：created_at 倒序，id 作为同一时间戳的确定性次序
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListAll(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	err := r.db.WithContext(ctx).Scopes(newestFirst).Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListFirst(ctx context.Context, limit int) ([]model.Post, error) {
	var posts []model.Post
	err := r.db.WithContext(ctx).Scopes(newestFirst).Limit(limit).Find(&posts).Error
	return posts, err
}

// ListAfter 游标之后的一页
func (r *postRepository) ListAfter(ctx context.Context, createdAt time.Time, id string, limit int) ([]model.Post, error) {
	var posts []model.Post
	err := r.db.WithContext(ctx).
		Where("created_at < ? OR (created_at = ? AND id < ?)", createdAt, createdAt, id).
		Scopes(newestFirst).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// Update 更新指定字段，记录不存在时返回 gorm.ErrRecordNotFound
func (r *postRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 软删除
func (r *postRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
