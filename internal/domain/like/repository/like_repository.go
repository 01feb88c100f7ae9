package repository

import (
	"context"
	"errors"

	"postboard/internal/domain/like/model"
	"postboard/pkg/identity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrAlreadyLiked 该身份已有点赞记录
	ErrAlreadyLiked = errors.New("already liked")
	// ErrNotLiked 该身份没有点赞记录
	ErrNotLiked = errors.New("not liked")
)

// LikeRepository 点赞仓库，写操作与帖子计数在同一事务中完成
type LikeRepository interface {
	Find(ctx context.Context, postID string, id identity.Identity) (*model.PostLike, error)
	Like(ctx context.Context, postID string, id identity.Identity) (int, error)
	Unlike(ctx context.Context, postID string, id identity.Identity) (int, error)
	LikesCount(ctx context.Context, postID string) (int, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// byIdentity 用户身份只按 user_id 查，匿名身份只按 session_id 查
func byIdentity(id identity.Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if id.IsUser() {
			return db.Where("user_id = ?", id.ID)
		}
		return db.Where("session_id = ?", id.ID)
	}
}

func (r *likeRepository) Find(ctx context.Context, postID string, id identity.Identity) (*model.PostLike, error) {
	var like model.PostLike
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Scopes(byIdentity(id)).
		Take(&like).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// Like 插入点赞并将计数加一，返回最新计数。
// 帖子不存在返回 gorm.ErrRecordNotFound，已点赞返回 ErrAlreadyLiked，两者都不会留下写入。
func (r *likeRepository) Like(ctx context.Context, postID string, id identity.Identity) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := adjustCount(tx, postID, 1); err != nil {
			return err
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(model.NewPostLike(postID, id))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyLiked
		}

		var err error
		count, err = readCount(tx, postID)
		return err
	})
	return count, err
}

// Unlike 删除点赞并将计数减一，返回最新计数。没有记录时返回 ErrNotLiked。
func (r *likeRepository) Unlike(ctx context.Context, postID string, id identity.Identity) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ?", postID).Scopes(byIdentity(id)).Delete(&model.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotLiked
		}

		if err := adjustCount(tx, postID, -1); err != nil {
			return err
		}

		var err error
		count, err = readCount(tx, postID)
		return err
	})
	return count, err
}

func (r *likeRepository) LikesCount(ctx context.Context, postID string) (int, error) {
	return readCount(r.db.WithContext(ctx), postID)
}

// adjustCount 计数不会减到负数（管理员可能手动改过计数）
func adjustCount(tx *gorm.DB, postID string, delta int) error {
	expr := gorm.Expr("likes_count + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN likes_count + ? < 0 THEN 0 ELSE likes_count + ? END", delta, delta)
	}
	res := tx.Table("posts").
		Where("id = ? AND deleted_at IS NULL", postID).
		UpdateColumn("likes_count", expr)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func readCount(db *gorm.DB, postID string) (int, error) {
	var counts []int
	err := db.Table("posts").
		Where("id = ? AND deleted_at IS NULL", postID).
		Pluck("likes_count", &counts).Error
	if err != nil {
		return 0, err
	}
	if len(counts) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return counts[0], nil
}
