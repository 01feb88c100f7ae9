package service

import (
	"context"
	"errors"
	"fmt"

	"postboard/internal/domain/like/model"
	"postboard/internal/domain/like/repository"
	"postboard/internal/pkg/realtime"
	"postboard/pkg/identity"
	"postboard/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrInvalidIdentity = errors.New("invalid like identity")
)

// Recorder 点赞结果统计
type Recorder interface {
	RecordLikeToggle(result string)
}

// LikeService 点赞服务
type LikeService interface {
	ToggleLike(ctx context.Context, postID string, id identity.Identity, currentlyLiked bool) (*model.Result, error)
	IsLiked(ctx context.Context, postID string, id identity.Identity) bool
}

type likeService struct {
	repo      repository.LikeRepository
	publisher realtime.Publisher
	recorder  Recorder
}

func NewLikeService(repo repository.LikeRepository, publisher realtime.Publisher, recorder Recorder) LikeService {
	return &likeService{repo: repo, publisher: publisher, recorder: recorder}
}

// ToggleLike 按客户端认为的当前状态切换点赞。
// 已点赞则删除记录（-1），未点赞则插入记录（+1）；
// 客户端状态过期时不写入，返回真实状态且 Delta 为 0。
func (s *likeService) ToggleLike(ctx context.Context, postID string, id identity.Identity, currentlyLiked bool) (*model.Result, error) {
	if !id.Valid() {
		return nil, ErrInvalidIdentity
	}
	if !validPostID(postID) {
		return nil, ErrPostNotFound
	}

	var (
		result model.Result
		count  int
		err    error
	)
	if currentlyLiked {
		count, err = s.repo.Unlike(ctx, postID, id)
		result = model.Result{Liked: false, Delta: -1}
		if errors.Is(err, repository.ErrNotLiked) {
			return s.reconcile(ctx, postID, false)
		}
	} else {
		count, err = s.repo.Like(ctx, postID, id)
		result = model.Result{Liked: true, Delta: 1}
		if errors.Is(err, repository.ErrAlreadyLiked) {
			return s.reconcile(ctx, postID, true)
		}
	}
	if err != nil {
		s.record("error")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		logger.Log.Error("like write failed",
			zap.String("post_id", postID), zap.String("identity", string(id.Kind)), zap.Error(err))
		return nil, fmt.Errorf("toggle like: %w", err)
	}

	result.LikesCount = count
	if result.Liked {
		s.record("liked")
	} else {
		s.record("unliked")
	}

	// 计数变化，通知帖子流刷新
	if s.publisher != nil {
		ev := realtime.ChangeEvent{Table: realtime.TablePosts, Type: realtime.EventUpdate, ID: postID}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			logger.Log.Warn("failed to publish like change", zap.String("post_id", postID), zap.Error(err))
		}
	}
	return &result, nil
}

func (s *likeService) reconcile(ctx context.Context, postID string, liked bool) (*model.Result, error) {
	s.record("reconciled")
	count, err := s.repo.LikesCount(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("read likes count: %w", err)
	}
	return &model.Result{Liked: liked, Delta: 0, LikesCount: count}, nil
}

// IsLiked 只读检查，查询失败按未点赞处理
func (s *likeService) IsLiked(ctx context.Context, postID string, id identity.Identity) bool {
	if !id.Valid() || !validPostID(postID) {
		return false
	}
	_, err := s.repo.Find(ctx, postID, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Debug("like lookup failed", zap.String("post_id", postID), zap.Error(err))
		}
		return false
	}
	return true
}

func validPostID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

func (s *likeService) record(result string) {
	if s.recorder != nil {
		s.recorder.RecordLikeToggle(result)
	}
}
