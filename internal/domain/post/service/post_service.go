package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"postboard/internal/domain/post/model"
	"postboard/internal/domain/post/repository"
	"postboard/internal/pkg/realtime"
	"postboard/internal/pkg/uploader"
	"postboard/pkg/logger"
	"postboard/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound         = errors.New("post not found")
	ErrConfirmationRequired = errors.New("delete requires confirmation")
	ErrUploadFailed         = errors.New("attachment upload failed")
)

// PostInput 发布参数，校验前会去除首尾空白
type PostInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Content     string `json:"content" validate:"required,max=5000"`
	ExternalURL string `json:"externalUrl" validate:"omitempty,url"`
}

func (in *PostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.ExternalURL = strings.TrimSpace(in.ExternalURL)
}

// PostUpdate 编辑参数，LikesCount 为 nil 时不修改计数
type PostUpdate struct {
	Title      string `json:"title" validate:"required,max=200"`
	Content    string `json:"content" validate:"required,max=5000"`
	LikesCount *int   `json:"likesCount" validate:"omitempty,gte=0"`
}

// Attachment 待上传的附件
type Attachment struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Attachments 图片和文档均可选
type Attachments struct {
	Image    *Attachment
	Document *Attachment
}

// Cleaner 孤儿附件清理
type Cleaner interface {
	Enqueue(keys ...string)
}

// PostService 帖子管理服务
type PostService interface {
	GetPost(ctx context.Context, id string) (*model.Post, error)
	CreatePost(ctx context.Context, authorID string, in PostInput, att Attachments) (*model.Post, error)
	UpdatePost(ctx context.Context, id string, in PostUpdate) (*model.Post, error)
	DeletePost(ctx context.Context, id string, confirmed bool) error
}

type postService struct {
	repo      repository.PostRepository
	store     uploader.Uploader
	cleaner   Cleaner
	publisher realtime.Publisher
}

func NewPostService(repo repository.PostRepository, store uploader.Uploader, cleaner Cleaner, publisher realtime.Publisher) PostService {
	return &postService{repo: repo, store: store, cleaner: cleaner, publisher: publisher}
}

// validID 只接受标准 36 位 UUID，其他输入直接视为不存在
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

func (s *postService) GetPost(ctx context.Context, id string) (*model.Post, error) {
	if !validID(id) {
		return nil, ErrPostNotFound
	}
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// CreatePost 校验、上传附件、写入帖子。
// 写入失败时已上传的附件交给清理池异步删除。
func (s *postService) CreatePost(ctx context.Context, authorID string, in PostInput, att Attachments) (*model.Post, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var uploaded []string
	upload := func(kind uploader.Kind, a *Attachment) (*string, error) {
		if a == nil {
			return nil, nil
		}
		if s.store == nil {
			return nil, fmt.Errorf("%w: storage not configured", ErrUploadFailed)
		}
		obj, err := s.store.Upload(ctx, kind, a.Filename, a.Body, a.ContentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		uploaded = append(uploaded, obj.Key)
		return &obj.URL, nil
	}

	imageURL, err := upload(uploader.KindImage, att.Image)
	if err != nil {
		return nil, err
	}
	documentURL, err := upload(uploader.KindDocument, att.Document)
	if err != nil {
		s.discard(uploaded)
		return nil, err
	}

	post := &model.Post{
		Title:       in.Title,
		Content:     in.Content,
		AuthorID:    authorID,
		ImageURL:    imageURL,
		DocumentURL: documentURL,
	}
	if in.ExternalURL != "" {
		post.ExternalURL = &in.ExternalURL
	}

	if err := s.repo.Create(ctx, post); err != nil {
		s.discard(uploaded)
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.publish(ctx, realtime.EventInsert, post.ID)
	return post, nil
}

// UpdatePost 编辑标题、正文，可选覆盖点赞数
func (s *postService) UpdatePost(ctx context.Context, id string, in PostUpdate) (*model.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ErrPostNotFound
	}

	fields := map[string]interface{}{
		"title":   in.Title,
		"content": in.Content,
	}
	if in.LikesCount != nil {
		fields["likes_count"] = *in.LikesCount
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	s.publish(ctx, realtime.EventUpdate, id)
	return s.GetPost(ctx, id)
}

// DeletePost 删除需要显式确认
func (s *postService) DeletePost(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if !validID(id) {
		return ErrPostNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("delete post: %w", err)
	}

	s.publish(ctx, realtime.EventDelete, id)
	return nil
}

func (s *postService) discard(keys []string) {
	if len(keys) == 0 {
		return
	}
	logger.Log.Warn("post not saved, scheduling attachment cleanup", zap.Strings("keys", keys))
	if s.cleaner != nil {
		s.cleaner.Enqueue(keys...)
	}
}

// publish 通知失败只记录日志，写入已经成功
func (s *postService) publish(ctx context.Context, typ realtime.EventType, id string) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, realtime.ChangeEvent{Table: realtime.TablePosts, Type: typ, ID: id})
	if err != nil {
		logger.Log.Warn("failed to publish post change", zap.String("type", string(typ)), zap.String("post_id", id), zap.Error(err))
	}
}
