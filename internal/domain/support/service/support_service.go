package service

import (
	"context"
	"errors"
	"strings"

	"postboard/internal/domain/support/model"
	"postboard/internal/domain/support/repository"
	"postboard/pkg/logger"
	"postboard/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrSendFailed 写入失败时对外的统一错误，不暴露数据库细节
	ErrSendFailed      = errors.New("failed to send message")
	ErrMessageNotFound = errors.New("message not found")
)

// SupportInput 留言表单，校验前去除首尾空白
type SupportInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Message string `json:"message" validate:"required,max=1000"`
}

// StatusInput 管理员更新状态
type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending read resolved"`
}

// Recorder 留言提交统计
type Recorder interface {
	RecordSupportMessage(success bool)
}

// SupportService 留言服务
type SupportService interface {
	Submit(ctx context.Context, in SupportInput) (*model.SupportMessage, error)
	List(ctx context.Context, status string) ([]model.SupportMessage, error)
	UpdateStatus(ctx context.Context, id string, in StatusInput) (*model.SupportMessage, error)
}

type supportService struct {
	repo     repository.SupportRepository
	recorder Recorder
}

func NewSupportService(repo repository.SupportRepository, recorder Recorder) SupportService {
	return &supportService{repo: repo, recorder: recorder}
}

func (s *supportService) Submit(ctx context.Context, in SupportInput) (*model.SupportMessage, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	msg := &model.SupportMessage{
		Name:    in.Name,
		Email:   in.Email,
		Message: in.Message,
		Status:  model.StatusPending,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		logger.Log.Error("failed to store support message", zap.String("email", in.Email), zap.Error(err))
		s.record(false)
		return nil, ErrSendFailed
	}
	s.record(true)
	return msg, nil
}

func (s *supportService) List(ctx context.Context, status string) ([]model.SupportMessage, error) {
	if status != "" {
		if err := validation.Struct(StatusInput{Status: status}); err != nil {
			return nil, err
		}
	}
	return s.repo.List(ctx, status)
}

func (s *supportService) UpdateStatus(ctx context.Context, id string, in StatusInput) (*model.SupportMessage, error) {
	in.Status = strings.TrimSpace(in.Status)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		return nil, ErrMessageNotFound
	}
	if err := s.repo.UpdateStatus(ctx, id, in.Status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return msg, nil
}

func (s *supportService) record(success bool) {
	if s.recorder != nil {
		s.recorder.RecordSupportMessage(success)
	}
}
