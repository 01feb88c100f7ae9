package model

import (
	"time"

	"postboard/pkg/identity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostLike 点赞记录，user_id 与 session_id 有且仅有一个（CHECK 约束见 migrations）
type PostLike struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PostID    string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_post_likes_post_user,where:user_id IS NOT NULL;uniqueIndex:idx_post_likes_post_session,where:session_id IS NOT NULL" json:"postId"`
	UserID    *string   `gorm:"type:uuid;uniqueIndex:idx_post_likes_post_user,where:user_id IS NOT NULL" json:"userId"`
	SessionID *string   `gorm:"size:64;uniqueIndex:idx_post_likes_post_session,where:session_id IS NOT NULL" json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (l *PostLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// NewPostLike 按身份类型只填一列
func NewPostLike(postID string, id identity.Identity) *PostLike {
	like := &PostLike{PostID: postID}
	value := id.ID
	if id.IsUser() {
		like.UserID = &value
	} else {
		like.SessionID = &value
	}
	return like
}

// Result 点赞切换结果，Delta 为 0 表示客户端状态已过期，本次未写入
type Result struct {
	Liked      bool `json:"liked"`
	Delta      int  `json:"delta"`
	LikesCount int  `json:"likesCount"`
}
