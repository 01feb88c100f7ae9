package model

import (
	"time"

	"postboard/pkg/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const RoleAdmin = "admin"

// User 用户模型
type User struct {
	model.BaseModel
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"` // 密码不返回给前端
}

// UserRole 用户角色，(user_id, role) 唯一
type UserRole struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_roles_user_role" json:"userId"`
	Role      string    `gorm:"size:32;not null;uniqueIndex:idx_user_roles_user_role" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *UserRole) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// Session 登录态
type Session struct {
	User      *User      `json:"user"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	IsAdmin   bool       `json:"isAdmin"`
}
