package model

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"postboard/pkg/model"
)

// Post 帖子
type Post struct {
	model.BaseModel
	Title       string  `gorm:"size:200;not null" json:"title"`
	Content     string  `gorm:"type:text;not null" json:"content"`
	AuthorID    string  `gorm:"type:uuid;index" json:"authorId"`
	ExternalURL *string `gorm:"column:external_url" json:"externalUrl"`
	ImageURL    *string `gorm:"column:image_url" json:"imageUrl"`
	DocumentURL *string `gorm:"column:document_url" json:"documentUrl"`
	// LikesCount 展示用计数，由点赞事务维护，管理员可覆盖
	LikesCount int `gorm:"not null;default:0" json:"likesCount"`
}

// ExcerptLength 摘要最大字符数
const ExcerptLength = 150

var hashtagPattern = regexp.MustCompile(`#[\w\x{00C0}-\x{024F}]+`)

// Hashtags 提取正文中的话题标签，按出现顺序，保留重复
func Hashtags(content string) []string {
	tags := hashtagPattern.FindAllString(content, -1)
	if tags == nil {
		return []string{}
	}
	return tags
}

// StripHashtags 去掉话题标签后的正文
func StripHashtags(content string) string {
	return strings.TrimSpace(hashtagPattern.ReplaceAllString(content, ""))
}

// Excerpt 去标签并截断到 ExcerptLength 个字符
func Excerpt(content string) string {
	text := StripHashtags(content)
	if utf8.RuneCountInString(text) <= ExcerptLength {
		return text
	}
	return string([]rune(text)[:ExcerptLength]) + "..."
}

// PostView 带渲染字段的帖子
type PostView struct {
	Post
	Hashtags []string `json:"hashtags"`
	Excerpt  string   `json:"excerpt"`
}

func NewView(p Post) PostView {
	return PostView{Post: p, Hashtags: Hashtags(p.Content), Excerpt: Excerpt(p.Content)}
}

func NewViews(posts []Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, NewView(p))
	}
	return views
}
