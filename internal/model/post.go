package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

type Post struct {
	ID          uint64         `gorm:"primaryKey"`
	UserID      uint64         `gorm:"not null;index:idx_user_id" json:"user_id"`
	Title       string         `gorm:"type:varchar(255)" json:"title"`
	Body        string         `gorm:"type:text;not null" json:"body"`
	Tags        TagList        `gorm:"type:json" json:"tags"`
	Status      string         `gorm:"type:varchar(16);not null;default:draft;index:idx_user_status" json:"status"`
	ScheduledAt *time.Time     `json:"scheduled_at"`
	PublishedAt *time.Time     `json:"published_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// 关联关系
	Media        []PostMedia       `gorm:"foreignKey:PostID;references:ID"`
	Publications []PostPublication `gorm:"foreignKey:PostID;references:ID"`
}

func (Post) TableName() string {
	return "posts"
}

// TagList 帖子标签快照，整体以 JSON 列存储
type TagList []string

func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	return json.Marshal(t)
}

func (t *TagList) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
	return json.Unmarshal(bytes, t)
}
