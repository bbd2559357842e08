package model

import (
	"time"
)

const (
	ConnectionStatusActive  = "active"
	ConnectionStatusRevoked = "revoked"
)

// SocialConnection 用户与单个平台的授权连接，令牌以密文落库。
// TokenVersion 用于并发刷新时的条件更新。
type SocialConnection struct {
	ID                    uint64    `gorm:"primaryKey" json:"id"`
	UserID                uint64    `gorm:"not null;index:idx_user_platform,unique" json:"user_id"`
	Platform              string    `gorm:"type:varchar(32);not null;index:idx_user_platform,unique" json:"platform"`
	PlatformAccountID     string    `gorm:"type:varchar(128)" json:"platform_account_id"`
	EncryptedAccessToken  string    `gorm:"type:varchar(2048);not null" json:"-"`
	EncryptedRefreshToken string    `gorm:"type:varchar(2048)" json:"-"`
	ExpiresAt             time.Time `gorm:"not null" json:"expires_at"`
	TokenVersion          int64     `gorm:"not null;default:0" json:"-"`
	Status                string    `gorm:"type:varchar(16);not null;default:active" json:"status"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (SocialConnection) TableName() string {
	return "social_connections"
}
