package dto

// ConnectionDTO 平台账号连接
type ConnectionDTO struct {
	ID        uint64 `json:"id"`
	Platform  string `json:"platform"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at"`
	CreatedAt string `json:"created_at"`
}

// ConnectDTO 保存平台授权令牌
type ConnectDTO struct {
	Platform     string `json:"platform" binding:"required"`
	AccessToken  string `json:"access_token" binding:"required" validate:"min=1"`
	RefreshToken string `json:"refresh_token" binding:"required" validate:"min=1"`
	ExpiresAt    string `json:"expires_at" binding:"required"`
}
