package dto

// PostBaseDTO 帖子 - 新增或修改
type PostBaseDTO struct {
	Title       string          `json:"title" binding:"required" validate:"min=1,max=255"`
	Body        string          `json:"body" binding:"required" validate:"min=1,max=5000"`
	Tags        []string        `json:"tags" validate:"max=10,dive,min=1,max=50"`
	Platforms   []string        `json:"platforms" binding:"required" validate:"min=1,max=3"`
	ScheduledAt *string         `json:"scheduled_at,omitempty"`
	Medias      []*MediaBaseDTO `json:"medias" validate:"max=4"`
}

// MediaBaseDTO 媒体 - 基础
type MediaBaseDTO struct {
	FileType  string `json:"file_type" binding:"required" validate:"min=1,max=64"`
	ObjectKey string `json:"object_key" binding:"required" validate:"min=1,max=512"`
}

// PostDTO 帖子详情
type PostDTO struct {
	ID          uint64            `json:"id"`
	UserID      uint64            `json:"user_id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Tags        []string          `json:"tags"`
	Status      string            `json:"status"`
	ScheduledAt *string           `json:"scheduled_at,omitempty"`
	PublishedAt *string           `json:"published_at,omitempty"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
	Medias      []*MediaBaseDTO   `json:"medias"`
	Targets     []*PublicationDTO `json:"targets"`
}

// PublicationDTO 单平台发布状态
type PublicationDTO struct {
	ID             uint64  `json:"id"`
	Platform       string  `json:"platform"`
	Status         string  `json:"status"`
	PlatformPostID *string `json:"platform_post_id,omitempty"`
	PlatformURL    *string `json:"platform_url,omitempty"`
	PublishedAt    *string `json:"published_at,omitempty"`
	ErrorMessage   *string `json:"error_message,omitempty"`
}

// PostListDTO 帖子列表查询参数
type PostListDTO struct {
	Page     int    `form:"page" validate:"min=1"`
	PageSize int    `form:"page_size" validate:"min=1,max=100"`
	Status   string `form:"status"`
}

// PublishResultDTO 发布编排结果
type PublishResultDTO struct {
	PostID     uint64            `json:"post_id"`
	PostStatus string            `json:"post_status"`
	Targets    []*PublicationDTO `json:"targets"`
}
