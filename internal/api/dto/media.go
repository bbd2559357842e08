package dto

// MediaUploadDTO 媒体上传结果
type MediaUploadDTO struct {
	ObjectKey string `json:"object_key"`
	FileType  string `json:"file_type"`
	URL       string `json:"url"`
}
