package util

import (
	"io"
	"net/http"
	"path"
	"strings"
)

// extMimeTypes 发布链路使用扩展名映射，而不是重新嗅探已落库的对象
var extMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
}

// MimeByExt 根据文件扩展名推断 MIME 类型，未知扩展名返回通用二进制类型
func MimeByExt(objectName string) string {
	ext := strings.ToLower(path.Ext(objectName))
	if mime, ok := extMimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// GetSafeContentType 嗅探上传流的真实类型，读取后回退到流起始位置
func GetSafeContentType(reader io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := reader.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err = reader.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
