package service

import (
	"Crosspost/internal/api/dto"
	"Crosspost/internal/pkg/consts"
	"Crosspost/internal/pkg/minio"
	"Crosspost/internal/pkg/util"
	"context"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxMediaSize 单个媒体文件上限 50MB
const maxMediaSize = 50 << 20

type MediaService interface {
	// Upload 嗅探真实类型后上传到对象存储，返回对象键供建帖引用
	Upload(ctx context.Context, userID uint64, filename string, size int64, reader io.ReadSeeker) (*dto.MediaUploadDTO, error)
}

type mediaServiceImpl struct{}

func NewMediaService() MediaService {
	return &mediaServiceImpl{}
}

func (s *mediaServiceImpl) Upload(ctx context.Context, userID uint64, filename string, size int64, reader io.ReadSeeker) (*dto.MediaUploadDTO, error) {
	if size <= 0 || size > maxMediaSize {
		return nil, ErrParamInvalid
	}

	contentType, err := util.GetSafeContentType(reader)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(contentType, consts.MimePrefixImage) && !strings.HasPrefix(contentType, consts.MimePrefixVideo) {
		return nil, ErrFileNotSupported
	}

	objectKey := time.Now().Format("2006/01/02/") +
		strconv.FormatUint(userID, 10) + "_" + uuid.NewString() + strings.ToLower(path.Ext(filename))
	if _, err = minio.UploadFile(ctx, objectKey, reader, size, contentType); err != nil {
		return nil, err
	}

	return &dto.MediaUploadDTO{
		ObjectKey: objectKey,
		FileType:  contentType,
		URL:       minio.GetPublicURL(objectKey),
	}, nil
}
