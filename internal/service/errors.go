package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

var (
	ErrParamInvalid           = errors.New("参数错误")
	ErrPostNotFound           = errors.New("帖子不存在")
	ErrPostStateInvalid       = errors.New("帖子状态不允许该操作")
	ErrPostPublishedImmutable = errors.New("已发布的帖子不可修改")
	ErrPlatformInvalid        = errors.New("不支持的平台")
	ErrConnectionNotFound     = errors.New("平台账号未连接")
	ErrConnectionRevoked      = errors.New("平台授权已失效，请重新连接")
	ErrPublicationNotFound    = errors.New("发布记录不存在")
	ErrSnapshotNotFound       = errors.New("暂无该帖子的指标数据")
	ErrFileNotSupported       = errors.New("不支持的文件类型")
	ErrFileNotExist           = errors.New("文件不存在")
	ErrAPIBudgetExceeded      = errors.New("平台接口调用额度已用尽")
	UnauthorizedError         = errors.New("权限不足")
	UnExpectedError           = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:           BadRequest,
	ErrPostNotFound:           NotFound,
	ErrPostStateInvalid:       Conflict,
	ErrPostPublishedImmutable: Conflict,
	ErrPlatformInvalid:        BadRequest,
	ErrConnectionNotFound:     BadRequest,
	ErrConnectionRevoked:      Unauthorized,
	ErrPublicationNotFound:    NotFound,
	ErrSnapshotNotFound:       NotFound,
	ErrFileNotSupported:       BadRequest,
	ErrFileNotExist:           NotFound,
	ErrAPIBudgetExceeded:      Conflict,
	UnauthorizedError:         Unauthorized,
	UnExpectedError:           InternalServerError,
}
