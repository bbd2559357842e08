package api

import "Crosspost/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	PostHandler       *handler.PostHandler
	MetricHandler     *handler.MetricHandler
	FollowerHandler   *handler.FollowerHandler
	ConnectionHandler *handler.ConnectionHandler
	MediaHandler      *handler.MediaHandler
}
