package handler

import (
	"Crosspost/internal/api/dto"
	"Crosspost/internal/pkg/platform"
	"Crosspost/internal/pkg/response"
	"Crosspost/internal/pkg/util"
	"Crosspost/internal/service"

	"github.com/gin-gonic/gin"
)

type ConnectionHandler struct {
	connSvc service.ConnectionService
}

func NewConnectionHandler(connSvc service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{
		connSvc: connSvc,
	}
}

func (s *ConnectionHandler) Connect(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var req dto.ConnectDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	if err := s.connSvc.Connect(c.Request.Context(), userID, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *ConnectionHandler) ListConnections(c *gin.Context) {
	userID := c.GetUint64("user_id")

	conns, err := s.connSvc.ListConnections(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, conns)
}

func (s *ConnectionHandler) Disconnect(c *gin.Context) {
	userID := c.GetUint64("user_id")

	p, ok := platform.Parse(c.Param("platform"))
	if !ok {
		response.Error(c, service.ErrPlatformInvalid)
		return
	}

	if err := s.connSvc.Disconnect(c.Request.Context(), userID, p); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
