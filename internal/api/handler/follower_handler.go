package handler

import (
	"Crosspost/internal/pkg/platform"
	"Crosspost/internal/pkg/response"
	"Crosspost/internal/service"

	"github.com/gin-gonic/gin"
)

type FollowerHandler struct {
	followerSvc service.FollowerService
}

func NewFollowerHandler(followerSvc service.FollowerService) *FollowerHandler {
	return &FollowerHandler{
		followerSvc: followerSvc,
	}
}

func (s *FollowerHandler) Growth(c *gin.Context) {
	userID := c.GetUint64("user_id")

	p, ok := platform.Parse(c.Param("platform"))
	if !ok {
		response.Error(c, service.ErrPlatformInvalid)
		return
	}
	days := queryDays(c)

	result, err := s.followerSvc.Growth(c.Request.Context(), userID, p, days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
