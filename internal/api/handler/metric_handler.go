package handler

import (
	"Crosspost/internal/pkg/response"
	"Crosspost/internal/service"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type MetricHandler struct {
	metricSvc service.MetricService
}

func NewMetricHandler(metricSvc service.MetricService) *MetricHandler {
	return &MetricHandler{
		metricSvc: metricSvc,
	}
}

func (s *MetricHandler) Dashboard(c *gin.Context) {
	userID := c.GetUint64("user_id")
	days := queryDays(c)
	platformName := queryPlatform(c)

	result, err := s.metricSvc.DashboardMetrics(c.Request.Context(), userID, days, platformName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *MetricHandler) TimeSeries(c *gin.Context) {
	userID := c.GetUint64("user_id")
	days := queryDays(c)
	platformName := queryPlatform(c)

	result, err := s.metricSvc.TimeSeries(c.Request.Context(), userID, days, platformName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *MetricHandler) TopPosts(c *gin.Context) {
	userID := c.GetUint64("user_id")
	days := queryDays(c)
	platformName := queryPlatform(c)
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := s.metricSvc.TopPosts(c.Request.Context(), userID, days, limit, platformName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *MetricHandler) PostMetrics(c *gin.Context) {
	userID := c.GetUint64("user_id")

	postID, err := parseID(c, "post_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := s.metricSvc.LatestForPost(c.Request.Context(), userID, postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *MetricHandler) PublicationSeries(c *gin.Context) {
	userID := c.GetUint64("user_id")

	pubID, err := parseID(c, "publication_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := s.metricSvc.SeriesForPublication(c.Request.Context(), userID, pubID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *MetricHandler) LatestSnapshots(c *gin.Context) {
	userID := c.GetUint64("user_id")

	raw := c.Query("platform_post_ids")
	if raw == "" {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	ids := strings.Split(raw, ",")

	result, err := s.metricSvc.LatestSnapshots(c.Request.Context(), userID, ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *MetricHandler) LatestSnapshot(c *gin.Context) {
	userID := c.GetUint64("user_id")

	result, err := s.metricSvc.LatestSnapshot(c.Request.Context(), userID,
		c.Query("platform_post_id"), c.Query("platform"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *MetricHandler) SnapshotSeries(c *gin.Context) {
	userID := c.GetUint64("user_id")

	limit, _ := strconv.Atoi(c.Query("limit"))
	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, service.ErrParamInvalid)
			return
		}
		since = parsed
	}

	result, err := s.metricSvc.SnapshotSeries(c.Request.Context(), userID,
		c.Query("platform_post_id"), c.Query("platform"), limit, since)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func queryDays(c *gin.Context) int {
	days, _ := strconv.Atoi(c.Query("days"))
	return days
}

func queryPlatform(c *gin.Context) *string {
	p := c.Query("platform")
	if p == "" {
		return nil
	}
	return &p
}
