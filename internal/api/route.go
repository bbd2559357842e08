package api

import (
	"Crosspost/internal/api/middleware"
	"Crosspost/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		postGroup := apiGroup.Group("/post")
		{
			postGroup.Use(middleware.AuthMiddleware())
			{
				postGroup.POST("", group.PostHandler.CreatePost)
				postGroup.GET("", group.PostHandler.ListPosts)
				postGroup.GET("/:post_id", group.PostHandler.GetPost)
				postGroup.PUT("/:post_id", group.PostHandler.UpdatePost)
				postGroup.DELETE("/:post_id", group.PostHandler.DeletePost)
				postGroup.POST("/:post_id/publish", group.PostHandler.PublishPost)
				postGroup.POST("/:post_id/retry", group.PostHandler.RetryPublication)
			}
		}

		metricsGroup := apiGroup.Group("/metrics")
		{
			metricsGroup.Use(middleware.AuthMiddleware())
			{
				metricsGroup.GET("/dashboard", group.MetricHandler.Dashboard)
				metricsGroup.GET("/timeseries", group.MetricHandler.TimeSeries)
				metricsGroup.GET("/top", group.MetricHandler.TopPosts)
				metricsGroup.GET("/post/:post_id", group.MetricHandler.PostMetrics)
				metricsGroup.GET("/publication/:publication_id", group.MetricHandler.PublicationSeries)
				metricsGroup.GET("/snapshot", group.MetricHandler.LatestSnapshot)
				metricsGroup.GET("/snapshot/series", group.MetricHandler.SnapshotSeries)
				metricsGroup.GET("/snapshots/latest", group.MetricHandler.LatestSnapshots)
			}
		}

		followerGroup := apiGroup.Group("/followers")
		{
			followerGroup.Use(middleware.AuthMiddleware())
			{
				followerGroup.GET("/:platform/growth", group.FollowerHandler.Growth)
			}
		}

		connGroup := apiGroup.Group("/connection")
		{
			connGroup.Use(middleware.AuthMiddleware())
			{
				connGroup.POST("", group.ConnectionHandler.Connect)
				connGroup.GET("", group.ConnectionHandler.ListConnections)
				connGroup.DELETE("/:platform", group.ConnectionHandler.Disconnect)
			}
		}

		mediaGroup := apiGroup.Group("/media")
		{
			mediaGroup.Use(middleware.AuthMiddleware())
			{
				mediaGroup.POST("/upload", group.MediaHandler.Upload)
			}
		}
	}

	return r
}
