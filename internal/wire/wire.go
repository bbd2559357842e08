package wire

import (
	"Crosspost/internal/api"
	"Crosspost/internal/api/config"
	"Crosspost/internal/api/handler"
	"Crosspost/internal/job"
	"Crosspost/internal/pkg/cron"
	"Crosspost/internal/pkg/minio"
	"Crosspost/internal/pkg/platform"
	"Crosspost/internal/pkg/security"
	"Crosspost/internal/repository"
	"Crosspost/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router  *gin.Engine
	DB      *gorm.DB
	CronMgr *cron.Manager
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	cipher, err := security.NewTokenCipher(cfg.Security.TokenKey)
	if err != nil {
		return nil, err
	}

	registry, err := platform.NewRegistry(cfg.Platform)
	if err != nil {
		return nil, err
	}

	storage := minio.NewObjectStorage()

	postRepo := repository.NewPostRepository(db)
	pubRepo := repository.NewPublicationRepository(db)
	connRepo := repository.NewConnectionRepository(db)
	snapshotRepo := repository.NewMetricSnapshotRepository(db)
	eventRepo := repository.NewMetricEventRepository(db)
	fetchLogRepo := repository.NewFetchLogRepository(db)
	followerRepo := repository.NewFollowerSnapshotRepository(db)

	postService := service.NewPostService(postRepo)
	connService := service.NewConnectionService(connRepo, cipher)
	publishService := service.NewPublishService(postRepo, pubRepo, connService, registry, storage)
	metricService := service.NewMetricService(snapshotRepo, eventRepo, pubRepo, postRepo)
	pollingService := service.NewPollingService(pubRepo, eventRepo, fetchLogRepo, connService, metricService, registry, cfg.Polling)
	followerService := service.NewFollowerService(followerRepo)
	mediaService := service.NewMediaService()

	handlers := &api.HandlersGroup{
		PostHandler:       handler.NewPostHandler(postService, publishService),
		MetricHandler:     handler.NewMetricHandler(metricService),
		FollowerHandler:   handler.NewFollowerHandler(followerService),
		ConnectionHandler: handler.NewConnectionHandler(connService),
		MediaHandler:      handler.NewMediaHandler(mediaService),
	}

	router := api.SetupRouter(handlers)

	cronMgr := cron.NewCronManager(
		cfg.Polling,
		job.NewMetricPollJob(pollingService),
		job.NewScheduledPublishJob(publishService),
		job.NewFollowerSnapshotJob(connRepo, fetchLogRepo, connService, followerService, registry),
		job.NewMediaCleanupJob(postRepo),
	)

	return &ApplicationContainer{
		Router:  router,
		DB:      db,
		CronMgr: cronMgr,
	}, nil
}
