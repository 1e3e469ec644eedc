package main

import (
	"context"

	"github.com/ScarletStudies/api/config"
	"github.com/ScarletStudies/api/models"
	"github.com/ScarletStudies/api/routes"
	"github.com/ScarletStudies/api/tasks"
	"github.com/ScarletStudies/api/tokens"
	"github.com/ScarletStudies/api/utils"
)

func main() {
	cfg := config.Load()

	logger, err := utils.NewLogger(utils.LogConfig{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()

	db := config.InitDatabase(cfg,
		&models.User{},
		&models.Course{},
		&models.Category{},
		&models.Semester{},
		&models.Post{},
		&models.Comment{},
	)

	if _, err := config.EnsureSentinel(db, cfg); err != nil {
		sugar.Fatalf("failed to seed sentinel account: %v", err)
	}
	if cfg.SeedOnBoot {
		if err := config.SeedReferenceData(db); err != nil {
			sugar.Fatalf("failed to seed reference data: %v", err)
		}
	}

	tm := tokens.NewManager(cfg.JWTSecret)
	redisClient := utils.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisDB, cfg.RedisPassword)
	queue := tasks.NewRedisQueue(redisClient, tasks.DefaultQueueKey)
	cache := utils.NewCache(redisClient)

	mailer := utils.NewSMTPMailer(utils.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		UseTLS:   cfg.SMTPTLS,
	})

	handlers := tasks.NewHandlers(db, mailer, tm, logger, cfg.SiteBaseURL, cfg.SentinelEmail)
	worker := tasks.NewWorker(redisClient, tasks.DefaultQueueKey, handlers, logger)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go worker.Run(workerCtx)

	r := routes.SetupRouter(cfg, db, tm, queue, cache)

	sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r, logger); err != nil {
		sugar.Fatalf("server stopped with error: %v", err)
	}
}
