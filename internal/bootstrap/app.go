package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"raterocket/internal/config"
	"raterocket/internal/model"
	"raterocket/internal/pkg/logger"
	mysqlClient "raterocket/internal/platform/mysql"
	rabbitmqClient "raterocket/internal/platform/rabbitmq"
	redisClient "raterocket/internal/platform/redis"
	"raterocket/internal/repository"
	"raterocket/internal/worker"
)

type App struct {
	Config       *config.Config
	Log          *zap.Logger
	MySQL        *gorm.DB
	Redis        *redis.Client
	MQConn       *amqp.Connection
	MirrorWorker *worker.SessionMirrorWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log, err := logger.New(cfg.App.Env, cfg.App.LogPath)
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.User{}, &model.Session{}, &model.Message{}, &model.LoanDocument{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	sessionRepo := repository.NewSessionRepository(mysqlDB)
	mirrorWorker := worker.NewSessionMirrorWorker(mqConn, sessionRepo, cfg.RabbitMQ.SessionMirrorQueue, log)
	if err := mirrorWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start session mirror worker failed: %w", err)
	}

	return &App{
		Config:       cfg,
		Log:          log,
		MySQL:        mysqlDB,
		Redis:        redisCli,
		MQConn:       mqConn,
		MirrorWorker: mirrorWorker,
		StartedAt:    time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MirrorWorker != nil {
		a.MirrorWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Log != nil {
		_ = a.Log.Sync()
	}
	return closeErr
}
