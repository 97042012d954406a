package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	// 注册各来源适配器
	_ "HackathonSync/internal/adapter/devfolio"
	_ "HackathonSync/internal/adapter/devpost"
	_ "HackathonSync/internal/adapter/geeksforgeeks"
	_ "HackathonSync/internal/adapter/jsonld"
	_ "HackathonSync/internal/adapter/unstop"

	"HackathonSync/internal/adapter"
	"HackathonSync/internal/cache"
	"HackathonSync/internal/config"
	"HackathonSync/internal/dedup"
	"HackathonSync/internal/interfaces"
	"HackathonSync/internal/model"
	"HackathonSync/internal/normalizer"
	"HackathonSync/internal/repository"
	"HackathonSync/internal/search"
	"HackathonSync/internal/service"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// app 各命令共用的组件
type app struct {
	db           *gorm.DB
	cache        *cache.RedisCache
	search       *search.ElasticClient
	sync         *service.SyncService
	query        *service.QueryService
	housekeeping *service.HousekeepingService
}

func newApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*app, error) {
	db, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a := &app{db: db}

	var (
		listCache interfaces.ListCache
		indexer   interfaces.Indexer
		queryOpts = []service.QueryOption{
			service.WithStaleAfter(time.Duration(cfg.Sync.StaleHours) * time.Hour),
		}
	)
	// Redis / Elasticsearch 都是可选的，连不上只告警
	if cfg.Redis.Enabled {
		if a.cache, err = cache.NewRedisCache(ctx, cfg.Redis); err != nil {
			logger.WithError(err).Warn("Redis 不可用，列表缓存关闭")
		} else {
			listCache = a.cache
			queryOpts = append(queryOpts, service.WithCache(a.cache))
			logger.WithField("addr", cfg.Redis.Addr).Info("Redis 列表缓存已启用")
		}
	}
	if cfg.Elastic.Enabled {
		if a.search, err = search.NewElasticClient(cfg.Elastic, logger); err != nil {
			logger.WithError(err).Warn("Elasticsearch 不可用，搜索退回模糊匹配")
		} else {
			indexer = a.search
			queryOpts = append(queryOpts, service.WithRanker(a.search))
			logger.WithField("index", cfg.Elastic.Index).Info("Elasticsearch 排序已启用")
		}
	}

	events := repository.NewEventRepository(db)
	records := repository.NewSourceRecordRepository(db)
	runs := repository.NewScrapeRunRepository(db)

	a.sync = service.NewSyncService(service.SyncDeps{
		Registry:    adapter.NewSourceRegistry(cfg, logger),
		Normalizer:  normalizer.New(logger, normalizer.WithExactTeamSize(cfg.ExactTeamSizeSources()...)),
		Dedup:       dedup.New(dedup.Options{TitleThreshold: cfg.Dedup.TitleThreshold, TrustRanks: cfg.TrustRanks()}, logger),
		Records:     records,
		Runs:        runs,
		Events:      events,
		Cache:       listCache,
		Indexer:     indexer,
		Concurrency: cfg.Sync.Concurrency,
	}, logger)
	a.query = service.NewQueryService(events, runs, cfg.StatusPolicy(), logger, queryOpts...)
	a.housekeeping = service.NewHousekeepingService(records, a.sync, cfg.Sync.RetentionDays, logger)
	return a, nil
}

func (a *app) Close(logger *logrus.Logger) {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.WithError(err).Warn("关闭 Redis 连接失败")
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// openDatabase 连接 PostgreSQL（库不存在则先创建再连），配置连接池并迁移表结构
func openDatabase(ctx context.Context, dbCfg config.DatabaseConfig, logger *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dbCfg.DSN), dbCfg.GetGORMConfig())
	if err != nil {
		if !isMissingDatabase(err) {
			return nil, fmt.Errorf("连接PostgreSQL失败: %w", err)
		}
		logger.Info("目标数据库不存在，尝试自动创建…")
		if e := ensureDatabaseExists(ctx, dbCfg.DSN); e != nil {
			return nil, fmt.Errorf("创建数据库失败: %w", e)
		}
		if db, err = gorm.Open(postgres.Open(dbCfg.DSN), dbCfg.GetGORMConfig()); err != nil {
			return nil, fmt.Errorf("连接PostgreSQL失败: %w", err)
		}
	}
	logger.Info("PostgreSQL连接成功")

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)

	if err := db.WithContext(ctx).AutoMigrate(
		&model.SourceRecord{},
		&model.Event{},
		&model.EventSourceLink{},
		&model.ScrapeRun{},
	); err != nil {
		return nil, fmt.Errorf("数据库表结构迁移失败: %w", err)
	}
	logger.Info("数据库表结构检查完成（不存在则已创建）")
	return db, nil
}

func isMissingDatabase(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.InvalidCatalogName
	}
	return strings.Contains(err.Error(), pgerrcode.InvalidCatalogName)
}

// ensureDatabaseExists 连接到 postgres 默认库并创建目标库（幂等）。DSN 支持 URL 与 key=value 两种写法。
func ensureDatabaseExists(ctx context.Context, dsn string) error {
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return err
	}
	dbname := strings.TrimSpace(connCfg.Database)
	if dbname == "" || dbname == "postgres" {
		return nil
	}
	connCfg.Database = "postgres"
	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	var exists bool
	if err := conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbname).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbname}.Sanitize())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.DuplicateDatabase {
		return nil
	}
	return err
}
