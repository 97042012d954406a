package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "按 cron 定时同步全部来源并清理过期记录",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close(logger)
		return runScheduler(ctx, a)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

// runScheduler 阻塞到 ctx 取消；同一任务上一次未结束时本次顺延
func runScheduler(ctx context.Context, a *app) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("创建调度器失败: %w", err)
	}

	syncOpts := []gocron.JobOption{
		gocron.WithName("sync-all"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if cfg.Sync.RunOnStart {
		syncOpts = append(syncOpts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	if _, err := scheduler.NewJob(
		gocron.CronJob(cfg.Sync.Cron, false),
		gocron.NewTask(func() {
			report, err := a.sync.SyncAll(ctx)
			if err != nil {
				logger.WithError(err).Error("定时同步失败")
				return
			}
			logger.WithField("canonical_events", report.CanonicalEvents).Info("定时同步完成")
		}),
		syncOpts...,
	); err != nil {
		return fmt.Errorf("注册同步任务失败: %w", err)
	}

	if _, err := scheduler.NewJob(
		gocron.CronJob(cfg.Sync.PruneCron, false),
		gocron.NewTask(func() {
			if _, err := a.housekeeping.Prune(ctx); err != nil {
				logger.WithError(err).Error("定时清理失败")
			}
		}),
		gocron.WithName("prune"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("注册清理任务失败: %w", err)
	}

	logger.WithField("sync_cron", cfg.Sync.Cron).WithField("prune_cron", cfg.Sync.PruneCron).Info("调度器已启动")
	scheduler.Start()

	<-ctx.Done()
	logger.Info("正在关闭调度器…")
	return scheduler.Shutdown()
}
