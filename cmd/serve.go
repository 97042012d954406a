package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"HackathonSync/internal/api"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var withWorker bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 查询服务",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&withWorker, "with-worker", false, "同进程内运行定时同步与清理")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(logger)

	router := api.NewRouter(cfg, logger,
		api.NewEventHandler(a.query, logger),
		api.NewSyncHandler(a.sync, logger),
	)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("服务启动成功，端口：%d，Gin运行模式: %s", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("启动服务失败: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("正在关闭 HTTP 服务…")
		return srv.Shutdown(shutdownCtx)
	})
	if withWorker {
		g.Go(func() error { return runScheduler(gctx, a) })
	}
	return g.Wait()
}
