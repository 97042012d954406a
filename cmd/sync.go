package main

import (
	"encoding/json"
	"fmt"
	"os"

	"HackathonSync/internal/model"
	"HackathonSync/internal/service"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [source...]",
	Short: "立即同步指定来源（不指定则同步全部启用的来源）并打印报告",
	RunE: func(cmd *cobra.Command, args []string) error {
		sources := make([]model.Source, 0, len(args))
		for _, name := range args {
			src, ok := model.ParseSource(name)
			if !ok {
				return fmt.Errorf("未知来源: %s", name)
			}
			sources = append(sources, src)
		}

		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close(logger)

		var report *service.SyncReport
		if len(sources) == 0 {
			report, err = a.sync.SyncAll(cmd.Context())
		} else {
			report, err = a.sync.SyncSources(cmd.Context(), sources...)
		}
		if report != nil {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(report)
		}
		return err
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "清理超过保留期且早已结束的来源记录",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close(logger)

		deleted, err := a.housekeeping.Prune(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("已删除 %d 条来源记录\n", deleted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd, pruneCmd)
}
