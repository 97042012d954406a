package interfaces

import (
	"context"

	"HackathonSync/internal/config"
	"HackathonSync/internal/model"

	"github.com/sirupsen/logrus"
)

// SourceAdapter 所有来源必须实现的核心接口
type SourceAdapter interface {
	GetSource() model.Source                                    // 来源标识
	FetchEvents(ctx context.Context) ([]*model.RawEvent, error) // 抓取原始记录，形态由来源决定
}

// Factory 来源适配器工厂函数签名
// 入参：来源配置、日志实例
// 出参：实现SourceAdapter接口的适配器实例
type Factory func(cfg *config.SourceConfig, logger *logrus.Logger) SourceAdapter
