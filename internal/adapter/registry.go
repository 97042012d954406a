package adapter

import (
	"fmt"
	"sort"

	"HackathonSync/internal/config"
	"HackathonSync/internal/interfaces"
	"HackathonSync/internal/model"

	"github.com/sirupsen/logrus"
)

// SourceRegistry 已启用来源的适配器实例
type SourceRegistry struct {
	cfg    *config.Config
	logger *logrus.Logger
	// 来源→适配器实例
	adapters map[model.Source]interfaces.SourceAdapter
}

func NewSourceRegistry(cfg *config.Config, logger *logrus.Logger) *SourceRegistry {
	r := &SourceRegistry{
		cfg:      cfg,
		logger:   logger,
		adapters: make(map[model.Source]interfaces.SourceAdapter),
	}
	r.initAdaptersFromFactories()
	return r
}

// NewStaticRegistry 直接用给定适配器构造（测试、单来源命令行）
func NewStaticRegistry(logger *logrus.Logger, adapters ...interfaces.SourceAdapter) *SourceRegistry {
	r := &SourceRegistry{logger: logger, adapters: make(map[model.Source]interfaces.SourceAdapter)}
	for _, a := range adapters {
		r.adapters[a.GetSource()] = a
	}
	return r
}

// initAdaptersFromFactories 按 sync.enabled_sources 创建实例；未列出时启用全部已配置来源
func (r *SourceRegistry) initAdaptersFromFactories() {
	r.logger.WithField("factory_sources", ListFactories()).Debug("已注册的来源工厂函数")

	names := r.cfg.Sync.EnabledSources
	if len(names) == 0 {
		for name := range r.cfg.Sources {
			names = append(names, name)
		}
	}

	for _, name := range names {
		source, ok := model.ParseSource(name)
		if !ok {
			r.logger.WithField("source", name).Error("未知来源，跳过")
			continue
		}
		factory, ok := GetFactory(source)
		if !ok {
			r.logger.WithField("source", source).Error("未找到对应的工厂函数（init未注册？）")
			continue
		}

		sourceCfg := r.cfg.Source(source)
		adapterIns := factory(&sourceCfg, r.logger)
		if adapterIns == nil {
			r.logger.WithField("source", source).Error("工厂函数返回nil适配器实例")
			continue
		}
		if adapterIns.GetSource() != source {
			r.logger.WithFields(logrus.Fields{
				"config_source":  source,
				"adapter_source": adapterIns.GetSource(),
			}).Error("适配器来源与配置不匹配")
			continue
		}
		r.adapters[source] = adapterIns
	}

	r.logger.WithField("sources", r.ListRegisteredSources()).Info("来源适配器初始化完成")
}

// ListRegisteredSources 已初始化的来源（有序）
func (r *SourceRegistry) ListRegisteredSources() []model.Source {
	sources := make([]model.Source, 0, len(r.adapters))
	for s := range r.adapters {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}

// GetAdapter 获取适配器实例
func (r *SourceRegistry) GetAdapter(source model.Source) (interfaces.SourceAdapter, error) {
	adapterIns, ok := r.adapters[source]
	if !ok {
		return nil, fmt.Errorf("来源%s未初始化适配器实例（已初始化：%v）", source, r.ListRegisteredSources())
	}
	return adapterIns, nil
}

// Count 已初始化实例的来源数量
func (r *SourceRegistry) Count() int {
	return len(r.adapters)
}
