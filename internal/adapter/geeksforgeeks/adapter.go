package geeksforgeeks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"HackathonSync/internal/adapter"
	"HackathonSync/internal/config"
	"HackathonSync/internal/interfaces"
	"HackathonSync/internal/model"
	"HackathonSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL   = "https://practice.geeksforgeeks.org"
	defaultEventType = "contest"
)

func init() {
	adapter.Register(model.SourceGeeksforGeeks, NewGeeksforGeeksAdapter)
}

// Adapter GeeksforGeeks 活动接口：GET /api/v1/events/?type=contest，单页
type Adapter struct {
	cfg        *config.SourceConfig
	httpClient *http.Client
	retry      *httpclient.Retry
	logger     *logrus.Logger
}

func NewGeeksforGeeksAdapter(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.SourceAdapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		retry:      httpclient.NewRetry(cfg.RetryCount, logger),
		logger:     logger,
	}
}

func (g *Adapter) GetSource() model.Source {
	return model.SourceGeeksforGeeks
}

type eventsResponse struct {
	Results []map[string]any `json:"results"`
}

func (g *Adapter) FetchEvents(ctx context.Context) ([]*model.RawEvent, error) {
	base := strings.TrimRight(g.cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	eventType := g.cfg.Query
	if eventType == "" {
		eventType = defaultEventType
	}
	q := url.Values{}
	q.Set("type", eventType)
	listURL := fmt.Sprintf("%s/api/v1/events/?%s", base, q.Encode())

	var resp eventsResponse
	err := g.retry.Do(ctx, "gfg events", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		return httpclient.DoJSON(g.httpClient, req, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("获取GeeksforGeeks活动列表失败: %w", err)
	}

	for _, item := range resp.Results {
		if item == nil {
			continue
		}
		// 没有 url 时按 slug 拼出比赛页
		if _, ok := item["url"]; !ok {
			if slug := adapter.StringField(item, "slug"); slug != "" {
				item["url"] = fmt.Sprintf("%s/contest/%s", base, slug)
			}
		}
	}

	g.logger.WithField("count", len(resp.Results)).Info("GeeksforGeeks抓取完成")
	return adapter.ToRawEvents(g.GetSource(), resp.Results, "slug"), nil
}
