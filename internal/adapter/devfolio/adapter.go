package devfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"HackathonSync/internal/adapter"
	"HackathonSync/internal/config"
	"HackathonSync/internal/interfaces"
	"HackathonSync/internal/model"
	"HackathonSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL  = "https://api.devfolio.co"
	siteURL         = "https://devfolio.co"
	defaultPageSize = 100
	defaultListType = "all"
)

func init() {
	adapter.Register(model.SourceDevfolio, NewDevfolioAdapter)
}

// Adapter Devfolio 搜索接口：POST /api/search/hackathons，from/size 偏移分页
type Adapter struct {
	cfg        *config.SourceConfig
	httpClient *http.Client
	retry      *httpclient.Retry
	logger     *logrus.Logger
}

func NewDevfolioAdapter(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.SourceAdapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		retry:      httpclient.NewRetry(cfg.RetryCount, logger),
		logger:     logger,
	}
}

func (d *Adapter) GetSource() model.Source {
	return model.SourceDevfolio
}

type searchRequest struct {
	Type string `json:"type"`
	From int    `json:"from"`
	Size int    `json:"size"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (d *Adapter) FetchEvents(ctx context.Context) ([]*model.RawEvent, error) {
	size := d.cfg.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	base := d.cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	listType := d.cfg.Query
	if listType == "" {
		listType = defaultListType
	}
	endpoint := base + "/api/search/hackathons"

	items, err := adapter.FetchPages(ctx, d.GetSource(), d.cfg.MaxPages, d.logger, func(ctx context.Context, page int) ([]map[string]any, bool, error) {
		body, err := json.Marshal(searchRequest{Type: listType, From: (page - 1) * size, Size: size})
		if err != nil {
			return nil, false, err
		}

		var resp searchResponse
		err = d.retry.Do(ctx, "devfolio search", func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")
			return httpclient.DoJSON(d.httpClient, req, &resp)
		})
		if err != nil {
			return nil, false, fmt.Errorf("Devfolio搜索（from=%d）失败: %w", (page-1)*size, err)
		}

		out := make([]map[string]any, 0, len(resp.Hits.Hits))
		for _, hit := range resp.Hits.Hits {
			if hit.Source == nil {
				continue
			}
			out = append(out, withSiteURL(hit.Source, hit.ID))
		}
		return out, len(resp.Hits.Hits) >= size, nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.WithField("count", len(items)).Info("Devfolio抓取完成")
	return adapter.ToRawEvents(d.GetSource(), items, "uuid"), nil
}

// withSiteURL _source 里只有 slug，补出赛事页地址；ES 文档 _id 兜底作为原生 ID
func withSiteURL(src map[string]any, docID string) map[string]any {
	if _, ok := src["url"]; !ok {
		if slug := adapter.StringField(src, "slug"); slug != "" {
			src["url"] = fmt.Sprintf("%s/%s", siteURL, slug)
		}
	}
	if _, ok := src["uuid"]; !ok && docID != "" {
		src["uuid"] = docID
	}
	return src
}
