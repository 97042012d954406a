package devpost

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"HackathonSync/internal/adapter"
	"HackathonSync/internal/config"
	"HackathonSync/internal/interfaces"
	"HackathonSync/internal/model"
	"HackathonSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL  = "https://devpost.com"
	defaultPageSize = 50
)

func init() {
	adapter.Register(model.SourceDevpost, NewDevpostAdapter)
}

// Adapter Devpost 公开列表接口：GET /api/hackathons?page=&per_page=
type Adapter struct {
	cfg        *config.SourceConfig
	httpClient *http.Client
	retry      *httpclient.Retry
	logger     *logrus.Logger
}

func NewDevpostAdapter(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.SourceAdapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		retry:      httpclient.NewRetry(cfg.RetryCount, logger),
		logger:     logger,
	}
}

func (p *Adapter) GetSource() model.Source {
	return model.SourceDevpost
}

// listResponse 只解出列表外壳，单条记录保持原样交给规范化
type listResponse struct {
	Hackathons []map[string]any `json:"hackathons"`
	Meta       struct {
		TotalCount int `json:"total_count"`
		PerPage    int `json:"per_page"`
	} `json:"meta"`
}

func (p *Adapter) FetchEvents(ctx context.Context) ([]*model.RawEvent, error) {
	pageSize := p.cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	base := p.cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	seen := 0
	items, err := adapter.FetchPages(ctx, p.GetSource(), p.cfg.MaxPages, p.logger, func(ctx context.Context, page int) ([]map[string]any, bool, error) {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(pageSize))
		pageURL := fmt.Sprintf("%s/api/hackathons?%s", base, q.Encode())

		var resp listResponse
		err := p.retry.Do(ctx, "devpost list", func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "application/json")
			return httpclient.DoJSON(p.httpClient, req, &resp)
		})
		if err != nil {
			return nil, false, fmt.Errorf("获取Devpost第%d页失败: %w", page, err)
		}
		seen += len(resp.Hackathons)
		more := len(resp.Hackathons) >= pageSize
		if resp.Meta.TotalCount > 0 {
			more = seen < resp.Meta.TotalCount
		}
		return resp.Hackathons, more, nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.WithField("count", len(items)).Info("Devpost抓取完成")
	return adapter.ToRawEvents(p.GetSource(), items, "id"), nil
}
