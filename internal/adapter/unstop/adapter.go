package unstop

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"HackathonSync/internal/adapter"
	"HackathonSync/internal/config"
	"HackathonSync/internal/interfaces"
	"HackathonSync/internal/model"
	"HackathonSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL     = "https://unstop.com"
	defaultPageSize    = 100
	defaultOpportunity = "hackathons"
)

func init() {
	adapter.Register(model.SourceUnstop, NewUnstopAdapter)
}

// Adapter Unstop 公开搜索接口：GET /api/public/opportunity/search-result
type Adapter struct {
	cfg        *config.SourceConfig
	httpClient *http.Client
	retry      *httpclient.Retry
	logger     *logrus.Logger
}

func NewUnstopAdapter(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.SourceAdapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		retry:      httpclient.NewRetry(cfg.RetryCount, logger),
		logger:     logger,
	}
}

func (k *Adapter) GetSource() model.Source {
	return model.SourceUnstop
}

// searchResponse Laravel 风格分页：data.data 为记录，data.last_page 为总页数
type searchResponse struct {
	Data struct {
		Data        []map[string]any `json:"data"`
		CurrentPage int              `json:"current_page"`
		LastPage    int              `json:"last_page"`
	} `json:"data"`
}

func (k *Adapter) FetchEvents(ctx context.Context) ([]*model.RawEvent, error) {
	pageSize := k.cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	base := strings.TrimRight(k.cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	opportunity := k.cfg.Query
	if opportunity == "" {
		opportunity = defaultOpportunity
	}

	items, err := adapter.FetchPages(ctx, k.GetSource(), k.cfg.MaxPages, k.logger, func(ctx context.Context, page int) ([]map[string]any, bool, error) {
		q := url.Values{}
		q.Set("opportunity", opportunity)
		q.Set("per_page", strconv.Itoa(pageSize))
		q.Set("page", strconv.Itoa(page))
		pageURL := fmt.Sprintf("%s/api/public/opportunity/search-result?%s", base, q.Encode())

		var resp searchResponse
		err := k.retry.Do(ctx, "unstop search", func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "application/json")
			return httpclient.DoJSON(k.httpClient, req, &resp)
		})
		if err != nil {
			return nil, false, fmt.Errorf("获取Unstop第%d页失败: %w", page, err)
		}

		for _, item := range resp.Data.Data {
			absolutize(item, base)
		}
		more := len(resp.Data.Data) >= pageSize
		if resp.Data.LastPage > 0 {
			more = page < resp.Data.LastPage
		}
		return resp.Data.Data, more, nil
	})
	if err != nil {
		return nil, err
	}

	k.logger.WithField("count", len(items)).Info("Unstop抓取完成")
	return adapter.ToRawEvents(k.GetSource(), items, "id"), nil
}

// absolutize public_url 是站内相对路径（如 hackathons/xxx-123），补成绝对地址
func absolutize(item map[string]any, base string) {
	if item == nil {
		return
	}
	if _, ok := item["url"]; ok {
		return
	}
	path := adapter.StringField(item, "public_url")
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return
	}
	item["public_url"] = base + "/" + strings.TrimLeft(path, "/")
}
