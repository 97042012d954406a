package jsonld

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"time"

	"HackathonSync/internal/adapter"
	"HackathonSync/internal/config"
	"HackathonSync/internal/interfaces"
	"HackathonSync/internal/model"
	"HackathonSync/internal/utils/httpclient"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const (
	defaultMLHPage = "https://mlh.io/seasons/2026/events"
	renderWait     = 3 * time.Second
	maxPageBytes   = 8 << 20
)

func init() {
	adapter.Register(model.SourceMLH, NewMLHAdapter)
}

// PageFetcher 取页面 HTML
type PageFetcher interface {
	FetchHTML(ctx context.Context, pageURL string) (string, error)
}

// Adapter 从页面内嵌的 JSON-LD 读取赛事，页面列表来自 cfg.Pages
type Adapter struct {
	source  model.Source
	cfg     *config.SourceConfig
	fetcher PageFetcher
	retry   *httpclient.Retry
	logger  *logrus.Logger
}

// NewMLHAdapter 有浏览器时用 headless Chrome 渲染，否则退回普通 HTTP
func NewMLHAdapter(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.SourceAdapter {
	var fetcher PageFetcher
	if bin := findChromeBinary(); bin != "" {
		fetcher = &BrowserFetcher{ExecPath: bin, UserAgent: cfg.UserAgent, Logger: logger}
	} else {
		logger.WithField("source", model.SourceMLH).Warn("未找到 Chrome，JSON-LD 页面改用 HTTP 直接抓取")
		fetcher = &HTTPFetcher{Client: httpclient.NewHTTPClient(cfg, logger)}
	}
	return NewAdapter(model.SourceMLH, cfg, fetcher, logger)
}

func NewAdapter(source model.Source, cfg *config.SourceConfig, fetcher PageFetcher, logger *logrus.Logger) *Adapter {
	return &Adapter{
		source:  source,
		cfg:     cfg,
		fetcher: fetcher,
		retry:   httpclient.NewRetry(cfg.RetryCount, logger),
		logger:  logger,
	}
}

func (a *Adapter) GetSource() model.Source {
	return a.source
}

// FetchEvents 逐页抓取；单页失败跳过，全部失败才报错
func (a *Adapter) FetchEvents(ctx context.Context) ([]*model.RawEvent, error) {
	pages := a.cfg.Pages
	if len(pages) == 0 && a.source == model.SourceMLH {
		pages = []string{defaultMLHPage}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("来源%s未配置 JSON-LD 页面", a.source)
	}

	var (
		items   []map[string]any
		lastErr error
		failed  int
	)
	for _, pageURL := range pages {
		var body string
		err := a.retry.Do(ctx, "jsonld page", func(ctx context.Context) error {
			var err error
			body, err = a.fetcher.FetchHTML(ctx, pageURL)
			return err
		})
		if err != nil {
			failed++
			lastErr = err
			a.logger.WithError(err).WithFields(logrus.Fields{
				"source": a.source,
				"page":   pageURL,
			}).Warn("JSON-LD 页面抓取失败")
			continue
		}
		found := ExtractEvents(body)
		a.logger.WithFields(logrus.Fields{
			"source": a.source,
			"page":   pageURL,
			"count":  len(found),
		}).Debug("JSON-LD 页面解析完成")
		items = append(items, found...)
	}
	if failed == len(pages) {
		return nil, fmt.Errorf("来源%s所有页面抓取失败: %w", a.source, lastErr)
	}

	a.logger.WithFields(logrus.Fields{"source": a.source, "count": len(items)}).Info("JSON-LD 抓取完成")
	return adapter.ToRawEvents(a.source, items, "@id"), nil
}

// HTTPFetcher 直接 GET 页面（服务端渲染的站点足够）
type HTTPFetcher struct {
	Client *http.Client
}

func (f *HTTPFetcher) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html")
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &httpclient.StatusError{URL: pageURL, Code: resp.StatusCode, Body: string(snippet)}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// BrowserFetcher headless Chrome 渲染后取 outerHTML（JSON-LD 由前端注入的站点）
type BrowserFetcher struct {
	ExecPath  string
	UserAgent string
	Logger    *logrus.Logger
}

func (f *BrowserFetcher) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if f.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.ExecPath))
	}
	if f.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	// 屏蔽 chromedp 自身日志
	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()

	var page string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(renderWait),
		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("渲染页面%s失败: %w", pageURL, err)
	}
	return page, nil
}

// findChromeBinary CHROME_BIN 优先，其次 PATH 与常见安装路径
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}
	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	for _, p := range []string{"/usr/bin/google-chrome-stable", "/usr/bin/chromium", "/snap/bin/chromium"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
