package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// StatusError 非 2xx 响应
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("请求 %s 返回 %d: %s", e.URL, e.Code, e.Body)
}

// Retryable 5xx 与 429 可重试
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Retry 指数退避重试
type Retry struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *logrus.Logger
}

// NewRetry retryCount 为额外重试次数（配置中的 retry_count）
func NewRetry(retryCount int, logger *logrus.Logger) *Retry {
	if retryCount < 0 {
		retryCount = 0
	}
	return &Retry{MaxAttempts: retryCount + 1, BaseDelay: 500 * time.Millisecond, Logger: logger}
}

// Do 执行 fn，失败时按指数退避重试；ctx 取消或错误不可重试时立即返回
func (r *Retry) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := r.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt == attempts {
			break
		}
		if r.Logger != nil {
			r.Logger.WithError(lastErr).WithFields(logrus.Fields{
				"operation": operation,
				"attempt":   attempt,
				"max":       attempts,
				"delay":     delay.String(),
			}).Warn("请求失败，准备重试")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s 失败: %w", operation, lastErr)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	var de *DecodeError
	return !errors.As(err, &de)
}

// DecodeError 响应体不是预期 JSON，重试无意义
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("解析 %s 响应失败: %v", e.URL, e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// DoJSON 发送请求并把 2xx 响应体解码到 out
func DoJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{URL: req.URL.String(), Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{URL: req.URL.String(), Err: err}
	}
	return nil
}
