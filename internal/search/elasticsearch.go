package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"HackathonSync/internal/config"
	"HackathonSync/internal/interfaces"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const defaultIndex = "hackathons"

// 命中说明按此顺序取第一个高亮片段
var highlightFields = []string{"title", "tags", "description", "location"}

// ElasticClient 词法排序器：索引规范化文本字段，按 multi_match 相关度返回候选 ID
type ElasticClient struct {
	client *elasticsearch.Client
	index  string
	logger *logrus.Logger
}

var (
	_ interfaces.Ranker  = (*ElasticClient)(nil)
	_ interfaces.Indexer = (*ElasticClient)(nil)
)

// NewElasticClient 创建客户端（不发请求；首次调用时做产品校验）
func NewElasticClient(cfg config.ElasticConfig, logger *logrus.Logger) (*ElasticClient, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.URLs,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "创建Elasticsearch客户端失败")
	}
	index := cfg.Index
	if index == "" {
		index = defaultIndex
	}
	return &ElasticClient{client: client, index: index, logger: logger}, nil
}

// IndexEvents 批量写入当前文档，并删除不在本批中的旧文档
func (c *ElasticClient) IndexEvents(ctx context.Context, docs []interfaces.SearchDocument) error {
	if len(docs) > 0 {
		if err := c.bulkIndex(ctx, docs); err != nil {
			return err
		}
	}
	return c.deleteOthers(ctx, docs)
}

func (c *ElasticClient) bulkIndex(ctx context.Context, docs []interfaces.SearchDocument) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		meta := map[string]any{"index": map[string]any{"_index": c.index, "_id": doc.ID}}
		if err := enc.Encode(meta); err != nil {
			return errors.Wrap(err, "序列化bulk元数据失败")
		}
		if err := enc.Encode(doc); err != nil {
			return errors.Wrapf(err, "序列化文档%s失败", doc.ID)
		}
	}

	req := esapi.BulkRequest{
		Index:   c.index,
		Body:    &buf,
		Refresh: "true",
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "执行Elasticsearch bulk请求失败")
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError(res, "bulk")
	}

	var result struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID    string          `json:"_id"`
			Error json.RawMessage `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return errors.Wrap(err, "解析bulk响应失败")
	}
	if result.Errors {
		failed := 0
		for _, item := range result.Items {
			for _, op := range item {
				if len(op.Error) > 0 {
					failed++
				}
			}
		}
		return errors.Errorf("bulk写入有%d条失败", failed)
	}

	c.logger.WithFields(logrus.Fields{"index": c.index, "count": len(docs)}).Info("搜索索引已更新")
	return nil
}

// deleteOthers 删除 ID 不在 docs 中的文档；索引不存在时视为成功
func (c *ElasticClient) deleteOthers(ctx context.Context, docs []interfaces.SearchDocument) error {
	var query map[string]any
	if len(docs) == 0 {
		query = map[string]any{"query": map[string]any{"match_all": map[string]any{}}}
	} else {
		ids := make([]string, 0, len(docs))
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
		query = map[string]any{"query": map[string]any{
			"bool": map[string]any{"must_not": map[string]any{"ids": map[string]any{"values": ids}}},
		}}
	}
	body, err := json.Marshal(query)
	if err != nil {
		return errors.Wrap(err, "序列化删除条件失败")
	}

	refresh := true
	req := esapi.DeleteByQueryRequest{
		Index:   []string{c.index},
		Body:    bytes.NewReader(body),
		Refresh: &refresh,
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "执行Elasticsearch delete_by_query失败")
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError(res, "delete_by_query")
	}
	return nil
}

// Rank 按相关度返回至多 limit 个候选
func (c *ElasticClient) Rank(ctx context.Context, query string, limit int) ([]interfaces.RankedHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}

	hl := make(map[string]any, len(highlightFields))
	for _, f := range highlightFields {
		hl[f] = map[string]any{}
	}
	body, err := json.Marshal(map[string]any{
		"size":    limit,
		"_source": false,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^3", "tags^2", "description", "location"},
				"fuzziness": "AUTO",
			},
		},
		"highlight": map[string]any{
			"fields":              hl,
			"number_of_fragments": 1,
			"fragment_size":       120,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "序列化搜索条件失败")
	}

	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "执行Elasticsearch搜索失败")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError(res, "search")
	}

	var result struct {
		Hits struct {
			Hits []struct {
				ID        string              `json:"_id"`
				Score     float64             `json:"_score"`
				Highlight map[string][]string `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "解析搜索响应失败")
	}

	hits := make([]interfaces.RankedHit, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		hits = append(hits, interfaces.RankedHit{ID: h.ID, Score: h.Score, Reason: reason(h.Highlight)})
	}
	return hits, nil
}

func reason(highlight map[string][]string) string {
	for _, f := range highlightFields {
		if frags := highlight[f]; len(frags) > 0 {
			return f + ": " + frags[0]
		}
	}
	return ""
}

func responseError(res *esapi.Response, op string) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return errors.Errorf("Elasticsearch %s 返回 %s: %s", op, res.Status(), strings.TrimSpace(string(body)))
}
