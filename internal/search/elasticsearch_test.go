package search

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"HackathonSync/internal/config"
	"HackathonSync/internal/interfaces"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeES struct {
	mu       sync.Mutex
	bulk     []string
	deleteQ  map[string]any
	searchQ  map[string]any
	response string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/":
		fmt.Fprint(w, `{"version":{"number":"7.17.10"},"tagline":"You Know, for Search"}`)
	case strings.HasSuffix(r.URL.Path, "/_bulk"):
		sc := bufio.NewScanner(r.Body)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				f.bulk = append(f.bulk, line)
			}
		}
		fmt.Fprint(w, `{"errors":false,"items":[]}`)
	case strings.HasSuffix(r.URL.Path, "/_delete_by_query"):
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &f.deleteQ)
		fmt.Fprint(w, `{"deleted":1}`)
	case strings.HasSuffix(r.URL.Path, "/_search"):
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &f.searchQ)
		fmt.Fprint(w, f.response)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, fake *fakeES) *ElasticClient {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	logger, _ := test.NewNullLogger()
	c, err := NewElasticClient(config.ElasticConfig{URLs: []string{srv.URL}, Index: "hk"}, logger)
	require.NoError(t, err)
	return c
}

func TestIndexEventsBulkAndPrune(t *testing.T) {
	fake := &fakeES{}
	c := newTestClient(t, fake)

	err := c.IndexEvents(context.Background(), []interfaces.SearchDocument{
		{ID: "a", Title: "AI Sprint", Tags: []string{"AI"}, Source: "devpost"},
		{ID: "b", Title: "Web3 Jam", Location: "Berlin", Source: "devfolio"},
	})
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.bulk, 4)
	assert.JSONEq(t, `{"index":{"_index":"hk","_id":"a"}}`, fake.bulk[0])
	assert.Contains(t, fake.bulk[1], `"title":"AI Sprint"`)

	values := fake.deleteQ["query"].(map[string]any)["bool"].(map[string]any)["must_not"].(map[string]any)["ids"].(map[string]any)["values"]
	assert.Equal(t, []any{"a", "b"}, values)
}

func TestIndexEventsEmptyClearsIndex(t *testing.T) {
	fake := &fakeES{}
	c := newTestClient(t, fake)

	require.NoError(t, c.IndexEvents(context.Background(), nil))
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Empty(t, fake.bulk)
	assert.Contains(t, fake.deleteQ["query"], "match_all")
}

func TestRankParsesHitsAndReasons(t *testing.T) {
	fake := &fakeES{response: `{"hits":{"hits":[
		{"_id":"b","_score":7.5,"highlight":{"description":["build on <em>web3</em>"],"title":["<em>Web3</em> Jam"]}},
		{"_id":"a","_score":1.2}
	]}}`}
	c := newTestClient(t, fake)

	hits, err := c.Rank(context.Background(), "web3", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, interfaces.RankedHit{ID: "b", Score: 7.5, Reason: "title: <em>Web3</em> Jam"}, hits[0])
	assert.Equal(t, "a", hits[1].ID)
	assert.Empty(t, hits[1].Reason)
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, float64(10), fake.searchQ["size"])
}

func TestRankEmptyQuerySkipsRequest(t *testing.T) {
	fake := &fakeES{}
	c := newTestClient(t, fake)
	hits, err := c.Rank(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Nil(t, hits)
	assert.Nil(t, fake.searchQ)
}
