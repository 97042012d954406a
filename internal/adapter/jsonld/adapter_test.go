package jsonld

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"HackathonSync/internal/config"
	"HackathonSync/internal/model"
	"HackathonSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mlhPage = `<html><head>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"Organization","name":"MLH"}</script>
<script type="application/ld+json">
[{"@context":"https://schema.org","@type":"Event","name":"HackMIT","url":"https://hackmit.org",
  "startDate":"2026-09-12","endDate":"2026-09-13",
  "eventAttendanceMode":"https://schema.org/OfflineEventAttendanceMode",
  "location":{"@type":"Place","name":"MIT","address":{"addressLocality":"Cambridge","addressRegion":"MA","addressCountry":"US"}}},
 {"@type":["Event","EducationEvent"],"name":"Global Hack Week","url":"https://ghw.mlh.io"}]
</script>
<script type='application/ld+json'>{"@graph":[{"@type":"ItemList","itemListElement":[{"@type":"ListItem","item":{"@type":"Hackathon","name":"Nested"}}]}]}</script>
<script type="application/ld+json">{ broken json </script>
</head><body></body></html>`

func TestExtractEvents(t *testing.T) {
	events := ExtractEvents(mlhPage)
	require.Len(t, events, 3)
	assert.Equal(t, "HackMIT", events[0]["name"])
	assert.Equal(t, "Global Hack Week", events[1]["name"])
	assert.Equal(t, "Nested", events[2]["name"])
}

func TestExtractEventsNoScripts(t *testing.T) {
	assert.Empty(t, ExtractEvents("<html><body>nothing here</body></html>"))
}

func TestFetchEventsOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, mlhPage)
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	cfg := &config.SourceConfig{Pages: []string{srv.URL + "/events", srv.URL + "/missing"}}
	a := NewAdapter(model.SourceMLH, cfg, &HTTPFetcher{Client: httpclient.NewHTTPClient(cfg, logger)}, logger)

	raws, err := a.FetchEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, raws, 3)
	assert.Equal(t, model.SourceMLH, raws[0].Source)
	assert.Equal(t, "HackMIT", raws[0].Payload["name"])
}

type failingFetcher struct{}

func (failingFetcher) FetchHTML(context.Context, string) (string, error) {
	return "", &httpclient.StatusError{Code: http.StatusNotFound}
}

func TestFetchEventsAllPagesFail(t *testing.T) {
	logger, _ := test.NewNullLogger()
	a := NewAdapter(model.SourceMLH, &config.SourceConfig{Pages: []string{"a", "b"}}, failingFetcher{}, logger)
	_, err := a.FetchEvents(context.Background())
	var se *httpclient.StatusError
	assert.True(t, errors.As(err, &se))
}
