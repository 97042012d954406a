package adapter_test

import (
	"context"
	"testing"

	"HackathonSync/internal/adapter"
	_ "HackathonSync/internal/adapter/devpost"
	_ "HackathonSync/internal/adapter/unstop"
	"HackathonSync/internal/config"
	"HackathonSync/internal/model"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceRegistryFromConfig(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{
		Sync: config.SyncConfig{EnabledSources: []string{"devpost", "Unstop", "nowhere", "hackerearth"}},
		Sources: map[string]config.SourceConfig{
			"devpost": {BaseURL: "http://devpost.test"},
		},
	}
	r := adapter.NewSourceRegistry(cfg, logger)

	assert.Equal(t, []model.Source{model.SourceDevpost, model.SourceUnstop}, r.ListRegisteredSources())
	assert.Equal(t, 2, r.Count())

	a, err := r.GetAdapter(model.SourceDevpost)
	require.NoError(t, err)
	assert.Equal(t, model.SourceDevpost, a.GetSource())

	_, err = r.GetAdapter(model.SourceHackerEarth)
	assert.Error(t, err)
}

func TestListFactoriesSorted(t *testing.T) {
	sources := adapter.ListFactories()
	assert.Contains(t, sources, model.SourceDevpost)
	for i := 1; i < len(sources); i++ {
		assert.Less(t, string(sources[i-1]), string(sources[i]))
	}
}

type stubAdapter struct{ source model.Source }

func (s stubAdapter) GetSource() model.Source { return s.source }
func (s stubAdapter) FetchEvents(context.Context) ([]*model.RawEvent, error) {
	return nil, nil
}

func TestStaticRegistry(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := adapter.NewStaticRegistry(logger, stubAdapter{model.SourceMLH})
	a, err := r.GetAdapter(model.SourceMLH)
	require.NoError(t, err)
	assert.Equal(t, model.SourceMLH, a.GetSource())
}

func TestFetchPagesStopsOnShortPage(t *testing.T) {
	logger, _ := test.NewNullLogger()
	calls := 0
	items, err := adapter.FetchPages(context.Background(), model.SourceDevpost, 5, logger,
		func(_ context.Context, page int) ([]map[string]any, bool, error) {
			calls++
			return []map[string]any{{"id": float64(page)}}, page < 2, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	raws := adapter.ToRawEvents(model.SourceDevpost, items, "id")
	require.Len(t, raws, 2)
	assert.Equal(t, "2", raws[1].NativeID)
}
