package engines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/config"
	"jobscout/internal/scraper"
)

func TestFactoryEngines(t *testing.T) {
	cfg := config.Default()
	cfg.Scraper.Engine = "static"
	f := NewFactory(cfg)

	eng, err := f.Engine("")
	require.NoError(t, err)
	assert.Equal(t, "static", eng.Name())

	again, err := f.Engine("static")
	require.NoError(t, err)
	assert.Same(t, eng, again)

	headed, err := f.Engine("headed")
	require.NoError(t, err)
	assert.Equal(t, "headed", headed.Name())

	_, err = f.Engine("teleport")
	assert.Error(t, err)
}

func TestFactoryMarkupSource(t *testing.T) {
	cfg := config.Default()
	cfg.Scraper.Engine = "static"
	src, err := NewFactory(cfg).MarkupSource(nil)
	require.NoError(t, err)
	assert.IsType(t, &scraper.EngineMarkupSource{}, src)

	cfg.Scraper.MarkupSource = "firecrawl"
	cfg.Firecrawl.APIKey = ""
	_, err = NewFactory(cfg).MarkupSource(nil)
	assert.Error(t, err)
}
