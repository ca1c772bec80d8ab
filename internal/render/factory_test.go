package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priceharvester/internal/config"
)

func TestNewPicksRenderer(t *testing.T) {
	cfg := config.DefaultHarvest()

	cfg.Renderer = config.RendererStatic
	r, closeFn, err := New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &StaticRenderer{}, r)
	assert.NoError(t, closeFn())

	cfg.Renderer = config.RendererBrowser
	r, closeFn, err = New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &BrowserRenderer{}, r)
	assert.NoError(t, closeFn())

	cfg.Renderer = "lynx"
	_, _, err = New(cfg, nil)
	assert.Error(t, err)
}
