package render

import (
	"fmt"

	"priceharvester/internal/config"
	"priceharvester/internal/logger"
)

// New builds the renderer named by cfg.Renderer. The returned close function
// releases the browser, if one was started.
func New(cfg config.Harvest, log *logger.Logger) (Renderer, func() error, error) {
	reporter := NewFileSnapshotReporter(cfg.SnapshotDir)

	switch cfg.Renderer {
	case config.RendererBrowser, "":
		r := NewBrowserRenderer(cfg, reporter, log)
		return r, r.Close, nil
	case config.RendererStatic:
		return NewStaticRenderer(cfg, reporter, log), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown renderer %q", cfg.Renderer)
	}
}
