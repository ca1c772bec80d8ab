// Package report runs harvests on behalf of the front-ends and keeps their
// side effects in one place: caching, run history and stream publishing
package report

import (
	"context"
	"sync"
	"time"

	"priceharvester/internal/cache"
	"priceharvester/internal/logger"
	"priceharvester/internal/models"
	"priceharvester/internal/publisher"
)

const publishTimeout = 5 * time.Second

// Runner performs one harvest
type Runner interface {
	Run(ctx context.Context) models.HarvestSummary
}

// RunStore persists finished runs
type RunStore interface {
	SaveHarvestRun(run *models.HarvestRun) error
}

// Service serializes harvests so only one browser pool runs at a time
type Service struct {
	runner    Runner
	cacheKey  string
	store     cache.Store
	runs      RunStore
	publisher publisher.Publisher
	log       *logger.Logger
	now       func() time.Time

	mu sync.Mutex
}

// NewService wires a runner. store, runs and pub are optional.
func NewService(runner Runner, listingURL string, store cache.Store, runs RunStore, pub publisher.Publisher, log *logger.Logger) *Service {
	return &Service{
		runner:    runner,
		cacheKey:  cache.Key(listingURL),
		store:     store,
		runs:      runs,
		publisher: pub,
		log:       logger.OrNop(log),
		now:       time.Now,
	}
}

// Harvest returns a cached run unless force is set, otherwise runs a fresh
// harvest. Cache, history and publishing failures are logged, never returned.
// Only complete runs are cached: a run cut short by ctx, one without pages or
// one where every page failed is recorded and published but not served again.
func (s *Service) Harvest(ctx context.Context, force bool) models.HarvestRun {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !force {
		if run, ok := s.cached(); ok {
			return run
		}
	}

	run := models.HarvestRun{StartedAt: s.now(), Source: models.RunSourceFresh}
	run.Summary = s.runner.Run(ctx)
	run.FinishedAt = s.now()

	if s.runs != nil {
		if err := s.runs.SaveHarvestRun(&run); err != nil {
			s.log.Error().Err(err).Msg("Failed to persist harvest run")
		}
	}
	if s.store != nil {
		if reason := uncacheable(ctx, run.Summary); reason != "" {
			s.log.Warn().
				Str("reason", reason).
				Int("total_pages", run.Summary.TotalPages).
				Int("failed_pages", run.Summary.FailedPages).
				Msg("Harvest run not cached")
		} else if err := s.store.Set(s.cacheKey, run); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache harvest run")
		}
	}
	if s.publisher != nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		if err := s.publisher.Publish(pubCtx, run); err != nil {
			s.log.Warn().Err(err).Msg("Failed to publish harvest run")
		}
		cancel()
	}
	return run
}

func uncacheable(ctx context.Context, s models.HarvestSummary) string {
	switch {
	case ctx.Err() != nil:
		return "interrupted"
	case s.TotalPages == 0:
		return "no pages"
	case s.FailedPages >= s.TotalPages:
		return "every page failed"
	}
	return ""
}

// Cached returns the cached run without harvesting
func (s *Service) Cached() (models.HarvestRun, bool) {
	return s.cached()
}

// Invalidate drops the cached run
func (s *Service) Invalidate() error {
	if s.store == nil {
		return nil
	}
	return s.store.Delete(s.cacheKey)
}

func (s *Service) cached() (models.HarvestRun, bool) {
	if s.store == nil {
		return models.HarvestRun{}, false
	}
	run, ok, err := s.store.Get(s.cacheKey)
	if err != nil {
		s.log.Warn().Err(err).Msg("Result cache unavailable")
		return models.HarvestRun{}, false
	}
	if !ok {
		return models.HarvestRun{}, false
	}
	run.Source = models.RunSourceCache
	return run, true
}
