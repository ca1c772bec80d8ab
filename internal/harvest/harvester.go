package harvest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"priceharvester/internal/config"
	"priceharvester/internal/logger"
	"priceharvester/internal/models"
	"priceharvester/internal/parser"
	"priceharvester/internal/render"
)

// Harvester walks every listing page with a bounded pool of rendering sessions
// and sums the prices it finds
type Harvester struct {
	cfg      config.Harvest
	renderer render.Renderer
	metrics  *Metrics
	log      *logger.Logger
}

type pageJob struct {
	Index int
	URL   string
}

// NewHarvester validates cfg and wires the collaborators. metrics may be nil.
func NewHarvester(cfg config.Harvest, renderer render.Renderer, metrics *Metrics, log *logger.Logger) (*Harvester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid harvest config: %w", err)
	}
	if renderer == nil {
		return nil, errors.New("renderer is required")
	}
	return &Harvester{
		cfg:      cfg,
		renderer: renderer,
		metrics:  metrics,
		log:      logger.OrNop(log),
	}, nil
}

// Run performs one harvest. It never fails as a whole: a pagination failure
// gives an empty summary and failed pages contribute zero.
func (h *Harvester) Run(ctx context.Context) models.HarvestSummary {
	if h.cfg.HarvestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.HarvestTimeout)
		defer cancel()
	}

	start := time.Now()
	info, err := DiscoverPagination(ctx, h.renderer, h.cfg.SummaryURL, h.cfg.Selectors.PaginationSummary, h.cfg.MaxPages)
	if err != nil {
		h.log.Error().Err(err).Str("url", h.cfg.SummaryURL).Msg("Pagination discovery failed, nothing to harvest")
		h.metrics.IncRun(KindPagination)
		return models.HarvestSummary{}
	}

	h.log.Info().
		Int("total_items", info.TotalItems).
		Int("per_page", info.ItemsPerPage).
		Int("pages", info.TotalPages).
		Msg("Pagination discovered")

	if info.TotalPages == 0 {
		h.metrics.IncRun("ok")
		return models.HarvestSummary{}
	}

	jobs := make([]pageJob, info.TotalPages)
	for i := range jobs {
		pageURL, err := PageURL(h.cfg.ListingURL, h.cfg.PageParam, i+h.cfg.PageOffset)
		if err != nil {
			h.log.Error().Err(err).Msg("Cannot build page URLs")
			h.metrics.IncRun(KindOther)
			return models.HarvestSummary{TotalPages: info.TotalPages, FailedPages: info.TotalPages}
		}
		jobs[i] = pageJob{Index: i, URL: pageURL}
	}

	results := h.runPages(ctx, jobs)
	summary := Reduce(results...)

	result := "ok"
	if summary.FailedPages > 0 {
		result = "partial"
	}
	h.metrics.IncRun(result)
	h.log.Info().
		Uint64("total_price", summary.TotalPrice).
		Uint64("total_products", summary.TotalProducts).
		Int("failed_pages", summary.FailedPages).
		Dur("elapsed", time.Since(start)).
		Msg("Harvest complete")

	return summary
}

// runPages fans jobs out to min(Workers, len(jobs)) workers and returns once
// every worker has exited
func (h *Harvester) runPages(ctx context.Context, jobs []pageJob) []models.PageResult {
	numWorkers := h.cfg.Workers
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	jobChan := make(chan pageJob, len(jobs))
	resultChan := make(chan models.PageResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go h.pageWorker(ctx, jobChan, resultChan, &wg)
	}

	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	wg.Wait()
	close(resultChan)

	results := make([]models.PageResult, 0, len(jobs))
	for result := range resultChan {
		results = append(results, result)
	}
	return results
}

func (h *Harvester) pageWorker(ctx context.Context, jobChan <-chan pageJob, resultChan chan<- models.PageResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobChan {
		resultChan <- h.processPage(ctx, job)
	}
}

// processPage renders and extracts one page. Every failure, panics included,
// becomes a failed result with zero sums.
func (h *Harvester) processPage(ctx context.Context, job pageJob) (result models.PageResult) {
	log := h.log.WithFields(logger.Fields{"page": job.Index, "url": job.URL})
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			result = failedResult(job.Index, &PanicError{Value: rec})
		}
		h.metrics.ObservePage(time.Since(start))
		if result.Failed {
			h.metrics.IncPage(result.ErrorKind)
			log.Error().Err(result.Err).Str("kind", result.ErrorKind).Msg("Page failed, contributing zero")
			return
		}
		h.metrics.IncPage("ok")
	}()

	if err := ctx.Err(); err != nil {
		return failedResult(job.Index, err)
	}

	doc, err := h.render(ctx, job.URL)
	if err != nil {
		return failedResult(job.Index, err)
	}

	result = models.PageResult{PageIndex: job.Index}
	for rec := range parser.Products(doc, h.cfg.Selectors.ProductContainer, h.cfg.Selectors.Price) {
		price, err := parser.ParsePrice(rec.RawPriceText)
		if err != nil {
			h.metrics.IncMissingPrice()
			log.Debug().Str("raw", rec.RawPriceText).Err(err).Msg("Skipping product without price")
			continue
		}
		result.SumPrice += price
		result.ProductCount++
	}

	h.metrics.AddProducts(result.ProductCount)
	if result.ProductCount == 0 {
		log.Info().Msg("No priced products on page")
	} else {
		log.Debug().Uint64("products", result.ProductCount).Uint64("sum", result.SumPrice).Msg("Page harvested")
	}
	return result
}

func (h *Harvester) render(ctx context.Context, pageURL string) (*goquery.Document, error) {
	h.metrics.SessionOpened()
	defer h.metrics.SessionClosed()
	return h.renderer.Render(ctx, pageURL)
}

func failedResult(index int, err error) models.PageResult {
	return models.PageResult{PageIndex: index, Failed: true, ErrorKind: ErrorKind(err), Err: err}
}

// Reduce sums page results. It is commutative and associative, so the order
// results arrive in does not matter.
func Reduce(results ...models.PageResult) models.HarvestSummary {
	var s models.HarvestSummary
	for _, r := range results {
		s.TotalPages++
		if r.Failed {
			s.FailedPages++
			continue
		}
		s.TotalPrice += r.SumPrice
		s.TotalProducts += r.ProductCount
	}
	return s
}

// PageURL builds the URL of the page with the given number. A {page}
// placeholder in listingURL is substituted; otherwise param is set in the
// query string, replacing any existing value.
func PageURL(listingURL, param string, page int) (string, error) {
	n := strconv.Itoa(page)
	if strings.Contains(listingURL, "{page}") {
		return strings.ReplaceAll(listingURL, "{page}", n), nil
	}

	u, err := url.Parse(listingURL)
	if err != nil {
		return "", fmt.Errorf("invalid listing URL: %w", err)
	}
	q := u.Query()
	q.Set(param, n)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
