package harvest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/localgaid/pipeline/internal/place"
	"github.com/localgaid/pipeline/internal/progress"
	"github.com/localgaid/pipeline/internal/retrypolicy"
)

// Result is the raw harvest of one place before image filtering: the
// concatenated page text plus the per-page image candidates, both in source
// URL order.
type Result struct {
	Content string
	Pages   []PageImages
}

// Harvester fetches a place's source URLs one at a time, in order, and
// concatenates the extracted text into the Bronze content blob.
type Harvester struct {
	fetcher Fetcher
	retry   *retrypolicy.Policy
	emitter progress.Emitter
	logger  *zap.Logger
}

// NewHarvester wires a fetch engine with retries and progress reporting.
// A nil retry policy falls back to the default; a nil emitter discards
// progress.
func NewHarvester(fetcher Fetcher, retry *retrypolicy.Policy, emitter progress.Emitter, logger *zap.Logger) *Harvester {
	if retry == nil {
		retry = retrypolicy.Default()
	}
	if emitter == nil {
		emitter = progress.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{
		fetcher: fetcher,
		retry:   retry,
		emitter: emitter,
		logger:  logger,
	}
}

// Harvest fetches every URL of the place sequentially. Content blocks keep
// the URL order of the config, each block prefixed with its source URL. A
// failed URL fails the whole harvest: there is no per-URL isolation, so
// Bronze either reflects every source or is not produced at all.
func (h *Harvester) Harvest(ctx context.Context, runID string, cfg place.PlaceConfig) (Result, error) {
	var content strings.Builder
	pages := make([]PageImages, 0, len(cfg.URLs))

	for i, rawURL := range cfg.URLs {
		var resp FetchResponse
		err := h.retry.Do(ctx, func() error {
			var fetchErr error
			resp, fetchErr = h.fetcher.Fetch(ctx, FetchRequest{
				URL:   rawURL,
				Query: cfg.Name,
			})
			return fetchErr
		})
		if err != nil {
			return Result{}, fmt.Errorf("fetch %s: %w", rawURL, err)
		}

		content.WriteString(rawURL)
		content.WriteString("\n")
		content.WriteString(resp.Text)
		content.WriteString("\n\n\n")
		pages = append(pages, PageImages{SourceURL: rawURL, Images: resp.Images})

		h.logger.Info("harvested page",
			zap.String("place", cfg.Name),
			zap.String("url", rawURL),
			zap.Int("text_chars", len(resp.Text)),
			zap.Int("image_candidates", len(resp.Images)),
		)
		h.emitter.Emit(progress.Event{
			RunID:    runID,
			TS:       time.Now().UTC(),
			Stage:    progress.StageHarvestPage,
			Place:    cfg.Name,
			URL:      rawURL,
			Fraction: float64(i+1) / float64(len(cfg.URLs)),
			Dur:      resp.Duration,
		})
	}

	return Result{Content: content.String(), Pages: pages}, nil
}
