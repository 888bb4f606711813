// Package resolver runs the per-source fallback state machine: normalize,
// primary extraction, flat extraction, direct scrape, OpenGraph scrape. The
// first stage to yield a catalog wins; a source only pays for the stages
// before the one that succeeds.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/yashdhanani30/medidown"
	"github.com/yashdhanani30/medidown/catalog"
	"github.com/yashdhanani30/medidown/extractor"
	"github.com/yashdhanani30/medidown/internal/retry"
	"github.com/yashdhanani30/medidown/scrape"
)

// A Store caches serialized resolution results. internal/cache implements
// it; a nil Store disables caching.
type Store interface {
	Get(source, url string) ([]byte, bool)
	Put(source, url string, payload []byte) error
}

// Deps carries everything a Resolver needs. All wiring is explicit; there
// are no package-level defaults.
type Deps struct {
	Registry  *medidown.SourceRegistry
	Extractor extractor.Extractor
	Store     Store
	Links     medidown.LinkResolver
	Scraper   *scrape.Client
	Config    medidown.Config
	Logger    *zap.SugaredLogger
}

type Resolver struct {
	registry  *medidown.SourceRegistry
	extractor extractor.Extractor
	store     Store
	links     medidown.LinkResolver
	scraper   *scrape.Client
	config    medidown.Config
	log       *zap.SugaredLogger
}

func New(deps Deps) *Resolver {
	return &Resolver{
		registry:  deps.Registry,
		extractor: deps.Extractor,
		store:     deps.Store,
		links:     deps.Links,
		scraper:   deps.Scraper,
		config:    deps.Config,
		log:       deps.Logger.Named("resolver"),
	}
}

// Resolve matches rawURL to a source, normalizes it, and runs the fallback
// stages until one produces a catalog. Unmatched input fails with
// ErrInvalidInput before any network I/O.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*catalog.Result, error) {
	source, err := r.registry.Match(rawURL)
	if err != nil {
		return nil, err
	}
	log := r.log.With("trace_id", uuid.NewString(), "source", source.Name())

	normalized, err := source.Normalize(ctx, rawURL, r.links)
	if err != nil {
		return nil, fmt.Errorf("%w: normalize %q: %v", medidown.ErrInvalidInput, rawURL, err)
	}
	log = log.With("url", normalized)

	if result := r.cached(log, source.Name(), normalized); result != nil {
		return result, nil
	}

	overrides := r.config.SourceOverrides(source.Name(), source.Overrides())
	result, err := r.runStages(ctx, log, source, normalized, overrides)
	if err != nil {
		return nil, err
	}

	r.augment(ctx, log, source, normalized, overrides, result)
	r.writeThrough(log, source.Name(), normalized, result)
	return result, nil
}

func (r *Resolver) cached(log *zap.SugaredLogger, source, normalizedURL string) *catalog.Result {
	if r.store == nil {
		return nil
	}
	payload, ok := r.store.Get(source, normalizedURL)
	if !ok {
		return nil
	}
	var result catalog.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		log.Warnw("discarding undecodable cached result", "error", err)
		return nil
	}
	log.Debugw("cache hit")
	return &result
}

func (r *Resolver) writeThrough(log *zap.SugaredLogger, source, normalizedURL string, result *catalog.Result) {
	if r.store == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		log.Warnw("failed to encode result for caching", "error", err)
		return
	}
	if err := r.store.Put(source, normalizedURL, payload); err != nil {
		log.Warnw("cache write failed", "error", err)
	}
}

// runStages walks the fallback ladder. Stage errors accumulate; the
// terminal error wraps them all.
func (r *Resolver) runStages(ctx context.Context, log *zap.SugaredLogger, source medidown.Source, normalizedURL string, overrides medidown.Overrides) (*catalog.Result, error) {
	stages := source.Stages()
	var stageErrors error

	if overrides.ForceFallback {
		log.Infow("skipping extraction stages", "reason", "force_fallback")
	} else {
		if result, err := r.primaryStage(ctx, source, normalizedURL, overrides); err == nil {
			return result, nil
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		} else {
			stageErrors = multierror.Append(stageErrors, fmt.Errorf("%s: %w", medidown.StagePrimary, err))
			log.Infow("stage failed", "stage", medidown.StagePrimary, "error", err)
		}

		if stages.Contains(medidown.StageFlat) && supportsFlat(source, normalizedURL) {
			if result, err := r.flatStage(ctx, source, normalizedURL, overrides); err == nil {
				return result, nil
			} else if ctx.Err() != nil {
				return nil, ctx.Err()
			} else {
				stageErrors = multierror.Append(stageErrors, fmt.Errorf("%s: %w", medidown.StageFlat, err))
				log.Infow("stage failed", "stage", medidown.StageFlat, "error", err)
			}
		}
	}

	if stages.Contains(medidown.StageDirectScrape) {
		if scraper, ok := source.(medidown.DirectScraper); ok {
			if media, err := scraper.ScrapeDirect(ctx, normalizedURL); err == nil {
				log.Infow("resolved by direct scrape")
				return catalog.NewScraped(catalog.OriginDirectScrape, media), nil
			} else if ctx.Err() != nil {
				return nil, ctx.Err()
			} else {
				stageErrors = multierror.Append(stageErrors, fmt.Errorf("%s: %w", medidown.StageDirectScrape, err))
				log.Infow("stage failed", "stage", medidown.StageDirectScrape, "error", err)
			}
		}
	}

	if stages.Contains(medidown.StageOpenGraph) && r.scraper != nil {
		if media, err := r.scraper.OpenGraph(ctx, normalizedURL, overrides.Referer); err == nil {
			log.Infow("resolved by OpenGraph scrape")
			return catalog.NewScraped(catalog.OriginOpenGraph, media), nil
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		} else {
			stageErrors = multierror.Append(stageErrors, fmt.Errorf("%s: %w", medidown.StageOpenGraph, err))
			log.Infow("stage failed", "stage", medidown.StageOpenGraph, "error", err)
		}
	}

	return nil, terminalError(normalizedURL, stageErrors)
}

func (r *Resolver) primaryStage(ctx context.Context, source medidown.Source, normalizedURL string, overrides medidown.Overrides) (*catalog.Result, error) {
	opts := r.extractOptions(source.Name(), overrides)
	attempts := overrides.Retries + 1
	if attempts < 1 {
		attempts = 1
	}
	stageCtx, cancel := context.WithTimeout(ctx, stageTimeout(overrides, attempts))
	defer cancel()

	info, err := retry.Do(stageCtx, attempts, retry.Constant(time.Second), extractor.IsTransient,
		func(ctx context.Context) (*extractor.RawInfo, error) {
			return r.extractor.Extract(ctx, normalizedURL, opts)
		}).Get()
	if err != nil {
		return nil, err
	}
	return catalog.Build(info, catalog.BuildOptions{StrictMP4: overrides.StrictMP4})
}

func (r *Resolver) flatStage(ctx context.Context, source medidown.Source, normalizedURL string, overrides medidown.Overrides) (*catalog.Result, error) {
	opts := r.extractOptions(source.Name(), overrides)
	opts.FlatPlaylist = true
	stageCtx, cancel := context.WithTimeout(ctx, stageTimeout(overrides, 1))
	defer cancel()

	info, err := r.extractor.Extract(stageCtx, normalizedURL, opts)
	if err != nil {
		return nil, err
	}
	return catalog.BuildFlat(info)
}

// augment adds a scraped direct format to an extraction result that has no
// progressive direct-URL video, for sources that opt in. The extracted
// catalog is never replaced, only extended.
func (r *Resolver) augment(ctx context.Context, log *zap.SugaredLogger, source medidown.Source, normalizedURL string, overrides medidown.Overrides, result *catalog.Result) {
	if !overrides.AugmentWithScrape || result.InstantAvailable {
		return
	}
	scraper, ok := source.(medidown.DirectScraper)
	if !ok {
		return
	}
	media, err := scraper.ScrapeDirect(ctx, normalizedURL)
	if err != nil || media.Kind != medidown.ScrapedVideo {
		return
	}
	result.Augment(catalog.DirectVideoFormat(media.URL, catalog.OriginDirectScrape))
	log.Infow("augmented catalog with scraped direct URL")
}

func (r *Resolver) extractOptions(sourceName string, overrides medidown.Overrides) extractor.Options {
	return extractor.Options{
		SocketTimeout:  overrides.SocketTimeout,
		Retries:        overrides.Retries,
		Referer:        overrides.Referer,
		PlayerClients:  overrides.PlayerClients,
		Proxy:          r.config.Proxy,
		UserAgent:      r.config.UserAgent,
		AcceptLanguage: r.config.AcceptLanguage,
		CookieFile:     r.config.CookieFile(sourceName),
	}
}

func supportsFlat(source medidown.Source, normalizedURL string) bool {
	if probe, ok := source.(medidown.FlatProbe); ok {
		return probe.SupportsFlat(normalizedURL)
	}
	return true
}

// stageTimeout bounds a whole stage: every attempt plus slack for redirect
// chasing and response parsing.
func stageTimeout(overrides medidown.Overrides, attempts int) time.Duration {
	socket := overrides.SocketTimeout
	if socket <= 0 {
		socket = 20 * time.Second
	}
	return socket*time.Duration(attempts) + 5*time.Second
}

// terminalError classifies total failure: when every stage found the page
// but no media, the input is answerable with "nothing there"; anything else
// is an upstream problem.
func terminalError(normalizedURL string, stageErrors error) error {
	merr, ok := stageErrors.(*multierror.Error)
	if !ok || merr == nil || len(merr.Errors) == 0 {
		return fmt.Errorf("%w: no stage produced a result for %s", medidown.ErrUpstreamUnavailable, normalizedURL)
	}
	allNoMedia := true
	for _, err := range merr.Errors {
		if medidown.Kind(err) != medidown.KindNoMediaFound {
			allNoMedia = false
			break
		}
	}
	if allNoMedia {
		return fmt.Errorf("%w: %s: %v", medidown.ErrNoMediaFound, normalizedURL, stageErrors)
	}
	return fmt.Errorf("%w: %s: %v", medidown.ErrUpstreamUnavailable, normalizedURL, stageErrors)
}
