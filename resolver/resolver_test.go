package resolver

import (
	"context"
	"fmt"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/yashdhanani30/medidown"
	"github.com/yashdhanani30/medidown/catalog"
	"github.com/yashdhanani30/medidown/extractor"
	"github.com/yashdhanani30/medidown/generic"
)

type fakeSource struct {
	name      string
	stages    []medidown.Stage
	overrides medidown.Overrides
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Match(rawURL string) error {
	if rawURL == "" || rawURL == "not a url" {
		return fmt.Errorf("no match")
	}
	return nil
}

func (s *fakeSource) Normalize(ctx context.Context, rawURL string, links medidown.LinkResolver) (string, error) {
	return rawURL, nil
}

func (s *fakeSource) Stages() generic.Set[medidown.Stage] {
	return generic.NewSet(s.stages...)
}

func (s *fakeSource) Overrides() medidown.Overrides { return s.overrides }

type scrapingSource struct {
	fakeSource
	media     *medidown.ScrapedMedia
	scrapeErr error
	scrapes   int
}

func (s *scrapingSource) ScrapeDirect(ctx context.Context, normalizedURL string) (*medidown.ScrapedMedia, error) {
	s.scrapes++
	if s.scrapeErr != nil {
		return nil, s.scrapeErr
	}
	return s.media, nil
}

type fakeExtractor struct {
	calls    int
	lastOpts extractor.Options
	extract  func(opts extractor.Options) (*extractor.RawInfo, error)
}

func (e *fakeExtractor) Extract(ctx context.Context, url string, opts extractor.Options) (*extractor.RawInfo, error) {
	e.calls++
	e.lastOpts = opts
	return e.extract(opts)
}

type memStore struct {
	entries map[string][]byte
	puts    int
}

func newMemStore() *memStore { return &memStore{entries: map[string][]byte{}} }

func (s *memStore) Get(source, url string) ([]byte, bool) {
	payload, ok := s.entries[source+"\n"+url]
	return payload, ok
}

func (s *memStore) Put(source, url string, payload []byte) error {
	s.puts++
	s.entries[source+"\n"+url] = payload
	return nil
}

func progressiveInfo() *extractor.RawInfo {
	return &extractor.RawInfo{
		ID:    "abc123",
		Title: "A Video",
		Formats: []extractor.RawFormat{
			{
				FormatID: "18",
				Ext:      "mp4",
				URL:      "https://cdn.example.com/18.mp4",
				VCodec:   "avc1",
				ACodec:   "mp4a",
				Height:   generic.Some(360),
				Width:    generic.Some(640),
				TBR:      generic.Some(500.0),
			},
		},
	}
}

func newTestResolver(registry *medidown.SourceRegistry, ext extractor.Extractor, store Store) *Resolver {
	return New(Deps{
		Registry:  registry,
		Extractor: ext,
		Store:     store,
		Config:    medidown.DefaultConfig(),
		Logger:    zap.NewNop().Sugar(),
	})
}

func TestResolveInvalidInputSkipsExtraction(t *testing.T) {
	assert := assert_.New(t)
	registry := &medidown.SourceRegistry{}
	registry.MustAdd(&fakeSource{name: "fake", stages: []medidown.Stage{medidown.StagePrimary}})
	ext := &fakeExtractor{extract: func(extractor.Options) (*extractor.RawInfo, error) {
		return progressiveInfo(), nil
	}}
	r := newTestResolver(registry, ext, nil)

	_, err := r.Resolve(context.Background(), "not a url")
	assert.ErrorIs(err, medidown.ErrInvalidInput)
	assert.Zero(ext.calls, "an unmatched URL must not reach the extractor")
}

func TestResolvePrimarySuccess(t *testing.T) {
	assert := assert_.New(t)
	registry := &medidown.SourceRegistry{}
	registry.MustAdd(&fakeSource{name: "fake", stages: []medidown.Stage{medidown.StagePrimary}})
	ext := &fakeExtractor{extract: func(extractor.Options) (*extractor.RawInfo, error) {
		return progressiveInfo(), nil
	}}
	r := newTestResolver(registry, ext, nil)

	result, err := r.Resolve(context.Background(), "https://example.com/v/abc123")
	assert.NoError(err)
	assert.Equal("A Video", result.Title)
	assert.Len(result.Videos, 1)
	assert.True(result.InstantAvailable)
	assert.Equal(1, ext.calls)
}

func TestResolveFallsBackToDirectScrape(t *testing.T) {
	assert := assert_.New(t)
	source := &scrapingSource{
		fakeSource: fakeSource{
			name:   "fake",
			stages: []medidown.Stage{medidown.StagePrimary, medidown.StageDirectScrape},
		},
		media: &medidown.ScrapedMedia{
			Kind:  medidown.ScrapedVideo,
			URL:   "https://cdn.example.com/direct.mp4",
			ID:    "abc123",
			Title: "Scraped Video",
		},
	}
	registry := &medidown.SourceRegistry{}
	registry.MustAdd(source)
	ext := &fakeExtractor{extract: func(extractor.Options) (*extractor.RawInfo, error) {
		return nil, fmt.Errorf("extractor broken for this site")
	}}
	r := newTestResolver(registry, ext, nil)

	result, err := r.Resolve(context.Background(), "https://example.com/v/abc123")
	assert.NoError(err)
	assert.Equal(1, result.ItemCount)
	assert.True(result.InstantAvailable)
	assert.Len(result.Videos, 1)
	assert.Equal(catalog.OriginDirectScrape, result.Videos[0].Origin)
	assert.True(result.Videos[0].IsProgressive)
	assert.Equal(1, ext.calls, "non-transient extraction errors must not be retried")
}

func TestResolveForceFallbackSkipsExtractor(t *testing.T) {
	assert := assert_.New(t)
	source := &scrapingSource{
		fakeSource: fakeSource{
			name:      "fake",
			stages:    []medidown.Stage{medidown.StagePrimary, medidown.StageDirectScrape},
			overrides: medidown.Overrides{ForceFallback: true},
		},
		media: &medidown.ScrapedMedia{Kind: medidown.ScrapedVideo, URL: "https://cdn.example.com/d.mp4", ID: "x"},
	}
	registry := &medidown.SourceRegistry{}
	registry.MustAdd(source)
	ext := &fakeExtractor{extract: func(extractor.Options) (*extractor.RawInfo, error) {
		return progressiveInfo(), nil
	}}
	r := newTestResolver(registry, ext, nil)

	result, err := r.Resolve(context.Background(), "https://example.com/v/x")
	assert.NoError(err)
	assert.Zero(ext.calls)
	assert.Equal(catalog.OriginDirectScrape, result.Videos[0].Origin)
}

func TestResolveRetriesTransientErrors(t *testing.T) {
	assert := assert_.New(t)
	registry := &medidown.SourceRegistry{}
	registry.MustAdd(&fakeSource{
		name:      "fake",
		stages:    []medidown.Stage{medidown.StagePrimary},
		overrides: medidown.Overrides{Retries: 2, SocketTimeout: time.Second},
	})
	calls := 0
	ext := &fakeExtractor{extract: func(extractor.Options) (*extractor.RawInfo, error) {
		calls++
		if calls < 3 {
			return nil, fmt.Errorf("connection reset: %w", extractor.ErrTransient)
		}
		return progressiveInfo(), nil
	}}
	r := newTestResolver(registry, ext, nil)

	result, err := r.Resolve(context.Background(), "https://example.com/v/abc123")
	assert.NoError(err)
	assert.Equal(3, ext.calls)
	assert.Equal("A Video", result.Title)
}

func TestResolveFlatFallback(t *testing.T) {
	assert := assert_.New(t)
	registry := &medidown.SourceRegistry{}
	registry.MustAdd(&fakeSource{name: "fake", stages: []medidown.Stage{medidown.StagePrimary, medidown.StageFlat}})
	ext := &fakeExtractor{extract: func(opts extractor.Options) (*extractor.RawInfo, error) {
		if !opts.FlatPlaylist {
			return nil, fmt.Errorf("full extraction timed out")
		}
		return &extractor.RawInfo{
			ID:    "PL123",
			Type:  "playlist",
			Title: "A Playlist",
			Entries: []extractor.RawInfo{
				{ID: "v1", Title: "First"},
				{ID: "v2", Title: "Second"},
			},
		}, nil
	}}
	r := newTestResolver(registry, ext, nil)

	result, err := r.Resolve(context.Background(), "https://example.com/playlist/PL123")
	assert.NoError(err)
	assert.Equal("A Playlist", result.Title)
	assert.Equal(2, result.ItemCount)
	assert.Empty(result.Videos)
	assert.Equal(2, ext.calls)
}

func TestResolveCacheWriteThroughAndHit(t *testing.T) {
	assert := assert_.New(t)
	registry := &medidown.SourceRegistry{}
	registry.MustAdd(&fakeSource{name: "fake", stages: []medidown.Stage{medidown.StagePrimary}})
	ext := &fakeExtractor{extract: func(extractor.Options) (*extractor.RawInfo, error) {
		return progressiveInfo(), nil
	}}
	store := newMemStore()
	r := newTestResolver(registry, ext, store)

	first, err := r.Resolve(context.Background(), "https://example.com/v/abc123")
	assert.NoError(err)
	assert.Equal(1, store.puts)

	second, err := r.Resolve(context.Background(), "https://example.com/v/abc123")
	assert.NoError(err)
	assert.Equal(1, ext.calls, "second resolve must be served from the cache")
	assert.Equal(first.Title, second.Title)
	assert.Equal(first.Videos, second.Videos)
}

func TestResolveAugmentsWithScrapedDirectURL(t *testing.T) {
	assert := assert_.New(t)
	source := &scrapingSource{
		fakeSource: fakeSource{
			name:      "fake",
			stages:    []medidown.Stage{medidown.StagePrimary, medidown.StageDirectScrape},
			overrides: medidown.Overrides{AugmentWithScrape: true},
		},
		media: &medidown.ScrapedMedia{Kind: medidown.ScrapedVideo, URL: "https://cdn.example.com/direct.mp4", ID: "x"},
	}
	registry := &medidown.SourceRegistry{}
	registry.MustAdd(source)
	// DASH-only result: video-only format, so nothing is instantly playable.
	ext := &fakeExtractor{extract: func(extractor.Options) (*extractor.RawInfo, error) {
		return &extractor.RawInfo{
			ID:    "abc123",
			Title: "DASH Only",
			Formats: []extractor.RawFormat{
				{
					FormatID: "137",
					Ext:      "mp4",
					URL:      "https://cdn.example.com/137.mp4",
					VCodec:   "avc1",
					ACodec:   "none",
					Height:   generic.Some(1080),
					Width:    generic.Some(1920),
				},
			},
		}, nil
	}}
	r := newTestResolver(registry, ext, nil)

	result, err := r.Resolve(context.Background(), "https://example.com/v/abc123")
	assert.NoError(err)
	assert.Equal(1, source.scrapes)
	assert.True(result.InstantAvailable)
	assert.Equal("direct-mp4", result.Videos[len(result.Videos)-1].ID)
}

func TestResolveNoMediaFound(t *testing.T) {
	assert := assert_.New(t)
	registry := &medidown.SourceRegistry{}
	registry.MustAdd(&fakeSource{name: "fake", stages: []medidown.Stage{medidown.StagePrimary}})
	ext := &fakeExtractor{extract: func(extractor.Options) (*extractor.RawInfo, error) {
		return &extractor.RawInfo{ID: "abc123", Title: "Empty Post"}, nil
	}}
	store := newMemStore()
	r := newTestResolver(registry, ext, store)

	_, err := r.Resolve(context.Background(), "https://example.com/v/abc123")
	assert.ErrorIs(err, medidown.ErrNoMediaFound)
	assert.Zero(store.puts, "no-media results must not be cached")
}
