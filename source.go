package medidown

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/yashdhanani30/medidown/generic"
)

// Stage is one step of the per-source fallback state machine. Normalization
// always runs and is not listed here; a Source only declares the optional
// stages it supports.
type Stage string

const (
	StagePrimary      Stage = "primary"
	StageFlat         Stage = "flat"
	StageDirectScrape Stage = "direct-scrape"
	StageOpenGraph    Stage = "opengraph"
)

// Overrides tunes extraction for one source. Slow or flaky platforms get
// materially longer socket timeouts and more retries than fast ones, so
// these are per-source, never global.
type Overrides struct {
	SocketTimeout time.Duration
	Retries       int
	// ForceFallback skips extraction stages entirely and goes straight to
	// direct scraping. Useful while the generic extractor is broken for
	// this source.
	ForceFallback bool
	// StrictMP4 discards non-MP4 video containers from the catalog.
	StrictMP4 bool
	// AugmentWithScrape runs the direct scraper even after a successful
	// extraction, when the catalog has no progressive direct-URL video.
	AugmentWithScrape bool
	// InstantFulfillment consults the source's instant-video helper for any
	// requested video format, not just "best". Set only where the generic
	// merge path is unreliable; elsewhere an explicit format id must be
	// honored exactly.
	InstantFulfillment bool
	// Referer sent with extractor and scrape requests.
	Referer string
	// PlayerClients selects upstream player clients to try, in order, for
	// sources where different clients expose different format sets.
	PlayerClients []string
}

// A LinkResolver resolves a short link (vm.tiktok.com, fb.me, pin.it, ...)
// to its redirect target. Implementations are expected to micro-cache
// results so a burst of requests for the same link costs one round-trip.
type LinkResolver interface {
	ResolveRedirect(ctx context.Context, shortURL string) (string, error)
}

// A Source is one external platform this engine knows how to resolve. It
// declares URL patterns, a normalization function, which fallback stages it
// supports, and per-source extraction overrides.
type Source interface {
	Name() string
	// Match validates rawURL against the source's URL patterns. It must not
	// perform network I/O; a non-nil error means the URL is not for this
	// source.
	Match(rawURL string) error
	// Normalize canonicalizes rawURL: scheme/host canonicalization, tracking
	// parameter stripping (identity-bearing parameters preserved),
	// short-link resolution via links, path-shape rewrites.
	Normalize(ctx context.Context, rawURL string, links LinkResolver) (string, error)
	// Stages returns the optional fallback stages this source supports.
	// StagePrimary is assumed for every source.
	Stages() generic.Set[Stage]
	// Overrides returns the source's extraction tuning.
	Overrides() Overrides
}

// ScrapedMedia is the minimal single-item output of a direct or OpenGraph
// scrape: one best-effort playable video URL or image URL, never a full
// catalog.
type ScrapedMedia struct {
	// Kind is ScrapedVideo or ScrapedImage.
	Kind         string
	URL          string
	ID           string
	Title        string
	ThumbnailURL string
}

const (
	ScrapedVideo = "video"
	ScrapedImage = "image"
)

// ScrapedID derives a stable media ID from a page URL: the last path
// segment when there is one, otherwise a hash of the whole URL.
func ScrapedID(pageURL string) string {
	if u, err := url.Parse(pageURL); err == nil {
		path := strings.Trim(u.Path, "/")
		if i := strings.LastIndex(path, "/"); i >= 0 {
			path = path[i+1:]
		}
		if path != "" {
			return path
		}
	}
	sum := sha256.Sum256([]byte(pageURL))
	return hex.EncodeToString(sum[:4])
}

// A DirectScraper is a Source that can scrape its pages for a literal
// playable URL when the generic extractor is unreliable for it.
type DirectScraper interface {
	Source
	ScrapeDirect(ctx context.Context, normalizedURL string) (*ScrapedMedia, error)
}

// An InstantVideoSource can produce a single direct progressive video URL
// for fulfillment, bypassing the merge pipeline.
type InstantVideoSource interface {
	Source
	InstantVideoURL(ctx context.Context, normalizedURL string) (string, error)
}

// A FlatProbe refines StageFlat per URL: a source that supports flat
// extraction may still decline it for URLs that are not list-shaped.
type FlatProbe interface {
	Source
	SupportsFlat(normalizedURL string) bool
}
