// Package all wires every built-in source into one registry. Callers that
// only want a subset build their own SourceRegistry instead.
package all

import (
	"github.com/yashdhanani30/medidown"
	"github.com/yashdhanani30/medidown/generic"
	"github.com/yashdhanani30/medidown/scrape"
	"github.com/yashdhanani30/medidown/sources/facebook"
	"github.com/yashdhanani30/medidown/sources/instagram"
	"github.com/yashdhanani30/medidown/sources/linkedin"
	"github.com/yashdhanani30/medidown/sources/naver"
	"github.com/yashdhanani30/medidown/sources/pinterest"
	"github.com/yashdhanani30/medidown/sources/reddit"
	"github.com/yashdhanani30/medidown/sources/snapchat"
	"github.com/yashdhanani30/medidown/sources/tiktok"
	"github.com/yashdhanani30/medidown/sources/twitter"
	"github.com/yashdhanani30/medidown/sources/youtube"
)

// Options carries the dependencies and per-source toggles the built-in
// sources need.
type Options struct {
	// Scraper backs the sources that fetch pages directly (facebook).
	Scraper *scrape.Client
	// FacebookForceFallback makes facebook skip the generic extractor.
	FacebookForceFallback bool
}

// New returns a registry with every built-in source registered. The naver
// patterns are broad, so it matches at the lowest priority.
func New(opts Options) *medidown.SourceRegistry {
	registry := &medidown.SourceRegistry{}
	registry.MustAdd(youtube.New())
	registry.MustAdd(instagram.New())
	registry.MustAdd(facebook.New(opts.Scraper, facebook.Options{ForceFallback: opts.FacebookForceFallback}))
	registry.MustAdd(tiktok.New())
	registry.MustAdd(twitter.New())
	registry.MustAdd(reddit.New())
	registry.MustAdd(pinterest.New())
	registry.MustAdd(snapchat.New())
	registry.MustAdd(linkedin.New())
	generic.Unwrap_(registry.AddPriority(naver.New(), medidown.PriorityLowest))
	return registry
}
