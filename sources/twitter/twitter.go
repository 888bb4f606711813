// Package twitter resolves tweet permalinks on twitter.com and x.com.
package twitter

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/yashdhanani30/medidown"
	"github.com/yashdhanani30/medidown/generic"
	"github.com/yashdhanani30/medidown/util"
)

// Only tweet permalinks; profile and search URLs have no single media item
// to resolve.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://(www\.)?(twitter\.com|x\.com)/[^/]+/status/\d+`),
	regexp.MustCompile(`(?i)^https?://(www\.)?(twitter\.com|x\.com)/i/status/\d+`),
}

type Source struct{}

func New() *Source { return &Source{} }

func (s *Source) Name() string { return "twitter" }

func (s *Source) Match(rawURL string) error {
	for _, p := range patterns {
		if p.MatchString(rawURL) {
			return nil
		}
	}
	return fmt.Errorf("not a tweet permalink")
}

// Normalize rewrites x.com to twitter.com so both spellings share one cache
// key, and strips trackers except the s/t share parameters.
func (s *Source) Normalize(ctx context.Context, rawURL string, links medidown.LinkResolver) (string, error) {
	return util.RewriteURL(rawURL, func(u *url.URL) {
		host := strings.ToLower(u.Host)
		u.Host = strings.Replace(host, "x.com", "twitter.com", 1)
		u.Path = strings.TrimRight(u.Path, "/")
		util.KeepQuery(u, "s", "t")
		u.Fragment = ""
	})
}

func (s *Source) Stages() generic.Set[medidown.Stage] {
	return generic.NewSet(medidown.StagePrimary, medidown.StageOpenGraph)
}

func (s *Source) Overrides() medidown.Overrides {
	return medidown.Overrides{
		SocketTimeout: 25 * time.Second,
		Retries:       3,
		Referer:       "https://twitter.com/",
	}
}
