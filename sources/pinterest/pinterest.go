// Package pinterest resolves pin pages and pin.it short links.
package pinterest

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

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://(www\.)?pinterest\.(com|co\.uk|ca|fr|de|es|it)/pin/\d+/?`),
	regexp.MustCompile(`(?i)^https?://pin\.it/\w+/?`),
}

type Source struct{}

func New() *Source { return &Source{} }

func (s *Source) Name() string { return "pinterest" }

func (s *Source) Match(rawURL string) error {
	for _, p := range patterns {
		if p.MatchString(rawURL) {
			return nil
		}
	}
	return fmt.Errorf("not a Pinterest pin URL")
}

// Normalize keeps pin.it short links untouched and drops the entire query
// string from pin pages; a pin's identity is its numeric path ID.
func (s *Source) Normalize(ctx context.Context, rawURL string, links medidown.LinkResolver) (string, error) {
	if util.Hostname(rawURL) == "pin.it" {
		return rawURL, nil
	}
	return util.RewriteURL(rawURL, func(u *url.URL) {
		u.Host = strings.ToLower(u.Host)
		u.Path = strings.TrimRight(u.Path, "/")
		util.StripQuery(u)
	})
}

func (s *Source) Stages() generic.Set[medidown.Stage] {
	return generic.NewSet(medidown.StagePrimary, medidown.StageOpenGraph)
}

func (s *Source) Overrides() medidown.Overrides {
	return medidown.Overrides{
		SocketTimeout: 25 * time.Second,
		Retries:       3,
		Referer:       "https://www.pinterest.com/",
	}
}
