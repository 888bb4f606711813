// Package reddit resolves post permalinks plus the redd.it short and direct
// media hosts.
package reddit

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
	regexp.MustCompile(`(?i)^https?://(www\.|old\.|new\.|np\.)?reddit\.com/r/[^/]+/comments/[a-z0-9]+(/[^/]+)?(/\w+)?/?`),
	regexp.MustCompile(`(?i)^https?://redd\.it/\w+/?`),
	regexp.MustCompile(`(?i)^https?://v\.redd\.it/\w+`),
	regexp.MustCompile(`(?i)^https?://i\.redd\.it/\S+`),
}

type Source struct{}

func New() *Source { return &Source{} }

func (s *Source) Name() string { return "reddit" }

func (s *Source) Match(rawURL string) error {
	for _, p := range patterns {
		if p.MatchString(rawURL) {
			return nil
		}
	}
	return fmt.Errorf("not a Reddit post or media URL")
}

// Normalize folds the old/new/np subdomains into www and strips the query
// and fragment; a canonical post permalink carries its identity entirely in
// the path. Short and direct media hosts pass through untouched.
func (s *Source) Normalize(ctx context.Context, rawURL string, links medidown.LinkResolver) (string, error) {
	host := util.Hostname(rawURL)
	if host == "redd.it" || strings.HasSuffix(host, ".redd.it") {
		return rawURL, nil
	}
	return util.RewriteURL(rawURL, func(u *url.URL) {
		u.Host = "www.reddit.com"
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
		Referer:       "https://www.reddit.com/",
	}
}
