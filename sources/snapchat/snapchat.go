// Package snapchat resolves story and spotlight links plus t.snapchat.com
// short links. Many stories are photo-based, so image results are common.
package snapchat

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
	regexp.MustCompile(`(?i)^https?://story\.snapchat\.com/s/[A-Za-z0-9_-]+`),
	regexp.MustCompile(`(?i)^https?://(www\.)?snapchat\.com/add/[A-Za-z0-9_.-]+/story`),
	regexp.MustCompile(`(?i)^https?://(www\.)?snapchat\.com/spotlight/[A-Za-z0-9_-]+`),
	regexp.MustCompile(`(?i)^https?://t\.snapchat\.com/[A-Za-z0-9]+/?`),
}

type Source struct{}

func New() *Source { return &Source{} }

func (s *Source) Name() string { return "snapchat" }

func (s *Source) Match(rawURL string) error {
	for _, p := range patterns {
		if p.MatchString(rawURL) {
			return nil
		}
	}
	return fmt.Errorf("not a Snapchat story or spotlight URL")
}

// Normalize keeps t.snapchat.com short links untouched and strips query,
// fragment and trailing slash from full URLs.
func (s *Source) Normalize(ctx context.Context, rawURL string, links medidown.LinkResolver) (string, error) {
	if util.Hostname(rawURL) == "t.snapchat.com" {
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
		Referer:       "https://www.snapchat.com/",
	}
}
