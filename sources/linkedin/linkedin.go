// Package linkedin resolves post and feed-update permalinks. LinkedIn's
// generic extraction breaks often, so OpenGraph fallback matters here.
package linkedin

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
	regexp.MustCompile(`(?i)^https?://(www\.)?linkedin\.com/posts/[^/]+`),
	regexp.MustCompile(`(?i)^https?://(www\.)?linkedin\.com/feed/update/urn:li:activity:\d+`),
	regexp.MustCompile(`(?i)^https?://(www\.)?linkedin\.com/.*/ugcPost-\d+`),
}

var ugcPostID = regexp.MustCompile(`ugcPost-(\d+)`)

type Source struct{}

func New() *Source { return &Source{} }

func (s *Source) Name() string { return "linkedin" }

func (s *Source) Match(rawURL string) error {
	for _, p := range patterns {
		if p.MatchString(rawURL) {
			return nil
		}
	}
	return fmt.Errorf("not a LinkedIn post URL")
}

// Normalize rewrites ugcPost permalinks to the canonical feed/update
// activity URL and strips trackers except trk/originalSubdomain, which some
// posts need for access.
func (s *Source) Normalize(ctx context.Context, rawURL string, links medidown.LinkResolver) (string, error) {
	return util.RewriteURL(rawURL, func(u *url.URL) {
		u.Host = strings.ToLower(u.Host)
		path := strings.TrimRight(u.Path, "/")
		if m := ugcPostID.FindStringSubmatch(path); m != nil {
			u.Path = "/feed/update/urn:li:activity:" + m[1]
			util.StripQuery(u)
			return
		}
		u.Path = path
		util.KeepQuery(u, "trk", "originalSubdomain")
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
		Referer:       "https://www.linkedin.com/",
	}
}
