// Package instagram resolves instagram.com posts, reels, stories, profiles,
// hashtags and locations.
package instagram

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/yashdhanani30/medidown"
	"github.com/yashdhanani30/medidown/generic"
)

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://(www\.)?instagram\.com/`),
	regexp.MustCompile(`(?i)^https?://instagr\.am/`),
}

var (
	postPath     = regexp.MustCompile(`(?i)^/(p|reel|reels|tv|stories)/`)
	profilePath  = regexp.MustCompile(`^/[A-Za-z0-9._]{1,30}$`)
	hashtagPath  = regexp.MustCompile(`(?i)^/explore/tags/[^/]+$`)
	locationPath = regexp.MustCompile(`(?i)^/explore/locations/\d+(/[^/]+)?$`)
)

type Source struct{}

func New() *Source { return &Source{} }

func (s *Source) Name() string { return "instagram" }

func (s *Source) Match(rawURL string) error {
	for _, p := range patterns {
		if p.MatchString(rawURL) {
			return nil
		}
	}
	return fmt.Errorf("not an Instagram URL")
}

// Normalize canonicalizes to https://www.instagram.com with query and
// fragment stripped. Post/reel/tv/story shortcodes are case-sensitive and
// kept verbatim; profile, hashtag and location paths are lowercased.
func (s *Source) Normalize(ctx context.Context, rawURL string, links medidown.LinkResolver) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(u.Hostname())
	if host != "instagr.am" && host != "instagram.com" && !strings.HasSuffix(host, ".instagram.com") {
		return "", fmt.Errorf("not an Instagram host: %s", host)
	}
	path := strings.TrimRight(u.Path, "/")
	switch {
	case postPath.MatchString(path):
		// keep case
	case profilePath.MatchString(path), hashtagPath.MatchString(path), locationPath.MatchString(path):
		path = strings.ToLower(path)
	}
	canonical := url.URL{Scheme: "https", Host: "www.instagram.com", Path: path}
	return canonical.String(), nil
}

func (s *Source) Stages() generic.Set[medidown.Stage] {
	return generic.NewSet(medidown.StagePrimary, medidown.StageOpenGraph)
}

func (s *Source) Overrides() medidown.Overrides {
	return medidown.Overrides{
		SocketTimeout: 25 * time.Second,
		Retries:       3,
		Referer:       "https://www.instagram.com/",
	}
}
