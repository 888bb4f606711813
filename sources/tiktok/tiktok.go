// Package tiktok resolves tiktok.com videos, profiles and hashtags, plus
// the vm/vt short redirectors.
package tiktok

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
	regexp.MustCompile(`(?i)^https?://(www\.)?tiktok\.com/@[^/]+/video/\d+`),
	regexp.MustCompile(`(?i)^https?://(www\.)?tiktok\.com/@[^/]+/?$`),
	regexp.MustCompile(`(?i)^https?://(www\.)?tiktok\.com/tag/[^/]+/?$`),
	regexp.MustCompile(`(?i)^https?://(vm|vt)\.tiktok\.com/\w+/?`),
}

type Source struct{}

func New() *Source { return &Source{} }

func (s *Source) Name() string { return "tiktok" }

func (s *Source) Match(rawURL string) error {
	for _, p := range patterns {
		if p.MatchString(rawURL) {
			return nil
		}
	}
	return fmt.Errorf("not a TikTok URL")
}

// Normalize keeps the official short redirectors untouched (the extractor
// resolves them itself) and strips trackers from full tiktok.com URLs,
// preserving only is_from_webapp and sender_device.
func (s *Source) Normalize(ctx context.Context, rawURL string, links medidown.LinkResolver) (string, error) {
	host := util.Hostname(rawURL)
	if host == "vm.tiktok.com" || host == "vt.tiktok.com" {
		return rawURL, nil
	}
	return util.RewriteURL(rawURL, func(u *url.URL) {
		u.Host = strings.ToLower(u.Host)
		u.Path = strings.TrimRight(u.Path, "/")
		util.KeepQuery(u, "is_from_webapp", "sender_device")
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
		Referer:       "https://www.tiktok.com/",
	}
}
