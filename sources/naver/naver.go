// Package naver resolves naver.com video URLs, including the tv/video/m
// subdomains.
package naver

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
	regexp.MustCompile(`(?i)^https?://(www\.)?naver\.com/`),
	regexp.MustCompile(`(?i)^https?://(tv|video)\.naver\.com/`),
	regexp.MustCompile(`(?i)^https?://m\.naver\.com/`),
}

type Source struct{}

func New() *Source { return &Source{} }

func (s *Source) Name() string { return "naver" }

func (s *Source) Match(rawURL string) error {
	for _, p := range patterns {
		if p.MatchString(rawURL) {
			return nil
		}
	}
	return fmt.Errorf("not a Naver URL")
}

func (s *Source) Normalize(ctx context.Context, rawURL string, links medidown.LinkResolver) (string, error) {
	return util.RewriteURL(rawURL, func(u *url.URL) {
		u.Host = strings.ToLower(u.Host)
		u.Path = strings.TrimRight(u.Path, "/")
		u.Fragment = ""
	})
}

func (s *Source) Stages() generic.Set[medidown.Stage] {
	return generic.NewSet(medidown.StagePrimary)
}

func (s *Source) Overrides() medidown.Overrides {
	return medidown.Overrides{
		SocketTimeout: 20 * time.Second,
		Retries:       2,
	}
}
