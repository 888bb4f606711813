// Package youtube resolves youtube.com and youtu.be URLs: single videos,
// playlists, channels and handles.
package youtube

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	kkdai "github.com/kkdai/youtube/v2"

	"github.com/yashdhanani30/medidown"
	"github.com/yashdhanani30/medidown/generic"
	"github.com/yashdhanani30/medidown/util"
)

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://(www\.|m\.|music\.)?youtube\.com/`),
	regexp.MustCompile(`(?i)^https?://youtu\.be/`),
}

// playlistPattern spots playlist/channel/handle URLs that need flat
// extraction instead of a full per-item format fetch.
var playlistPattern = regexp.MustCompile(`(?i)youtube\.com/(playlist|channel/|c/|user/|@)|[?&]list=`)

type Source struct {
	client *kkdai.Client
}

func New() *Source {
	return &Source{client: &kkdai.Client{}}
}

func (s *Source) Name() string { return "youtube" }

func (s *Source) Match(rawURL string) error {
	for _, p := range patterns {
		if p.MatchString(rawURL) {
			return nil
		}
	}
	return fmt.Errorf("not a YouTube URL")
}

// Normalize rewrites youtu.be short links to watch URLs, canonicalizes the
// host to www.youtube.com, and drops every query parameter except the
// identity-bearing v, list and index.
func (s *Source) Normalize(ctx context.Context, rawURL string, links medidown.LinkResolver) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(u.Hostname())
	if host == "youtu.be" {
		videoID := strings.Trim(u.Path, "/")
		if videoID == "" {
			return "", fmt.Errorf("youtu.be link has no video ID")
		}
		watch := url.URL{Scheme: "https", Host: "www.youtube.com", Path: "/watch"}
		query := url.Values{"v": {videoID}}
		if list := u.Query().Get("list"); list != "" {
			query.Set("list", list)
		}
		watch.RawQuery = query.Encode()
		return watch.String(), nil
	}
	u.Scheme = "https"
	u.Host = "www.youtube.com"
	util.KeepQuery(u, "v", "list", "index")
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

func (s *Source) Stages() generic.Set[medidown.Stage] {
	return generic.NewSet(medidown.StagePrimary, medidown.StageFlat)
}

func (s *Source) Overrides() medidown.Overrides {
	return medidown.Overrides{
		SocketTimeout: 15 * time.Second,
		Retries:       2,
		Referer:       "https://www.youtube.com/",
		// iOS first: it most often exposes progressive MP4 direct URLs.
		PlayerClients: []string{"ios", "web", "android"},
	}
}

// SupportsFlat reports whether normalizedURL is a playlist/channel/handle
// page, where a flat extraction is both sufficient and far cheaper.
func (s *Source) SupportsFlat(normalizedURL string) bool {
	return playlistPattern.MatchString(normalizedURL)
}

// InstantVideoURL fetches a single progressive (audio+video) stream URL via
// the dedicated client, skipping the generic extractor entirely.
func (s *Source) InstantVideoURL(ctx context.Context, normalizedURL string) (string, error) {
	video, err := s.client.GetVideoContext(ctx, normalizedURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", medidown.ErrUpstreamUnavailable, err)
	}
	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return "", medidown.ErrNoMediaFound
	}
	formats.Sort()
	streamURL, err := s.client.GetStreamURLContext(ctx, video, &formats[0])
	if err != nil {
		return "", fmt.Errorf("%w: %v", medidown.ErrUpstreamUnavailable, err)
	}
	return streamURL, nil
}

var (
	_ medidown.InstantVideoSource = (*Source)(nil)
	_ medidown.FlatProbe          = (*Source)(nil)
)
