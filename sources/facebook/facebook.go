// Package facebook resolves facebook.com video and photo URLs, fb.watch
// links, and fb.me short links. Facebook's generic extraction breaks
// frequently, so this source also scrapes pages directly for a playable
// MP4 URL.
package facebook

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/yashdhanani30/medidown"
	"github.com/yashdhanani30/medidown/generic"
	"github.com/yashdhanani30/medidown/scrape"
)

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://(www\.)?facebook\.com/.*(photo\.php|permalink\.php|video\.php|watch|/posts/|/photos/|/videos/|/reel/|/reels/)`),
	regexp.MustCompile(`(?i)^https?://fb\.watch/`),
	regexp.MustCompile(`(?i)^https?://fb\.me/`),
}

var (
	// /videos/<id>/ or /videos/<slug>/<id>/
	videoPathID = regexp.MustCompile(`(?i)/videos/(?:[^/]+/)?(\d{8,})(?:/|$)`)
	// trailing numeric segment anywhere in the path
	trailingID = regexp.MustCompile(`/(\d{8,})(?:/|$)`)
)

type Source struct {
	client        *scrape.Client
	forceFallback bool
}

// Options configures the facebook source beyond its built-in defaults.
type Options struct {
	// ForceFallback skips the generic extractor entirely and scrapes the
	// page directly. Set it while the extractor is broken for facebook.
	ForceFallback bool
}

func New(client *scrape.Client, opts Options) *Source {
	return &Source{client: client, forceFallback: opts.ForceFallback}
}

func (s *Source) Name() string { return "facebook" }

func (s *Source) Match(rawURL string) error {
	for _, p := range patterns {
		if p.MatchString(rawURL) {
			return nil
		}
	}
	return fmt.Errorf("not a Facebook media URL")
}

// Normalize canonicalizes facebook.com video URLs to the watch form.
// fb.watch links pass through; fb.me links resolve one redirect hop via
// links (micro-cached by the caller). Endpoint pages like photo.php keep
// only their identity parameters.
func (s *Source) Normalize(ctx context.Context, rawURL string, links medidown.LinkResolver) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(u.Hostname())

	if host == "fb.watch" {
		return rawURL, nil
	}
	if host == "fb.me" {
		resolved, err := links.ResolveRedirect(ctx, rawURL)
		if err != nil {
			// Best effort: the extractor can usually follow the redirect
			// itself, so a failed resolution is not fatal.
			return rawURL, nil
		}
		if resolved == rawURL {
			return rawURL, nil
		}
		return s.Normalize(ctx, resolved, links)
	}
	if host != "facebook.com" && !strings.HasSuffix(host, ".facebook.com") {
		return "", fmt.Errorf("not a Facebook host: %s", host)
	}

	path := u.Path
	pathLower := strings.ToLower(path)
	query := u.Query()

	videoID := query.Get("v")
	if videoID == "" {
		if m := videoPathID.FindStringSubmatch(pathLower); m != nil {
			videoID = m[1]
		} else if m := trailingID.FindStringSubmatch(pathLower); m != nil {
			videoID = m[1]
		}
	}

	if videoID != "" && !strings.Contains(pathLower, "video.php") {
		return "https://www.facebook.com/watch/?v=" + videoID, nil
	}

	// Endpoint pages keep their identity parameters in a fixed order so
	// equivalent URLs produce one cache key.
	var keep []string
	switch {
	case strings.Contains(pathLower, "permalink.php"):
		keep = []string{"story_fbid", "id"}
	case strings.Contains(pathLower, "photo.php"):
		keep = []string{"fbid", "set", "type"}
	case strings.Contains(pathLower, "video.php"):
		keep = []string{"v", "id"}
	default:
		keep = []string{"story_fbid", "id", "set", "type", "fbid", "v"}
	}
	var kept []string
	for _, key := range keep {
		if value := query.Get(key); value != "" {
			kept = append(kept, url.QueryEscape(key)+"="+url.QueryEscape(value))
		}
	}
	u.RawQuery = strings.Join(kept, "&")
	u.Fragment = ""
	return u.String(), nil
}

func (s *Source) Stages() generic.Set[medidown.Stage] {
	return generic.NewSet(medidown.StagePrimary, medidown.StageDirectScrape, medidown.StageOpenGraph)
}

func (s *Source) Overrides() medidown.Overrides {
	return medidown.Overrides{
		SocketTimeout: 25 * time.Second,
		Retries:       3,
		Referer:       "https://www.facebook.com/",
		ForceFallback: s.forceFallback,
		// The generic merge path is unreliable for Facebook, so the scraped
		// direct URL backs both resolution and fulfillment.
		AugmentWithScrape:  true,
		InstantFulfillment: true,
	}
}

// ScrapeDirect fetches the page and extracts a playable MP4 URL from its
// embedded player JSON.
func (s *Source) ScrapeDirect(ctx context.Context, normalizedURL string) (*medidown.ScrapedMedia, error) {
	directURL, err := s.scrapeMP4(ctx, normalizedURL)
	if err != nil {
		return nil, err
	}
	return &medidown.ScrapedMedia{
		Kind:  medidown.ScrapedVideo,
		URL:   directURL,
		ID:    mediaID(normalizedURL),
		Title: "Facebook Video",
	}, nil
}

// InstantVideoURL returns a direct progressive MP4 URL for fulfillment.
func (s *Source) InstantVideoURL(ctx context.Context, normalizedURL string) (string, error) {
	return s.scrapeMP4(ctx, normalizedURL)
}

func mediaID(normalizedURL string) string {
	if m := regexp.MustCompile(`[?&]v=(\d{8,})`).FindStringSubmatch(normalizedURL); m != nil {
		return m[1]
	}
	if m := trailingID.FindStringSubmatch(normalizedURL); m != nil {
		return m[1]
	}
	return "facebook-video"
}

var (
	_ medidown.DirectScraper      = (*Source)(nil)
	_ medidown.InstantVideoSource = (*Source)(nil)
)
