package scrape

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yashdhanani30/medidown"
)

// og:video variants in preference order. Sites that publish both usually
// put the CDN URL in secure_url.
var videoProperties = []string{"og:video:secure_url", "og:video:url", "og:video"}
var imageProperties = []string{"og:image", "og:image:secure_url", "twitter:image"}

// OpenGraph fetches rawURL and extracts media from its OpenGraph and
// Twitter Card meta tags. Video tags win over image tags. It returns
// ErrNoMediaFound when the page has neither.
func (c *Client) OpenGraph(ctx context.Context, rawURL string, referer string) (*medidown.ScrapedMedia, error) {
	body, err := c.Fetch(ctx, rawURL, referer)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return mediaFromDocument(doc, rawURL)
}

func mediaFromDocument(doc *goquery.Document, rawURL string) (*medidown.ScrapedMedia, error) {
	media := &medidown.ScrapedMedia{
		ID:           medidown.ScrapedID(rawURL),
		Title:        metaContent(doc, "og:title"),
		ThumbnailURL: firstMeta(doc, imageProperties),
	}
	if media.Title == "" {
		media.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if videoURL := firstMeta(doc, videoProperties); videoURL != "" {
		media.Kind = medidown.ScrapedVideo
		media.URL = videoURL
		return media, nil
	}
	if media.ThumbnailURL != "" {
		media.Kind = medidown.ScrapedImage
		media.URL = media.ThumbnailURL
		return media, nil
	}
	return nil, fmt.Errorf("no og:video or og:image tags at %s: %w", rawURL, medidown.ErrNoMediaFound)
}

func firstMeta(doc *goquery.Document, properties []string) string {
	for _, property := range properties {
		if content := metaContent(doc, property); content != "" {
			return content
		}
	}
	return ""
}

func metaContent(doc *goquery.Document, property string) string {
	selector := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, property, property)
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}
