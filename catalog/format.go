// Package catalog converts raw extractor output into canonical Format
// records and produces deduplicated, ranked per-kind lists.
package catalog

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindImage Kind = "image"
)

// Origin tags where a Format came from. It exists for debugging fallback
// behaviour and never affects ranking.
type Origin string

const (
	OriginExtractor    Origin = "primary-extractor"
	OriginDirectScrape Origin = "direct-scrape"
	OriginOpenGraph    Origin = "opengraph"
)

// Format is one downloadable variant of a resolved item.
type Format struct {
	// ID is opaque and unique within one resolution result.
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
	// Container is the normalized extension, stored lowercase; use
	// DisplayContainer for presentation.
	Container string `json:"container"`
	Label     string `json:"label,omitempty"`

	Width       int `json:"width,omitempty"`
	Height      int `json:"height,omitempty"`
	FPS         int `json:"fps,omitempty"`
	BitrateKbps int `json:"bitrate_kbps,omitempty"`

	// SizeBytes is the exact upstream-reported size. EstimatedSizeBytes is
	// derived from bitrate and duration; at most one of the two is set, so
	// an estimate is never presented as exact.
	SizeBytes          int64 `json:"size_bytes,omitempty"`
	EstimatedSizeBytes int64 `json:"estimated_size_bytes,omitempty"`

	HasDirectURL  bool   `json:"has_direct_url"`
	URL           string `json:"url,omitempty"`
	IsProgressive bool   `json:"is_progressive"`

	VideoCodec string `json:"vcodec,omitempty"`
	AudioCodec string `json:"acodec,omitempty"`

	Origin Origin `json:"origin"`
}

// DisplayContainer returns the container uppercased for display.
func (f *Format) DisplayContainer() string {
	return strings.ToUpper(f.Container)
}

// SizeLabel renders the size for display, prefixing estimates so they are
// never mistaken for exact sizes.
func (f *Format) SizeLabel() string {
	switch {
	case f.SizeBytes > 0:
		return fmt.Sprintf("%.1f MB", float64(f.SizeBytes)/1048576)
	case f.EstimatedSizeBytes > 0:
		return fmt.Sprintf("~%.1f MB", float64(f.EstimatedSizeBytes)/1048576)
	default:
		return "Unknown size"
	}
}

// Item is the per-entry summary of a multi-item post or playlist.
type Item struct {
	ID              string `json:"id,omitempty"`
	Title           string `json:"title,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	Uploader        string `json:"uploader,omitempty"`
	PageURL         string `json:"page_url,omitempty"`
}

// Result is one resolved item: metadata plus the ranked per-kind format
// lists. It is immutable once built; the cache stores a serialized copy.
type Result struct {
	Title           string `json:"title"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	Uploader        string `json:"uploader,omitempty"`

	Videos []Format `json:"videos"`
	Audios []Format `json:"audios"`
	Images []Format `json:"images"`

	Items     []Item `json:"items,omitempty"`
	ItemCount int    `json:"item_count"`

	// InstantAvailable is true iff at least one progressive, directly
	// fetchable video format exists. It lets callers distinguish "no
	// instant option" from "no media at all".
	InstantAvailable bool `json:"instant_available"`
}

// Find returns the format with the given id, searching videos, audios then
// images, or nil.
func (r *Result) Find(id string) *Format {
	for _, list := range [][]Format{r.Videos, r.Audios, r.Images} {
		for i := range list {
			if list[i].ID == id {
				return &list[i]
			}
		}
	}
	return nil
}

// BestAudio returns the highest-ranked instant audio format, or nil.
func (r *Result) BestAudio() *Format {
	for i := range r.Audios {
		if r.Audios[i].HasDirectURL {
			return &r.Audios[i]
		}
	}
	return nil
}
