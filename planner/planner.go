// Package planner turns a chosen format ID into a fulfillment decision:
// either a direct URL the caller can fetch as-is, or a transcode/merge plan
// for the download pipeline. It performs no transfers itself.
package planner

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yashdhanani30/medidown"
	"github.com/yashdhanani30/medidown/catalog"
)

const (
	// MinAudioBitrateKbps and MaxAudioBitrateKbps bound requested MP3
	// bitrates. Values outside are clamped, never rejected.
	MinAudioBitrateKbps = 32
	MaxAudioBitrateKbps = 320

	defaultMP3BitrateKbps = 192
	defaultM4ABitrateKbps = 192
)

// bestSelector prefers progressive MP4, then any progressive, then MP4
// merge combinations, down to whatever exists.
const bestSelector = "best[ext=mp4][vcodec!=none][acodec!=none]/" +
	"best[vcodec!=none][acodec!=none]/" +
	"bestvideo[ext=mp4]+bestaudio[ext=m4a]/" +
	"bestvideo[ext=mp4]+bestaudio/" +
	"bestvideo+bestaudio/" +
	"best"

var mp3Preset = regexp.MustCompile(`(?i)^mp3[_-]?(\d{2,3})$`)

// A TranscodePlan instructs the download pipeline what to fetch and how to
// combine it.
type TranscodePlan struct {
	// FormatSelector is the extractor-native format selection expression.
	FormatSelector string `json:"format_selector"`
	// OutputContainer is the merge target container, empty for audio plans.
	OutputContainer  string `json:"output_container,omitempty"`
	ExtractAudio     bool   `json:"extract_audio,omitempty"`
	AudioCodec       string `json:"audio_codec,omitempty"`
	AudioBitrateKbps int    `json:"audio_bitrate_kbps,omitempty"`
	Referer          string `json:"referer,omitempty"`
}

// Fulfillment is the planner's decision. Exactly one of DirectURL and
// Transcode is set.
type Fulfillment struct {
	DirectURL string         `json:"direct_url,omitempty"`
	Transcode *TranscodePlan `json:"transcode,omitempty"`
}

// A Resolver produces a catalog for a URL. The resolver package implements
// it; the planner only re-resolves when the caller has no catalog in hand.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (*catalog.Result, error)
}

type Planner struct {
	registry *medidown.SourceRegistry
	resolver Resolver
	log      *zap.SugaredLogger
}

func New(registry *medidown.SourceRegistry, resolver Resolver, log *zap.SugaredLogger) *Planner {
	return &Planner{
		registry: registry,
		resolver: resolver,
		log:      log.Named("planner"),
	}
}

// Plan decides how to fulfill formatID for rawURL. A nil result triggers a
// re-resolve (served from the cache when fresh).
func (p *Planner) Plan(ctx context.Context, rawURL string, formatID string, result *catalog.Result) (*Fulfillment, error) {
	source, err := p.registry.Match(rawURL)
	if err != nil {
		return nil, err
	}
	overrides := source.Overrides()
	referer := overrides.Referer

	// Image IDs fulfill directly or not at all; there is nothing to merge
	// or transcode for an image.
	if strings.HasPrefix(formatID, "img") {
		result, err = p.ensureResult(ctx, rawURL, result)
		if err != nil {
			return nil, err
		}
		if f := result.Find(formatID); f != nil && f.Kind == catalog.KindImage && f.URL != "" {
			return &Fulfillment{DirectURL: f.URL}, nil
		}
		return nil, fmt.Errorf("%w: image %q", medidown.ErrFormatNotFound, formatID)
	}

	// Instant audio: the catalog already carries a direct URL.
	if !strings.Contains(formatID, "+") && result != nil {
		if f := result.Find(formatID); f != nil && f.Kind == catalog.KindAudio && f.HasDirectURL && f.URL != "" {
			return &Fulfillment{DirectURL: f.URL}, nil
		}
	}

	if plan := p.audioPreset(formatID, referer); plan != nil {
		return &Fulfillment{Transcode: plan}, nil
	}

	// Sources with a dedicated instant helper short-circuit the merge
	// pipeline when it works; failure just falls through. An explicit
	// format id is honored exactly unless the source opted in to instant
	// fulfillment because its generic merge path is unreliable.
	if formatID == "" || formatID == "best" || overrides.InstantFulfillment {
		if instant, ok := source.(medidown.InstantVideoSource); ok {
			if directURL, err := instant.InstantVideoURL(ctx, rawURL); err == nil && directURL != "" {
				return &Fulfillment{DirectURL: directURL}, nil
			} else if err != nil {
				p.log.Debugw("instant helper failed, planning a merge instead", "source", source.Name(), "error", err)
			}
		}
	}

	// Generic instant fetch: the chosen catalog entry is directly fetchable
	// with no merge needed. This re-checks instant audio so a nil result
	// still fulfills an audio id after the re-resolve.
	if formatID != "best" && !strings.Contains(formatID, "+") {
		result, err = p.ensureResult(ctx, rawURL, result)
		if err != nil {
			return nil, err
		}
		if f := result.Find(formatID); f != nil {
			if f.Kind == catalog.KindVideo && f.IsProgressive && f.HasDirectURL && f.URL != "" {
				return &Fulfillment{DirectURL: f.URL}, nil
			}
			if f.Kind == catalog.KindAudio && f.HasDirectURL && f.URL != "" {
				return &Fulfillment{DirectURL: f.URL}, nil
			}
		} else if scrapeOnly(result) {
			// A scraped single-item catalog is exhaustive: any id it does
			// not list cannot exist upstream either.
			return nil, fmt.Errorf("%w: %q", medidown.ErrFormatNotFound, formatID)
		}
	}

	return &Fulfillment{Transcode: &TranscodePlan{
		FormatSelector:  mergeSelector(formatID),
		OutputContainer: "mp4",
		Referer:         referer,
	}}, nil
}

// audioPreset maps the synthesized audio format IDs to transcode plans.
func (p *Planner) audioPreset(formatID string, referer string) *TranscodePlan {
	fid := strings.ToLower(formatID)
	switch fid {
	case "audio", "bestaudio", "audio_best":
		// Pass-through: keep the native container, no transcoding.
		return &TranscodePlan{FormatSelector: "bestaudio/best", Referer: referer}
	case "m4a", "audio_m4a":
		return &TranscodePlan{
			FormatSelector:   "bestaudio[ext=m4a]/bestaudio/best",
			ExtractAudio:     true,
			AudioCodec:       "m4a",
			AudioBitrateKbps: defaultM4ABitrateKbps,
			Referer:          referer,
		}
	}
	bitrate := -1
	if fid == "mp3" || fid == "audio_mp3" {
		bitrate = defaultMP3BitrateKbps
	} else if m := mp3Preset.FindStringSubmatch(fid); m != nil {
		bitrate, _ = strconv.Atoi(m[1])
	}
	if bitrate < 0 {
		return nil
	}
	clamped := ClampBitrate(bitrate)
	if clamped != bitrate {
		p.log.Warnw("mp3 bitrate out of range, clamped", "requested", bitrate, "clamped", clamped)
	}
	return &TranscodePlan{
		FormatSelector:   "bestaudio/best",
		ExtractAudio:     true,
		AudioCodec:       "mp3",
		AudioBitrateKbps: clamped,
		Referer:          referer,
	}
}

// ClampBitrate bounds a requested audio bitrate to the supported range. It
// is idempotent: clamping a clamped value is a no-op.
func ClampBitrate(kbps int) int {
	if kbps < MinAudioBitrateKbps {
		return MinAudioBitrateKbps
	}
	if kbps > MaxAudioBitrateKbps {
		return MaxAudioBitrateKbps
	}
	return kbps
}

func (p *Planner) ensureResult(ctx context.Context, rawURL string, result *catalog.Result) (*catalog.Result, error) {
	if result != nil {
		return result, nil
	}
	return p.resolver.Resolve(ctx, rawURL)
}

// mergeSelector builds the extractor-native selection expression for the
// merge pipeline. IDs already carrying an explicit merge expression pass
// through unmodified.
func mergeSelector(formatID string) string {
	if formatID == "" || formatID == "best" {
		return bestSelector
	}
	if strings.Contains(formatID, "+") {
		return formatID
	}
	return formatID + "+bestaudio/" + formatID
}

// scrapeOnly reports whether every format in the result came from a scrape
// stage rather than the primary extractor.
func scrapeOnly(result *catalog.Result) bool {
	any := false
	for _, list := range [][]catalog.Format{result.Videos, result.Audios, result.Images} {
		for _, f := range list {
			any = true
			if f.Origin == catalog.OriginExtractor {
				return false
			}
		}
	}
	return any
}
