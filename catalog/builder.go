package catalog

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/yashdhanani30/medidown"
	"github.com/yashdhanani30/medidown/extractor"
)

// Manifest-style entries carry no single direct URL and never belong in the
// catalog; premium/storyboard variants are upstream noise.
var (
	manifestPattern = regexp.MustCompile(`(?i)m3u8|hls`)
	noisePattern    = regexp.MustCompile(`(?i)premium|storyboard`)
)

// BuildOptions tunes catalog construction for one source.
type BuildOptions struct {
	// Origin tags every produced Format; defaults to OriginExtractor.
	Origin Origin
	// StrictMP4 discards non-MP4 video containers ("instant" mode).
	StrictMP4 bool
	// InstantAudioLimit caps how many instant audio entries are kept.
	// Defaults to 5.
	InstantAudioLimit int
	// MP3PresetBitrates are the synthesized fixed-bitrate conversion
	// options. Defaults to 128, 192, 320.
	MP3PresetBitrates []int
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.Origin == "" {
		o.Origin = OriginExtractor
	}
	if o.InstantAudioLimit == 0 {
		o.InstantAudioLimit = 5
	}
	if o.MP3PresetBitrates == nil {
		o.MP3PresetBitrates = []int{128, 192, 320}
	}
	return o
}

// Build converts raw extractor output into a ranked, deduplicated Result.
// It returns medidown.ErrNoMediaFound when classification yields zero
// formats of every kind.
func Build(info *extractor.RawInfo, opts BuildOptions) (*Result, error) {
	opts = opts.withDefaults()
	items := info.Items()
	first := &items[0]
	duration := first.Duration.UnwrapOrDefault()

	result := &Result{
		Title:           first.BestTitle("Media"),
		ThumbnailURL:    first.BestThumbnail(),
		DurationSeconds: duration,
		Uploader:        first.BestUploader(),
		ItemCount:       len(items),
	}

	imageID := 0
	for idx := range items {
		item := &items[idx]
		videos := buildVideos(item, opts)
		audios := buildAudios(item, opts)
		if idx == 0 {
			result.Videos = videos
			result.Audios = audios
		}
		if len(videos) == 0 && len(audios) == 0 {
			result.Images = append(result.Images, buildImages(item, opts, &imageID)...)
		}
	}

	// Presets apply whenever any audio track exists, including audio muxed
	// into progressive video.
	if len(result.Audios) > 0 || hasMuxedAudio(result.Videos) {
		result.Audios = append(result.Audios, mp3Presets(duration, opts)...)
	}

	if len(items) > 1 || info.IsPlaylist() {
		for idx := range items {
			item := &items[idx]
			result.Items = append(result.Items, Item{
				ID:              item.ID,
				Title:           item.Title,
				DurationSeconds: item.Duration.UnwrapOrDefault(),
				ThumbnailURL:    item.BestThumbnail(),
				Uploader:        item.BestUploader(),
				PageURL:         item.WebpageURL,
			})
		}
	}

	result.InstantAvailable = instantAvailable(result.Videos)

	if len(result.Videos) == 0 && len(result.Audios) == 0 && len(result.Images) == 0 {
		return nil, medidown.ErrNoMediaFound
	}
	return result, nil
}

// BuildFlat converts a flat (metadata-only) playlist extraction into a
// Result carrying entry summaries and no formats.
func BuildFlat(info *extractor.RawInfo) (*Result, error) {
	result := &Result{
		Title:        info.BestTitle("Playlist"),
		ThumbnailURL: info.BestThumbnail(),
		Uploader:     info.BestUploader(),
		ItemCount:    len(info.Entries),
	}
	for idx := range info.Entries {
		entry := &info.Entries[idx]
		pageURL := entry.WebpageURL
		if pageURL == "" {
			pageURL = entry.URL
		}
		result.Items = append(result.Items, Item{
			ID:              entry.ID,
			Title:           entry.Title,
			DurationSeconds: entry.Duration.UnwrapOrDefault(),
			ThumbnailURL:    entry.BestThumbnail(),
			Uploader:        entry.BestUploader(),
			PageURL:         pageURL,
		})
	}
	if len(result.Items) == 0 {
		return nil, medidown.ErrNoMediaFound
	}
	return result, nil
}

func buildVideos(item *extractor.RawInfo, opts BuildOptions) []Format {
	duration := item.Duration.UnwrapOrDefault()
	byKey := make(map[dedupKey]int)
	var videos []Format

	for i := range item.Formats {
		raw := &item.Formats[i]
		if !raw.HasVideo() {
			continue
		}
		if manifestPattern.MatchString(raw.Protocol) || noisePattern.MatchString(raw.FormatNote) {
			continue
		}
		height := raw.Height.UnwrapOrDefault()
		width := raw.Width.UnwrapOrDefault()
		if height == 0 && width == 0 {
			continue
		}
		container := normalizeContainer(raw.Ext, "mp4")
		if opts.StrictMP4 && container != "mp4" {
			continue
		}

		f := Format{
			ID:            raw.FormatID,
			Kind:          KindVideo,
			Container:     container,
			Width:         width,
			Height:        height,
			FPS:           raw.FPS.UnwrapOrDefault(),
			BitrateKbps:   int(math.Round(raw.TBR.UnwrapOrDefault())),
			HasDirectURL:  raw.URL != "",
			URL:           raw.URL,
			IsProgressive: raw.HasVideo() && raw.HasAudio(),
			VideoCodec:    raw.VCodec,
			AudioCodec:    raw.ACodec,
			Origin:        opts.Origin,
		}
		f.Label = videoLabel(&f, raw.FormatNote)
		setSize(&f, raw, duration)

		key := dedupKeyOf(&f)
		if existing, ok := byKey[key]; ok {
			// Replace only on a strictly greater preference tuple; exact
			// ties keep the first-seen entry.
			if preferenceOf(&f).compare(preferenceOf(&videos[existing])) > 0 {
				videos[existing] = f
			}
			continue
		}
		byKey[key] = len(videos)
		videos = append(videos, f)
	}

	sortByPreference(videos)
	return videos
}

func buildAudios(item *extractor.RawInfo, opts BuildOptions) []Format {
	duration := item.Duration.UnwrapOrDefault()
	var audios []Format
	for i := range item.Formats {
		raw := &item.Formats[i]
		if raw.HasVideo() || !raw.HasAudio() {
			continue
		}
		if manifestPattern.MatchString(raw.Protocol) {
			continue
		}
		bitrate := int(math.Round(raw.Bitrate().UnwrapOrDefault()))
		f := Format{
			ID:           raw.FormatID,
			Kind:         KindAudio,
			Container:    normalizeContainer(raw.Ext, "m4a"),
			BitrateKbps:  bitrate,
			HasDirectURL: raw.URL != "",
			URL:          raw.URL,
			AudioCodec:   raw.ACodec,
			Origin:       opts.Origin,
		}
		if bitrate > 0 {
			f.Label = fmt.Sprintf("Instant Audio %d kbps", bitrate)
		} else {
			f.Label = "Instant Audio"
		}
		setSize(&f, raw, duration)
		audios = append(audios, f)
		if len(audios) >= opts.InstantAudioLimit {
			break
		}
	}
	return audios
}

// mp3Presets synthesizes the fixed-bitrate conversion options. They carry
// no direct URL: fulfilling one always goes through the transcode path.
func mp3Presets(duration int, opts BuildOptions) []Format {
	presets := make([]Format, 0, len(opts.MP3PresetBitrates))
	for _, bitrate := range opts.MP3PresetBitrates {
		f := Format{
			ID:           fmt.Sprintf("mp3_%d", bitrate),
			Kind:         KindAudio,
			Container:    "mp3",
			Label:        fmt.Sprintf("Fast MP3 %d kbps", bitrate),
			BitrateKbps:  bitrate,
			HasDirectURL: false,
			Origin:       opts.Origin,
		}
		if duration > 0 {
			f.EstimatedSizeBytes = estimateSize(float64(bitrate), duration)
		}
		presets = append(presets, f)
	}
	return presets
}

// buildImages produces one Format per discovered image URL. Carousel images
// take priority over the thumbnail list, which takes priority over an
// item-level direct URL. Images are never deduplicated by resolution.
func buildImages(item *extractor.RawInfo, opts BuildOptions, nextID *int) []Format {
	var images []Format
	add := func(id, url, ext string, width, height int) {
		if url == "" {
			return
		}
		if id == "" {
			id = fmt.Sprintf("img%d", *nextID)
		}
		*nextID++
		images = append(images, Format{
			ID:           id,
			Kind:         KindImage,
			Container:    normalizeContainer(ext, "jpg"),
			Label:        imageLabel(height),
			Width:        width,
			Height:       height,
			HasDirectURL: true,
			URL:          url,
			Origin:       opts.Origin,
		})
	}

	switch {
	case len(item.DisplayResources) > 0:
		for _, img := range item.DisplayResources {
			add("", img.URL, img.Ext, img.Width.UnwrapOrDefault(), img.Height.UnwrapOrDefault())
		}
	case len(item.Thumbnails) > 0:
		for _, img := range item.Thumbnails {
			add(img.ID, img.URL, img.Ext, img.Width.UnwrapOrDefault(), img.Height.UnwrapOrDefault())
		}
	case item.URL != "" && isImageExt(item.Ext):
		add("", item.URL, item.Ext, item.Width.UnwrapOrDefault(), item.Height.UnwrapOrDefault())
	}
	return images
}

// NewScraped builds the minimal single-item Result a scrape stage produces:
// exactly one best-effort video or image format, never a full catalog.
func NewScraped(origin Origin, media *medidown.ScrapedMedia) *Result {
	result := &Result{
		Title:        media.Title,
		ThumbnailURL: media.ThumbnailURL,
		ItemCount:    1,
	}
	if result.Title == "" {
		result.Title = "Media"
	}
	if media.Kind == string(KindImage) {
		result.Images = []Format{{
			ID:           "img0",
			Kind:         KindImage,
			Container:    "jpg",
			Label:        "Image",
			HasDirectURL: true,
			URL:          media.URL,
			Origin:       origin,
		}}
	} else {
		result.Videos = []Format{DirectVideoFormat(media.URL, origin)}
		result.InstantAvailable = true
	}
	return result
}

// DirectVideoFormat is the standardized progressive MP4 entry for a scraped
// direct URL. Resolution and codecs are unknown by construction.
func DirectVideoFormat(url string, origin Origin) Format {
	return Format{
		ID:            "direct-mp4",
		Kind:          KindVideo,
		Container:     "mp4",
		Label:         "Video",
		HasDirectURL:  true,
		URL:           url,
		IsProgressive: true,
		Origin:        origin,
	}
}

// Augment appends a scraped direct progressive format to an existing result
// without replacing anything the extractor found.
func (r *Result) Augment(f Format) {
	r.Videos = append(r.Videos, f)
	r.InstantAvailable = instantAvailable(r.Videos)
}

func hasMuxedAudio(videos []Format) bool {
	for i := range videos {
		if videos[i].IsProgressive {
			return true
		}
	}
	return false
}

func instantAvailable(videos []Format) bool {
	for i := range videos {
		if videos[i].IsProgressive && videos[i].HasDirectURL {
			return true
		}
	}
	return false
}

func sortByPreference(videos []Format) {
	// Stable so exact preference ties keep first-seen order.
	sort.SliceStable(videos, func(i, j int) bool {
		return preferenceOf(&videos[i]).compare(preferenceOf(&videos[j])) > 0
	})
}

func setSize(f *Format, raw *extractor.RawFormat, duration int) {
	if size := raw.BestFilesize(); size.IsSome() {
		f.SizeBytes = size.Value
		return
	}
	if bitrate := raw.Bitrate(); bitrate.IsSome() && duration > 0 {
		f.EstimatedSizeBytes = estimateSize(bitrate.Value, duration)
	}
}

// estimateSize derives bytes from a bitrate in kbps and a duration in
// seconds: bytes = kbps * 1000 / 8 * seconds.
func estimateSize(bitrateKbps float64, duration int) int64 {
	return int64(bitrateKbps * 1000 / 8 * float64(duration))
}

func normalizeContainer(ext, fallback string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return fallback
	}
	return ext
}

func videoLabel(f *Format, note string) string {
	if note != "" {
		return note
	}
	if f.Height > 0 {
		return fmt.Sprintf("%dp", f.Height)
	}
	return "Video"
}

func imageLabel(height int) string {
	if height > 0 {
		return fmt.Sprintf("%dp", height)
	}
	return "Image"
}

func isImageExt(ext string) bool {
	switch strings.ToLower(ext) {
	case "jpg", "jpeg", "png", "webp", "":
		return true
	default:
		return false
	}
}
