package extractor

import (
	"github.com/yashdhanani30/medidown/generic"
)

// RawFormat is one upstream format descriptor. Upstream metadata is loosely
// typed with most keys optional; numeric fields where 0 and "missing" differ
// are modelled as Option so the rest of the system never guesses.
type RawFormat struct {
	FormatID   string
	Ext        string
	Protocol   string
	FormatNote string
	URL        string
	VCodec     string
	ACodec     string

	Height         generic.Option[int]
	Width          generic.Option[int]
	FPS            generic.Option[int]
	TBR            generic.Option[float64]
	ABR            generic.Option[float64]
	Filesize       generic.Option[int64]
	FilesizeApprox generic.Option[int64]
}

// HasVideo reports whether the descriptor carries a video stream.
func (f *RawFormat) HasVideo() bool {
	return f.VCodec != "" && f.VCodec != "none"
}

// HasAudio reports whether the descriptor carries an audio stream.
func (f *RawFormat) HasAudio() bool {
	return f.ACodec != "" && f.ACodec != "none"
}

// BestFilesize coalesces exact and upstream-approximated sizes; both are
// exact enough to report as such, unlike bitrate-derived estimates.
func (f *RawFormat) BestFilesize() generic.Option[int64] {
	return f.Filesize.Or(f.FilesizeApprox)
}

// Bitrate coalesces audio and total bitrate in kbps.
func (f *RawFormat) Bitrate() generic.Option[float64] {
	return f.ABR.Or(f.TBR)
}

// RawImage is one upstream image/thumbnail descriptor.
type RawImage struct {
	ID     string
	URL    string
	Ext    string
	Width  generic.Option[int]
	Height generic.Option[int]
}

// RawInfo is the typed model of one extracted item (or playlist of items).
type RawInfo struct {
	ID         string
	Type       string // "playlist" for multi-entry results
	Title      string
	Uploader   string
	Channel    string
	WebpageURL string
	Ext        string
	// URL is a direct media URL exposed at item level (image posts, some
	// single-format extractions).
	URL      string
	Duration generic.Option[int]
	Width    generic.Option[int]
	Height   generic.Option[int]

	Thumbnail  string
	Thumbnails []RawImage
	// DisplayResources is the carousel image list some sources expose
	// alongside Thumbnails.
	DisplayResources []RawImage

	Formats []RawFormat
	Entries []RawInfo
}

// IsPlaylist reports whether this info describes a multi-entry result.
func (i *RawInfo) IsPlaylist() bool {
	return i.Type == "playlist"
}

// Items flattens the info into its entries, or a single-item list of itself.
func (i *RawInfo) Items() []RawInfo {
	if i.IsPlaylist() && len(i.Entries) > 0 {
		return i.Entries
	}
	return []RawInfo{*i}
}

// BestTitle coalesces the usual title fallbacks.
func (i *RawInfo) BestTitle(fallback string) string {
	if i.Title != "" {
		return i.Title
	}
	if i.ID != "" {
		return i.ID
	}
	return fallback
}

// BestUploader coalesces uploader and channel.
func (i *RawInfo) BestUploader() string {
	if i.Uploader != "" {
		return i.Uploader
	}
	if i.Channel != "" {
		return i.Channel
	}
	return "Unknown"
}

// BestThumbnail picks the most useful thumbnail: the item-level URL, then
// the largest entry of the thumbnail list, then the largest carousel image.
func (i *RawInfo) BestThumbnail() string {
	if i.Thumbnail != "" {
		return i.Thumbnail
	}
	if url := largestImage(i.Thumbnails); url != "" {
		return url
	}
	return largestImage(i.DisplayResources)
}

func largestImage(images []RawImage) string {
	best := ""
	bestArea := -1
	for _, img := range images {
		if img.URL == "" {
			continue
		}
		area := img.Height.UnwrapOrDefault()*100000 + img.Width.UnwrapOrDefault()
		if area > bestArea {
			bestArea = area
			best = img.URL
		}
	}
	return best
}
