package ytdlp

import (
	"github.com/yashdhanani30/medidown/extractor"
	"github.com/yashdhanani30/medidown/generic"
)

// JSON DTOs matching yt-dlp's -J output. Pointer fields distinguish absent
// from zero before conversion into generic.Option values.

type formatJSON struct {
	FormatID       string   `json:"format_id"`
	Ext            string   `json:"ext"`
	Protocol       string   `json:"protocol"`
	FormatNote     string   `json:"format_note"`
	URL            string   `json:"url"`
	VCodec         string   `json:"vcodec"`
	ACodec         string   `json:"acodec"`
	Height         *int     `json:"height"`
	Width          *int     `json:"width"`
	FPS            *float64 `json:"fps"`
	TBR            *float64 `json:"tbr"`
	ABR            *float64 `json:"abr"`
	Filesize       *int64   `json:"filesize"`
	FilesizeApprox *int64   `json:"filesize_approx"`
}

type imageJSON struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Ext    string `json:"ext"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
}

type infoJSON struct {
	ID         string   `json:"id"`
	Type       string   `json:"_type"`
	Title      string   `json:"title"`
	Uploader   string   `json:"uploader"`
	Channel    string   `json:"channel"`
	WebpageURL string   `json:"webpage_url"`
	Ext        string   `json:"ext"`
	URL        string   `json:"url"`
	Duration   *float64 `json:"duration"`
	Width      *int     `json:"width"`
	Height     *int     `json:"height"`

	Thumbnail        string      `json:"thumbnail"`
	Thumbnails       []imageJSON `json:"thumbnails"`
	DisplayResources []imageJSON `json:"display_resources"`

	Formats []formatJSON `json:"formats"`
	Entries []infoJSON   `json:"entries"`
}

func (f *formatJSON) toRawFormat() extractor.RawFormat {
	return extractor.RawFormat{
		FormatID:       f.FormatID,
		Ext:            f.Ext,
		Protocol:       f.Protocol,
		FormatNote:     f.FormatNote,
		URL:            f.URL,
		VCodec:         f.VCodec,
		ACodec:         f.ACodec,
		Height:         generic.FromPtr(f.Height),
		Width:          generic.FromPtr(f.Width),
		FPS:            optionInt(f.FPS),
		TBR:            generic.FromPtr(f.TBR),
		ABR:            generic.FromPtr(f.ABR),
		Filesize:       generic.FromPtr(f.Filesize),
		FilesizeApprox: generic.FromPtr(f.FilesizeApprox),
	}
}

func (i *imageJSON) toRawImage() extractor.RawImage {
	return extractor.RawImage{
		ID:     i.ID,
		URL:    i.URL,
		Ext:    i.Ext,
		Width:  generic.FromPtr(i.Width),
		Height: generic.FromPtr(i.Height),
	}
}

func (d *infoJSON) toRawInfo() *extractor.RawInfo {
	info := &extractor.RawInfo{
		ID:         d.ID,
		Type:       d.Type,
		Title:      d.Title,
		Uploader:   d.Uploader,
		Channel:    d.Channel,
		WebpageURL: d.WebpageURL,
		Ext:        d.Ext,
		URL:        d.URL,
		Duration:   optionInt(d.Duration),
		Width:      generic.FromPtr(d.Width),
		Height:     generic.FromPtr(d.Height),
		Thumbnail:  d.Thumbnail,
	}
	for i := range d.Thumbnails {
		info.Thumbnails = append(info.Thumbnails, d.Thumbnails[i].toRawImage())
	}
	for i := range d.DisplayResources {
		info.DisplayResources = append(info.DisplayResources, d.DisplayResources[i].toRawImage())
	}
	for i := range d.Formats {
		info.Formats = append(info.Formats, d.Formats[i].toRawFormat())
	}
	for i := range d.Entries {
		info.Entries = append(info.Entries, *d.Entries[i].toRawInfo())
	}
	return info
}

// optionInt converts yt-dlp's float-typed fields that the engine treats as
// whole numbers (durations, frame rates).
func optionInt(f *float64) generic.Option[int] {
	if f == nil {
		return generic.None[int]()
	}
	return generic.Some(int(*f))
}
