package catalog

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/yashdhanani30/medidown"
	"github.com/yashdhanani30/medidown/extractor"
	"github.com/yashdhanani30/medidown/generic"
)

func videoFormat(id string, height int, fps int, ext string, tbr float64, progressive bool) extractor.RawFormat {
	acodec := "none"
	if progressive {
		acodec = "mp4a"
	}
	return extractor.RawFormat{
		FormatID: id,
		Ext:      ext,
		URL:      "https://cdn.example.com/" + id,
		VCodec:   "avc1",
		ACodec:   acodec,
		Height:   generic.Some(height),
		Width:    generic.Some(height * 16 / 9),
		FPS:      generic.Some(fps),
		TBR:      generic.Some(tbr),
	}
}

func TestBuildDedup(t *testing.T) {
	assert := assert_.New(t)
	// Same (height, fps, container, bitrate) key: the progressive variant
	// ranks strictly higher and must replace the split-stream one.
	split := videoFormat("137", 1080, 30, "mp4", 2500, false)
	progressive := videoFormat("22", 1080, 30, "mp4", 2500, true)

	result, err := Build(&extractor.RawInfo{
		ID:      "v1",
		Title:   "Dedup",
		Formats: []extractor.RawFormat{split, progressive},
	}, BuildOptions{})
	assert.NoError(err)
	assert.Len(result.Videos, 1)
	assert.Equal("22", result.Videos[0].ID)
	assert.True(result.Videos[0].IsProgressive)
}

func TestBuildDedupTieKeepsFirstSeen(t *testing.T) {
	assert := assert_.New(t)
	a := videoFormat("first", 720, 30, "mp4", 1500, true)
	b := videoFormat("second", 720, 30, "mp4", 1500, true)

	result, err := Build(&extractor.RawInfo{
		ID:      "v1",
		Title:   "Tie",
		Formats: []extractor.RawFormat{a, b},
	}, BuildOptions{})
	assert.NoError(err)
	assert.Len(result.Videos, 1)
	assert.Equal("first", result.Videos[0].ID)
}

func TestBuildRankingOrder(t *testing.T) {
	assert := assert_.New(t)
	result, err := Build(&extractor.RawInfo{
		ID:    "v1",
		Title: "Ranking",
		Formats: []extractor.RawFormat{
			videoFormat("webm-2160", 2160, 30, "webm", 8000, false),
			videoFormat("mp4-360-prog", 360, 30, "mp4", 500, true),
			videoFormat("mp4-1080", 1080, 30, "mp4", 2500, false),
			videoFormat("mp4-1080-prog", 1080, 30, "mp4", 3000, true),
		},
	}, BuildOptions{})
	assert.NoError(err)

	var ids []string
	for _, f := range result.Videos {
		ids = append(ids, f.ID)
	}
	// Progressive beats split streams regardless of resolution; within each
	// class mp4 beats webm, then height decides.
	assert.Equal([]string{"mp4-1080-prog", "mp4-360-prog", "mp4-1080", "webm-2160"}, ids)
	assert.True(result.InstantAvailable)
}

func TestBuildFilters(t *testing.T) {
	assert := assert_.New(t)
	manifest := videoFormat("hls-1", 720, 30, "mp4", 1500, true)
	manifest.Protocol = "m3u8_native"
	noise := videoFormat("sb-0", 720, 30, "mp4", 100, false)
	noise.FormatNote = "storyboard"
	dimensionless := videoFormat("audioish", 0, 0, "mp4", 128, false)
	dimensionless.Height = generic.None[int]()
	dimensionless.Width = generic.None[int]()
	webm := videoFormat("webm-720", 720, 30, "webm", 1500, true)
	keeper := videoFormat("18", 360, 30, "mp4", 500, true)

	result, err := Build(&extractor.RawInfo{
		ID:      "v1",
		Title:   "Filters",
		Formats: []extractor.RawFormat{manifest, noise, dimensionless, webm, keeper},
	}, BuildOptions{StrictMP4: true})
	assert.NoError(err)
	assert.Len(result.Videos, 1)
	assert.Equal("18", result.Videos[0].ID)
}

func TestBuildSizeEstimate(t *testing.T) {
	assert := assert_.New(t)
	exact := videoFormat("exact", 720, 30, "mp4", 1500, true)
	exact.Filesize = generic.Some[int64](5 * 1024 * 1024)
	estimated := videoFormat("estimated", 360, 30, "mp4", 800, false)
	unknown := videoFormat("unknown", 240, 30, "mp4", 0, false)
	unknown.TBR = generic.None[float64]()

	result, err := Build(&extractor.RawInfo{
		ID:       "v1",
		Title:    "Sizes",
		Duration: generic.Some(100),
		Formats:  []extractor.RawFormat{exact, estimated, unknown},
	}, BuildOptions{})
	assert.NoError(err)

	byID := map[string]*Format{}
	for i := range result.Videos {
		byID[result.Videos[i].ID] = &result.Videos[i]
	}
	assert.Equal(int64(5*1024*1024), byID["exact"].SizeBytes)
	assert.Zero(byID["exact"].EstimatedSizeBytes, "an exact size must never come with an estimate")
	// 800 kbps * 1000 / 8 * 100 s = 10,000,000 bytes
	assert.Equal(int64(10_000_000), byID["estimated"].EstimatedSizeBytes)
	assert.Zero(byID["estimated"].SizeBytes)
	assert.Zero(byID["unknown"].SizeBytes)
	assert.Zero(byID["unknown"].EstimatedSizeBytes)
	assert.Equal("Unknown size", byID["unknown"].SizeLabel())
}

func TestBuildAudios(t *testing.T) {
	assert := assert_.New(t)
	info := &extractor.RawInfo{
		ID:       "v1",
		Title:    "Audio",
		Duration: generic.Some(60),
		Formats: []extractor.RawFormat{
			{
				FormatID: "140",
				Ext:      "m4a",
				URL:      "https://cdn.example.com/140",
				VCodec:   "none",
				ACodec:   "mp4a",
				ABR:      generic.Some(128.0),
			},
		},
	}
	result, err := Build(info, BuildOptions{})
	assert.NoError(err)

	assert.Equal("Instant Audio 128 kbps", result.Audios[0].Label)
	assert.True(result.Audios[0].HasDirectURL)

	// mp3 presets follow the instant audios, synthesized with no direct URL.
	presets := result.Audios[1:]
	assert.Len(presets, 3)
	assert.Equal("mp3_128", presets[0].ID)
	assert.Equal("Fast MP3 320 kbps", presets[2].Label)
	for _, p := range presets {
		assert.False(p.HasDirectURL, "presets always go through the transcode path")
		assert.Positive(p.EstimatedSizeBytes)
	}
}

func TestBuildPresetsFromMuxedAudio(t *testing.T) {
	assert := assert_.New(t)
	// Progressive-only uploads carry their audio muxed into the video
	// stream; the MP3 conversion presets must still be offered.
	result, err := Build(&extractor.RawInfo{
		ID:       "v1",
		Title:    "Progressive only",
		Duration: generic.Some(60),
		Formats:  []extractor.RawFormat{videoFormat("18", 360, 30, "mp4", 500, true)},
	}, BuildOptions{})
	assert.NoError(err)
	assert.Len(result.Audios, 3)
	assert.Equal("mp3_128", result.Audios[0].ID)
	assert.Equal("mp3_320", result.Audios[2].ID)

	// A DASH-only catalog with no audio stream at all gets none.
	result, err = Build(&extractor.RawInfo{
		ID:      "v2",
		Title:   "Video only",
		Formats: []extractor.RawFormat{videoFormat("137", 1080, 30, "mp4", 2500, false)},
	}, BuildOptions{})
	assert.NoError(err)
	assert.Empty(result.Audios)
}

func TestBuildImagesFromCarousel(t *testing.T) {
	assert := assert_.New(t)
	info := &extractor.RawInfo{
		ID:    "post1",
		Type:  "playlist",
		Title: "Carousel",
		Entries: []extractor.RawInfo{
			{
				ID: "p1",
				DisplayResources: []extractor.RawImage{
					{URL: "https://img.example.com/1-small.jpg", Width: generic.Some(320), Height: generic.Some(320)},
					{URL: "https://img.example.com/1-full.jpg", Width: generic.Some(1080), Height: generic.Some(1080)},
				},
			},
			{
				ID:  "p2",
				URL: "https://img.example.com/2.jpg",
				Ext: "jpg",
			},
		},
	}
	result, err := Build(info, BuildOptions{})
	assert.NoError(err)

	// Images aggregate across all items and get sequential ids, never deduped.
	assert.Len(result.Images, 3)
	assert.Equal("img0", result.Images[0].ID)
	assert.Equal("img2", result.Images[2].ID)
	assert.Equal(2, result.ItemCount)
	assert.Len(result.Items, 2)
	assert.False(result.InstantAvailable)
}

func TestBuildNoMediaFound(t *testing.T) {
	assert := assert_.New(t)
	_, err := Build(&extractor.RawInfo{ID: "v1", Title: "Empty"}, BuildOptions{})
	assert.ErrorIs(err, medidown.ErrNoMediaFound)
}

func TestBuildFlat(t *testing.T) {
	assert := assert_.New(t)
	info := &extractor.RawInfo{
		ID:    "PL1",
		Type:  "playlist",
		Title: "A Playlist",
		Entries: []extractor.RawInfo{
			{ID: "v1", Title: "First", URL: "https://www.youtube.com/watch?v=v1", Duration: generic.Some(100)},
			{ID: "v2", Title: "Second", WebpageURL: "https://www.youtube.com/watch?v=v2"},
		},
	}
	result, err := BuildFlat(info)
	assert.NoError(err)
	assert.Equal("A Playlist", result.Title)
	assert.Equal(2, result.ItemCount)
	assert.Empty(result.Videos)
	assert.Equal("https://www.youtube.com/watch?v=v1", result.Items[0].PageURL)
	assert.Equal(100, result.Items[0].DurationSeconds)

	_, err = BuildFlat(&extractor.RawInfo{ID: "PL2", Type: "playlist"})
	assert.ErrorIs(err, medidown.ErrNoMediaFound)
}

func TestNewScraped(t *testing.T) {
	assert := assert_.New(t)
	video := NewScraped(OriginDirectScrape, &medidown.ScrapedMedia{
		Kind:  medidown.ScrapedVideo,
		URL:   "https://cdn.example.com/direct.mp4",
		Title: "Scraped",
	})
	assert.Equal(1, video.ItemCount)
	assert.True(video.InstantAvailable)
	assert.Equal("direct-mp4", video.Videos[0].ID)
	assert.Equal(OriginDirectScrape, video.Videos[0].Origin)

	image := NewScraped(OriginOpenGraph, &medidown.ScrapedMedia{
		Kind: medidown.ScrapedImage,
		URL:  "https://img.example.com/og.jpg",
	})
	assert.False(image.InstantAvailable)
	assert.Equal("img0", image.Images[0].ID)
	assert.Equal("Media", image.Title)
}

func TestAugment(t *testing.T) {
	assert := assert_.New(t)
	result, err := Build(&extractor.RawInfo{
		ID:      "v1",
		Title:   "DASH only",
		Formats: []extractor.RawFormat{videoFormat("137", 1080, 30, "mp4", 2500, false)},
	}, BuildOptions{})
	assert.NoError(err)
	assert.False(result.InstantAvailable)

	result.Augment(DirectVideoFormat("https://cdn.example.com/d.mp4", OriginDirectScrape))
	assert.True(result.InstantAvailable)
	assert.Len(result.Videos, 2)
	assert.Equal("137", result.Videos[0].ID, "augmenting must not displace extracted formats")
}
