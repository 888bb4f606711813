package ytdlp

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/yashdhanani30/medidown/extractor"
)

func TestBuildArgs(t *testing.T) {
	assert := assert_.New(t)
	args := buildArgs("https://www.youtube.com/watch?v=abc", extractor.Options{
		SocketTimeout: 15 * time.Second,
		Retries:       2,
		Referer:       "https://www.youtube.com/",
		PlayerClients: []string{"ios", "web"},
		CookieFile:    "/tmp/youtube.txt",
	})
	joined := strings.Join(args, " ")
	assert.Contains(joined, "-J")
	assert.Contains(joined, "--no-playlist")
	assert.Contains(joined, "--socket-timeout 15")
	assert.Contains(joined, "--retries 2")
	assert.Contains(joined, "--referer https://www.youtube.com/")
	assert.Contains(joined, "--extractor-args youtube:player_client=ios,web")
	assert.Contains(joined, "--cookies /tmp/youtube.txt")
	assert.Equal("https://www.youtube.com/watch?v=abc", args[len(args)-1])
	assert.Equal("--", args[len(args)-2], "URL must be separated so dash-prefixed input cannot inject flags")

	flat := strings.Join(buildArgs("u", extractor.Options{FlatPlaylist: true}), " ")
	assert.Contains(flat, "--flat-playlist")
	assert.NotContains(flat, "--no-playlist")
}

func TestDecodeInfo(t *testing.T) {
	assert := assert_.New(t)
	payload := `{
		"id": "abc123",
		"title": "A Video",
		"uploader": "someone",
		"duration": 212.5,
		"thumbnail": "https://i.example.com/t.jpg",
		"formats": [
			{"format_id": "18", "ext": "mp4", "url": "https://cdn.example.com/18.mp4",
			 "vcodec": "avc1", "acodec": "mp4a", "height": 360, "width": 640,
			 "fps": 29.97, "tbr": 500.5, "filesize": 1048576}
		]
	}`
	var dto infoJSON
	assert.NoError(json.Unmarshal([]byte(payload), &dto))
	info := dto.toRawInfo()

	assert.Equal("abc123", info.ID)
	assert.Equal(212, info.Duration.Unwrap())
	assert.Len(info.Formats, 1)
	f := info.Formats[0]
	assert.Equal(360, f.Height.Unwrap())
	assert.Equal(29, f.FPS.Unwrap())
	assert.Equal(500.5, f.TBR.Unwrap())
	assert.Equal(int64(1048576), f.Filesize.Unwrap())
	assert.True(f.ABR.IsNone(), "absent fields must stay absent, not zero")
}

func TestClassify(t *testing.T) {
	assert := assert_.New(t)
	err := classify(fmt.Errorf("exit status 1"), "ERROR: unable to download webpage: The read operation timed out")
	assert.True(extractor.IsTransient(err))

	err = classify(fmt.Errorf("exit status 1"), "ERROR: Unsupported URL: https://example.com/")
	assert.False(extractor.IsTransient(err))
}
