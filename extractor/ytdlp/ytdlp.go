// Package ytdlp runs the yt-dlp binary in JSON-dump mode and adapts its
// output to the extractor interface. It never downloads media.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yashdhanani30/medidown/extractor"
)

type Extractor struct {
	path string
	log  *zap.SugaredLogger
}

// New returns an Extractor running the binary at path ("yt-dlp" resolves
// via PATH).
func New(path string, log *zap.SugaredLogger) *Extractor {
	if path == "" {
		path = "yt-dlp"
	}
	return &Extractor{path: path, log: log.Named("ytdlp")}
}

func (e *Extractor) Extract(ctx context.Context, url string, opts extractor.Options) (*extractor.RawInfo, error) {
	args := buildArgs(url, opts)
	cmd := exec.CommandContext(ctx, e.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.log.Debugw("running extractor", "url", url, "flat", opts.FlatPlaylist)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", extractor.ErrTransient, ctx.Err())
		}
		return nil, classify(err, stderr.String())
	}

	var dto infoJSON
	if err := json.Unmarshal(stdout.Bytes(), &dto); err != nil {
		return nil, fmt.Errorf("failed to decode extractor output for %s: %w", url, err)
	}
	return dto.toRawInfo(), nil
}

func buildArgs(url string, opts extractor.Options) []string {
	args := []string{"-J", "--no-warnings", "--skip-download"}
	if opts.FlatPlaylist {
		args = append(args, "--yes-playlist", "--flat-playlist")
	} else {
		args = append(args, "--no-playlist")
	}
	if opts.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(int(opts.SocketTimeout.Seconds())))
	}
	if opts.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(opts.Retries))
	}
	if opts.FragmentRetries > 0 {
		args = append(args, "--fragment-retries", strconv.Itoa(opts.FragmentRetries))
	}
	if opts.ConcurrentFragments > 0 {
		args = append(args, "--concurrent-fragments", strconv.Itoa(opts.ConcurrentFragments))
	}
	if opts.Proxy != "" {
		args = append(args, "--proxy", opts.Proxy)
	}
	if opts.UserAgent != "" {
		args = append(args, "--user-agent", opts.UserAgent)
	}
	if opts.AcceptLanguage != "" {
		args = append(args, "--add-header", "Accept-Language:"+opts.AcceptLanguage)
	}
	if opts.Referer != "" {
		args = append(args, "--referer", opts.Referer)
	}
	for key, value := range opts.Headers {
		args = append(args, "--add-header", key+":"+value)
	}
	if opts.CookieFile != "" {
		args = append(args, "--cookies", opts.CookieFile)
	}
	if len(opts.PlayerClients) > 0 {
		args = append(args, "--extractor-args", "youtube:player_client="+strings.Join(opts.PlayerClients, ","))
	}
	return append(args, "--", url)
}

// transientMarkers are stderr fragments that indicate a network-class
// failure worth retrying within the same stage.
var transientMarkers = []string{
	"timed out",
	"timeout",
	"connection reset",
	"connection refused",
	"temporary failure",
	"network is unreachable",
	"http error 429",
	"http error 5",
}

func classify(err error, stderr string) error {
	detail := strings.TrimSpace(stderr)
	if detail == "" {
		detail = err.Error()
	}
	lower := strings.ToLower(detail)
	for _, marker := range transientMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: %s", extractor.ErrTransient, firstLine(detail))
		}
	}
	return fmt.Errorf("extraction failed: %s", firstLine(detail))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

var _ extractor.Extractor = (*Extractor)(nil)
