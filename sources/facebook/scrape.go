package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/yashdhanani30/medidown"
)

// Player JSON keys that carry a playable URL, roughly best-first. The page
// embeds these inside large script blobs, so plain regexes beat full JSON
// parsing here.
var playableKeys = []string{
	"playable_url_quality_hd",
	"browser_native_hd_url",
	"hd_src",
	"browser_native_sd_url",
	"sd_src",
	"playable_url",
}

var keyPatterns = buildKeyPatterns()

func buildKeyPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(playableKeys))
	for _, key := range playableKeys {
		patterns = append(patterns, regexp.MustCompile(`"`+key+`"\s*:\s*"(https?:\\?/\\?/[^"\\]+(?:\\.|[^"\\])*)"`))
	}
	return patterns
}

func (s *Source) scrapeMP4(ctx context.Context, pageURL string) (string, error) {
	body, err := s.client.Fetch(ctx, pageURL, "https://www.facebook.com/")
	if err != nil {
		return "", fmt.Errorf("%w: %v", medidown.ErrUpstreamUnavailable, err)
	}
	html := string(body)

	var candidates []string
	for _, pattern := range keyPatterns {
		for _, m := range pattern.FindAllStringSubmatch(html, -1) {
			if candidate := unescapeJSONURL(m[1]); strings.HasPrefix(candidate, "http") {
				candidates = append(candidates, candidate)
			}
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no playable URL in page %s: %w", pageURL, medidown.ErrNoMediaFound)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return scoreCandidate(candidates[i]) > scoreCandidate(candidates[j])
	})
	return candidates[0], nil
}

// scoreCandidate prefers HD-looking CDN URLs.
func scoreCandidate(u string) int {
	score := 0
	if strings.Contains(u, "hd") {
		score += 2
	}
	if strings.Contains(u, ".mp4") {
		score++
	}
	if strings.Contains(u, "fbcdn") {
		score++
	}
	return score
}

// unescapeJSONURL undoes the JSON string escaping of URLs lifted straight
// out of script blobs, chiefly "\/" and "%"-style sequences.
func unescapeJSONURL(escaped string) string {
	unescaped := strings.ReplaceAll(escaped, `\/`, "/")
	if strings.Contains(unescaped, `\u`) {
		var decoded string
		if err := json.Unmarshal([]byte(`"`+unescaped+`"`), &decoded); err == nil {
			return decoded
		}
	}
	return unescaped
}
