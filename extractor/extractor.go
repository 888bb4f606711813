// Package extractor defines the boundary to the generic media-metadata
// extractor: a black-box capability that, given a URL, returns raw format
// descriptors. The engine only ever depends on the Extractor interface; the
// ytdlp subpackage provides the one concrete implementation.
package extractor

import (
	"context"
	"errors"
	"time"
)

// ErrTransient marks a network-class extraction failure. It is the only
// error class the in-stage retry helper will repeat; anything else fails the
// stage immediately and lets the resolver escalate to the next fallback.
var ErrTransient = errors.New("transient extraction error")

// IsTransient reports whether err is worth retrying within the same stage.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Options tunes one extraction call. Zero values mean the implementation's
// defaults.
type Options struct {
	SocketTimeout       time.Duration
	Retries             int
	FragmentRetries     int
	ConcurrentFragments int
	Proxy               string
	UserAgent           string
	AcceptLanguage      string
	Referer             string
	Headers             map[string]string
	// CookieFile is a Netscape-format cookie file path supplied by the
	// external session store.
	CookieFile string
	// FlatPlaylist asks for playlist entries without per-item formats.
	FlatPlaylist bool
	// PlayerClients selects upstream player clients to try, for sources
	// where different clients expose different format sets.
	PlayerClients []string
}

// Merge returns a copy of o with any non-zero fields of overrides applied.
func (o Options) Merge(overrides Options) Options {
	if overrides.SocketTimeout > 0 {
		o.SocketTimeout = overrides.SocketTimeout
	}
	if overrides.Retries > 0 {
		o.Retries = overrides.Retries
	}
	if overrides.FragmentRetries > 0 {
		o.FragmentRetries = overrides.FragmentRetries
	}
	if overrides.ConcurrentFragments > 0 {
		o.ConcurrentFragments = overrides.ConcurrentFragments
	}
	if overrides.Proxy != "" {
		o.Proxy = overrides.Proxy
	}
	if overrides.UserAgent != "" {
		o.UserAgent = overrides.UserAgent
	}
	if overrides.AcceptLanguage != "" {
		o.AcceptLanguage = overrides.AcceptLanguage
	}
	if overrides.Referer != "" {
		o.Referer = overrides.Referer
	}
	if len(overrides.Headers) > 0 {
		merged := make(map[string]string, len(o.Headers)+len(overrides.Headers))
		for k, v := range o.Headers {
			merged[k] = v
		}
		for k, v := range overrides.Headers {
			merged[k] = v
		}
		o.Headers = merged
	}
	if overrides.CookieFile != "" {
		o.CookieFile = overrides.CookieFile
	}
	if overrides.FlatPlaylist {
		o.FlatPlaylist = true
	}
	if len(overrides.PlayerClients) > 0 {
		o.PlayerClients = overrides.PlayerClients
	}
	return o
}

// An Extractor fetches and parses a source's page/API into raw format
// descriptors.
type Extractor interface {
	Extract(ctx context.Context, url string, opts Options) (*RawInfo, error)
}
