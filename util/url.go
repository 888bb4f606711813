package util

import (
	"net/url"
	"strings"
)

// RewriteURL parses rawURL, applies f to the parsed form, and re-encodes it.
func RewriteURL(rawURL string, f func(*url.URL)) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	f(u)
	return u.String(), nil
}

// KeepQuery drops every query parameter except those named in keys. Order
// of the kept parameters follows url.Values encoding (sorted by key).
func KeepQuery(u *url.URL, keys ...string) {
	query := u.Query()
	kept := url.Values{}
	for _, key := range keys {
		if query.Has(key) {
			kept[key] = query[key]
		}
	}
	u.RawQuery = kept.Encode()
}

// StripQuery removes the query string and fragment.
func StripQuery(u *url.URL) {
	u.RawQuery = ""
	u.Fragment = ""
}

// EnsureScheme prefixes rawURL with "https://" when it has no scheme, so
// bare "www.example.com/..." inputs parse with a hostname.
func EnsureScheme(rawURL string) string {
	if strings.Contains(rawURL, "://") {
		return rawURL
	}
	return "https://" + rawURL
}

// Hostname returns the lowercased hostname of rawURL, or "" if it does not
// parse.
func Hostname(rawURL string) string {
	u, err := url.Parse(EnsureScheme(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// HostMatches reports whether host is domain itself or a subdomain of it.
func HostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
