// Package scope defines the canonical site identifier used to partition
// the shared search index. Every record, filter and configuration entry is
// keyed by a Key so that independently owned sites can share one index
// without colliding.
package scope

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Key is the normalised form of a site URL. Two URLs that differ only in
// scheme case, host case, default port or trailing slash map to the same Key.
type Key string

var (
	// ErrEmptyURL is returned when the raw site URL is blank.
	ErrEmptyURL = errors.New("empty site url")
	// ErrMissingHost is returned when the site URL has no host component.
	ErrMissingHost = errors.New("site url missing host")
)

// Normalize canonicalises a site URL into a Key. Normalisation is
// idempotent: Normalize(string(Normalize(x))) == Normalize(x).
func Normalize(raw string) (Key, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}

	parsed, err := parseWithHost(raw)
	if err != nil {
		return "", err
	}

	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)

	host := strings.ToLower(parsed.Host)
	if host == "" {
		return "", ErrMissingHost
	}
	if parts := strings.Split(host, ":"); len(parts) == 2 {
		port := parts[1]
		if (parsed.Scheme == "http" && port == "80") || (parsed.Scheme == "https" && port == "443") {
			host = parts[0]
		}
	}
	parsed.Host = host

	path := strings.TrimRight(parsed.Path, "/")
	parsed.Path = path
	parsed.RawQuery = ""
	parsed.Fragment = ""

	return Key(parsed.String()), nil
}

// MustNormalize is Normalize for statically known inputs; it panics on error.
func MustNormalize(raw string) Key {
	k, err := Normalize(raw)
	if err != nil {
		panic(fmt.Sprintf("scope: normalize %q: %v", raw, err))
	}
	return k
}

// DocumentID derives the logical document identifier for a content item
// owned by this scope. All chunk records of one document share this value.
func (k Key) DocumentID(contentID int64) string {
	return fmt.Sprintf("%s_%d", k, contentID)
}

// ObjectID derives the write key for a single chunk record. Rewrites of the
// same chunk are idempotent upserts because the ID is deterministic.
func (k Key) ObjectID(contentID int64, chunkIndex int) string {
	return fmt.Sprintf("%s_%d", k.DocumentID(contentID), chunkIndex)
}

func (k Key) String() string { return string(k) }

// parseWithHost parses raw into a url.URL, tolerating schemeless input like
// example.com, //example.com or example.com:8080.
func parseWithHost(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" && parsed.Host == "" {
		if strings.HasPrefix(raw, "//") {
			return url.Parse("https:" + raw)
		}
		return url.Parse("https://" + raw)
	}
	// host:port input parses as an opaque URL with the host in the scheme
	// position; reparse it as a schemeless site URL.
	if parsed.Opaque != "" && parsed.Scheme != "http" && parsed.Scheme != "https" {
		return url.Parse("https://" + raw)
	}
	return parsed, nil
}
