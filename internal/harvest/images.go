package harvest

import (
	"net/url"
	"strings"
)

// DefaultMaxDescLength bounds image descriptions; longer ones are almost
// always serialized page furniture, not captions.
const DefaultMaxDescLength = 10000

// FilterOptions tunes the image-candidate heuristic.
type FilterOptions struct {
	// MaxDescLength drops descriptors whose description exceeds it.
	// Zero means DefaultMaxDescLength.
	MaxDescLength int
	// DenySubstrings drops descriptors whose description contains any of
	// these substrings (map tiles, UI chrome, and similar noise).
	DenySubstrings []string
}

// FilterImages reduces raw per-page image candidates to a flat ordered list
// of absolute URLs. It is a pure function: no I/O, and the same input always
// yields the identical output, order included.
//
// The heuristic keeps only descriptors with no declared width (decorative
// and icon images typically declare one, full-resolution content images do
// not) and with a description under the configured length. Root-relative
// sources are resolved against their page's origin. Duplicates across source
// pages are preserved on purpose: each page's candidates stand on their own
// and no deduplication pass exists downstream either.
func FilterImages(pages []PageImages, opts FilterOptions) []string {
	maxDesc := opts.MaxDescLength
	if maxDesc <= 0 {
		maxDesc = DefaultMaxDescLength
	}

	var cleaned []string
	for _, page := range pages {
		origin := pageOrigin(page.SourceURL)
		for _, img := range page.Images {
			if len(img.Desc) > maxDesc {
				continue
			}
			if img.Width != nil {
				continue
			}
			if matchesDenylist(img.Desc, opts.DenySubstrings) {
				continue
			}
			src := img.Src
			if strings.HasPrefix(src, "/") {
				src = origin + src
			}
			cleaned = append(cleaned, src)
		}
	}
	return cleaned
}

func matchesDenylist(desc string, denylist []string) bool {
	for _, needle := range denylist {
		if needle != "" && strings.Contains(desc, needle) {
			return true
		}
	}
	return false
}

func pageOrigin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
