// Package harvest drives the page-fetch engine over a place's source URLs
// and reduces the raw results to the Bronze snapshot's content and image
// candidates.
package harvest

import (
	"context"
	"time"
)

// ImageDescriptor is one raw image candidate found on a page. Width is nil
// when the page did not declare an explicit width for the image.
type ImageDescriptor struct {
	Src   string `json:"src"`
	Desc  string `json:"desc"`
	Width *int   `json:"width"`
}

// FetchRequest names a URL to fetch. Extraction options live on the fetch
// engine itself; the request only carries per-place inputs.
type FetchRequest struct {
	URL string
	// Query biases text extraction towards blocks relevant to the place.
	Query string
}

// FetchResponse carries the extracted page text and raw image candidates.
type FetchResponse struct {
	URL      string
	Text     string
	Images   []ImageDescriptor
	Duration time.Duration
}

// Fetcher fetches one URL and extracts its content. Implementations render
// the page, strip navigation/script/style regions, and report every image
// candidate left in the content region.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error)
}

// PageImages pairs a source page URL with the raw image descriptors found on
// it, preserving page order for the image filter.
type PageImages struct {
	SourceURL string
	Images    []ImageDescriptor
}
