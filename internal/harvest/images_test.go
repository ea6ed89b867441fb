package harvest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestFilterImages(t *testing.T) {
	t.Run("drops declared-width candidates and resolves root-relative src", func(t *testing.T) {
		pages := []PageImages{{
			SourceURL: "http://site.com/page",
			Images: []ImageDescriptor{
				{Src: "/img1.jpg", Desc: "a", Width: nil},
				{Src: "http://x.com/img2.jpg", Desc: "b", Width: intPtr(100)},
			},
		}}
		got := FilterImages(pages, FilterOptions{})
		require.Equal(t, []string{"http://site.com/img1.jpg"}, got)
	})

	t.Run("absolute src passes through unchanged", func(t *testing.T) {
		pages := []PageImages{{
			SourceURL: "https://site.com/page",
			Images:    []ImageDescriptor{{Src: "https://cdn.site.com/hero.jpg", Desc: "hero"}},
		}}
		got := FilterImages(pages, FilterOptions{})
		require.Equal(t, []string{"https://cdn.site.com/hero.jpg"}, got)
	})

	t.Run("drops over-long descriptions", func(t *testing.T) {
		pages := []PageImages{{
			SourceURL: "https://site.com/page",
			Images: []ImageDescriptor{
				{Src: "/ok.jpg", Desc: strings.Repeat("x", 50)},
				{Src: "/noisy.jpg", Desc: strings.Repeat("x", 51)},
			},
		}}
		got := FilterImages(pages, FilterOptions{MaxDescLength: 50})
		require.Equal(t, []string{"https://site.com/ok.jpg"}, got)
	})

	t.Run("denylist drops matching descriptions", func(t *testing.T) {
		pages := []PageImages{{
			SourceURL: "https://site.com/page",
			Images: []ImageDescriptor{
				{Src: "/map.png", Desc: "Google Maps embed"},
				{Src: "/photo.jpg", Desc: "front facade"},
			},
		}}
		got := FilterImages(pages, FilterOptions{DenySubstrings: []string{"Google Maps"}})
		require.Equal(t, []string{"https://site.com/photo.jpg"}, got)
	})

	t.Run("keeps duplicates across sources in encounter order", func(t *testing.T) {
		pages := []PageImages{
			{SourceURL: "https://a.com/p", Images: []ImageDescriptor{{Src: "https://cdn.com/same.jpg", Desc: "x"}}},
			{SourceURL: "https://b.com/p", Images: []ImageDescriptor{{Src: "https://cdn.com/same.jpg", Desc: "y"}}},
		}
		got := FilterImages(pages, FilterOptions{})
		require.Equal(t, []string{"https://cdn.com/same.jpg", "https://cdn.com/same.jpg"}, got)
	})

	t.Run("deterministic over repeated calls", func(t *testing.T) {
		pages := []PageImages{{
			SourceURL: "https://site.com/page",
			Images: []ImageDescriptor{
				{Src: "/a.jpg", Desc: "a"},
				{Src: "/b.jpg", Desc: "b", Width: intPtr(32)},
				{Src: "https://other.com/c.jpg", Desc: "c"},
			},
		}}
		first := FilterImages(pages, FilterOptions{})
		for i := 0; i < 10; i++ {
			require.Equal(t, first, FilterImages(pages, FilterOptions{}))
		}
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		require.Empty(t, FilterImages(nil, FilterOptions{}))
		require.Empty(t, FilterImages([]PageImages{{SourceURL: "https://a.com"}}, FilterOptions{}))
	})
}
