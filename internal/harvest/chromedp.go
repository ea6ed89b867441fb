package harvest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Regions stripped before extraction; they hold navigation and page chrome,
// not content.
const excludedSelectors = "script, style, nav, header, footer, aside, noscript, iframe, form"

// FetcherConfig controls the chromedp-backed fetch engine.
type FetcherConfig struct {
	UserAgent string
	Timeout   time.Duration
	// Windowed launches a visible browser instead of a headless one.
	Windowed bool
	// ExcludeExternalImages drops image candidates hosted on other origins.
	ExcludeExternalImages bool
	// RelevanceMinScore drops text blocks scoring below it against the
	// request query. Zero disables relevance filtering.
	RelevanceMinScore int
}

// ChromedpFetcher renders pages with headless Chrome and extracts text and
// image candidates from the rendered DOM.
type ChromedpFetcher struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	converter       *md.Converter
	logger          *zap.Logger
	cfg             FetcherConfig
}

// NewChromedpFetcher starts a headless browser and warms it up so the first
// fetch does not pay the launch cost.
func NewChromedpFetcher(cfg FetcherConfig, logger *zap.Logger) (*ChromedpFetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", !cfg.Windowed),
		chromedp.Flag("disable-gpu", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		allocatorCancel()
		browserCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &ChromedpFetcher{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		converter:       md.NewConverter("", true, nil),
		logger:          logger,
		cfg:             cfg,
	}, nil
}

// Close tears down the browser and allocator contexts.
func (f *ChromedpFetcher) Close() error {
	if f == nil {
		return nil
	}
	f.browserCancel()
	f.allocatorCancel()
	return nil
}

// Fetch renders the URL in a fresh tab and extracts markdown-like text and
// raw image descriptors from the body.
func (f *ChromedpFetcher) Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error) {
	start := time.Now()

	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()
	taskCtx, cancelTask := context.WithTimeout(tabCtx, f.cfg.Timeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	var html string
	tasks := chromedp.Tasks{
		chromedp.Navigate(req.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if f.cfg.UserAgent != "" {
		tasks = append(chromedp.Tasks{emulation.SetUserAgentOverride(f.cfg.UserAgent)}, tasks...)
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return FetchResponse{}, fmt.Errorf("render %s: %w", req.URL, err)
	}

	resp, err := f.extract(req, html)
	if err != nil {
		return FetchResponse{}, err
	}
	resp.Duration = time.Since(start)

	f.logger.Debug("fetched page",
		zap.String("url", req.URL),
		zap.Int("text_chars", len(resp.Text)),
		zap.Int("image_candidates", len(resp.Images)),
		zap.Duration("dur", resp.Duration),
	)
	return resp, nil
}

func (f *ChromedpFetcher) extract(req FetchRequest, html string) (FetchResponse, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return FetchResponse{}, fmt.Errorf("parse rendered DOM for %s: %w", req.URL, err)
	}
	doc.Find(excludedSelectors).Remove()

	body := doc.Find("body")
	images := collectImages(body, req.URL, f.cfg.ExcludeExternalImages)

	markdown := f.converter.Convert(body)
	if f.cfg.RelevanceMinScore > 0 && req.Query != "" {
		markdown = relevantBlocks(markdown, req.Query, f.cfg.RelevanceMinScore)
	}

	return FetchResponse{
		URL:    req.URL,
		Text:   markdown,
		Images: images,
	}, nil
}

func collectImages(body *goquery.Selection, pageURL string, excludeExternal bool) []ImageDescriptor {
	pageHost := hostOf(pageURL)
	var images []ImageDescriptor
	body.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			return
		}
		if excludeExternal && isExternal(src, pageHost) {
			return
		}
		desc := sel.AttrOr("alt", "")
		if desc == "" {
			desc = sel.AttrOr("title", "")
		}
		images = append(images, ImageDescriptor{
			Src:   src,
			Desc:  desc,
			Width: widthAttr(sel),
		})
	})
	return images
}

// widthAttr returns the declared pixel width, or nil when the page does not
// specify one. The nil/non-nil distinction drives the image filter.
func widthAttr(sel *goquery.Selection) *int {
	raw, ok := sel.Attr("width")
	if !ok {
		return nil
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "px")
	w, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &w
}

func isExternal(src, pageHost string) bool {
	if strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "//") {
		return false
	}
	host := hostOf(src)
	return host != "" && pageHost != "" && !strings.EqualFold(host, pageHost)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
