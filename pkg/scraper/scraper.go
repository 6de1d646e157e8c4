// Package scraper builds link-preview records from remote pages.
package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pemistahl/lingua-go"
	"github.com/rs/zerolog"

	"github.com/dtnitsch/blog-pulse/models"
	"github.com/dtnitsch/blog-pulse/pkg/fetcher"
	"github.com/dtnitsch/blog-pulse/pkg/parser"
)

const (
	DefaultCacheSize    = 1000
	DefaultMaxHeadChars = 60000
	DefaultMaxScanBytes = 512 * 1024
)

var headPattern = regexp.MustCompile(`(?is)<head(?:\s[^>]*)?>.*?</head\s*>`)

// Options tunes a Scraper. Zero values fall back to defaults.
type Options struct {
	CacheSize    int
	MaxHeadChars int
	MaxScanBytes int64
	// Languages are ISO 639-1 codes considered by language detection.
	// Detection is off unless DetectLanguage is set and at least two are given.
	DetectLanguage bool
	Languages      []string
}

// Scraper fetches page heads, memoizes them per URL in an LRU and extracts
// preview records. It is safe for concurrent use.
type Scraper struct {
	fetcher  *fetcher.Fetcher
	cache    *lru.Cache[string, string]
	opts     Options
	detector lingua.LanguageDetector
	logger   zerolog.Logger
}

func New(f *fetcher.Fetcher, opts Options, logger zerolog.Logger) (*Scraper, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.MaxHeadChars <= 0 {
		opts.MaxHeadChars = DefaultMaxHeadChars
	}
	if opts.MaxScanBytes <= 0 {
		opts.MaxScanBytes = DefaultMaxScanBytes
	}
	if f == nil {
		f = fetcher.NewFetcher(fetcher.Options{Accept: "text/html,application/xhtml+xml"})
	}

	cache, err := lru.New[string, string](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create head cache: %w", err)
	}

	s := &Scraper{
		fetcher: f,
		cache:   cache,
		opts:    opts,
		logger:  logger.With().Str("component", "scraper").Logger(),
	}
	if opts.DetectLanguage {
		s.detector = newDetector(opts.Languages)
	}
	return s, nil
}

// FetchHead downloads url and returns its <head>…</head> element. When no
// complete head is found within the scanned prefix, the first MaxHeadChars
// characters of the document are returned instead.
func (s *Scraper) FetchHead(ctx context.Context, url string) (string, error) {
	html, err := s.fetcher.GetHTML(ctx, url, s.opts.MaxScanBytes)
	if err != nil {
		return "", err
	}
	if head := headPattern.FindString(html); head != "" {
		return head, nil
	}
	return truncateRunes(html, s.opts.MaxHeadChars), nil
}

// head returns the cached head for url, fetching it on a miss. Failures are
// not cached.
func (s *Scraper) head(ctx context.Context, url string) (string, error) {
	if h, ok := s.cache.Get(url); ok {
		s.logger.Debug().Str("url", url).Msg("Head served from cache")
		return h, nil
	}
	h, err := s.FetchHead(ctx, url)
	if err != nil {
		return "", err
	}
	s.cache.Add(url, h)
	return h, nil
}

// Cached reports whether url's head is in the LRU without touching its recency.
func (s *Scraper) Cached(url string) bool {
	return s.cache.Contains(url)
}

// CacheLen returns the number of memoized heads.
func (s *Scraper) CacheLen() int {
	return s.cache.Len()
}

// ParseOpenGraph returns the preview record for pageURL, or nil when the
// page could not be fetched. Errors are logged, never returned.
func (s *Scraper) ParseOpenGraph(ctx context.Context, pageURL string) (rec *models.PreviewRecord) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("url", pageURL).Interface("panic", r).Msg("Preview extraction panicked")
			rec = nil
		}
	}()

	head, err := s.head(ctx, pageURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", pageURL).Msg("Failed to fetch page head")
		return nil
	}
	return s.extract(pageURL, head)
}

func (s *Scraper) extract(pageURL, head string) *models.PreviewRecord {
	h := parser.NewHead(head)
	// values below are already entity-decoded by the HTML parser
	props, names := h.MetaTags()
	fb := newFallback(head, pageURL)

	text := func(keys ...string) string {
		for _, k := range keys {
			if v := parser.CollapseSpace(props[k]); v != "" {
				return v
			}
			if v := parser.CollapseSpace(names[k]); v != "" {
				return v
			}
		}
		return ""
	}
	link := func(candidates ...string) string {
		for _, c := range candidates {
			if u, ok := parser.ResolveURL(c, pageURL); ok {
				return u
			}
		}
		return ""
	}
	raw := func(keys ...string) []string {
		var out []string
		for _, k := range keys {
			if v := props[k]; v != "" {
				out = append(out, v)
			}
			if v := names[k]; v != "" {
				out = append(out, v)
			}
		}
		return out
	}

	rec := &models.PreviewRecord{}

	rec.Title = text("og:title", "twitter:title")
	if rec.Title == "" {
		if t, ok := h.Title(); ok {
			rec.Title = parser.CollapseSpace(t)
		}
	}
	if rec.Title == "" {
		rec.Title = parser.CollapseSpace(fb.article().Title)
	}

	rec.Description = text("og:description", "description", "twitter:description")
	if rec.Description == "" {
		rec.Description = parser.CollapseSpace(fb.article().Excerpt)
	}

	rec.Image = link(raw("og:image:secure_url", "og:image:url", "og:image", "twitter:image", "twitter:image:src")...)
	if rec.Image == "" {
		rec.Image = link(fb.article().Image)
	}
	rec.ImageAlt = text("og:image:alt", "twitter:image:alt")

	rec.Video = link(raw("og:video:secure_url", "og:video:url", "og:video")...)
	if rec.Video != "" {
		rec.VideoType = text("og:video:type")
	}

	canonical, _ := h.Canonical()
	rec.URL = link(append(raw("og:url"), canonical, pageURL)...)

	rec.SiteName = text("og:site_name", "application-name")
	if rec.SiteName == "" {
		rec.SiteName = parser.CollapseSpace(fb.article().SiteName)
	}

	icon, _ := h.Icon()
	rec.Favicon = link(icon)
	if rec.Favicon == "" {
		rec.Favicon = link(fb.article().Favicon)
	}

	rec.Language = s.detectLanguage(rec.Title + " " + rec.Description)
	return rec
}

// fallback lazily runs readability over the head for metadata the tags did not carry.
type fallback struct {
	head    string
	pageURL string
	done    bool
	a       readability.Article
}

func newFallback(head, pageURL string) *fallback {
	return &fallback{head: head, pageURL: pageURL}
}

func (f *fallback) article() readability.Article {
	if f.done {
		return f.a
	}
	f.done = true
	u, err := url.Parse(f.pageURL)
	if err != nil {
		return f.a
	}
	p := readability.NewParser()
	if a, err := p.Parse(strings.NewReader(f.head), u); err == nil {
		f.a = a
	}
	return f.a
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
