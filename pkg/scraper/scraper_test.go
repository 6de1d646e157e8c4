package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/blog-pulse/pkg/fetcher"
)

const articlePage = `<!doctype html>
<html>
<head>
  <title>Fallback Title</title>
  <meta property="og:title" content="  Hello&nbsp;&nbsp;World  ">
  <meta name="twitter:title" content="Twitter Title">
  <meta name="description" content="A post about &amp; things">
  <meta property="og:image" content="https://cdn.example.com/plain.png">
  <meta property="og:image:secure_url" content="https://cdn.example.com/secure.png">
  <meta property="og:image:alt" content="A cover">
  <meta property="og:video" content="http://video.example.com/v.mp4">
  <meta property="og:video:secure_url" content="https://video.example.com/v.mp4">
  <meta property="og:video:type" content="video/mp4">
  <meta property="og:url" content="https://blog.example.com/posts/hello">
  <meta property="og:site_name" content="Example Blog">
  <link rel="shortcut icon" href="https://blog.example.com/favicon.ico">
</head>
<body><p>body text</p></body>
</html>`

type hitServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newHitServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *hitServer {
	t.Helper()
	hs := &hitServer{}
	hs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hs.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(hs.Close)
	return hs
}

func servePage(body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}
}

func newTestScraper(t *testing.T, opts Options) *Scraper {
	t.Helper()
	s, err := New(fetcher.NewFetcher(fetcher.Options{}), opts, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestParseOpenGraph(t *testing.T) {
	srv := newHitServer(t, servePage(articlePage))
	s := newTestScraper(t, Options{})

	rec := s.ParseOpenGraph(context.Background(), srv.URL+"/posts/hello")
	require.NotNil(t, rec)

	assert.Equal(t, "Hello World", rec.Title)
	assert.Equal(t, "A post about & things", rec.Description)
	assert.Equal(t, "https://cdn.example.com/secure.png", rec.Image)
	assert.Equal(t, "A cover", rec.ImageAlt)
	assert.Equal(t, "https://video.example.com/v.mp4", rec.Video)
	assert.Equal(t, "video/mp4", rec.VideoType)
	assert.Equal(t, "https://blog.example.com/posts/hello", rec.URL)
	assert.Equal(t, "Example Blog", rec.SiteName)
	assert.Equal(t, "https://blog.example.com/favicon.ico", rec.Favicon)
	assert.Empty(t, rec.Language)
}

func TestParseOpenGraphFallbacks(t *testing.T) {
	page := `<html><head>
		<title> Plain   Title </title>
		<meta name="twitter:description" content="From twitter">
		<meta property="og:image" content="http://insecure.example.com/a.png">
		<meta name="twitter:image" content="https://cdn.example.com/tw.png">
		<link rel="canonical" href="https://blog.example.com/canonical">
	</head><body></body></html>`
	srv := newHitServer(t, servePage(page))
	s := newTestScraper(t, Options{})

	rec := s.ParseOpenGraph(context.Background(), srv.URL)
	require.NotNil(t, rec)

	assert.Equal(t, "Plain Title", rec.Title)
	assert.Equal(t, "From twitter", rec.Description)
	assert.Equal(t, "https://cdn.example.com/tw.png", rec.Image)
	assert.Equal(t, "https://blog.example.com/canonical", rec.URL)
	assert.Empty(t, rec.Video)
	assert.Empty(t, rec.VideoType)
}

func TestParseOpenGraphDecodesEntitiesOnce(t *testing.T) {
	page := `<html><head>
		<meta property="og:title" content="Use &amp;lt;div&amp;gt; &copy; 2024">
		<meta name="description" content="  a &amp;quot;b&amp;quot;
			c ">
		<meta property="og:image" content="https://cdn.example.com/a.png?x=1&amp;y=%26amp;">
	</head></html>`
	srv := newHitServer(t, servePage(page))
	s := newTestScraper(t, Options{})

	rec := s.ParseOpenGraph(context.Background(), srv.URL)
	require.NotNil(t, rec)

	assert.Equal(t, "Use &lt;div&gt; © 2024", rec.Title)
	assert.Equal(t, "a &quot;b&quot; c", rec.Description)
	assert.Equal(t, "https://cdn.example.com/a.png?x=1&y=%26amp;", rec.Image)
}

func TestParseOpenGraphTitleElementDecodedOnce(t *testing.T) {
	srv := newHitServer(t, servePage(`<html><head><title>Tom &amp;amp; Jerry</title></head></html>`))
	s := newTestScraper(t, Options{})

	rec := s.ParseOpenGraph(context.Background(), srv.URL)
	require.NotNil(t, rec)
	assert.Equal(t, "Tom &amp; Jerry", rec.Title)
}

func TestParseOpenGraphInsecurePageURL(t *testing.T) {
	page := `<html><head><meta property="og:image" content="/relative.png"></head></html>`
	srv := newHitServer(t, servePage(page))
	s := newTestScraper(t, Options{})

	rec := s.ParseOpenGraph(context.Background(), srv.URL)
	require.NotNil(t, rec)

	// relative URLs resolve against an http page and are dropped
	assert.Empty(t, rec.Image)
	assert.Empty(t, rec.URL)
}

func TestParseOpenGraphFetchFailureReturnsNil(t *testing.T) {
	srv := newHitServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	s := newTestScraper(t, Options{})

	assert.Nil(t, s.ParseOpenGraph(context.Background(), srv.URL))
	assert.False(t, s.Cached(srv.URL))

	// failures are not cached, so a retry hits the server again
	assert.Nil(t, s.ParseOpenGraph(context.Background(), srv.URL))
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestParseOpenGraphUnreachable(t *testing.T) {
	s := newTestScraper(t, Options{})
	assert.Nil(t, s.ParseOpenGraph(context.Background(), "http://127.0.0.1:0/nothing"))
}

func TestHeadIsCached(t *testing.T) {
	srv := newHitServer(t, servePage(articlePage))
	s := newTestScraper(t, Options{})
	ctx := context.Background()

	first := s.ParseOpenGraph(ctx, srv.URL)
	second := s.ParseOpenGraph(ctx, srv.URL)

	require.NotNil(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), srv.hits.Load())
	assert.True(t, s.Cached(srv.URL))
}

func TestHeadCacheEvictsLeastRecentlyUsed(t *testing.T) {
	srv := newHitServer(t, servePage(articlePage))
	s := newTestScraper(t, Options{CacheSize: 2})
	ctx := context.Background()

	a, b, c := srv.URL+"/a", srv.URL+"/b", srv.URL+"/c"

	require.NotNil(t, s.ParseOpenGraph(ctx, a))
	require.NotNil(t, s.ParseOpenGraph(ctx, b))
	// touch a so b becomes the oldest entry
	require.NotNil(t, s.ParseOpenGraph(ctx, a))
	require.NotNil(t, s.ParseOpenGraph(ctx, c))

	assert.Equal(t, 2, s.CacheLen())
	assert.True(t, s.Cached(a))
	assert.False(t, s.Cached(b))
	assert.True(t, s.Cached(c))
	assert.Equal(t, int32(3), srv.hits.Load())
}

func TestFetchHead(t *testing.T) {
	t.Run("extracts head element", func(t *testing.T) {
		srv := newHitServer(t, servePage(`<html><HEAD lang="en"><title>x</title></HEAD><body><header>h</header></body></html>`))
		s := newTestScraper(t, Options{})

		head, err := s.FetchHead(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, `<HEAD lang="en"><title>x</title></HEAD>`, head)
	})

	t.Run("does not match header element", func(t *testing.T) {
		srv := newHitServer(t, servePage(`<header>nav</header><p>no head here</p>`))
		s := newTestScraper(t, Options{})

		head, err := s.FetchHead(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, `<header>nav</header><p>no head here</p>`, head)
	})

	t.Run("truncates when no head is found", func(t *testing.T) {
		body := strings.Repeat("é", DefaultMaxHeadChars+500)
		srv := newHitServer(t, servePage(body))
		s := newTestScraper(t, Options{})

		head, err := s.FetchHead(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, DefaultMaxHeadChars, len([]rune(head)))
	})

	t.Run("unclosed head is truncated", func(t *testing.T) {
		srv := newHitServer(t, servePage("<head><title>t</title>"+strings.Repeat("a", 100)))
		s := newTestScraper(t, Options{MaxHeadChars: 10})

		head, err := s.FetchHead(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "<head><tit", head)
	})
}

func TestLanguageDetection(t *testing.T) {
	page := `<html><head>
		<meta property="og:title" content="The quick brown fox jumps over the lazy dog">
		<meta property="og:description" content="This article explains how the weather will change over the next few weeks in the north of the country.">
	</head></html>`
	srv := newHitServer(t, servePage(page))
	s := newTestScraper(t, Options{DetectLanguage: true, Languages: []string{"en", "de", "fr", "es"}})

	rec := s.ParseOpenGraph(context.Background(), srv.URL)
	require.NotNil(t, rec)
	assert.Equal(t, "en", rec.Language)
}

func TestNewDetectorNeedsTwoLanguages(t *testing.T) {
	assert.Nil(t, newDetector([]string{"en"}))
	assert.Nil(t, newDetector([]string{"en", "zz"}))
	assert.NotNil(t, newDetector([]string{"EN", " de "}))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "éé", truncateRunes("ééé", 2))
}
