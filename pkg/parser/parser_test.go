package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "collapses and trims", in: "  a\n\tb  ", want: "a b"},
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: " \n\t ", want: ""},
		{name: "decodes entities", in: "Tom &amp; Jerry", want: "Tom & Jerry"},
		{name: "nbsp counts as whitespace", in: "a&nbsp;&nbsp; b", want: "a b"},
		{name: "only nbsp", in: "&nbsp;", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "a b", CollapseSpace("  a\n\t b "))
	assert.Equal(t, "a b", CollapseSpace("a\u00a0\u00a0b"))
	// no entity decoding
	assert.Equal(t, "&lt;div&gt; &amp;", CollapseSpace(" &lt;div&gt;  &amp; "))
	assert.Empty(t, CollapseSpace(" \u00a0 "))
}

func TestDecodeHTMLEntities(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "hex and named", in: "a &amp; b &#x3C;c&#x3E;", want: "a & b <c>"},
		{name: "decimal", in: "&#65;&#66;", want: "AB"},
		{name: "upper hex marker", in: "&#X41;", want: "A"},
		{name: "quotes", in: "&quot;hi&quot; &apos;there&apos;", want: `"hi" 'there'`},
		{name: "nbsp", in: "a&nbsp;b", want: "a b"},
		{name: "unknown named passes through", in: "&copy; 2024", want: "&copy; 2024"},
		{name: "missing semicolon passes through", in: "AT&T &amp", want: "AT&T &amp"},
		{name: "null code point passes through", in: "&#0;", want: "&#0;"},
		{name: "surrogate passes through", in: "&#xD800;", want: "&#xD800;"},
		{name: "out of range passes through", in: "&#x110000;", want: "&#x110000;"},
		{name: "no entities", in: "plain", want: "plain"},
		{name: "single pass", in: "&amp;lt;", want: "&lt;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeHTMLEntities(tt.in))
		})
	}
}

func TestExtractCanonical(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		want   string
		wantOK bool
	}{
		{name: "multi-token rel", html: `<link rel="alternate canonical" href="/x">`, want: "/x", wantOK: true},
		{name: "substring is not a token", html: `<link rel="noncanonical" href="/y">`, wantOK: false},
		{name: "case-insensitive", html: `<LINK REL="Canonical" HREF="https://a.example/p">`, want: "https://a.example/p", wantOK: true},
		{name: "first match wins", html: `<link rel="canonical" href="/one"><link rel="canonical" href="/two">`, want: "/one", wantOK: true},
		{name: "skips non-canonical links", html: `<link rel="stylesheet" href="/s.css"><link rel="canonical" href="/c">`, want: "/c", wantOK: true},
		{name: "none", html: `<head><title>t</title></head>`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractCanonical(tt.html)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractTitle(t *testing.T) {
	got, ok := ExtractTitle(`<head><title>First</title><title>Second</title></head>`)
	assert.True(t, ok)
	assert.Equal(t, "First", got)

	_, ok = ExtractTitle(`<head><meta name="x" content="y"></head>`)
	assert.False(t, ok)
}

func TestParseMetaTags(t *testing.T) {
	html := `<head>
		<meta property="og:title" content="Old">
		<META PROPERTY="OG:Title" CONTENT="New">
		<meta name="Description" content="desc">
		<meta name="twitter:title" content="tw">
		<meta property="og:image">
		<meta charset="utf-8">
	</head>`

	byProperty, byName := ParseMetaTags(html)

	assert.Equal(t, map[string]string{"og:title": "New"}, byProperty)
	assert.Equal(t, map[string]string{"description": "desc", "twitter:title": "tw"}, byName)
}

func TestParseMetaTagsDecodesAttributesOnce(t *testing.T) {
	byProperty, _ := ParseMetaTags(`<head><meta property="og:title" content="Use &amp;lt;div&amp;gt; &copy; 2024"></head>`)
	assert.Equal(t, "Use &lt;div&gt; © 2024", byProperty["og:title"])
}

func TestIcon(t *testing.T) {
	h := NewHead(`<link rel="apple-touch-icon" href="/apple.png"><link rel="shortcut icon" href="/favicon.ico">`)
	got, ok := h.Icon()
	assert.True(t, ok)
	assert.Equal(t, "/favicon.ico", got)

	_, ok = ExtractIcon(`<link rel="stylesheet" href="/s.css">`)
	assert.False(t, ok)
}

func TestResolveURL(t *testing.T) {
	const base = "https://site.example/post"

	tests := []struct {
		name   string
		value  string
		base   string
		want   string
		wantOK bool
	}{
		{name: "protocol relative", value: "//cdn.example.com/img.png", base: base, want: "https://cdn.example.com/img.png", wantOK: true},
		{name: "root relative", value: "/img/a.png", base: base, want: "https://site.example/img/a.png", wantOK: true},
		{name: "path relative", value: "a.png", base: "https://site.example/blog/post", want: "https://site.example/blog/a.png", wantOK: true},
		{name: "absolute https", value: "https://other.example/x", base: base, want: "https://other.example/x", wantOK: true},
		{name: "insecure rejected", value: "http://insecure.example/x", base: base, wantOK: false},
		{name: "relative to http base rejected", value: "/x", base: "http://site.example/", wantOK: false},
		{name: "data url rejected", value: "data:image/png;base64,AAAA", base: base, wantOK: false},
		{name: "empty", value: "  ", base: base, wantOK: false},
		{name: "unparseable", value: "https://bad host/%zz", base: base, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveURL(tt.value, tt.base)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
