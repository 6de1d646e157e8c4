// Package parser extracts link-preview metadata from the <head> of an HTML
// document.
package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Head is a parsed head fragment.
type Head struct {
	doc *goquery.Document
}

// NewHead parses html. Malformed markup never fails; the HTML parser
// recovers the same way a browser would.
func NewHead(html string) *Head {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}
	return &Head{doc: doc}
}

// MetaTags collects <meta> content keyed by property and by name. Keys are
// lower-cased and the last tag for a key wins.
func (h *Head) MetaTags() (byProperty map[string]string, byName map[string]string) {
	byProperty = make(map[string]string)
	byName = make(map[string]string)

	h.doc.Find("meta").Each(func(i int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		if prop, ok := s.Attr("property"); ok && strings.TrimSpace(prop) != "" {
			byProperty[strings.ToLower(strings.TrimSpace(prop))] = content
		}
		if name, ok := s.Attr("name"); ok && strings.TrimSpace(name) != "" {
			byName[strings.ToLower(strings.TrimSpace(name))] = content
		}
	})
	return byProperty, byName
}

// Canonical returns the href of the first <link> whose rel has a
// "canonical" token.
func (h *Head) Canonical() (string, bool) {
	return h.linkWithRel("canonical")
}

// Icon returns the href of the first <link> whose rel has an "icon" token.
func (h *Head) Icon() (string, bool) {
	return h.linkWithRel("icon")
}

func (h *Head) linkWithRel(token string) (string, bool) {
	var href string
	found := false
	h.doc.Find("link[rel][href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		if !hasToken(rel, token) {
			return true
		}
		href, _ = s.Attr("href")
		href = strings.TrimSpace(href)
		found = href != ""
		return !found
	})
	return href, found
}

// Title returns the text of the first <title>.
func (h *Head) Title() (string, bool) {
	sel := h.doc.Find("title").First()
	if sel.Length() == 0 {
		return "", false
	}
	return sel.Text(), true
}

// hasToken reports whether the whitespace-separated list contains token,
// ignoring case.
func hasToken(list, token string) bool {
	for _, t := range strings.Fields(list) {
		if strings.EqualFold(t, token) {
			return true
		}
	}
	return false
}

// ParseMetaTags is NewHead(html).MetaTags().
func ParseMetaTags(html string) (byProperty map[string]string, byName map[string]string) {
	return NewHead(html).MetaTags()
}

// ExtractCanonical is NewHead(html).Canonical().
func ExtractCanonical(html string) (string, bool) {
	return NewHead(html).Canonical()
}

// ExtractIcon returns the href of the first link whose rel contains "icon".
func ExtractIcon(html string) (string, bool) {
	return NewHead(html).Icon()
}

// ExtractTitle is NewHead(html).Title().
func ExtractTitle(html string) (string, bool) {
	return NewHead(html).Title()
}

// CollapseSpace collapses whitespace runs to one space and trims. Use it for
// values already decoded by the HTML parser, such as MetaTags and Title results.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeText decodes entities in raw markup text, collapses whitespace runs to one space and
// trims. The empty string means there was no text.
func NormalizeText(raw string) string {
	return CollapseSpace(DecodeHTMLEntities(raw))
}

// ResolveURL resolves value against base. It reports false when either
// fails to parse or the result is not an absolute https URL.
func ResolveURL(value, base string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	baseURL, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(value)
	if err != nil {
		return "", false
	}
	resolved := baseURL.ResolveReference(ref)
	if resolved.Scheme != "https" || resolved.Host == "" {
		return "", false
	}
	return resolved.String(), true
}
