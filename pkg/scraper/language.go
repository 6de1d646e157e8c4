package scraper

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// newDetector builds a detector limited to the given ISO 639-1 codes.
// It returns nil when fewer than two known languages are configured.
func newDetector(codes []string) lingua.LanguageDetector {
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[strings.ToLower(strings.TrimSpace(c))] = true
	}

	var langs []lingua.Language
	for _, l := range lingua.AllLanguages() {
		if wanted[strings.ToLower(l.IsoCode639_1().String())] {
			langs = append(langs, l)
		}
	}
	if len(langs) < 2 {
		return nil
	}
	return lingua.NewLanguageDetectorBuilder().
		FromLanguages(langs...).
		WithLowAccuracyMode().
		Build()
}

// detectLanguage returns the lower-case ISO 639-1 code of text, or "" when
// detection is off or inconclusive.
func (s *Scraper) detectLanguage(text string) string {
	if s.detector == nil {
		return ""
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lang, ok := s.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
