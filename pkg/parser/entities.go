package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var entityPattern = regexp.MustCompile(`&(#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z]+);`)

var namedEntities = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"quot": `"`,
	"apos": "'",
	"nbsp": "\u00a0",
}

// DecodeHTMLEntities decodes decimal and hex character references and the
// named entities amp, lt, gt, quot, apos and nbsp. Anything else, including
// references to invalid code points, is left as written.
func DecodeHTMLEntities(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	return entityPattern.ReplaceAllStringFunc(text, func(m string) string {
		body := m[1 : len(m)-1]
		if body[0] != '#' {
			if v, ok := namedEntities[body]; ok {
				return v
			}
			return m
		}

		var n uint64
		var err error
		if len(body) > 1 && (body[1] == 'x' || body[1] == 'X') {
			n, err = strconv.ParseUint(body[2:], 16, 32)
		} else {
			n, err = strconv.ParseUint(body[1:], 10, 32)
		}
		if err != nil || n == 0 || !utf8.ValidRune(rune(n)) {
			return m
		}
		return string(rune(n))
	})
}
