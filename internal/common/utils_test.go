package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "whitespace", in: "  https://example.com/post \n", want: "https://example.com/post"},
		{name: "markdown link", in: "[read](https://example.com/a)", want: "https://example.com/a"},
		{name: "trailing punctuation", in: "https://example.com/a,", want: "https://example.com/a"},
		{name: "wrapped in angle brackets", in: "<https://example.com>", want: "https://example.com"},
		{name: "quoted", in: `"https://example.com/x"`, want: "https://example.com/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeURL(tt.in))
		})
	}
}

func TestSanitizeAndValidateURLs(t *testing.T) {
	valid, invalid := SanitizeAndValidateURLs([]string{
		"https://blog.example.com/posts/1",
		" (http://localhost:8080/x) ",
		"ftp://example.com/file",
		"https://exa mple.com",
		"not a url",
		"",
	})

	assert.Equal(t, []string{"https://blog.example.com/posts/1", "http://localhost:8080/x"}, valid)
	assert.Equal(t, []string{"ftp://example.com/file", "https://exa mple.com", "not a url", ""}, invalid)
}
