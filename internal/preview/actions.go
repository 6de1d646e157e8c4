package preview

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/blog-pulse/internal/common"
	"github.com/dtnitsch/blog-pulse/models"
)

// Entry pairs a requested URL with its preview; Preview is nil when the page
// could not be fetched.
type Entry struct {
	Source  string                `json:"source" yaml:"source"`
	Preview *models.PreviewRecord `json:"preview" yaml:"preview"`
}

func PreviewAction(c *cli.Context) error {
	format := strings.ToLower(c.String("format"))
	if format != "json" && format != "yaml" {
		return cli.Exit(fmt.Sprintf("unknown format %q (want json or yaml)", format), common.ExitUsage)
	}
	if c.NArg() == 0 {
		return cli.Exit("no URLs given\n\nUsage:\n  pulse preview https://example.com/post", common.ExitUsage)
	}

	urls, invalid := common.SanitizeAndValidateURLs(c.Args().Slice())
	if len(invalid) > 0 {
		return cli.Exit(fmt.Sprintf("invalid URLs: %s", strings.Join(invalid, ", ")), common.ExitUsage)
	}

	rt, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	s, err := rt.NewScraper()
	if err != nil {
		return cli.Exit(err.Error(), common.ExitRuntime)
	}

	entries := make([]Entry, 0, len(urls))
	failed := 0
	for _, u := range urls {
		rec := s.ParseOpenGraph(c.Context, u)
		if rec == nil {
			failed++
		}
		entries = append(entries, Entry{Source: u, Preview: rec})
	}

	if err := writeEntries(c.App.Writer, format, entries); err != nil {
		return cli.Exit(fmt.Sprintf("failed to encode previews: %v", err), common.ExitRuntime)
	}

	rt.Logger.Info().Int("urls", len(urls)).Int("failed", failed).Msg("Previews extracted")
	if failed > 0 {
		return cli.Exit("", common.ExitRuntime)
	}
	return nil
}

func writeEntries(w io.Writer, format string, entries []Entry) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
