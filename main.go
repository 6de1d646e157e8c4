package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/blog-pulse/internal/cache"
	"github.com/dtnitsch/blog-pulse/internal/common"
	"github.com/dtnitsch/blog-pulse/internal/preview"
	"github.com/dtnitsch/blog-pulse/internal/serve"
	"github.com/dtnitsch/blog-pulse/internal/views"
	"github.com/dtnitsch/blog-pulse/models"
	"github.com/dtnitsch/blog-pulse/pkg/help"
)

func main() {
	app := &cli.App{
		Name:  "pulse",
		Usage: "Site-wide pageview totals and link previews for a blog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   models.DefaultConfigPath,
				Usage:   "path to the YAML config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override log.level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "only log errors to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "views",
				Usage: "Print the total pageview count across all pages",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "ignore cached totals and path lists"},
					&cli.StringFlag{Name: "paths-file", Usage: "file with one content path per line"},
					&cli.IntFlag{Name: "top", Usage: "also list the N most viewed paths"},
					&cli.BoolFlag{Name: "json", Usage: "print the outcome as JSON"},
				},
				Action: views.ViewsAction,
			},
			{
				Name:      "preview",
				Usage:     "Extract link-preview metadata from pages",
				ArgsUsage: "URL...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "json", Usage: "output format: json or yaml"},
				},
				Action: preview.PreviewAction,
			},
			{
				Name:  "serve",
				Usage: "Serve /api/views and /api/link-preview over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "listen address (default from server.addr)"},
				},
				Action: serve.ServeAction,
			},
			{
				Name:  "cache",
				Usage: "Inspect or reset the persistent cache",
				Subcommands: []*cli.Command{
					{Name: "show", Usage: "List cached entries and their age", Action: cache.ShowAction},
					{Name: "clear", Usage: "Drop the cached total and content paths", Action: cache.ClearAction},
					{
						Name:  "purge",
						Usage: "Delete entries older than a duration (sqlite backend)",
						Flags: []cli.Flag{
							&cli.DurationFlag{Name: "older-than", Value: 7 * 24 * time.Hour},
						},
						Action: cache.PurgeAction,
					},
				},
			},
			{
				Name:  "quickstart",
				Usage: "Print a quick reference",
				Action: func(c *cli.Context) error {
					fmt.Fprint(c.App.Writer, help.QuickstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(common.ExitUsage)
	}
}
