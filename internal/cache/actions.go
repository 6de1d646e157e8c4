package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/blog-pulse/internal/common"
	"github.com/dtnitsch/blog-pulse/models"
	"github.com/dtnitsch/blog-pulse/pkg/caching"
)

// purger is implemented by stores that can drop entries by age.
type purger interface {
	PurgeOlderThan(cutoff time.Time) (int64, error)
}

var entries = []struct {
	key string
	ttl time.Duration
}{
	{caching.SummaryKey, caching.SummaryTTL},
	{caching.ContentPathsKey, caching.ContentPathsTTL},
}

// ShowAction prints every cache key with its age and what it holds.
func ShowAction(c *cli.Context) error {
	rt, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	return show(c.App.Writer, rt.Store, rt.Clock.Now())
}

func show(w io.Writer, store caching.Store, now time.Time) error {
	fmt.Fprintf(w, "%-22s %-20s %-16s %-6s %s\n", "Key", "Written", "Age", "Fresh", "Value")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, e := range entries {
		value, writtenAt, ok, err := store.Load(e.key)
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to read %s: %v", e.key, err), common.ExitRuntime)
		}
		if !ok {
			fmt.Fprintf(w, "%-22s %-20s %-16s %-6s %s\n", e.key, "-", "-", "-", "(empty)")
			continue
		}
		fresh := "no"
		if now.Sub(writtenAt) < e.ttl {
			fresh = "yes"
		}
		fmt.Fprintf(w, "%-22s %-20s %-16s %-6s %s\n",
			e.key,
			writtenAt.Format("2006-01-02 15:04:05"),
			humanize.RelTime(writtenAt, now, "ago", "from now"),
			fresh,
			describe(e.key, value),
		)
	}
	return nil
}

func describe(key string, value []byte) string {
	switch key {
	case caching.SummaryKey:
		var s models.Summary
		if err := json.Unmarshal(value, &s); err != nil {
			return "(corrupt)"
		}
		return fmt.Sprintf("total %s, home %s", humanize.Comma(int64(s.Total)), humanize.Comma(int64(s.Home)))
	case caching.ContentPathsKey:
		var paths []string
		if err := json.Unmarshal(value, &paths); err != nil {
			return "(corrupt)"
		}
		return fmt.Sprintf("%d paths", len(paths))
	}
	return humanize.Bytes(uint64(len(value)))
}

// ClearAction drops the cached summary and content path list so the next
// run recomputes both.
func ClearAction(c *cli.Context) error {
	rt, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	for _, e := range entries {
		rt.Cache.Invalidate(e.key)
	}
	fmt.Fprintln(c.App.Writer, "Cache cleared")
	return nil
}

// PurgeAction deletes entries older than --older-than. Only stores that
// track age in a queryable way support it.
func PurgeAction(c *cli.Context) error {
	rt, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	p, ok := rt.Store.(purger)
	if !ok {
		return cli.Exit(fmt.Sprintf("purge is not supported by the %q cache backend", rt.Config.Cache.Backend), common.ExitUsage)
	}

	olderThan := c.Duration("older-than")
	n, err := p.PurgeOlderThan(rt.Clock.Now().Add(-olderThan))
	if err != nil {
		return cli.Exit(err.Error(), common.ExitRuntime)
	}
	fmt.Fprintf(c.App.Writer, "Purged %d entries older than %s\n", n, olderThan)
	return nil
}
