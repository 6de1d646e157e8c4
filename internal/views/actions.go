package views

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/blog-pulse/internal/common"
	"github.com/dtnitsch/blog-pulse/models"
	"github.com/dtnitsch/blog-pulse/pkg/mapreduce"
	"github.com/dtnitsch/blog-pulse/pkg/progress"
	viewspkg "github.com/dtnitsch/blog-pulse/pkg/views"
)

// redrawInterval is how often the progress line is repainted.
const redrawInterval = 50 * time.Millisecond

// Report is the --json output of `pulse views`.
type Report struct {
	models.Outcome
	Top []mapreduce.PathCount `json:"top,omitempty"`
}

func ViewsAction(c *cli.Context) error {
	var contentPaths []string
	if f := c.String("paths-file"); f != "" {
		paths, err := ReadPathsFile(f)
		if err != nil {
			return cli.Exit(err.Error(), common.ExitUsage)
		}
		contentPaths = paths
	}

	rt, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := c.App.Writer
	force := c.Bool("force")
	top := c.Int("top")

	var outcome models.Outcome
	if c.Bool("json") {
		outcome = rt.NewAggregator(viewspkg.NopObserver{}, contentPaths).LoadTotal(c.Context, force)
		if err := writeReport(out, outcome, top); err != nil {
			return cli.Exit(fmt.Sprintf("failed to encode report: %v", err), common.ExitRuntime)
		}
	} else {
		build := func(obs viewspkg.Observer) *viewspkg.Aggregator {
			return rt.NewAggregator(obs, contentPaths)
		}
		outcome = RunWithProgress(c.Context, build, out, force)
		if top > 0 && len(outcome.PerPath) > 0 {
			fmt.Fprintln(out)
			mapreduce.PrintTopPaths(out, outcome.PerPath, top)
		}
	}

	rt.Logger.Debug().Str("status", string(outcome.Status)).Int("total", outcome.Total).Msg("Views command finished")

	if outcome.Status == models.StatusFailed {
		return cli.Exit("", common.ExitRuntime)
	}
	return nil
}

// RunWithProgress runs one aggregation while animating a progress line on
// out, and returns once the final line has been written.
func RunWithProgress(ctx context.Context, build func(viewspkg.Observer) *viewspkg.Aggregator, out io.Writer, force bool) models.Outcome {
	ctrl := progress.NewController(out)
	agg := build(ctrl)

	drawCtx, stop := context.WithCancel(ctx)
	drawn := make(chan struct{})
	go func() {
		defer close(drawn)
		ctrl.Run(drawCtx, redrawInterval)
	}()

	outcome := agg.LoadTotal(ctx, force)
	stop()
	<-drawn
	return outcome
}

func writeReport(w io.Writer, outcome models.Outcome, top int) error {
	report := Report{Outcome: outcome}
	if top > 0 {
		report.Top = mapreduce.TopPaths(outcome.PerPath, top)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// ReadPathsFile reads one content path per line. Blank lines and lines
// starting with # are ignored; duplicates are dropped. An empty file yields
// an empty, non-nil list.
func ReadPathsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open paths file: %w", err)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			return nil, fmt.Errorf("%s:%d: path must start with /: %q", path, lineNo, line)
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read paths file: %w", err)
	}
	out := models.UnionPaths(paths)
	if out == nil {
		out = []string{}
	}
	return out, nil
}
