// Package progress renders view aggregation progress as a single animated
// terminal line.
package progress

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Phase is the lifecycle stage shown by the controller.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseRunning  Phase = "running"
	PhaseComplete Phase = "complete"
	PhasePartial  Phase = "partial"
	PhaseError    Phase = "error"
)

const (
	barWidth = 20
	// easing moves Current this fraction of the remaining distance per Step.
	easing  = 0.25
	minStep = 1.0
)

// State is a snapshot of the controller.
type State struct {
	Current  float64
	Target   float64
	Preview  int
	Phase    Phase
	Final    int
	Failures int
}

// Controller implements views.Observer for a terminal. Callbacks only update
// state under a mutex; Run does the drawing.
type Controller struct {
	mu    sync.Mutex
	out   io.Writer
	state State
	ready bool
}

// NewController returns a Controller drawing to out. A nil out makes the
// controller report not ready, so aggregation is skipped.
func NewController(out io.Writer) *Controller {
	return &Controller{out: out, ready: out != nil, state: State{Phase: PhaseIdle}}
}

func (c *Controller) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *Controller) OnStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{Phase: PhaseRunning}
}

func (c *Controller) OnProgress(percent int, preview int) {
	c.Update(float64(percent), preview)
}

func (c *Controller) OnComplete(total int) {
	c.finish(PhaseComplete, total, 0)
}

func (c *Controller) OnPartial(total int, failures int) {
	c.finish(PhasePartial, total, failures)
}

func (c *Controller) OnError() {
	c.finish(PhaseError, 0, 0)
}

func (c *Controller) finish(phase Phase, total, failures int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Phase = phase
	c.state.Final = total
	c.state.Failures = failures
	c.state.Preview = total
	if phase != PhaseError {
		c.state.Target = 100
		c.state.Current = 100
	}
}

// Update raises the target percentage and records the running total.
// Targets never move backwards.
func (c *Controller) Update(target float64, preview int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if target > 100 {
		target = 100
	}
	if target > c.state.Target {
		c.state.Target = target
	}
	if preview > c.state.Preview {
		c.state.Preview = preview
	}
}

// Step advances Current toward Target and returns the new snapshot.
func (c *Controller) Step() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	gap := c.state.Target - c.state.Current
	if gap > 0 {
		step := gap * easing
		if step < minStep {
			step = minStep
		}
		if step > gap {
			step = gap
		}
		c.state.Current += step
	}
	return c.state
}

// Snapshot returns the current state without advancing it.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run redraws the status line every interval until ctx is done or a final
// phase is reached, then prints the final line.
func (c *Controller) Run(ctx context.Context, interval time.Duration) {
	if c.out == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.draw(c.Snapshot(), true)
			return
		case <-ticker.C:
			st := c.Step()
			if st.Phase == PhaseComplete || st.Phase == PhasePartial || st.Phase == PhaseError {
				c.draw(st, true)
				return
			}
			if st.Phase == PhaseRunning {
				c.draw(st, false)
			}
		}
	}
}

func (c *Controller) draw(st State, final bool) {
	line := Render(st)
	if final {
		fmt.Fprintf(c.out, "\r%s\n", line)
		return
	}
	fmt.Fprintf(c.out, "\r%s", line)
}

// Render formats a state as one line of text.
func Render(st State) string {
	switch st.Phase {
	case PhaseComplete:
		return fmt.Sprintf("Total views: %s", humanize.Comma(int64(st.Final)))
	case PhasePartial:
		return fmt.Sprintf("Total views: %s* (%d %s failed, retry with --force)",
			humanize.Comma(int64(st.Final)), st.Failures, plural(st.Failures, "batch", "batches"))
	case PhaseError:
		return "Total views: error (counter unavailable)"
	case PhaseIdle:
		return "Total views: -"
	}
	return fmt.Sprintf("Counting views %s %3.0f%% (%s so far)",
		bar(st.Current), st.Current, humanize.Comma(int64(st.Preview)))
}

func bar(percent float64) string {
	filled := int(percent / 100 * barWidth)
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
