package models

// ErrorInfo describes why an aggregation failed.
type ErrorInfo struct {
	Type     string `json:"error_type"`
	Message  string `json:"message"`
	Attempts int    `json:"attempts,omitempty"`
}

// AggregationResult is the outcome of counting one set of paths.
// When Success is true, Total equals the sum of PerPath; otherwise PerPath is nil.
type AggregationResult struct {
	Success  bool           `json:"success"`
	Total    int            `json:"total"`
	PerPath  map[string]int `json:"per_path,omitempty"`
	Error    *ErrorInfo     `json:"error,omitempty"`
	Attempts int            `json:"attempts"`
}

// Summary is the aggregated total persisted between runs.
type Summary struct {
	Total int `json:"total"`
	Home  int `json:"home"`
}

// BatchJob is a slice of paths sent together in one counting request.
type BatchJob struct {
	Index int
	Paths []string
}

// Status reports which branch LoadTotal took.
type Status string

const (
	StatusSkipped  Status = "skipped"
	StatusBusy     Status = "busy"
	StatusCached   Status = "cached"
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusStale    Status = "stale"
	StatusFailed   Status = "failed"
)

// Outcome is returned by LoadTotal alongside the observer callbacks.
type Outcome struct {
	Status   Status         `json:"status"`
	Total    int            `json:"total"`
	Failures int            `json:"failures,omitempty"`
	PerPath  map[string]int `json:"per_path,omitempty"`
}

// UnionPaths merges path lists into one ordered set, keeping the first
// occurrence of every path and dropping empty strings.
func UnionPaths(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, p := range list {
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
