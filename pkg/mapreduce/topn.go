package mapreduce

import (
	"fmt"
	"io"
	"sort"
)

// PathCount is one row of a ranking.
type PathCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// TopPaths returns the n most viewed paths, ties broken by path.
func TopPaths(counts map[string]int, n int) []PathCount {
	ss := make([]PathCount, 0, len(counts))
	for k, v := range counts {
		ss = append(ss, PathCount{k, v})
	}

	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Count != ss[j].Count {
			return ss[i].Count > ss[j].Count
		}
		return ss[i].Path < ss[j].Path
	})

	if n < 0 {
		n = 0
	}
	if len(ss) > n {
		ss = ss[:n]
	}
	return ss
}

// PrintTopPaths writes the n most viewed paths as a numbered list.
func PrintTopPaths(w io.Writer, counts map[string]int, n int) {
	for i, pc := range TopPaths(counts, n) {
		fmt.Fprintf(w, "%d. %s: %d\n", i+1, pc.Path, pc.Count)
	}
}
