package mapreduce

// Reduce aggregates a slice of per-path count maps into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	finalResults := make(map[string]int)

	for _, counts := range intermediate {
		for path, count := range counts {
			finalResults[path] += count
		}
	}

	return finalResults
}

// Sum returns the total of all counts.
func Sum(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
