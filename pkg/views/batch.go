package views

import "github.com/dtnitsch/blog-pulse/models"

// PartitionBatches splits paths into request-sized batches. Up to maxSize
// paths go out in one request; beyond that the batch size grows with the
// input (about two batches per worker) and is clamped to [minSize, maxSize]
// to keep request URLs short.
func PartitionBatches(paths []string, minSize, maxSize, workers int) []models.BatchJob {
	if len(paths) == 0 {
		return nil
	}
	if minSize < 1 {
		minSize = 1
	}
	if maxSize < minSize {
		maxSize = minSize
	}
	if workers < 1 {
		workers = 1
	}

	size := len(paths)
	if size > maxSize {
		target := workers * 2
		size = (len(paths) + target - 1) / target
		if size < minSize {
			size = minSize
		}
		if size > maxSize {
			size = maxSize
		}
	}

	batches := make([]models.BatchJob, 0, (len(paths)+size-1)/size)
	for start := 0; start < len(paths); start += size {
		end := start + size
		if end > len(paths) {
			end = len(paths)
		}
		batches = append(batches, models.BatchJob{
			Index: len(batches),
			Paths: paths[start:end],
		})
	}
	return batches
}
