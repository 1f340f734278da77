package aging

// Partition returns the id of the worker responsible for the unordered
// vertex pair (source, destination). It is symmetric in its arguments:
// Partition(s, d, n) == Partition(d, s, n) for all s, d, n > 0, guaranteeing
// that every insert and delete on a given edge lands on the same worker.
func Partition(source, destination, numWorkers uint64) uint64 {
	if source < destination {
		return source % numWorkers
	}
	return destination % numWorkers
}
