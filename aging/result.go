package aging

import "time"

// Result is immutable after the experiment ends, per the data model's
// Result record: threads, completion time, build invocations, final and
// expected vertex/edge counts, a progress array snapshot, and latency
// samples.
type Result struct {
	Threads             uint64
	CompletionTime      time.Duration
	NumBuildInvocations uint64

	NumVerticesFinalGraph uint64
	NumEdgesFinalGraph    uint64
	NumVerticesLoad       uint64
	NumEdgesLoad          uint64
	NumOperationsTotal    uint64
	NumArtificialVertices uint64

	// VerticesMatched / EdgesMatched report whether the library's final
	// counts matched the graphlog's declared expectations.
	VerticesMatched bool
	EdgesMatched    bool

	// RandomVertexID is sampled from the first positive-weight edge in load
	// order (the first loaded batch that has one), for analytics clients
	// that need a BFS/SSSP root.
	RandomVertexID uint64

	ReportedTimes []int64

	// Latencies is the concatenation of every worker's private latency
	// samples, in microseconds. Empty unless latency measurement was
	// enabled.
	Latencies []int64
}
