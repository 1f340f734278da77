// Package resultstore appends completed Aging2 experiment results to an
// external result sink, one msgpack-encoded row per experiment run.
package resultstore

import (
	"time"

	"github.com/cwida/gfe-driver/aging"
)

// ResultRow is the on-disk, msgpack-encodable shape of an aging.Result: a
// flat record of fixed-width fields and two variable-length integer
// arrays, the unit the ResultRecorder appends to the sink.
type ResultRow struct {
	LibraryName           string
	Timestamp             int64 // unix seconds when the row was recorded
	Threads               uint64
	CompletionTimeMicros  int64
	NumBuildInvocations   uint64
	NumVerticesFinalGraph uint64
	NumEdgesFinalGraph    uint64
	NumVerticesLoad       uint64
	NumEdgesLoad          uint64
	NumOperationsTotal    uint64
	NumArtificialVertices uint64
	VerticesMatched       bool
	EdgesMatched          bool
	RandomVertexID        uint64
	ReportedTimes         []int64
	Latencies             []int64
}

// NewResultRow flattens an aging.Result into its storable row shape.
func NewResultRow(libraryName string, recordedAt time.Time, r aging.Result) ResultRow {
	return ResultRow{
		LibraryName:           libraryName,
		Timestamp:             recordedAt.Unix(),
		Threads:               r.Threads,
		CompletionTimeMicros:  r.CompletionTime.Microseconds(),
		NumBuildInvocations:   r.NumBuildInvocations,
		NumVerticesFinalGraph: r.NumVerticesFinalGraph,
		NumEdgesFinalGraph:    r.NumEdgesFinalGraph,
		NumVerticesLoad:       r.NumVerticesLoad,
		NumEdgesLoad:          r.NumEdgesLoad,
		NumOperationsTotal:    r.NumOperationsTotal,
		NumArtificialVertices: r.NumArtificialVertices,
		VerticesMatched:       r.VerticesMatched,
		EdgesMatched:          r.EdgesMatched,
		RandomVertexID:        r.RandomVertexID,
		ReportedTimes:         append([]int64(nil), r.ReportedTimes...),
		Latencies:             append([]int64(nil), r.Latencies...),
	}
}
