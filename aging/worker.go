package aging

import (
	"runtime"
	"time"

	"github.com/cwida/gfe-driver/gfelog"
	"github.com/cwida/gfe-driver/library"
)

// DefaultMaxAddEdgeRetries bounds the number of times a worker retries a
// transient add_edge failure before counting the operation as dropped. An
// unbounded retry would hide a stuck writer instead of surfacing it.
const DefaultMaxAddEdgeRetries = 64

// AgingWorker owns one partition of the update stream: a private queue of
// pending operations filled by the master's loading phase and drained by
// the master's execution phase, plus a private latency sample vector.
type AgingWorker struct {
	id                int
	numWorkers        uint64
	lib               library.GraphLibrary
	updates           library.UpdateTier
	granularity       uint64
	measureLatency    bool
	maxAddEdgeRetries int
	progress          *progressArray

	queue     []library.Edge
	latencies []int64
	dropped   uint64
}

// NewAgingWorker builds a worker responsible for partition id out of
// numWorkers, draining its queue against updates.
func NewAgingWorker(id int, numWorkers uint64, lib library.GraphLibrary, updates library.UpdateTier, granularity uint64, measureLatency bool, progress *progressArray) *AgingWorker {
	return &AgingWorker{
		id:                id,
		numWorkers:        numWorkers,
		lib:               lib,
		updates:           updates,
		granularity:       granularity,
		measureLatency:    measureLatency,
		maxAddEdgeRetries: DefaultMaxAddEdgeRetries,
		progress:          progress,
	}
}

// LoadEdges is the loading phase: a lock-free, read-only scan of a shared
// batch that appends to this worker's private queue only the operations
// whose partition matches its id. Safe to run concurrently with other
// workers scanning the same batch.
func (w *AgingWorker) LoadEdges(sources, destinations []uint64, weights []float64, n int) {
	for i := 0; i < n; i++ {
		if Partition(sources[i], destinations[i], w.numWorkers) != uint64(w.id) {
			continue
		}
		w.queue = append(w.queue, library.Edge{
			Source:      sources[i],
			Destination: destinations[i],
			Weight:      weights[i],
		})
	}
}

// ExecuteUpdates is the execution phase: drains the queue in insertion
// order, dispatching add_edge/remove_edge per the sign of the weight, with
// bounded retry on a transient add_edge failure and granularity-based
// progress checkpoints.
func (w *AgingWorker) ExecuteUpdates() error {
	if err := w.lib.OnThreadInit(w.id); err != nil {
		return gfelog.Wrap(gfelog.LibraryError, err, "worker %d: on_thread_init", w.id)
	}

	var sinceCheckpoint uint64
	for _, op := range w.queue {
		start := time.Now()
		if op.IsInsertion() {
			if err := w.applyAddEdge(op); err != nil {
				return err
			}
		} else {
			if _, err := w.updates.RemoveEdge(library.EdgePair{Source: op.Source, Destination: op.Destination}); err != nil {
				return gfelog.Wrap(gfelog.LibraryError, err, "worker %d: remove_edge(%d,%d)", w.id, op.Source, op.Destination)
			}
		}
		if w.measureLatency {
			w.latencies = append(w.latencies, time.Since(start).Microseconds())
		}

		sinceCheckpoint++
		if sinceCheckpoint >= w.granularity {
			w.progress.advance(sinceCheckpoint)
			sinceCheckpoint = 0
		}
	}
	if sinceCheckpoint > 0 {
		w.progress.advance(sinceCheckpoint)
	}

	w.queue = w.queue[:0]
	if err := w.lib.OnThreadDestroy(w.id); err != nil {
		return gfelog.Wrap(gfelog.LibraryError, err, "worker %d: on_thread_destroy", w.id)
	}
	return nil
}

// applyAddEdge retries a "false" (retry) response from add_edge up to
// maxAddEdgeRetries times, idempotently re-adding both endpoints between
// attempts, before counting the operation as dropped.
func (w *AgingWorker) applyAddEdge(op library.Edge) error {
	for attempt := 0; attempt < w.maxAddEdgeRetries; attempt++ {
		ok, err := w.updates.AddEdge(op)
		if err != nil {
			return gfelog.Wrap(gfelog.LibraryError, err, "worker %d: add_edge(%d,%d)", w.id, op.Source, op.Destination)
		}
		if ok {
			return nil
		}
		if _, err := w.updates.AddVertex(op.Source); err != nil {
			return gfelog.Wrap(gfelog.LibraryError, err, "worker %d: add_vertex(%d)", w.id, op.Source)
		}
		if _, err := w.updates.AddVertex(op.Destination); err != nil {
			return gfelog.Wrap(gfelog.LibraryError, err, "worker %d: add_vertex(%d)", w.id, op.Destination)
		}
		runtime.Gosched()
	}
	w.dropped++
	gfelog.Warningf("worker %d: dropping add_edge(%d,%d) after %d retries", w.id, op.Source, op.Destination, w.maxAddEdgeRetries)
	return nil
}

// RemoveVertices processes the stride slice [id, len(vertices)) step
// numWorkers of the temporary-vertex array, the vertex-removal sub-phase.
// Like ExecuteUpdates it brackets its calls with the per-thread
// registration the library's threading contract requires.
func (w *AgingWorker) RemoveVertices(vertices []uint64) error {
	if err := w.lib.OnThreadInit(w.id); err != nil {
		return gfelog.Wrap(gfelog.LibraryError, err, "worker %d: on_thread_init", w.id)
	}
	for i := uint64(w.id); i < uint64(len(vertices)); i += w.numWorkers {
		if _, err := w.updates.RemoveVertex(vertices[i]); err != nil {
			return gfelog.Wrap(gfelog.LibraryError, err, "worker %d: remove_vertex(%d)", w.id, vertices[i])
		}
	}
	if err := w.lib.OnThreadDestroy(w.id); err != nil {
		return gfelog.Wrap(gfelog.LibraryError, err, "worker %d: on_thread_destroy", w.id)
	}
	return nil
}

// Latencies returns the worker's collected per-call latency samples in
// microseconds, empty unless latency measurement was enabled.
func (w *AgingWorker) Latencies() []int64 {
	return w.latencies
}

// Dropped returns the number of add_edge operations abandoned after
// exhausting their retry budget.
func (w *AgingWorker) Dropped() uint64 {
	return w.dropped
}
