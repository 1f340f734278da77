// Package aging implements the Aging2 workload driver: it replays a
// pre-recorded graphlog of edge insertions and deletions against a
// library.GraphLibrary across a fixed pool of partitioned worker threads,
// coordinating a background build/snapshot service and recording
// throughput and latency.
package aging

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/cwida/gfe-driver/gfelog"
	"github.com/cwida/gfe-driver/graphlog"
	"github.com/cwida/gfe-driver/library"
)

// Params are the construction-time parameters of an AgingMaster.
type Params struct {
	Library        library.GraphLibrary
	GraphlogPath   string
	NumThreads     uint64
	Granularity    uint64
	BuildFrequency time.Duration
	ReportsPerOps  uint64
	MeasureLatency bool
}

// AgingMaster orchestrates the full Aging2 experiment: loading, execution,
// vertex removal, and result collection.
type AgingMaster struct {
	params   Params
	updates  library.UpdateTier
	workers  []*AgingWorker
	progress *progressArray

	masterThreadID int

	props  map[string]string
	result Result
}

// NewAgingMaster parses the graphlog header, sizes the progress array,
// brackets the library with on_main_init, and spawns workers in an idle
// state.
func NewAgingMaster(params Params) (*AgingMaster, error) {
	updates, err := library.RequireUpdates(params.Library)
	if err != nil {
		return nil, err
	}

	props, err := graphlog.ParseProperties(params.GraphlogPath)
	if err != nil {
		return nil, err
	}

	numArtificialVertices, err := graphlog.PropertyUint64(props, graphlog.PropTemporaryVertices)
	if err != nil {
		return nil, err
	}
	numVerticesLoad, err := graphlog.PropertyUint64(props, graphlog.PropFinalVertices)
	if err != nil {
		return nil, err
	}
	numEdgesLoad, err := graphlog.PropertyUint64(props, graphlog.PropFinalEdges)
	if err != nil {
		return nil, err
	}
	numOperationsTotal, err := graphlog.PropertyUint64(props, graphlog.PropTotalOperations)
	if err != nil {
		return nil, err
	}

	m := &AgingMaster{
		params:         params,
		updates:        updates,
		progress:       newProgressArray(numOperationsTotal, numEdgesLoad, params.ReportsPerOps),
		masterThreadID: int(params.NumThreads),
		props:          props,
		result: Result{
			Threads:               params.NumThreads,
			NumArtificialVertices: numArtificialVertices,
			NumVerticesLoad:       numVerticesLoad,
			NumEdgesLoad:          numEdgesLoad,
			NumOperationsTotal:    numOperationsTotal,
		},
	}

	// master + build service, in addition to the worker pool.
	if err := params.Library.OnMainInit(int(params.NumThreads) + 2); err != nil {
		return nil, gfelog.Wrap(gfelog.LibraryError, err, "on_main_init")
	}
	m.initWorkers()
	if err := params.Library.OnThreadInit(m.masterThreadID); err != nil {
		return nil, gfelog.Wrap(gfelog.LibraryError, err, "master: on_thread_init")
	}
	return m, nil
}

func (m *AgingMaster) initWorkers() {
	timer := gfelog.NewTimeLog()
	gfelog.Infof("[Aging2] Initialising %d worker threads ...", m.params.NumThreads)

	m.workers = make([]*AgingWorker, m.params.NumThreads)
	for id := uint64(0); id < m.params.NumThreads; id++ {
		m.workers[id] = NewAgingWorker(int(id), m.params.NumThreads, m.params.Library, m.updates, m.params.Granularity, m.params.MeasureLatency, m.progress)
	}
	timer.Infof("[Aging2] Workers initialised in")
}

// Close releases the resources NewAgingMaster acquired: the master's own
// thread bracket and the library's process-wide bracket.
func (m *AgingMaster) Close() error {
	if err := m.params.Library.OnThreadDestroy(m.masterThreadID); err != nil {
		return gfelog.Wrap(gfelog.LibraryError, err, "master: on_thread_destroy")
	}
	if err := m.params.Library.OnMainDestroy(); err != nil {
		return gfelog.Wrap(gfelog.LibraryError, err, "on_main_destroy")
	}
	return nil
}

// Execute runs the full experiment: load_edges, do_run_experiment,
// remove_vertices, store_results, in that order, and returns the
// immutable Result.
func (m *AgingMaster) Execute() (Result, error) {
	if err := m.loadEdges(); err != nil {
		return Result{}, err
	}
	if err := m.doRunExperiment(); err != nil {
		return Result{}, err
	}
	if err := m.removeVertices(); err != nil {
		return Result{}, err
	}
	m.storeResults()
	m.logNumVtxEdges()
	return m.result, nil
}

// loadEdges streams the EDGES section through a double buffer: while one
// batch is being fanned out to the workers, the next is read from disk.
func (m *AgingMaster) loadEdges() error {
	timer := gfelog.NewTimeLog()
	gfelog.Infof("[Aging2] Loading the sequence of updates to perform from %s ...", m.params.GraphlogPath)

	blockSize, err := graphlog.PropertyUint64(m.props, graphlog.PropBlockSize)
	if err != nil {
		return err
	}
	capacity := int(blockSize / 3)
	if capacity == 0 {
		capacity = 1
	}

	f, err := graphlog.OpenSection(m.params.GraphlogPath, m.props, graphlog.SectionEdges)
	if err != nil {
		return err
	}
	defer f.Close()
	loader := graphlog.NewEdgeLoader(m.props, f)

	current := newEdgeBatch(capacity)
	next := newEdgeBatch(capacity)
	n, err := loader.Load(current.sources, current.destinations, current.weights, capacity)
	if err != nil {
		return err
	}

	for n > 0 {
		var wg sync.WaitGroup
		for _, w := range m.workers {
			w := w
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.LoadEdges(current.sources, current.destinations, current.weights, n)
			}()
		}
		if m.result.RandomVertexID == 0 {
			m.sampleRandomVertexID(current.sources, current.weights, n)
		}

		var nextN int
		var loadErr error
		nextN, loadErr = loader.Load(next.sources, next.destinations, next.weights, capacity)

		wg.Wait()
		if loadErr != nil {
			return loadErr
		}

		current, next = next, current
		n = nextN
	}

	timer.Infof("[Aging2] Graphlog loaded in")
	return nil
}

// sampleRandomVertexID records a vertex id from the first positive-weight
// edge seen so far, for analytics clients that need a BFS/SSSP root. The
// load loop keeps calling it until a candidate is found.
func (m *AgingMaster) sampleRandomVertexID(sources []uint64, weights []float64, n int) {
	for i := 0; i < n; i++ {
		if weights[i] > 0 {
			m.result.RandomVertexID = sources[i]
			return
		}
	}
}

// doRunExperiment starts the background BuildService, fans out
// execute_updates to every worker, waits, stops the service, and flushes
// one final build.
func (m *AgingMaster) doRunExperiment() error {
	gfelog.Infof("[Aging2] Experiment started ...")
	m.progress.begin()

	buildService, err := NewBuildService(m.params.Library, m.masterThreadID+1, m.params.BuildFrequency)
	if err != nil {
		return err
	}

	start := time.Now()
	var g errgroup.Group
	for _, w := range m.workers {
		w := w
		g.Go(w.ExecuteUpdates)
	}
	runErr := g.Wait()

	if err := buildService.Stop(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}

	if err := m.params.Library.Build(); err != nil {
		return gfelog.Wrap(gfelog.LibraryError, err, "final build()")
	}
	elapsed := time.Since(start)

	opsPerSec := float64(m.result.NumOperationsTotal) / elapsed.Seconds()
	gfelog.Infof("[Aging2] Experiment completed!")
	gfelog.Infof("[Aging2] Updates performed with %d threads in %s", m.params.NumThreads, elapsed)
	gfelog.Infof("[Aging2] Throughput: %s ops/sec", humanize.Comma(int64(opsPerSec)))
	m.result.CompletionTime = elapsed
	m.result.NumBuildInvocations = buildService.Invocations()
	return nil
}

// removeVertices parses the VTX_TEMP section, fans the artificial vertex
// ids out to the workers in stride order, and flushes a final build.
func (m *AgingMaster) removeVertices() error {
	timer := gfelog.NewTimeLog()
	gfelog.Infof("[Aging2] Removing the list of temporary vertices ...")

	f, err := graphlog.OpenSection(m.params.GraphlogPath, m.props, graphlog.SectionVtxTemp)
	if err != nil {
		return err
	}
	defer f.Close()

	vertices := make([]uint64, 0, m.result.NumArtificialVertices)
	loader := graphlog.NewVertexLoader(m.props, f)
	buf := make([]uint64, 4096)
	for {
		n, err := loader.Load(buf, len(buf))
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		vertices = append(vertices, buf[:n]...)
	}

	var g errgroup.Group
	for _, w := range m.workers {
		w := w
		g.Go(func() error { return w.RemoveVertices(vertices) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := m.params.Library.Build(); err != nil {
		return gfelog.Wrap(gfelog.LibraryError, err, "build() after remove_vertices")
	}

	expansionFactor := float64(m.result.NumArtificialVertices+m.result.NumVerticesLoad) / float64(m.result.NumVerticesLoad)
	gfelog.Infof("[Aging2] Number of extra vertices: %d, expansion factor: %f", m.result.NumArtificialVertices, expansionFactor)
	timer.Infof("[Aging2] Temporary vertices removed in")
	return nil
}

// storeResults reads the library's final counts and the progress array
// snapshot into the immutable Result.
func (m *AgingMaster) storeResults() {
	m.result.NumVerticesFinalGraph = m.params.Library.NumVertices()
	m.result.NumEdgesFinalGraph = m.params.Library.NumEdges()
	m.result.VerticesMatched = m.result.NumVerticesLoad == m.result.NumVerticesFinalGraph
	m.result.EdgesMatched = m.result.NumEdgesLoad == m.result.NumEdgesFinalGraph
	m.result.ReportedTimes = m.progress.snapshot()

	if m.params.MeasureLatency {
		var total int
		for _, w := range m.workers {
			total += len(w.Latencies())
		}
		latencies := make([]int64, 0, total)
		for _, w := range m.workers {
			latencies = append(latencies, w.Latencies()...)
		}
		m.result.Latencies = latencies
	}
}

// logNumVtxEdges logs whether the final vertex/edge counts matched the
// graphlog's declared expectations, supplementing the raw counts recorded
// in Result with an explicit match-check line.
func (m *AgingMaster) logNumVtxEdges() {
	if m.result.VerticesMatched {
		gfelog.Infof("[Aging2] Number of stored vertices: %d [match: yes]", m.result.NumVerticesFinalGraph)
	} else {
		gfelog.Infof("[Aging2] Number of stored vertices: %d [match: no, expected %d]", m.result.NumVerticesFinalGraph, m.result.NumVerticesLoad)
	}
	if m.result.EdgesMatched {
		gfelog.Infof("[Aging2] Number of stored edges: %d [match: yes]", m.result.NumEdgesFinalGraph)
	} else {
		gfelog.Infof("[Aging2] Number of stored edges: %d [match: no, expected %d]", m.result.NumEdgesFinalGraph, m.result.NumEdgesLoad)
	}
}

type edgeBatch struct {
	sources      []uint64
	destinations []uint64
	weights      []float64
}

func newEdgeBatch(capacity int) edgeBatch {
	return edgeBatch{
		sources:      make([]uint64, capacity),
		destinations: make([]uint64, capacity),
		weights:      make([]float64, capacity),
	}
}
