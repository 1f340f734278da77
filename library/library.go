// Package library defines the GraphLibrary contract the Aging2 driver and
// the RPC server consume. Concrete engines are external collaborators; this
// package only describes the tiered capability surface and the threading
// contract every implementation must honor.
package library

import (
	"github.com/blang/semver"
)

// Edge is a weighted, directed update: weight > 0 is an insertion with that
// weight, weight <= 0 is a deletion (the magnitude is ignored).
type Edge struct {
	Source      uint64
	Destination uint64
	Weight      float64
}

// IsInsertion reports whether this operation inserts rather than deletes.
func (e Edge) IsInsertion() bool { return e.Weight > 0 }

// EdgePair identifies an edge by its endpoints only, for removal.
type EdgePair struct {
	Source      uint64
	Destination uint64
}

// Descriptor identifies a concrete GraphLibrary implementation, reported
// in DUMP_CLIENT diagnostics dumps. The LIBRARY_NAME RPC replies with the
// server's configured library name instead.
type Descriptor struct {
	Name    string
	Version semver.Version
}

// Base is the tier every GraphLibrary implementation must provide.
type Base interface {
	// OnMainInit is a process-wide bracket, called once with the total
	// number of threads (workers + master + build service, or
	// connections + 1 for the RPC server) that will register themselves.
	OnMainInit(numThreads int) error

	// OnMainDestroy tears down whatever OnMainInit allocated.
	OnMainDestroy() error

	// OnThreadInit registers the calling thread for concurrent access.
	// Every thread that issues update or query calls must call this
	// before its first call and OnThreadDestroy after its last.
	OnThreadInit(threadID int) error

	// OnThreadDestroy unregisters a thread registered by OnThreadInit.
	OnThreadDestroy(threadID int) error

	NumEdges() uint64
	NumVertices() uint64
	IsDirected() bool
	HasVertex(id uint64) bool
	HasEdge(source, destination uint64) bool
	GetWeight(source, destination uint64) (weight float64, found bool)

	// Build flushes buffered mutations into a queryable snapshot. Must be
	// called from a single thread at a time (the BuildService thread, or
	// the calling thread at experiment end).
	Build() error

	Descriptor() Descriptor
}

// UpdateTier is the optional dynamic-update capability.
type UpdateTier interface {
	// AddVertex returns true on success. Repeated calls for an already
	// present vertex must be idempotent: never decrease NumVertices, never
	// report "retry" via a false return.
	AddVertex(id uint64) (bool, error)

	RemoveVertex(id uint64) (bool, error)

	// AddEdge returns false to signal "retry": typically one endpoint is
	// not yet committed. Callers retry after (re-)adding both endpoint
	// vertices.
	AddEdge(e Edge) (bool, error)

	RemoveEdge(p EdgePair) (bool, error)
}

// LoaderTier is the optional bulk-loading capability.
type LoaderTier interface {
	Load(path string) error
}

// AnalyticsTier is the optional graph-algorithm capability. An empty
// outputPath means "do not write a result file".
type AnalyticsTier interface {
	BFS(root uint64, outputPath string) error
	PageRank(iterations uint64, damping float64, outputPath string) error
	WCC(outputPath string) error
	CDLP(maxIterations uint64, outputPath string) error
	LCC(outputPath string) error
	SSSP(root uint64, outputPath string) error
}

// GraphLibrary is the full consumed interface. Optional tiers are exposed
// through accessor methods that report whether the tier is supported,
// tested once at setup instead of via run-time downcasts.
type GraphLibrary interface {
	Base

	Updates() (UpdateTier, bool)
	Loader() (LoaderTier, bool)
	Analytics() (AnalyticsTier, bool)
}

// RequireUpdates returns the update tier or a NotSupported error, for
// driver-side setup checks. A missing tier is a setup error on the driver
// side and a NOT_SUPPORTED response on the RPC side.
func RequireUpdates(lib GraphLibrary) (UpdateTier, error) {
	if t, ok := lib.Updates(); ok {
		return t, nil
	}
	return nil, notSupported(lib, "update")
}

// RequireLoader returns the loader tier or a NotSupported error.
func RequireLoader(lib GraphLibrary) (LoaderTier, error) {
	if t, ok := lib.Loader(); ok {
		return t, nil
	}
	return nil, notSupported(lib, "loader")
}

// RequireAnalytics returns the analytics tier or a NotSupported error.
func RequireAnalytics(lib GraphLibrary) (AnalyticsTier, error) {
	if t, ok := lib.Analytics(); ok {
		return t, nil
	}
	return nil, notSupported(lib, "analytics")
}
