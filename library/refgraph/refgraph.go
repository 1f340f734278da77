// Package refgraph is a reference GraphLibrary implementation used by the
// driver's own tests and by the gfe-driver binary. Badger is the durable
// snapshot backing store; mutations are held in an in-memory index between
// build() calls and flushed to badger by Build.
package refgraph

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/blang/semver"
	"github.com/dgraph-io/badger/v3"
	"github.com/twinj/uuid"

	"github.com/cwida/gfe-driver/gfelog"
	"github.com/cwida/gfe-driver/library"
)

// Config configures a reference library instance.
type Config struct {
	// Path is the badger data directory. Empty means in-memory only.
	Path string

	// Directed selects whether edges are tracked per-direction or as
	// unordered pairs.
	Directed bool
}

type edgeKey struct {
	source      uint64
	destination uint64
}

func (c Config) normalize(k edgeKey) edgeKey {
	if c.Directed || k.source <= k.destination {
		return k
	}
	return edgeKey{source: k.destination, destination: k.source}
}

// Library is a small, concurrency-safe, badger-backed GraphLibrary.
type Library struct {
	cfg Config
	db  *badger.DB
	id  uuid.UUID

	mu       sync.RWMutex
	vertices map[uint64]struct{}
	edges    map[edgeKey]float64

	threadsMu sync.Mutex
	threads   map[int]bool

	building  int32
	numBuilds uint64
}

var _ library.GraphLibrary = (*Library)(nil)
var _ library.UpdateTier = (*Library)(nil)

// Open creates a reference library. An empty cfg.Path runs badger fully
// in-memory, convenient for unit tests.
func Open(cfg Config) (*Library, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, gfelog.Wrap(gfelog.Io, err, "opening badger store at %q", cfg.Path)
	}
	return &Library{
		cfg:      cfg,
		db:       db,
		id:       uuid.NewV4(),
		vertices: make(map[uint64]struct{}),
		edges:    make(map[edgeKey]float64),
		threads:  make(map[int]bool),
	}, nil
}

func (l *Library) Descriptor() library.Descriptor {
	return library.Descriptor{Name: "refgraph", Version: semver.MustParse("0.1.0")}
}

func (l *Library) OnMainInit(numThreads int) error {
	gfelog.Infof("refgraph[%s]: main init for %d threads", l.id, numThreads)
	return nil
}

func (l *Library) OnMainDestroy() error {
	return l.db.Close()
}

func (l *Library) OnThreadInit(threadID int) error {
	l.threadsMu.Lock()
	defer l.threadsMu.Unlock()
	if l.threads[threadID] {
		return gfelog.Newf(gfelog.Fatal, "thread %d already registered", threadID)
	}
	l.threads[threadID] = true
	return nil
}

func (l *Library) OnThreadDestroy(threadID int) error {
	l.threadsMu.Lock()
	defer l.threadsMu.Unlock()
	if !l.threads[threadID] {
		return gfelog.Newf(gfelog.Fatal, "thread %d was never registered", threadID)
	}
	delete(l.threads, threadID)
	return nil
}

func (l *Library) IsDirected() bool { return l.cfg.Directed }

func (l *Library) NumVertices() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.vertices))
}

func (l *Library) NumEdges() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.edges))
}

func (l *Library) HasVertex(id uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, found := l.vertices[id]
	return found
}

func (l *Library) HasEdge(source, destination uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, found := l.edges[l.cfg.normalize(edgeKey{source, destination})]
	return found
}

func (l *Library) GetWeight(source, destination uint64) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	w, found := l.edges[l.cfg.normalize(edgeKey{source, destination})]
	return w, found
}

func (l *Library) AddVertex(id uint64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.vertices[id] = struct{}{}
	return true, nil
}

func (l *Library) RemoveVertex(id uint64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.vertices, id)
	return true, nil
}

// AddEdge reports false ("retry") when either endpoint has not yet been
// committed via AddVertex, per the update tier's contract.
func (l *Library) AddEdge(e library.Edge) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, found := l.vertices[e.Source]; !found {
		return false, nil
	}
	if _, found := l.vertices[e.Destination]; !found {
		return false, nil
	}
	l.edges[l.cfg.normalize(edgeKey{e.Source, e.Destination})] = e.Weight
	return true, nil
}

func (l *Library) RemoveEdge(p library.EdgePair) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.edges, l.cfg.normalize(edgeKey{p.Source, p.Destination}))
	return true, nil
}

// Build materializes the in-memory mutation set into badger as a durable,
// queryable snapshot. Only one Build may run at a time.
func (l *Library) Build() error {
	if !atomic.CompareAndSwapInt32(&l.building, 0, 1) {
		return gfelog.Newf(gfelog.Fatal, "concurrent build() invocation detected")
	}
	defer atomic.StoreInt32(&l.building, 0)

	l.mu.RLock()
	vertices := make([]uint64, 0, len(l.vertices))
	for id := range l.vertices {
		vertices = append(vertices, id)
	}
	edges := make(map[edgeKey]float64, len(l.edges))
	for k, w := range l.edges {
		edges[k] = w
	}
	l.mu.RUnlock()

	err := l.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefix(txn, []byte("v:")); err != nil {
			return err
		}
		if err := deletePrefix(txn, []byte("e:")); err != nil {
			return err
		}
		for _, id := range vertices {
			if err := txn.Set(vertexKey(id), nil); err != nil {
				return err
			}
		}
		for k, w := range edges {
			if err := txn.Set(edgeStoreKey(k), encodeWeight(w)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return gfelog.Wrap(gfelog.LibraryError, err, "build() snapshot commit failed")
	}
	atomic.AddUint64(&l.numBuilds, 1)
	return nil
}

// NumBuilds reports how many times Build has completed, exposed for tests
// that cross-check BuildService's own invocation counter.
func (l *Library) NumBuilds() uint64 {
	return atomic.LoadUint64(&l.numBuilds)
}

func (l *Library) Updates() (library.UpdateTier, bool)      { return l, true }
func (l *Library) Loader() (library.LoaderTier, bool)       { return nil, false }
func (l *Library) Analytics() (library.AnalyticsTier, bool) { return nil, false }

func vertexKey(id uint64) []byte {
	b := make([]byte, 10)
	copy(b, "v:")
	binary.BigEndian.PutUint64(b[2:], id)
	return b
}

func edgeStoreKey(k edgeKey) []byte {
	b := make([]byte, 18)
	copy(b, "e:")
	binary.BigEndian.PutUint64(b[2:10], k.source)
	binary.BigEndian.PutUint64(b[10:18], k.destination)
	return b
}

func encodeWeight(w float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(w))
	return b
}

func deletePrefix(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
