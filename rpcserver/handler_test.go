package rpcserver

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/blang/semver"
	"github.com/cwida/gfe-driver/library"
	"github.com/cwida/gfe-driver/rpcwire"
)

type fakeLibrary struct {
	vertices map[uint64]bool
	edges    map[library.EdgePair]float64
	updates  bool
}

func newFakeLibrary(updates bool) *fakeLibrary {
	return &fakeLibrary{vertices: map[uint64]bool{}, edges: map[library.EdgePair]float64{}, updates: updates}
}

func (f *fakeLibrary) OnMainInit(int) error      { return nil }
func (f *fakeLibrary) OnMainDestroy() error      { return nil }
func (f *fakeLibrary) OnThreadInit(int) error    { return nil }
func (f *fakeLibrary) OnThreadDestroy(int) error { return nil }
func (f *fakeLibrary) NumEdges() uint64          { return uint64(len(f.edges)) }
func (f *fakeLibrary) NumVertices() uint64       { return uint64(len(f.vertices)) }
func (f *fakeLibrary) IsDirected() bool          { return true }
func (f *fakeLibrary) HasVertex(id uint64) bool  { return f.vertices[id] }
func (f *fakeLibrary) HasEdge(s, d uint64) bool {
	_, ok := f.edges[library.EdgePair{Source: s, Destination: d}]
	return ok
}
func (f *fakeLibrary) GetWeight(s, d uint64) (float64, bool) {
	w, ok := f.edges[library.EdgePair{Source: s, Destination: d}]
	return w, ok
}
func (f *fakeLibrary) Build() error { return nil }
func (f *fakeLibrary) Descriptor() library.Descriptor {
	return library.Descriptor{Name: "fake", Version: semver.MustParse("1.0.0")}
}
func (f *fakeLibrary) Updates() (library.UpdateTier, bool) {
	if !f.updates {
		return nil, false
	}
	return f, true
}
func (f *fakeLibrary) Loader() (library.LoaderTier, bool)       { return nil, false }
func (f *fakeLibrary) Analytics() (library.AnalyticsTier, bool) { return nil, false }

func (f *fakeLibrary) AddVertex(id uint64) (bool, error) {
	f.vertices[id] = true
	return true, nil
}
func (f *fakeLibrary) RemoveVertex(id uint64) (bool, error) {
	delete(f.vertices, id)
	return true, nil
}
func (f *fakeLibrary) AddEdge(e library.Edge) (bool, error) {
	f.edges[library.EdgePair{Source: e.Source, Destination: e.Destination}] = e.Weight
	return true, nil
}
func (f *fakeLibrary) RemoveEdge(p library.EdgePair) (bool, error) {
	delete(f.edges, p)
	return true, nil
}

func writeRequest(t *testing.T, conn net.Conn, typ rpcwire.RequestType, body *rpcwire.Writer) {
	t.Helper()
	if body == nil {
		body = rpcwire.NewWriter()
	}
	payload := body.Bytes()
	total := 4 + 4 + len(payload)
	frame := make([]byte, total)
	binary.LittleEndian.PutUint32(frame[0:4], uint32(total))
	binary.LittleEndian.PutUint32(frame[4:8], uint32(typ))
	copy(frame[8:], payload)
	if _, err := conn.Write(frame); err != nil {
		t.Fatalf("writing request: %v", err)
	}
}

func readResponse(t *testing.T, conn net.Conn) (rpcwire.ResponseType, *rpcwire.Reader) {
	t.Helper()
	var lenBuf [4]byte
	if _, err := conn.Read(lenBuf[:]); err != nil {
		t.Fatalf("reading response length: %v", err)
	}
	total := binary.LittleEndian.Uint32(lenBuf[:])
	rest := make([]byte, total-4)
	off := 0
	for off < len(rest) {
		n, err := conn.Read(rest[off:])
		if err != nil {
			t.Fatalf("reading response body: %v", err)
		}
		off += n
	}
	status := binary.LittleEndian.Uint32(rest[:4])
	return rpcwire.ResponseType(status), rpcwire.NewReader(rest[4:])
}

func TestDispatchAddEdgeAndHasEdge(t *testing.T) {
	lib := newFakeLibrary(true)
	s := NewServer(lib, "fake", 0, false)

	client, serverSide := net.Pipe()
	defer client.Close()
	go s.handleConnection(serverSide)

	writeRequest(t, client, rpcwire.AddEdge, rpcwire.NewWriter().Uint64(1).Uint64(2).Float64(4.5))
	status, r := readResponse(t, client)
	if status != rpcwire.OK {
		t.Fatalf("AddEdge status = %v, want OK", status)
	}
	ok, _ := r.Bool()
	if !ok {
		t.Fatalf("AddEdge result = false, want true")
	}

	writeRequest(t, client, rpcwire.HasEdge, rpcwire.NewWriter().Uint64(1).Uint64(2))
	status, r = readResponse(t, client)
	if status != rpcwire.OK {
		t.Fatalf("HasEdge status = %v, want OK", status)
	}
	has, _ := r.Bool()
	if !has {
		t.Fatalf("HasEdge = false, want true")
	}

	writeRequest(t, client, rpcwire.TerminateWorker, nil)
	status, _ = readResponse(t, client)
	if status != rpcwire.OK {
		t.Fatalf("TerminateWorker status = %v, want OK", status)
	}
}

func TestDispatchNotSupportedWhenNoUpdateTier(t *testing.T) {
	lib := newFakeLibrary(false)
	s := NewServer(lib, "fake", 0, false)

	client, serverSide := net.Pipe()
	defer client.Close()
	go s.handleConnection(serverSide)

	writeRequest(t, client, rpcwire.AddVertex, rpcwire.NewWriter().Uint64(7))
	status, _ := readResponse(t, client)
	if status != rpcwire.NotSupported {
		t.Fatalf("status = %v, want NOT_SUPPORTED", status)
	}

	writeRequest(t, client, rpcwire.TerminateWorker, nil)
	readResponse(t, client)
}

func TestDispatchLibraryName(t *testing.T) {
	lib := newFakeLibrary(true)
	s := NewServer(lib, "my-library", 0, false)

	client, serverSide := net.Pipe()
	defer client.Close()
	go s.handleConnection(serverSide)

	writeRequest(t, client, rpcwire.LibraryName, nil)
	status, r := readResponse(t, client)
	if status != rpcwire.OK {
		t.Fatalf("status = %v, want OK", status)
	}
	name, _ := r.String()
	if name != "my-library" {
		t.Fatalf("LibraryName = %q, want %q", name, "my-library")
	}

	writeRequest(t, client, rpcwire.TerminateWorker, nil)
	readResponse(t, client)
}

// TestDispatchLifecycleSequence walks a full client session: main init,
// thread init, add_vertex, has_vertex, thread destroy, main destroy. Every
// step must come back OK, and the two query/update steps carry true.
func TestDispatchLifecycleSequence(t *testing.T) {
	lib := newFakeLibrary(true)
	s := NewServer(lib, "fake", 0, false)

	client, serverSide := net.Pipe()
	defer client.Close()
	go s.handleConnection(serverSide)

	steps := []struct {
		typ      rpcwire.RequestType
		body     *rpcwire.Writer
		wantTrue bool
	}{
		{rpcwire.OnMainInit, rpcwire.NewWriter().Uint64(1), false},
		{rpcwire.OnThreadInit, rpcwire.NewWriter().Uint64(0), false},
		{rpcwire.AddVertex, rpcwire.NewWriter().Uint64(42), true},
		{rpcwire.HasVertex, rpcwire.NewWriter().Uint64(42), true},
		{rpcwire.OnThreadDestroy, rpcwire.NewWriter().Uint64(0), false},
		{rpcwire.OnMainDestroy, nil, false},
	}
	for _, step := range steps {
		writeRequest(t, client, step.typ, step.body)
		status, r := readResponse(t, client)
		if status != rpcwire.OK {
			t.Fatalf("%v status = %v, want OK", step.typ, status)
		}
		if step.wantTrue {
			v, err := r.Bool()
			if err != nil || !v {
				t.Fatalf("%v result = (%v, %v), want (true, nil)", step.typ, v, err)
			}
		}
	}

	writeRequest(t, client, rpcwire.TerminateWorker, nil)
	readResponse(t, client)
}

// TestDispatchUnknownTagClosesConnection checks that an unknown request
// type is fatal for that connection: no response, socket closed.
func TestDispatchUnknownTagClosesConnection(t *testing.T) {
	lib := newFakeLibrary(true)
	s := NewServer(lib, "fake", 0, false)

	client, serverSide := net.Pipe()
	defer client.Close()
	done := make(chan struct{})
	go func() {
		s.handleConnection(serverSide)
		close(done)
	}()

	writeRequest(t, client, rpcwire.RequestType(9999), nil)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not close the connection on an unknown request tag")
	}
}

func TestTerminateOnLastConnectionFlag(t *testing.T) {
	lib := newFakeLibrary(true)
	s := NewServer(lib, "fake", 0, false)

	client, serverSide := net.Pipe()
	defer client.Close()
	go s.handleConnection(serverSide)

	writeRequest(t, client, rpcwire.TerminateOnLastConnection, nil)
	status, _ := readResponse(t, client)
	if status != rpcwire.OK {
		t.Fatalf("status = %v, want OK", status)
	}
	time.Sleep(10 * time.Millisecond)
	if s.terminateOnLastConnection != 1 {
		t.Fatalf("terminateOnLastConnection flag not set")
	}

	writeRequest(t, client, rpcwire.TerminateWorker, nil)
	readResponse(t, client)
}
