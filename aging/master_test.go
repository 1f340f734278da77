package aging

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/cwida/gfe-driver/graphlog"
)

// writeSampleGraphlog assembles a minimal valid graphlog file exercising
// AgingMaster end to end, independent of graphlog's own (unexported)
// test-only writer.
func writeSampleGraphlog(t *testing.T) string {
	t.Helper()

	type batch struct {
		sources, destinations []uint64
		weights               []float64
	}
	batches := []batch{
		{sources: []uint64{1, 3}, destinations: []uint64{2, 4}, weights: []float64{1, 1}},
		{sources: []uint64{2}, destinations: []uint64{1}, weights: []float64{-1}},
	}
	vtxTemp := []uint64{100, 101}

	const markerWidth = 20
	fixed := func(v int64) string { return fmt.Sprintf("%0*d", markerWidth, v) }

	props := map[string]string{
		graphlog.PropTemporaryVertices: "2",
		graphlog.PropFinalVertices:     "4",
		graphlog.PropFinalEdges:        "1",
		graphlog.PropTotalOperations:   "3",
		graphlog.PropBlockSize:         "9",
		"internal.marker.edges":        fixed(0),
		"internal.marker.vtx_temp":     fixed(0),
	}

	header := func() []byte {
		var buf bytes.Buffer
		buf.Write(graphlog.Magic[:])
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&buf, "%s=%s\n", k, props[k])
		}
		buf.WriteString("\n")
		return buf.Bytes()
	}
	headerLen := int64(len(header()))

	var edges bytes.Buffer
	for _, b := range batches {
		binary.Write(&edges, binary.LittleEndian, uint32(len(b.sources)))
		for _, v := range b.sources {
			binary.Write(&edges, binary.LittleEndian, v)
		}
		for _, v := range b.destinations {
			binary.Write(&edges, binary.LittleEndian, v)
		}
		for _, w := range b.weights {
			binary.Write(&edges, binary.LittleEndian, math.Float64bits(w))
		}
	}
	binary.Write(&edges, binary.LittleEndian, uint32(0))

	var vtx bytes.Buffer
	binary.Write(&vtx, binary.LittleEndian, uint32(len(vtxTemp)))
	for _, v := range vtxTemp {
		binary.Write(&vtx, binary.LittleEndian, v)
	}

	props["internal.marker.edges"] = fixed(headerLen)
	props["internal.marker.vtx_temp"] = fixed(headerLen + int64(edges.Len()))

	path := filepath.Join(t.TempDir(), "sample.graphlog")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.Write(header()); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(edges.Bytes()); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(vtx.Bytes()); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAgingMasterExecuteEndToEnd(t *testing.T) {
	lib := newFakeLibrary()
	path := writeSampleGraphlog(t)

	m, err := NewAgingMaster(Params{
		Library:        lib,
		GraphlogPath:   path,
		NumThreads:     2,
		Granularity:    1,
		BuildFrequency: 0,
		ReportsPerOps:  1,
		MeasureLatency: true,
	})
	if err != nil {
		t.Fatalf("NewAgingMaster() error = %v", err)
	}
	defer m.Close()

	result, err := m.Execute()
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !lib.HasEdge(1, 2) {
		t.Errorf("edge (1,2) should have been committed")
	}
	if lib.HasEdge(2, 1) {
		t.Errorf("edge (2,1) should be absent: the log only deletes it and the fake library is directed")
	}
	if lib.vertices[100] || lib.vertices[101] {
		t.Errorf("artificial vertices should have been removed")
	}
	if result.RandomVertexID == 0 {
		t.Errorf("RandomVertexID should have been sampled from a positive-weight edge")
	}
	if result.CompletionTime <= 0 {
		t.Errorf("CompletionTime should be positive")
	}
	if len(result.Latencies) == 0 {
		t.Errorf("Latencies should be populated when MeasureLatency is set")
	}
}
