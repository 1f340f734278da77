package graphlog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// edgeBatch is one uint64/uint64/float64 triple-array record as it appears
// in the EDGES section.
type edgeBatch struct {
	sources      []uint64
	destinations []uint64
	weights      []float64
}

// writeTestGraphlog assembles a minimal graphlog file for reader tests. It
// is test-only: the core never defines or ships a graphlog writer.
func writeTestGraphlog(t *testing.T, batches []edgeBatch, vtxTemp []uint64, props map[string]string) string {
	t.Helper()

	const markerWidth = 20 // fixed width so header length is stable across passes
	fmtMarkerFixed := func(v int64) string { return fmt.Sprintf("%0*d", markerWidth, v) }

	all := map[string]string{}
	for k, v := range props {
		all[k] = v
	}
	all[propMarkerEdges] = fmtMarkerFixed(0)
	all[propMarkerVtxTemp] = fmtMarkerFixed(0)

	header := func() []byte {
		var buf bytes.Buffer
		buf.Write(Magic[:])
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&buf, "%s=%s\n", k, all[k])
		}
		buf.WriteString("\n")
		return buf.Bytes()
	}

	headerLen := int64(len(header()))

	var edgesSection bytes.Buffer
	for _, b := range batches {
		n := uint32(len(b.sources))
		binary.Write(&edgesSection, binary.LittleEndian, n)
		for _, v := range b.sources {
			binary.Write(&edgesSection, binary.LittleEndian, v)
		}
		for _, v := range b.destinations {
			binary.Write(&edgesSection, binary.LittleEndian, v)
		}
		for _, w := range b.weights {
			binary.Write(&edgesSection, binary.LittleEndian, math.Float64bits(w))
		}
	}
	binary.Write(&edgesSection, binary.LittleEndian, uint32(0)) // EOF sentinel

	var vtxSection bytes.Buffer
	binary.Write(&vtxSection, binary.LittleEndian, uint32(len(vtxTemp)))
	for _, v := range vtxTemp {
		binary.Write(&vtxSection, binary.LittleEndian, v)
	}

	all[propMarkerEdges] = fmtMarkerFixed(headerLen)
	all[propMarkerVtxTemp] = fmtMarkerFixed(headerLen + int64(edgesSection.Len()))

	path := filepath.Join(t.TempDir(), "sample.graphlog")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := f.Write(header()); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(edgesSection.Bytes()); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(vtxSection.Bytes()); err != nil {
		t.Fatal(err)
	}
	return path
}
