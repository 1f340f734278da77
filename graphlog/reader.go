package graphlog

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/golang/snappy"

	"github.com/cwida/gfe-driver/gfelog"
)

// OpenSection opens path and seeks to the marker offset recorded for
// section in props, the analogue of reader::graphlog::set_marker.
func OpenSection(path string, props map[string]string, section Section) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gfelog.Wrap(gfelog.Io, err, "opening graphlog %q", path)
	}
	offset, err := sectionOffset(props, section)
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return nil, gfelog.Wrap(gfelog.Io, err, "seeking to section %q", section)
	}
	return f, nil
}

func sectionReader(props map[string]string, f *os.File) io.Reader {
	var r io.Reader = bufio.NewReader(f)
	if props[PropCompression] == "snappy" {
		r = snappy.NewReader(r)
	}
	return r
}

// EdgeLoader streams batches out of the EDGES section, three parallel
// arrays (sources, destinations, weights) at a time.
type EdgeLoader struct {
	r io.Reader
}

// NewEdgeLoader positions an EdgeLoader at the EDGES section of the open
// graphlog file f, which must already be seeked via OpenSection.
func NewEdgeLoader(props map[string]string, f *os.File) *EdgeLoader {
	return &EdgeLoader{r: sectionReader(props, f)}
}

// Load fills sources, destinations and weights (each of length capacity)
// with the next batch of up to capacity edges, and returns how many edges
// were read. It returns 0, nil at a clean end of the EDGES section.
func (l *EdgeLoader) Load(sources, destinations []uint64, weights []float64, capacity int) (int, error) {
	if len(sources) < capacity || len(destinations) < capacity || len(weights) < capacity {
		return 0, gfelog.Newf(gfelog.Fatal, "buffer capacity %d exceeds backing array length", capacity)
	}

	var recordLen uint32
	if err := binary.Read(l.r, binary.LittleEndian, &recordLen); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, gfelog.Wrap(gfelog.BadLog, err, "reading edge batch length")
	}
	if recordLen == 0 {
		return 0, nil
	}
	n := int(recordLen)
	if n > capacity {
		return 0, gfelog.Newf(gfelog.BadLog, "edge batch of %d exceeds buffer capacity %d", n, capacity)
	}

	for i := 0; i < n; i++ {
		if err := binary.Read(l.r, binary.LittleEndian, &sources[i]); err != nil {
			return 0, gfelog.Wrap(gfelog.BadLog, err, "truncated EDGES section (sources)")
		}
	}
	for i := 0; i < n; i++ {
		if err := binary.Read(l.r, binary.LittleEndian, &destinations[i]); err != nil {
			return 0, gfelog.Wrap(gfelog.BadLog, err, "truncated EDGES section (destinations)")
		}
	}
	for i := 0; i < n; i++ {
		var bits uint64
		if err := binary.Read(l.r, binary.LittleEndian, &bits); err != nil {
			return 0, gfelog.Wrap(gfelog.BadLog, err, "truncated EDGES section (weights)")
		}
		weights[i] = math.Float64frombits(bits)
	}
	return n, nil
}

// VertexLoader streams the flat vertex-id array out of the VTX_TEMP
// section, used to remove the artificial vertices created during replay.
type VertexLoader struct {
	r         io.Reader
	remaining int64
	started   bool
}

// NewVertexLoader positions a VertexLoader at the VTX_TEMP section of the
// open graphlog file f.
func NewVertexLoader(props map[string]string, f *os.File) *VertexLoader {
	return &VertexLoader{r: sectionReader(props, f)}
}

// Load fills out (length capacity) with up to capacity vertex ids and
// returns how many were read, 0 at end of section.
func (l *VertexLoader) Load(out []uint64, capacity int) (int, error) {
	if len(out) < capacity {
		return 0, gfelog.Newf(gfelog.Fatal, "buffer capacity %d exceeds backing array length", capacity)
	}
	if !l.started {
		var total uint32
		if err := binary.Read(l.r, binary.LittleEndian, &total); err != nil {
			if err == io.EOF {
				return 0, nil
			}
			return 0, gfelog.Wrap(gfelog.BadLog, err, "reading VTX_TEMP count")
		}
		l.remaining = int64(total)
		l.started = true
	}
	if l.remaining == 0 {
		return 0, nil
	}
	n := capacity
	if int64(n) > l.remaining {
		n = int(l.remaining)
	}
	for i := 0; i < n; i++ {
		if err := binary.Read(l.r, binary.LittleEndian, &out[i]); err != nil {
			return 0, gfelog.Wrap(gfelog.BadLog, err, "truncated VTX_TEMP section")
		}
	}
	l.remaining -= int64(n)
	return n, nil
}
