// Package graphlog streams a pre-recorded binary log of edge insertions and
// deletions ("graphlog") without ever holding the whole file in memory. The
// reader owns no heap-resident copy of the log; callers double-buffer
// batches themselves (see the aging package).
package graphlog

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cwida/gfe-driver/gfelog"
)

// Magic is the 4-byte signature every graphlog file starts with.
var Magic = [4]byte{'G', 'F', 'E', 'L'}

// Section identifies one of the named record sections the core consumes.
type Section string

const (
	SectionEdges   Section = "EDGES"
	SectionVtxTemp Section = "VTX_TEMP"
)

// Well-known property keys recognized by the core.
const (
	PropTemporaryVertices = "internal.vertices.temporary.cardinality"
	PropFinalVertices     = "internal.vertices.final.cardinality"
	PropFinalEdges        = "internal.edges.final"
	PropTotalOperations   = "internal.edges.cardinality"
	PropBlockSize         = "internal.edges.block_size"
	PropCompression       = "internal.edges.compression"

	propMarkerEdges   = "internal.marker.edges"
	propMarkerVtxTemp = "internal.marker.vtx_temp"
)

// ParseProperties reads the magic header and property dictionary from path,
// returning the name->value map. The dictionary is a sequence of
// "key=value" text lines terminated by a blank line.
func ParseProperties(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gfelog.Wrap(gfelog.Io, err, "opening graphlog %q", path)
	}
	defer f.Close()
	return parsePropertiesFrom(bufio.NewReader(f))
}

func parsePropertiesFrom(r *bufio.Reader) (map[string]string, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, gfelog.Wrap(gfelog.BadLog, err, "reading graphlog magic")
	}
	if magic != Magic {
		return nil, gfelog.Newf(gfelog.BadLog, "bad magic %q, expected %q", magic, Magic)
	}

	props := make(map[string]string)
	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, gfelog.Wrap(gfelog.BadLog, err, "reading property line")
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, gfelog.Newf(gfelog.BadLog, "malformed property line %q", line)
		}
		props[key] = value
		if err == io.EOF {
			break
		}
	}
	return props, nil
}

// PropertyUint64 parses a required numeric property, failing with BadLog if
// it is absent or not a valid unsigned integer.
func PropertyUint64(props map[string]string, key string) (uint64, error) {
	raw, found := props[key]
	if !found {
		return 0, gfelog.Newf(gfelog.BadLog, "missing required property %q", key)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, gfelog.Wrap(gfelog.BadLog, err, "property %q is not a valid integer", key)
	}
	return v, nil
}

func markerKey(s Section) (string, error) {
	switch s {
	case SectionEdges:
		return propMarkerEdges, nil
	case SectionVtxTemp:
		return propMarkerVtxTemp, nil
	default:
		return "", gfelog.Newf(gfelog.Fatal, "unknown section %q", s)
	}
}

func sectionOffset(props map[string]string, s Section) (int64, error) {
	key, err := markerKey(s)
	if err != nil {
		return 0, err
	}
	raw, found := props[key]
	if !found {
		return 0, gfelog.Newf(gfelog.BadLog, "no marker recorded for section %q", s)
	}
	offset, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, gfelog.Wrap(gfelog.BadLog, err, "marker for section %q is not an offset", s)
	}
	return offset, nil
}
