package resultstore

import (
	"io"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/tinylib/msgp/msgp"

	"github.com/cwida/gfe-driver/gfelog"
)

// Sink appends one encoded ResultRow to an external result store. Recorder
// is the only production implementation; tests substitute their own.
type Sink interface {
	Append(row ResultRow) error
}

// Recorder appends msgpack-encoded ResultRow values to a single
// append-only file, one row per experiment run. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	path string
}

var _ Sink = (*Recorder)(nil)

// NewRecorder returns a Recorder appending to path, creating it if absent.
func NewRecorder(path string) *Recorder {
	return &Recorder{path: path}
}

// Append opens the sink file in append mode, encodes row, and closes it.
func (rec *Recorder) Append(row ResultRow) error {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	f, err := os.OpenFile(rec.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return gfelog.Wrap(gfelog.Io, err, "opening result store %q", rec.path)
	}
	defer f.Close()

	w := msgp.NewWriter(f)
	if err := row.EncodeMsg(w); err != nil {
		return gfelog.Wrap(gfelog.Io, err, "encoding result row")
	}
	if err := w.Flush(); err != nil {
		return gfelog.Wrap(gfelog.Io, err, "flushing result row")
	}
	gfelog.Debugf("resultstore: appended row for %q (%s) to %s", row.LibraryName, humanize.Bytes(uint64(row.Msgsize())), rec.path)
	return nil
}

// ReadAll decodes every row appended to path, in order, for inspection or
// post-processing tools.
func ReadAll(path string) ([]ResultRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gfelog.Wrap(gfelog.Io, err, "opening result store %q", path)
	}
	defer f.Close()

	r := msgp.NewReader(f)
	var rows []ResultRow
	for {
		var row ResultRow
		if err := row.DecodeMsg(r); err != nil {
			if err == io.EOF {
				break
			}
			return rows, gfelog.Wrap(gfelog.Io, err, "decoding result row")
		}
		rows = append(rows, row)
	}
	return rows, nil
}
