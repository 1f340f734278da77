package rpcwire

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/cwida/gfe-driver/gfelog"
)

// Reader is a forward-only cursor over one request's payload bytes,
// decoding the fixed-width fields the wire format defines: u64 integers,
// u64 booleans, f64 doubles and u64-length-prefixed strings.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Uint64() (uint64, error) {
	if r.pos+8 > len(r.buf) {
		return 0, gfelog.Newf(gfelog.Protocol, "truncated request: expected 8 more bytes at offset %d", r.pos)
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) Float64() (float64, error) {
	bits, err := r.Uint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func (r *Reader) Bool() (bool, error) {
	v, err := r.Uint64()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (r *Reader) String() (string, error) {
	n, err := r.Uint64()
	if err != nil {
		return "", err
	}
	if n > uint64(len(r.buf)-r.pos) {
		return "", gfelog.Newf(gfelog.Protocol, "truncated request: string of length %d exceeds remaining payload", n)
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// Writer accumulates a response payload field by field in the same
// encoding Reader decodes, returning the finished byte slice via Bytes.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Uint64(v uint64) *Writer {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return w
}

func (w *Writer) Float64(v float64) *Writer {
	return w.Uint64(math.Float64bits(v))
}

func (w *Writer) Bool(v bool) *Writer {
	if v {
		return w.Uint64(1)
	}
	return w.Uint64(0)
}

func (w *Writer) String(s string) *Writer {
	w.Uint64(uint64(len(s)))
	w.buf = append(w.buf, s...)
	return w
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

// ReadRequest reads one frame from r: a 4-byte total length, a 4-byte
// request type tag, then the remaining payload bytes.
func ReadRequest(r io.Reader) (RequestType, *Reader, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, nil, err
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	if length < 8 {
		return 0, nil, gfelog.Newf(gfelog.Protocol, "frame length %d smaller than header", length)
	}
	if length > MaxMessageSize {
		return 0, nil, gfelog.Newf(gfelog.Protocol, "frame length %d exceeds MaxMessageSize %d", length, MaxMessageSize)
	}

	rest := make([]byte, length-4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return 0, nil, gfelog.Wrap(gfelog.Io, err, "reading request body")
	}
	typeTag := binary.LittleEndian.Uint32(rest[:4])
	return RequestType(typeTag), NewReader(rest[4:]), nil
}

// WriteResponse frames and writes a response: status tag followed by
// body's accumulated fields.
func WriteResponse(w io.Writer, status ResponseType, body *Writer) error {
	payload := body.Bytes()
	total := 4 + 4 + len(payload)
	frame := make([]byte, total)
	binary.LittleEndian.PutUint32(frame[0:4], uint32(total))
	binary.LittleEndian.PutUint32(frame[4:8], uint32(status))
	copy(frame[8:], payload)

	if _, err := w.Write(frame); err != nil {
		return gfelog.Wrap(gfelog.Io, err, "writing response")
	}
	return nil
}

// WriteOK writes an OK response carrying body's fields, or no fields when
// body is nil.
func WriteOK(w io.Writer, body *Writer) error {
	if body == nil {
		body = NewWriter()
	}
	return WriteResponse(w, OK, body)
}

// WriteNotSupported writes a NOT_SUPPORTED response, used when the
// configured library lacks the capability tier a request requires.
func WriteNotSupported(w io.Writer) error {
	return WriteResponse(w, NotSupported, NewWriter())
}

// WriteError writes an ERROR response carrying a single message string,
// used when the library raises a recoverable error.
func WriteError(w io.Writer, message string) error {
	return WriteResponse(w, ErrorResponse, NewWriter().String(message))
}

// WriteDumpClientResponse writes the DUMP_CLIENT diagnostic response. The
// dumped text carries an 8-byte length prefix, which is exactly the
// general string encoding every other field already uses, so this simply
// reuses Writer.String.
func WriteDumpClientResponse(w io.Writer, text string) error {
	return WriteResponse(w, OK, NewWriter().String(text))
}
