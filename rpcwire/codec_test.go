package rpcwire

import (
	"bytes"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter().Uint64(42).Float64(3.25).Bool(true).String("hello")
	r := NewReader(w.Bytes())

	v, err := r.Uint64()
	if err != nil || v != 42 {
		t.Fatalf("Uint64() = (%d, %v), want (42, nil)", v, err)
	}
	f, err := r.Float64()
	if err != nil || f != 3.25 {
		t.Fatalf("Float64() = (%v, %v), want (3.25, nil)", f, err)
	}
	b, err := r.Bool()
	if err != nil || !b {
		t.Fatalf("Bool() = (%v, %v), want (true, nil)", b, err)
	}
	s, err := r.String()
	if err != nil || s != "hello" {
		t.Fatalf("String() = (%q, %v), want (\"hello\", nil)", s, err)
	}
}

func TestReadRequestRoundTrip(t *testing.T) {
	body := NewWriter().Uint64(7).Uint64(9)

	var buf bytes.Buffer
	total := 4 + 4 + len(body.Bytes())

	// Build a raw request frame by hand: u32 length, u32 type, payload.
	rawLen := make([]byte, 4)
	putUint32LE(rawLen, uint32(total))
	rawType := make([]byte, 4)
	putUint32LE(rawType, uint32(HasEdge))
	buf.Write(rawLen)
	buf.Write(rawType)
	buf.Write(body.Bytes())

	typ, r, err := ReadRequest(&buf)
	if err != nil {
		t.Fatalf("ReadRequest() error = %v", err)
	}
	if typ != HasEdge {
		t.Fatalf("type = %v, want HasEdge", typ)
	}
	src, _ := r.Uint64()
	dst, _ := r.Uint64()
	if src != 7 || dst != 9 {
		t.Fatalf("decoded (%d,%d), want (7,9)", src, dst)
	}
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func TestWriteResponseAndOK(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOK(&buf, NewWriter().Bool(true)); err != nil {
		t.Fatalf("WriteOK() error = %v", err)
	}

	typ, r, err := readResponseHeader(t, buf.Bytes())
	if err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if typ != OK {
		t.Fatalf("status = %v, want OK", typ)
	}
	ok, _ := r.Bool()
	if !ok {
		t.Fatalf("expected true field")
	}
}

func readResponseHeader(t *testing.T, frame []byte) (ResponseType, *Reader, error) {
	t.Helper()
	if len(frame) < 8 {
		t.Fatalf("frame too short: %d", len(frame))
	}
	status := uint32(frame[4]) | uint32(frame[5])<<8 | uint32(frame[6])<<16 | uint32(frame[7])<<24
	return ResponseType(status), NewReader(frame[8:]), nil
}

func TestWriteDumpClientResponseUsesGeneralStringEncoding(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDumpClientResponse(&buf, "diagnostic text"); err != nil {
		t.Fatalf("WriteDumpClientResponse() error = %v", err)
	}
	typ, r, _ := readResponseHeader(t, buf.Bytes())
	if typ != OK {
		t.Fatalf("status = %v, want OK", typ)
	}
	s, err := r.String()
	if err != nil || s != "diagnostic text" {
		t.Fatalf("String() = (%q, %v)", s, err)
	}
}
