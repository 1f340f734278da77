package resultstore

// NOTE: THIS FILE FOLLOWS THE SHAPE OF MSGP CODE GENERATION TOOL OUTPUT
// (github.com/tinylib/msgp) for a fixed-field struct, using the
// array-header convention.

import (
	"github.com/tinylib/msgp/msgp"
)

const resultRowFieldCount = 16

// DecodeMsg implements msgp.Decodable
func (z *ResultRow) DecodeMsg(dc *msgp.Reader) (err error) {
	var asz uint32
	asz, err = dc.ReadArrayHeader()
	if err != nil {
		return
	}
	if asz != resultRowFieldCount {
		err = msgp.ArrayError{Wanted: resultRowFieldCount, Got: asz}
		return
	}

	if z.LibraryName, err = dc.ReadString(); err != nil {
		return
	}
	if z.Timestamp, err = dc.ReadInt64(); err != nil {
		return
	}
	if z.Threads, err = dc.ReadUint64(); err != nil {
		return
	}
	if z.CompletionTimeMicros, err = dc.ReadInt64(); err != nil {
		return
	}
	if z.NumBuildInvocations, err = dc.ReadUint64(); err != nil {
		return
	}
	if z.NumVerticesFinalGraph, err = dc.ReadUint64(); err != nil {
		return
	}
	if z.NumEdgesFinalGraph, err = dc.ReadUint64(); err != nil {
		return
	}
	if z.NumVerticesLoad, err = dc.ReadUint64(); err != nil {
		return
	}
	if z.NumEdgesLoad, err = dc.ReadUint64(); err != nil {
		return
	}
	if z.NumOperationsTotal, err = dc.ReadUint64(); err != nil {
		return
	}
	if z.NumArtificialVertices, err = dc.ReadUint64(); err != nil {
		return
	}
	if z.VerticesMatched, err = dc.ReadBool(); err != nil {
		return
	}
	if z.EdgesMatched, err = dc.ReadBool(); err != nil {
		return
	}
	if z.RandomVertexID, err = dc.ReadUint64(); err != nil {
		return
	}
	if z.ReportedTimes, err = decodeInt64Slice(dc); err != nil {
		return
	}
	if z.Latencies, err = decodeInt64Slice(dc); err != nil {
		return
	}
	return
}

// EncodeMsg implements msgp.Encodable
func (z *ResultRow) EncodeMsg(en *msgp.Writer) (err error) {
	if err = en.WriteArrayHeader(resultRowFieldCount); err != nil {
		return
	}
	if err = en.WriteString(z.LibraryName); err != nil {
		return
	}
	if err = en.WriteInt64(z.Timestamp); err != nil {
		return
	}
	if err = en.WriteUint64(z.Threads); err != nil {
		return
	}
	if err = en.WriteInt64(z.CompletionTimeMicros); err != nil {
		return
	}
	if err = en.WriteUint64(z.NumBuildInvocations); err != nil {
		return
	}
	if err = en.WriteUint64(z.NumVerticesFinalGraph); err != nil {
		return
	}
	if err = en.WriteUint64(z.NumEdgesFinalGraph); err != nil {
		return
	}
	if err = en.WriteUint64(z.NumVerticesLoad); err != nil {
		return
	}
	if err = en.WriteUint64(z.NumEdgesLoad); err != nil {
		return
	}
	if err = en.WriteUint64(z.NumOperationsTotal); err != nil {
		return
	}
	if err = en.WriteUint64(z.NumArtificialVertices); err != nil {
		return
	}
	if err = en.WriteBool(z.VerticesMatched); err != nil {
		return
	}
	if err = en.WriteBool(z.EdgesMatched); err != nil {
		return
	}
	if err = en.WriteUint64(z.RandomVertexID); err != nil {
		return
	}
	if err = encodeInt64Slice(en, z.ReportedTimes); err != nil {
		return
	}
	if err = encodeInt64Slice(en, z.Latencies); err != nil {
		return
	}
	return
}

// MarshalMsg implements msgp.Marshaler
func (z *ResultRow) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendArrayHeader(o, resultRowFieldCount)
	o = msgp.AppendString(o, z.LibraryName)
	o = msgp.AppendInt64(o, z.Timestamp)
	o = msgp.AppendUint64(o, z.Threads)
	o = msgp.AppendInt64(o, z.CompletionTimeMicros)
	o = msgp.AppendUint64(o, z.NumBuildInvocations)
	o = msgp.AppendUint64(o, z.NumVerticesFinalGraph)
	o = msgp.AppendUint64(o, z.NumEdgesFinalGraph)
	o = msgp.AppendUint64(o, z.NumVerticesLoad)
	o = msgp.AppendUint64(o, z.NumEdgesLoad)
	o = msgp.AppendUint64(o, z.NumOperationsTotal)
	o = msgp.AppendUint64(o, z.NumArtificialVertices)
	o = msgp.AppendBool(o, z.VerticesMatched)
	o = msgp.AppendBool(o, z.EdgesMatched)
	o = msgp.AppendUint64(o, z.RandomVertexID)
	o = msgp.AppendArrayHeader(o, uint32(len(z.ReportedTimes)))
	for _, v := range z.ReportedTimes {
		o = msgp.AppendInt64(o, v)
	}
	o = msgp.AppendArrayHeader(o, uint32(len(z.Latencies)))
	for _, v := range z.Latencies {
		o = msgp.AppendInt64(o, v)
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *ResultRow) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var asz uint32
	asz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if asz != resultRowFieldCount {
		err = msgp.ArrayError{Wanted: resultRowFieldCount, Got: asz}
		return
	}

	if z.LibraryName, bts, err = msgp.ReadStringBytes(bts); err != nil {
		return
	}
	if z.Timestamp, bts, err = msgp.ReadInt64Bytes(bts); err != nil {
		return
	}
	if z.Threads, bts, err = msgp.ReadUint64Bytes(bts); err != nil {
		return
	}
	if z.CompletionTimeMicros, bts, err = msgp.ReadInt64Bytes(bts); err != nil {
		return
	}
	if z.NumBuildInvocations, bts, err = msgp.ReadUint64Bytes(bts); err != nil {
		return
	}
	if z.NumVerticesFinalGraph, bts, err = msgp.ReadUint64Bytes(bts); err != nil {
		return
	}
	if z.NumEdgesFinalGraph, bts, err = msgp.ReadUint64Bytes(bts); err != nil {
		return
	}
	if z.NumVerticesLoad, bts, err = msgp.ReadUint64Bytes(bts); err != nil {
		return
	}
	if z.NumEdgesLoad, bts, err = msgp.ReadUint64Bytes(bts); err != nil {
		return
	}
	if z.NumOperationsTotal, bts, err = msgp.ReadUint64Bytes(bts); err != nil {
		return
	}
	if z.NumArtificialVertices, bts, err = msgp.ReadUint64Bytes(bts); err != nil {
		return
	}
	if z.VerticesMatched, bts, err = msgp.ReadBoolBytes(bts); err != nil {
		return
	}
	if z.EdgesMatched, bts, err = msgp.ReadBoolBytes(bts); err != nil {
		return
	}
	if z.RandomVertexID, bts, err = msgp.ReadUint64Bytes(bts); err != nil {
		return
	}
	var rsz uint32
	if rsz, bts, err = msgp.ReadArrayHeaderBytes(bts); err != nil {
		return
	}
	z.ReportedTimes = make([]int64, rsz)
	for i := range z.ReportedTimes {
		if z.ReportedTimes[i], bts, err = msgp.ReadInt64Bytes(bts); err != nil {
			return
		}
	}
	var lsz uint32
	if lsz, bts, err = msgp.ReadArrayHeaderBytes(bts); err != nil {
		return
	}
	z.Latencies = make([]int64, lsz)
	for i := range z.Latencies {
		if z.Latencies[i], bts, err = msgp.ReadInt64Bytes(bts); err != nil {
			return
		}
	}
	o = bts
	return
}

func (z *ResultRow) Msgsize() (s int) {
	s = msgp.ArrayHeaderSize
	s += msgp.StringPrefixSize + len(z.LibraryName)
	s += msgp.Int64Size * 2
	s += msgp.Uint64Size * 9
	s += msgp.BoolSize * 2
	s += msgp.ArrayHeaderSize + len(z.ReportedTimes)*msgp.Int64Size
	s += msgp.ArrayHeaderSize + len(z.Latencies)*msgp.Int64Size
	return
}

func encodeInt64Slice(en *msgp.Writer, vals []int64) error {
	if err := en.WriteArrayHeader(uint32(len(vals))); err != nil {
		return err
	}
	for _, v := range vals {
		if err := en.WriteInt64(v); err != nil {
			return err
		}
	}
	return nil
}

func decodeInt64Slice(dc *msgp.Reader) ([]int64, error) {
	sz, err := dc.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	out := make([]int64, sz)
	for i := range out {
		if out[i], err = dc.ReadInt64(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
