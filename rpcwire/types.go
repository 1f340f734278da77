// Package rpcwire implements the length-prefixed binary request/response
// protocol the RpcServer speaks: a fixed little-endian frame (u32 length,
// u32 type tag, payload) carrying fixed-width integer, double, boolean and
// length-prefixed string fields.
package rpcwire

// RequestType identifies the operation a request frame carries.
type RequestType uint32

const (
	TerminateWorker RequestType = iota
	TerminateServer
	TerminateOnLastConnection
	LibraryName

	OnMainInit
	OnMainDestroy
	OnThreadInit
	OnThreadDestroy

	NumEdges
	NumVertices
	IsDirected
	HasVertex
	HasEdge
	GetWeight

	AddVertex
	RemoveVertex
	AddEdge
	RemoveEdge
	Load

	BFS
	PageRank
	WCC
	CDLP
	LCC
	SSSP

	DumpClient
)

func (t RequestType) String() string {
	switch t {
	case TerminateWorker:
		return "TERMINATE_WORKER"
	case TerminateServer:
		return "TERMINATE_SERVER"
	case TerminateOnLastConnection:
		return "TERMINATE_ON_LAST_CONNECTION"
	case LibraryName:
		return "LIBRARY_NAME"
	case OnMainInit:
		return "ON_MAIN_INIT"
	case OnMainDestroy:
		return "ON_MAIN_DESTROY"
	case OnThreadInit:
		return "ON_THREAD_INIT"
	case OnThreadDestroy:
		return "ON_THREAD_DESTROY"
	case NumEdges:
		return "NUM_EDGES"
	case NumVertices:
		return "NUM_VERTICES"
	case IsDirected:
		return "IS_DIRECTED"
	case HasVertex:
		return "HAS_VERTEX"
	case HasEdge:
		return "HAS_EDGE"
	case GetWeight:
		return "GET_WEIGHT"
	case AddVertex:
		return "ADD_VERTEX"
	case RemoveVertex:
		return "REMOVE_VERTEX"
	case AddEdge:
		return "ADD_EDGE"
	case RemoveEdge:
		return "REMOVE_EDGE"
	case Load:
		return "LOAD"
	case BFS:
		return "BFS"
	case PageRank:
		return "PAGERANK"
	case WCC:
		return "WCC"
	case CDLP:
		return "CDLP"
	case LCC:
		return "LCC"
	case SSSP:
		return "SSSP"
	case DumpClient:
		return "DUMP_CLIENT"
	default:
		return "UNKNOWN"
	}
}

// ResponseType is the first field of every response frame.
type ResponseType uint32

const (
	OK ResponseType = iota
	NotSupported
	ErrorResponse
)

func (t ResponseType) String() string {
	switch t {
	case OK:
		return "OK"
	case NotSupported:
		return "NOT_SUPPORTED"
	case ErrorResponse:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MaxMessageSize bounds a single frame's length. Frames above this are a
// protocol error and close the connection.
const MaxMessageSize = 1 << 20
