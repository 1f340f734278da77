package rpcserver

import (
	"io"
	"net"
	"sync/atomic"

	"github.com/cwida/gfe-driver/gfelog"
	"github.com/cwida/gfe-driver/library"
	"github.com/cwida/gfe-driver/rpcwire"
)

// handleConnection owns conn for its lifetime: a sequential
// request/response loop that exits on TERMINATE_WORKER, a closed socket,
// or an unknown request tag.
func (s *Server) handleConnection(conn net.Conn) {
	active := atomic.AddInt64(&s.activeConnections, 1)
	gfelog.Infof("[server] Connection opened, num active connections: %d", active)
	defer func() {
		remaining := atomic.AddInt64(&s.activeConnections, -1)
		gfelog.Infof("[server] Connection terminated, remaining active connections: %d", remaining)
	}()

	for {
		typ, req, err := rpcwire.ReadRequest(conn)
		if err != nil {
			if err == io.EOF {
				gfelog.Infof("[server] Connection closed by the remote end without sending a TERMINATE_WORKER message")
				return
			}
			gfelog.Errorf("[server] recv error: %v", err)
			return
		}

		terminate, err := s.dispatch(conn, typ, req)
		if err != nil {
			gfelog.Errorf("[server] %v", err)
			return
		}
		if terminate {
			return
		}
	}
}

// dispatch decodes and executes one request, writing its response. The
// returned bool is true when the connection should close after this
// request (TERMINATE_WORKER or TERMINATE_SERVER).
func (s *Server) dispatch(conn net.Conn, typ rpcwire.RequestType, r *rpcwire.Reader) (bool, error) {
	switch typ {
	case rpcwire.TerminateWorker:
		return true, rpcwire.WriteOK(conn, nil)

	case rpcwire.TerminateServer:
		if err := rpcwire.WriteOK(conn, nil); err != nil {
			return true, err
		}
		s.Stop()
		return true, nil

	case rpcwire.TerminateOnLastConnection:
		atomic.StoreInt32(&s.terminateOnLastConnection, 1)
		return false, rpcwire.WriteOK(conn, nil)

	case rpcwire.LibraryName:
		return false, rpcwire.WriteOK(conn, rpcwire.NewWriter().String(s.libraryName))

	case rpcwire.OnMainInit:
		n, _ := r.Uint64()
		return s.callVoid(conn, func() error { return s.lib.OnMainInit(int(n)) })
	case rpcwire.OnMainDestroy:
		return s.callVoid(conn, s.lib.OnMainDestroy)
	case rpcwire.OnThreadInit:
		id, _ := r.Uint64()
		return s.callVoid(conn, func() error { return s.lib.OnThreadInit(int(id)) })
	case rpcwire.OnThreadDestroy:
		id, _ := r.Uint64()
		return s.callVoid(conn, func() error { return s.lib.OnThreadDestroy(int(id)) })

	case rpcwire.NumEdges:
		return false, rpcwire.WriteOK(conn, rpcwire.NewWriter().Uint64(s.lib.NumEdges()))
	case rpcwire.NumVertices:
		return false, rpcwire.WriteOK(conn, rpcwire.NewWriter().Uint64(s.lib.NumVertices()))
	case rpcwire.IsDirected:
		return false, rpcwire.WriteOK(conn, rpcwire.NewWriter().Bool(s.lib.IsDirected()))
	case rpcwire.HasVertex:
		v, _ := r.Uint64()
		return false, rpcwire.WriteOK(conn, rpcwire.NewWriter().Bool(s.lib.HasVertex(v)))
	case rpcwire.HasEdge:
		src, _ := r.Uint64()
		dst, _ := r.Uint64()
		return false, rpcwire.WriteOK(conn, rpcwire.NewWriter().Bool(s.lib.HasEdge(src, dst)))
	case rpcwire.GetWeight:
		src, _ := r.Uint64()
		dst, _ := r.Uint64()
		w, found := s.lib.GetWeight(src, dst)
		if !found {
			w = 0
		}
		return false, rpcwire.WriteOK(conn, rpcwire.NewWriter().Float64(w))

	case rpcwire.Load:
		path, _ := r.String()
		loader, ok := s.lib.Loader()
		if !ok {
			return false, rpcwire.WriteNotSupported(conn)
		}
		gfelog.Infof("[server] Attempting to load the graph from path: %s", path)
		if err := loader.Load(path); err != nil {
			return false, s.writeLibraryError(conn, err)
		}
		return false, rpcwire.WriteOK(conn, nil)

	case rpcwire.AddVertex:
		id, _ := r.Uint64()
		return s.withUpdates(conn, func(u library.UpdateTier) (bool, error) { return u.AddVertex(id) })
	case rpcwire.RemoveVertex:
		id, _ := r.Uint64()
		return s.withUpdates(conn, func(u library.UpdateTier) (bool, error) { return u.RemoveVertex(id) })
	case rpcwire.AddEdge:
		src, _ := r.Uint64()
		dst, _ := r.Uint64()
		weight, _ := r.Float64()
		return s.withUpdates(conn, func(u library.UpdateTier) (bool, error) {
			return u.AddEdge(library.Edge{Source: src, Destination: dst, Weight: weight})
		})
	case rpcwire.RemoveEdge:
		src, _ := r.Uint64()
		dst, _ := r.Uint64()
		return s.withUpdates(conn, func(u library.UpdateTier) (bool, error) {
			return u.RemoveEdge(library.EdgePair{Source: src, Destination: dst})
		})

	case rpcwire.BFS:
		root, _ := r.Uint64()
		path, _ := r.String()
		return s.withAnalytics(conn, func(a library.AnalyticsTier) error { return a.BFS(root, path) })
	case rpcwire.PageRank:
		iters, _ := r.Uint64()
		damping, _ := r.Float64()
		path, _ := r.String()
		return s.withAnalytics(conn, func(a library.AnalyticsTier) error { return a.PageRank(iters, damping, path) })
	case rpcwire.WCC:
		path, _ := r.String()
		return s.withAnalytics(conn, func(a library.AnalyticsTier) error { return a.WCC(path) })
	case rpcwire.CDLP:
		maxIter, _ := r.Uint64()
		path, _ := r.String()
		return s.withAnalytics(conn, func(a library.AnalyticsTier) error { return a.CDLP(maxIter, path) })
	case rpcwire.LCC:
		path, _ := r.String()
		return s.withAnalytics(conn, func(a library.AnalyticsTier) error { return a.LCC(path) })
	case rpcwire.SSSP:
		root, _ := r.Uint64()
		path, _ := r.String()
		return s.withAnalytics(conn, func(a library.AnalyticsTier) error { return a.SSSP(root, path) })

	case rpcwire.DumpClient:
		return false, rpcwire.WriteDumpClientResponse(conn, s.dumpDiagnostics())

	default:
		return true, gfelog.Newf(gfelog.Protocol, "invalid request type: %d", typ)
	}
}

func (s *Server) callVoid(conn net.Conn, fn func() error) (bool, error) {
	if err := fn(); err != nil {
		return false, s.writeLibraryError(conn, err)
	}
	return false, rpcwire.WriteOK(conn, nil)
}

func (s *Server) withUpdates(conn net.Conn, fn func(library.UpdateTier) (bool, error)) (bool, error) {
	updates, ok := s.lib.Updates()
	if !ok {
		return false, rpcwire.WriteNotSupported(conn)
	}
	result, err := fn(updates)
	if err != nil {
		return false, s.writeLibraryError(conn, err)
	}
	return false, rpcwire.WriteOK(conn, rpcwire.NewWriter().Bool(result))
}

func (s *Server) withAnalytics(conn net.Conn, fn func(library.AnalyticsTier) error) (bool, error) {
	analytics, ok := s.lib.Analytics()
	if !ok {
		return false, rpcwire.WriteNotSupported(conn)
	}
	if err := fn(analytics); err != nil {
		return false, s.writeLibraryError(conn, err)
	}
	return false, rpcwire.WriteOK(conn, nil)
}

// writeLibraryError turns a recoverable library error into an ERROR
// response. It returns only the error of writing that response, so a
// library error by itself never drops the connection.
func (s *Server) writeLibraryError(conn net.Conn, err error) error {
	return rpcwire.WriteError(conn, err.Error())
}

func (s *Server) dumpDiagnostics() string {
	return s.lib.Descriptor().Name + " " + s.lib.Descriptor().Version.String()
}
