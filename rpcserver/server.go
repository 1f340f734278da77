// Package rpcserver exposes a library.GraphLibrary's update and analytics
// surface to remote clients over the rpcwire binary protocol: a TCP accept
// loop with a 1-second-timeout poll, one handler per connection, and
// cooperative shutdown via a signal bridge.
package rpcserver

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sys/unix"

	"github.com/cwida/gfe-driver/gfelog"
	"github.com/cwida/gfe-driver/library"
)

// maxTrackedConnections bounds the number of concurrently tracked handler
// goroutines, guarding against unbounded resource growth under a
// connection flood.
const maxTrackedConnections = 4096

// shutdownGrace is how long Shutdown waits for in-flight handlers to exit
// on their own before force-closing their sockets.
const shutdownGrace = 5 * time.Second

// Server is the RPC front end for one library.GraphLibrary instance.
type Server struct {
	lib         library.GraphLibrary
	libraryName string
	port        int

	listener *net.TCPListener

	stopped                   int32 // atomic
	terminateOnLastConnection int32 // atomic
	activeConnections         int64 // atomic

	sem   *semaphore.Weighted
	wg    sync.WaitGroup
	conns sync.Map // net.Conn -> struct{}

	loopDone chan struct{}
	ready    chan struct{}
}

// NewServer builds a Server bound to no socket yet; call ListenAndServe to
// start accepting connections.
func NewServer(lib library.GraphLibrary, libraryName string, port int, terminateOnLastConnection bool) *Server {
	s := &Server{
		lib:         lib,
		libraryName: libraryName,
		port:        port,
		sem:         semaphore.NewWeighted(maxTrackedConnections),
		loopDone:    make(chan struct{}),
		ready:       make(chan struct{}),
	}
	if terminateOnLastConnection {
		s.terminateOnLastConnection = 1
	}
	return s
}

// ListenAndServe binds the configured port with SO_REUSEADDR, installs the
// signal bridge, and runs the accept loop until Stop is called. A bind
// failure is returned; accept errors are logged and the loop continues.
func (s *Server) ListenAndServe() error {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
		},
	}
	ln, err := lc.Listen(context.Background(), "tcp", portAddr(s.port))
	if err != nil {
		return gfelog.Wrap(gfelog.Io, err, "binding port %d", s.port)
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return gfelog.Newf(gfelog.Fatal, "listener is not a *net.TCPListener")
	}
	s.listener = tcpLn
	close(s.ready)

	if err := Install(s); err != nil {
		tcpLn.Close()
		return err
	}
	defer Uninstall(s)

	gfelog.Infof("[server] Server listening to port: %d", s.port)
	s.acceptLoop()
	gfelog.Infof("[server] Connection loop terminated")

	// Join in-flight handlers here, not only when an external caller
	// invokes Shutdown: the accept loop can also stop because of a
	// TERMINATE_SERVER request or a signal-driven Stop(), and in either
	// case the server must still drain its connections before returning.
	if s.listener != nil {
		s.listener.Close()
	}
	s.joinHandlers()
	return nil
}

func (s *Server) acceptLoop() {
	defer close(s.loopDone)
	for !s.isStopped() {
		s.listener.SetDeadline(time.Now().Add(1 * time.Second))
		conn, err := s.listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if atomic.LoadInt32(&s.terminateOnLastConnection) == 1 && atomic.LoadInt64(&s.activeConnections) == 0 {
					s.Stop()
				}
				continue
			}
			if s.isStopped() {
				break
			}
			gfelog.Errorf("[server] accept error: %v", err)
			continue
		}

		if !s.sem.TryAcquire(1) {
			gfelog.Warningf("[server] too many concurrent connections, rejecting new connection")
			conn.Close()
			continue
		}
		s.conns.Store(conn, struct{}{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.sem.Release(1)
			defer s.conns.Delete(conn)
			defer conn.Close()
			s.handleConnection(conn)
		}()
	}
}

// Stop requests the accept loop to exit. Safe to call from the signal
// bridge or from a TERMINATE_SERVER request handler.
func (s *Server) Stop() {
	atomic.StoreInt32(&s.stopped, 1)
}

func (s *Server) isStopped() bool {
	return atomic.LoadInt32(&s.stopped) == 1
}

// Addr returns the bound listener address, valid only after
// ListenAndServe has started accepting connections. Mainly useful for
// tests that bind an ephemeral port (port 0).
func (s *Server) Addr() net.Addr {
	<-s.ready
	return s.listener.Addr()
}

// Shutdown stops the accept loop, closes the listener, and joins every
// tracked handler goroutine, force-closing stragglers after a grace
// period. Handlers are tracked rather than detached so a blocked handler
// cannot leak past shutdown. Safe to call concurrently
// with a ListenAndServe running in another goroutine (as ordinary callers
// do); ListenAndServe performs the same join itself once its accept loop
// returns, so the two converge on the same drained state either way.
func (s *Server) Shutdown() {
	s.Stop()
	if s.listener != nil {
		s.listener.Close()
	}
	<-s.loopDone
	s.joinHandlers()
}

// joinHandlers waits for every tracked connection handler to finish on
// its own, force-closing any still-open sockets after shutdownGrace.
func (s *Server) joinHandlers() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(shutdownGrace):
	}

	s.conns.Range(func(key, _ interface{}) bool {
		if conn, ok := key.(net.Conn); ok {
			conn.Close()
		}
		return true
	})
	s.wg.Wait()
}

func portAddr(port int) string {
	return net.JoinHostPort("", strconv.Itoa(port))
}
