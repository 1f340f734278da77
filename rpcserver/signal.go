package rpcserver

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cwida/gfe-driver/gfelog"
)

// Process signals are global, so exactly one Server may be registered
// with the signal bridge at a time.
var (
	signalMu   sync.Mutex
	registered *Server
	sigCh      chan os.Signal
)

// Install registers server to receive SIGINT/SIGTERM and call Stop on
// receipt. Registering a second instance while one is already installed
// is rejected.
func Install(server *Server) error {
	signalMu.Lock()
	defer signalMu.Unlock()

	if registered == server {
		return nil // already installed
	}
	if registered != nil {
		return gfelog.Newf(gfelog.Fatal, "a signal handler is already installed for another server instance")
	}

	registered = server
	sigCh = make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range sigCh {
			gfelog.Infof("[server] Signal received `%v'", sig)
			server.Stop()
		}
	}()
	return nil
}

// Uninstall stops routing signals to server and clears the registration
// slot. signal.Stop only unregisters this channel; any outer
// signal.Notify registration the host process made before Install is
// unaffected, which is the closest to a sigaction-style save/restore the
// os/signal API allows.
func Uninstall(server *Server) {
	signalMu.Lock()
	defer signalMu.Unlock()

	if registered != server {
		return
	}
	signal.Stop(sigCh)
	close(sigCh)
	registered = nil
	sigCh = nil
}
