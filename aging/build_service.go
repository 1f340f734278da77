package aging

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwida/gfe-driver/gfelog"
	"github.com/cwida/gfe-driver/library"
)

// BuildService is a standalone background goroutine that periodically
// flushes the library's buffered mutations into a queryable snapshot by
// calling Build. Only one BuildService may be active per library at a
// time; the caller (AgingMaster) guarantees this.
type BuildService struct {
	lib         library.GraphLibrary
	threadID    int
	frequency   time.Duration
	invocations uint64 // atomic

	stop chan struct{}
	done sync.WaitGroup
}

// NewBuildService registers threadID with the library and starts the
// periodic build loop. A frequency of zero produces an inert service: it
// registers its thread id, reports zero invocations, and Stop returns
// immediately.
func NewBuildService(lib library.GraphLibrary, threadID int, frequency time.Duration) (*BuildService, error) {
	if err := lib.OnThreadInit(threadID); err != nil {
		return nil, gfelog.Wrap(gfelog.LibraryError, err, "build service: on_thread_init")
	}

	s := &BuildService{
		lib:       lib,
		threadID:  threadID,
		frequency: frequency,
		stop:      make(chan struct{}),
	}
	if frequency <= 0 {
		return s, nil
	}

	s.done.Add(1)
	go s.run()
	return s, nil
}

func (s *BuildService) run() {
	defer s.done.Done()
	ticker := time.NewTicker(s.frequency)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.lib.Build(); err != nil {
				gfelog.Errorf("build service: build() failed: %v", err)
				continue
			}
			atomic.AddUint64(&s.invocations, 1)
		}
	}
}

// Stop signals the build loop to exit, joins it, and unregisters the
// service's thread with the library.
func (s *BuildService) Stop() error {
	if s.frequency > 0 {
		close(s.stop)
		s.done.Wait()
	}
	return s.lib.OnThreadDestroy(s.threadID)
}

// Invocations returns the number of completed build() calls so far.
func (s *BuildService) Invocations() uint64 {
	return atomic.LoadUint64(&s.invocations)
}
