package aging

import (
	"testing"
	"time"
)

func TestBuildServiceInertWhenFrequencyZero(t *testing.T) {
	lib := newFakeLibrary()
	svc, err := NewBuildService(lib, 0, 0)
	if err != nil {
		t.Fatalf("NewBuildService() error = %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if svc.Invocations() != 0 {
		t.Fatalf("Invocations() = %d, want 0", svc.Invocations())
	}
}

func TestBuildServiceInvokesBuildPeriodically(t *testing.T) {
	lib := newFakeLibrary()
	svc, err := NewBuildService(lib, 0, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("NewBuildService() error = %v", err)
	}
	time.Sleep(40 * time.Millisecond)
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if svc.Invocations() == 0 {
		t.Fatalf("Invocations() = 0, want at least one tick to have fired")
	}
}
