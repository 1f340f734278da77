package resultstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cwida/gfe-driver/aging"
)

func TestRecorderAppendAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.msgp")
	rec := NewRecorder(path)

	r1 := aging.Result{Threads: 4, CompletionTime: 2 * time.Second, NumVerticesFinalGraph: 10, ReportedTimes: []int64{1, 2, 3}}
	r2 := aging.Result{Threads: 8, CompletionTime: 3 * time.Second, NumVerticesFinalGraph: 20, Latencies: []int64{5, 6}}

	if err := rec.Append(NewResultRow("refgraph", time.Unix(1000, 0), r1)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := rec.Append(NewResultRow("refgraph", time.Unix(2000, 0), r2)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	rows, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ReadAll() returned %d rows, want 2", len(rows))
	}
	if rows[0].Threads != 4 || rows[0].NumVerticesFinalGraph != 10 || len(rows[0].ReportedTimes) != 3 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Threads != 8 || len(rows[1].Latencies) != 2 {
		t.Errorf("unexpected second row: %+v", rows[1])
	}
	if rows[0].CompletionTimeMicros != 2_000_000 {
		t.Errorf("CompletionTimeMicros = %d, want 2000000", rows[0].CompletionTimeMicros)
	}
}
