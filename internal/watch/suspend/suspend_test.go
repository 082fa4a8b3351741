package suspend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jcn363/MintMind/internal/rpcproto"
)

func TestRecordFailureSuspendsAtThreshold(t *testing.T) {
	sup := New(nil)
	path := "/some/path"

	for i := 0; i < FailureThreshold-1; i++ {
		if sup.RecordFailure(path) {
			t.Fatalf("suspended too early at failure %d", i+1)
		}
	}
	if !sup.RecordFailure(path) {
		t.Fatal("expected suspension at the failure threshold")
	}
	if !sup.IsSuspended(path) {
		t.Fatal("expected path to be suspended")
	}
}

func TestRecordSuccessResetsFailureCount(t *testing.T) {
	sup := New(nil)
	path := "/some/path"

	sup.RecordFailure(path)
	sup.RecordFailure(path)
	sup.RecordSuccess(path)

	for i := 0; i < FailureThreshold-1; i++ {
		if sup.RecordFailure(path) {
			t.Fatalf("suspended too early after reset, at failure %d", i+1)
		}
	}
}

func TestCheckResurrectionEmitsExactlyOneAddedEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target.txt")

	var emitted []rpcproto.FileChange
	sup := New(func(change rpcproto.FileChange) {
		emitted = append(emitted, change)
	})

	for i := 0; i < FailureThreshold; i++ {
		sup.RecordFailure(path)
	}
	if !sup.IsSuspended(path) {
		t.Fatal("expected path to be suspended")
	}

	if sup.CheckResurrection(path) {
		t.Fatal("expected no resurrection before the target exists")
	}
	if len(emitted) != 0 {
		t.Fatalf("expected no events yet, got %v", emitted)
	}

	if err := os.WriteFile(path, []byte("back"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !sup.CheckResurrection(path) {
		t.Fatal("expected resurrection to be detected")
	}
	if sup.IsSuspended(path) {
		t.Fatal("expected path to no longer be suspended")
	}
	if len(emitted) != 1 {
		t.Fatalf("expected exactly one Added event, got %d", len(emitted))
	}
	if emitted[0].ChangeType != rpcproto.ChangeAdded {
		t.Fatalf("expected ChangeAdded, got %v", emitted[0].ChangeType)
	}

	// A second check against an already-resumed path is a no-op.
	if sup.CheckResurrection(path) {
		t.Fatal("expected no further resurrection once already resumed")
	}
	if len(emitted) != 1 {
		t.Fatalf("expected still exactly one event, got %d", len(emitted))
	}
}

func TestResumeClearsSuspendedAndFailureState(t *testing.T) {
	sup := New(nil)
	path := "/some/path"
	for i := 0; i < FailureThreshold; i++ {
		sup.RecordFailure(path)
	}
	sup.Resume(path)
	if sup.IsSuspended(path) {
		t.Fatal("expected path to no longer be suspended after Resume")
	}
}

func TestSetCorrelationIDCarriesThroughToResurrectionEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target.txt")

	var emitted rpcproto.FileChange
	sup := New(func(change rpcproto.FileChange) {
		emitted = change
	})
	for i := 0; i < FailureThreshold; i++ {
		sup.RecordFailure(path)
	}

	id := uint32(42)
	sup.SetCorrelationID(path, &id)

	if err := os.WriteFile(path, []byte("back"), 0o644); err != nil {
		t.Fatal(err)
	}
	sup.CheckResurrection(path)

	if emitted.CorrelationID == nil || *emitted.CorrelationID != 42 {
		t.Fatalf("expected correlation id 42 to carry through, got %v", emitted.CorrelationID)
	}
}
