package resource

import (
	"errors"
	"testing"
	"time"
)

func TestRegisterTracksCountAndBytes(t *testing.T) {
	r := NewRegistry()
	h1, h2 := "handle-1", "handle-2"

	r.Register(TypeBuffer, h1, func() error { return nil }, Options{Bytes: 100, Label: "vertices"})
	r.Register(TypeBuffer, h2, func() error { return nil }, Options{Bytes: 200, Label: "indices"})

	d := r.GetDiagnostics()
	if d.CurrentResources != 2 {
		t.Fatalf("CurrentResources = %d, want 2", d.CurrentResources)
	}
	if d.CurrentBytes != 300 {
		t.Fatalf("CurrentBytes = %d, want 300", d.CurrentBytes)
	}
	if d.PeakResources != 2 || d.PeakBytes != 300 {
		t.Fatalf("peaks not tracked: %+v", d)
	}
}

func TestRegisterWithNilHandleIsNoOp(t *testing.T) {
	r := NewRegistry()
	entry := r.Register(TypeTexture, nil, func() error { return nil }, Options{})
	if entry != nil {
		t.Fatalf("Register with nil handle must return nil, got %+v", entry)
	}
	if d := r.GetDiagnostics(); d.CurrentResources != 0 {
		t.Fatalf("nil-handle register must not be tracked, got %+v", d)
	}
}

func TestReleaseDoesNotInvokeDisposer(t *testing.T) {
	r := NewRegistry()
	disposed := false
	r.Register(TypeShader, "h", func() error { disposed = true; return nil }, Options{})

	if !r.Release(TypeShader, "h") {
		t.Fatalf("Release should report true for a tracked handle")
	}
	if disposed {
		t.Fatalf("Release must not invoke the disposer")
	}
	if d := r.GetDiagnostics(); d.CurrentResources != 0 {
		t.Fatalf("Release must remove the entry, got %+v", d)
	}
}

func TestDisposeInvokesDisposerAndSwallowsError(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Register(TypeProgram, "p", func() error { called = true; return errors.New("boom") }, Options{})

	if !r.Dispose(TypeProgram, "p") {
		t.Fatalf("Dispose should report true for a tracked handle")
	}
	if !called {
		t.Fatalf("Dispose must invoke the disposer")
	}
}

func TestDisposeTypeRemovesEveryEntryOfThatType(t *testing.T) {
	r := NewRegistry()
	r.Register(TypeVAO, "a", func() error { return nil }, Options{})
	r.Register(TypeVAO, "b", func() error { return nil }, Options{})
	r.Register(TypeBuffer, "c", func() error { return nil }, Options{})

	n := r.DisposeType(TypeVAO)
	if n != 2 {
		t.Fatalf("DisposeType count = %d, want 2", n)
	}
	d := r.GetDiagnostics()
	if d.CurrentResources != 1 {
		t.Fatalf("only the buffer entry should remain, got %+v", d)
	}
}

func TestLifetimeNetEqualsCurrentResources(t *testing.T) {
	r := NewRegistry()
	r.Register(TypeBuffer, "a", func() error { return nil }, Options{})
	r.Register(TypeBuffer, "b", func() error { return nil }, Options{})
	r.Dispose(TypeBuffer, "a")

	d := r.GetDiagnostics()
	if d.Lifetime.Net != int64(d.CurrentResources) {
		t.Fatalf("lifetime net (%d) must equal currentResources (%d)", d.Lifetime.Net, d.CurrentResources)
	}
	if d.Lifetime.TotalAllocations != 2 || d.Lifetime.TotalDeallocations != 1 {
		t.Fatalf("unexpected lifetime counts: %+v", d.Lifetime)
	}
}

func TestPeakNeverDecreasesAfterDispose(t *testing.T) {
	r := NewRegistry()
	r.Register(TypeBuffer, "a", func() error { return nil }, Options{Bytes: 10})
	r.Register(TypeBuffer, "b", func() error { return nil }, Options{Bytes: 10})
	r.Dispose(TypeBuffer, "a")
	r.Dispose(TypeBuffer, "b")

	d := r.GetDiagnostics()
	if d.PeakResources < d.CurrentResources {
		t.Fatalf("peak (%d) must be >= current (%d)", d.PeakResources, d.CurrentResources)
	}
	if d.PeakResources != 2 {
		t.Fatalf("peak should remain 2 after disposal, got %d", d.PeakResources)
	}
}

func TestFrameDeltaTracksChangeBetweenBeginAndEnd(t *testing.T) {
	r := NewRegistry()
	r.Register(TypeBuffer, "a", func() error { return nil }, Options{Bytes: 50})

	r.BeginFrame()
	r.Register(TypeBuffer, "b", func() error { return nil }, Options{Bytes: 25})
	r.EndFrame()

	d := r.GetDiagnostics()
	if d.FrameDelta.Resources != 1 {
		t.Fatalf("FrameDelta.Resources = %d, want 1", d.FrameDelta.Resources)
	}
	if d.FrameDelta.Bytes != 25 {
		t.Fatalf("FrameDelta.Bytes = %d, want 25", d.FrameDelta.Bytes)
	}
}

func TestDetectLeaksListsOldEntries(t *testing.T) {
	r := NewRegistry()
	r.Register(TypeTexture, "old", func() error { return nil }, Options{Label: "atlas"})

	leaks := r.DetectLeaks(time.Nanosecond)
	if len(leaks) != 1 {
		t.Fatalf("expected 1 leak with a near-zero threshold, got %d", len(leaks))
	}
	if leaks[0].Label != "atlas" {
		t.Fatalf("unexpected leak entry: %+v", leaks[0])
	}

	if leaks := r.DetectLeaks(time.Hour); len(leaks) != 0 {
		t.Fatalf("expected 0 leaks with a 1-hour threshold, got %d", len(leaks))
	}
}

func TestGetHistoryFiltersByTypeAndAction(t *testing.T) {
	r := NewRegistry()
	r.Register(TypeBuffer, "a", func() error { return nil }, Options{})
	r.Register(TypeTexture, "b", func() error { return nil }, Options{})
	r.Dispose(TypeBuffer, "a")

	allocs := r.GetHistory(HistoryFilter{Action: ActionAlloc})
	if len(allocs) != 2 {
		t.Fatalf("expected 2 alloc events, got %d", len(allocs))
	}
	frees := r.GetHistory(HistoryFilter{Type: TypeBuffer, Action: ActionFree})
	if len(frees) != 1 {
		t.Fatalf("expected 1 free event for buffers, got %d", len(frees))
	}
}

func TestExportDiagnosticsJSONRoundTripsCounts(t *testing.T) {
	r := NewRegistry()
	r.Register(TypeBuffer, "a", func() error { return nil }, Options{Bytes: 64})

	raw, err := r.ExportDiagnosticsJSON()
	if err != nil {
		t.Fatalf("ExportDiagnosticsJSON error: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("expected non-empty JSON")
	}
}

func TestGetSummaryStringIsNonEmpty(t *testing.T) {
	r := NewRegistry()
	r.Register(TypeBuffer, "a", func() error { return nil }, Options{Bytes: 64})
	if s := r.GetSummaryString(); s == "" {
		t.Fatalf("GetSummaryString must not be empty")
	}
}
