package stage

import (
	"errors"
	"math"
	"testing"
)

func TestUpsertThenSnapshot(t *testing.T) {
	r := NewRegistry()
	p, err := r.Upsert("jane", "7")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if p.X != SpawnX || p.Y != SpawnY || p.Angle != 0 {
		t.Fatalf("spawn state = %+v", p)
	}

	snap := r.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("snapshot size = %d, want 1", len(snap))
	}
	if snap[0].ID != "jane" || snap[0].DiagramID != "7" {
		t.Fatalf("snapshot entry = %+v", snap[0])
	}
}

func TestUpsertDefaultDiagram(t *testing.T) {
	r := NewRegistry()
	p, err := r.Upsert("jane", "")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if p.DiagramID != DefaultDiagramID {
		t.Fatalf("diagramID = %q, want %q", p.DiagramID, DefaultDiagramID)
	}
}

func TestDuplicateUpsertLeavesExistingUntouched(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Upsert("jane", "7"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, ok := r.ApplyMotion("jane", 1.5, 2.5, 90); !ok {
		t.Fatalf("apply motion failed")
	}

	_, err := r.Upsert("jane", "9")
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("second upsert err = %v, want ErrDuplicateID", err)
	}
	p, _ := r.Get("jane")
	if p.DiagramID != "7" || p.X != 1.5 || p.Y != 2.5 || p.Angle != 90 {
		t.Fatalf("existing performer mutated by duplicate upsert: %+v", p)
	}
}

func TestApplyMotionUnknownIDIsNoOp(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		if _, ok := r.ApplyMotion("ghost", float64(i), float64(i), 0); ok {
			t.Fatalf("motion for unregistered id accepted")
		}
	}
	if r.Len() != 0 {
		t.Fatalf("registry fabricated a performer from motion events")
	}
}

func TestApplyMotionRejectsNonFinite(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Upsert("jane", ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, ok := r.ApplyMotion("jane", math.NaN(), 1, 0); ok {
		t.Fatalf("NaN x accepted")
	}
	if _, ok := r.ApplyMotion("jane", 1, math.Inf(1), 0); ok {
		t.Fatalf("Inf y accepted")
	}
	p, _ := r.Get("jane")
	if p.X != SpawnX || p.Y != SpawnY {
		t.Fatalf("position corrupted: %+v", p)
	}
}

func TestRemove(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Upsert("jane", ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !r.Remove("jane") {
		t.Fatalf("remove returned false for present id")
	}
	if r.Remove("jane") {
		t.Fatalf("remove returned true for absent id")
	}
	if r.Len() != 0 {
		t.Fatalf("registry not empty after remove")
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Upsert("jane", ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	snap := r.Snapshot()
	if _, ok := r.ApplyMotion("jane", 2, 2, 45); !ok {
		t.Fatalf("apply motion failed")
	}
	if snap[0].X != SpawnX || snap[0].Y != SpawnY {
		t.Fatalf("snapshot mutated by later writes: %+v", snap[0])
	}
}
