package server

import (
	"errors"
	"testing"
)

func TestOccupationClaimAndVacate(t *testing.T) {
	m := NewOccupationMap(5, 4)

	if !m.IsFree(2, 3) {
		t.Fatalf("IsFree(2,3) = false, want true on a fresh map")
	}
	if err := m.Claim(2, 3, "p1"); err != nil {
		t.Fatalf("Claim(2,3) = %v, want nil", err)
	}
	if m.IsFree(2, 3) {
		t.Fatalf("IsFree(2,3) = true after claim, want false")
	}
	who, ok := m.OccupantAt(2, 3)
	if !ok || who != "p1" {
		t.Fatalf("OccupantAt(2,3) = %q,%v, want \"p1\",true", who, ok)
	}

	if err := m.Claim(2, 3, "p2"); !errors.Is(err, ErrCellOccupied) {
		t.Fatalf("Claim on occupied cell = %v, want ErrCellOccupied", err)
	}

	m.Vacate(2, 3)
	if !m.IsFree(2, 3) {
		t.Fatalf("IsFree(2,3) = false after vacate, want true")
	}
	// 幂等：重复释放不改变任何状态
	m.Vacate(2, 3)
	if !m.IsFree(2, 3) {
		t.Fatalf("double Vacate changed the cell state")
	}
}

func TestOccupationOutOfBounds(t *testing.T) {
	m := NewOccupationMap(5, 4)
	for _, c := range [][2]int{{-1, 0}, {5, 0}, {0, -1}, {0, 4}} {
		if m.IsFree(c[0], c[1]) {
			t.Fatalf("IsFree(%d,%d) = true, want false outside the grid", c[0], c[1])
		}
		if err := m.Claim(c[0], c[1], "p1"); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Claim(%d,%d) = %v, want ErrOutOfBounds", c[0], c[1], err)
		}
		// 越界释放是无操作，不允许 panic
		m.Vacate(c[0], c[1])
	}
}

func TestOccupationSolidNeverFreed(t *testing.T) {
	m := NewOccupationMap(6, 6)
	if err := m.MarkSolid(1, 1, 2, 3); err != nil {
		t.Fatalf("MarkSolid = %v, want nil", err)
	}
	if m.StateAt(2, 3) != CellSolid {
		t.Fatalf("StateAt(2,3) = %v, want CellSolid", m.StateAt(2, 3))
	}
	if err := m.Claim(2, 3, "p1"); !errors.Is(err, ErrCellOccupied) {
		t.Fatalf("Claim on solid cell = %v, want ErrCellOccupied", err)
	}
	m.Vacate(2, 3)
	if m.StateAt(2, 3) != CellSolid {
		t.Fatalf("Vacate cleared a solid cell")
	}
}

func TestOccupationSolidFootprintOutOfBounds(t *testing.T) {
	m := NewOccupationMap(4, 4)
	if err := m.MarkSolid(3, 3, 2, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("MarkSolid overflowing footprint = %v, want ErrOutOfBounds", err)
	}
}
