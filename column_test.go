package depot

import (
	"testing"
)

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s did not panic", name)
		}
	}()
	fn()
}

func TestColumnChangeTracking(t *testing.T) {
	health := Register[Health]()
	col := newColumn[Health](health)
	col.Push(Health{10}, StateAdded)
	col.Push(Health{20}, 0)

	tests := []struct {
		name   string
		access func()
		row    int
		want   ChangeState
	}{
		{"Get leaves state", func() { col.Get(1) }, 1, 0},
		{"GetMutSilent leaves state", func() { col.GetMutSilent(1).Value = 21 }, 1, 0},
		{"GetMut marks modified", func() { col.GetMut(1) }, 1, StateModified},
		{"GetMut keeps added", func() { col.GetMut(0) }, 0, StateAdded | StateModified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.access()
			if got := col.State(tt.row); got != tt.want {
				t.Errorf("State(%d) = %b, want %b", tt.row, got, tt.want)
			}
		})
	}

	if col.Get(1).Value != 21 {
		t.Errorf("Silent write lost: %d", col.Get(1).Value)
	}
	col.Prepare()
	for row := range col.Len() {
		if col.State(row) != 0 {
			t.Errorf("Row %d state %b after prepare", row, col.State(row))
		}
	}
}

func TestColumnSwapRemove(t *testing.T) {
	health := Register[Health]()
	col := newColumn[Health](health)
	for i := range 4 {
		col.Push(Health{int32(i)}, ChangeState(i%2)*StateModified)
	}

	col.SwapRemove(1)
	if col.Len() != 3 {
		t.Fatalf("Length %d, want 3", col.Len())
	}
	if col.Get(1).Value != 3 || !col.State(1).Modified() {
		t.Errorf("Row 1 = %d (%b), want the former last row 3 (modified)", col.Get(1).Value, col.State(1))
	}
	col.SwapRemove(2)
	if col.Len() != 2 || col.Get(0).Value != 0 {
		t.Errorf("Removing the last row disturbed other rows")
	}

	mustPanic(t, "Get out of range", func() { col.Get(2) })
	mustPanic(t, "GetMut negative", func() { col.GetMut(-1) })
	mustPanic(t, "SwapRemove out of range", func() { col.SwapRemove(5) })
}

func TestColumnCheckedDowncast(t *testing.T) {
	health := Register[Health]()
	name := Register[Name]()
	var col column = newColumn[Health](health)

	if typed := columnAs[Health](col, health); typed.Len() != 0 {
		t.Errorf("Downcast column has %d rows", typed.Len())
	}
	mustPanic(t, "Downcast to the wrong type", func() { columnAs[Name](col, name) })
	mustPanic(t, "Downcast with a mismatched component", func() { columnAs[Health](col, name) })
}

func TestColumnMoveRow(t *testing.T) {
	health := Register[Health]()
	src := newColumn[Health](health)
	dst := newColumn[Health](health)
	src.Push(Health{1}, StateAdded)
	src.Push(Health{2}, StateModified)

	src.moveRowTo(dst, 0)
	if src.Len() != 1 || dst.Len() != 1 {
		t.Fatalf("Lengths after move: src %d, dst %d", src.Len(), dst.Len())
	}
	if dst.Get(0).Value != 1 || !dst.State(0).Added() {
		t.Errorf("Moved row %d (%b), want 1 (added)", dst.Get(0).Value, dst.State(0))
	}
	if src.Get(0).Value != 2 {
		t.Errorf("Remaining row %d, want 2", src.Get(0).Value)
	}
}
