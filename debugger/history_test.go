package debugger

import (
	"testing"
)

func TestCommandHistory_Add(t *testing.T) {
	h := NewCommandHistory()

	h.Add("step", 0, 1000)
	h.Add("continue", 1, 999)
	h.Add("break 0x1000", 1, 999)

	if h.Size() != 3 {
		t.Errorf("Size = %d, want 3", h.Size())
	}

	all := h.GetAll()
	if len(all) != 3 {
		t.Errorf("GetAll() length = %d, want 3", len(all))
	}

	if all[0].Command != "step" || all[0].PC != 0 || all[0].Gas != 1000 {
		t.Errorf("First entry = %+v, want {step 0 1000}", all[0])
	}
}

func TestCommandHistory_IgnoreEmpty(t *testing.T) {
	h := NewCommandHistory()

	h.Add("step", 0, 1000)
	h.Add("", 0, 1000)
	h.Add("continue", 0, 1000)

	if h.Size() != 2 {
		t.Errorf("Size = %d, want 2 (empty commands should be ignored)", h.Size())
	}
}

func TestCommandHistory_IgnoreDuplicates(t *testing.T) {
	h := NewCommandHistory()

	h.Add("step", 0, 1000)
	h.Add("step", 1, 999)
	h.Add("continue", 1, 999)

	if h.Size() != 2 {
		t.Errorf("Size = %d, want 2 (duplicate should be ignored)", h.Size())
	}

	all := h.GetAll()
	if all[0].Command != "step" || all[1].Command != "continue" {
		t.Error("Duplicate command was not ignored correctly")
	}
}

func TestCommandHistory_Previous(t *testing.T) {
	h := NewCommandHistory()

	h.Add("cmd1", 0, 1000)
	h.Add("cmd2", 1, 999)
	h.Add("cmd3", 2, 998)

	prev := h.Previous()
	if prev != "cmd3" {
		t.Errorf("Previous() = %s, want cmd3", prev)
	}

	prev = h.Previous()
	if prev != "cmd2" {
		t.Errorf("Previous() = %s, want cmd2", prev)
	}

	prev = h.Previous()
	if prev != "cmd1" {
		t.Errorf("Previous() = %s, want cmd1", prev)
	}

	prev = h.Previous()
	if prev != "" {
		t.Errorf("Previous() at start = %s, want empty", prev)
	}
}

func TestCommandHistory_Next(t *testing.T) {
	h := NewCommandHistory()

	h.Add("cmd1", 0, 1000)
	h.Add("cmd2", 1, 999)
	h.Add("cmd3", 2, 998)

	h.Previous()
	h.Previous()
	h.Previous()

	next := h.Next()
	if next != "cmd2" {
		t.Errorf("Next() = %s, want cmd2", next)
	}

	next = h.Next()
	if next != "cmd3" {
		t.Errorf("Next() = %s, want cmd3", next)
	}

	next = h.Next()
	if next != "" {
		t.Errorf("Next() at end = %s, want empty", next)
	}
}

func TestCommandHistory_GetLast(t *testing.T) {
	h := NewCommandHistory()

	h.Add("cmd1", 0, 1000)
	h.Add("cmd2", 1, 999)
	h.Add("cmd3", 2, 998)

	last := h.GetLast()
	if last != "cmd3" {
		t.Errorf("GetLast() = %s, want cmd3", last)
	}

	last = h.GetLast()
	if last != "cmd3" {
		t.Errorf("GetLast() = %s, want cmd3", last)
	}
}

func TestCommandHistory_Clear(t *testing.T) {
	h := NewCommandHistory()

	h.Add("cmd1", 0, 1000)
	h.Add("cmd2", 1, 999)
	h.Add("cmd3", 2, 998)

	h.Clear()

	if h.Size() != 0 {
		t.Errorf("Size after clear = %d, want 0", h.Size())
	}

	last := h.GetLast()
	if last != "" {
		t.Errorf("GetLast after clear = %s, want empty", last)
	}
}

func TestCommandHistory_Search(t *testing.T) {
	h := NewCommandHistory()

	h.Add("break 0x1000", 0, 1000)
	h.Add("break 0x2000", 1, 999)
	h.Add("step", 2, 998)
	h.Add("continue", 3, 997)

	results := h.Search("break")

	if len(results) != 2 {
		t.Errorf("Search results length = %d, want 2", len(results))
	}

	if results[0].Command != "break 0x1000" {
		t.Errorf("Search result[0] = %s, want 'break 0x1000'", results[0].Command)
	}

	if results[1].Command != "break 0x2000" {
		t.Errorf("Search result[1] = %s, want 'break 0x2000'", results[1].Command)
	}
}

func TestCommandHistory_SearchNoMatches(t *testing.T) {
	h := NewCommandHistory()

	h.Add("step", 0, 1000)
	h.Add("continue", 1, 999)

	results := h.Search("break")

	if len(results) != 0 {
		t.Errorf("Search with no matches should return empty slice, got %d results", len(results))
	}
}

func TestCommandHistory_MaxSize(t *testing.T) {
	h := NewCommandHistory()

	for i := 0; i < 1100; i++ {
		h.Add("cmd", uint64(i), 1000)
	}

	if h.Size() > 1000 {
		t.Errorf("Size = %d, should not exceed max size of 1000", h.Size())
	}
}

func TestCommandHistory_EmptyHistory(t *testing.T) {
	h := NewCommandHistory()

	if h.Size() != 0 {
		t.Errorf("New history size = %d, want 0", h.Size())
	}

	last := h.GetLast()
	if last != "" {
		t.Errorf("GetLast on empty history = %s, want empty", last)
	}

	prev := h.Previous()
	if prev != "" {
		t.Errorf("Previous on empty history = %s, want empty", prev)
	}

	next := h.Next()
	if next != "" {
		t.Errorf("Next on empty history = %s, want empty", next)
	}
}

func TestCommandHistory_GasSpentSince(t *testing.T) {
	h := NewCommandHistory()

	h.Add("step", 0, 1000)
	h.Add("regs", 1, 999)
	h.Add("gas", 2, 997)

	spent, err := h.GasSpentSince(0)
	if err != nil {
		t.Fatalf("GasSpentSince(0): %v", err)
	}
	if spent != 3 {
		t.Errorf("GasSpentSince(0) = %d, want 3 (1000 -> 997)", spent)
	}

	if _, err := h.GasSpentSince(99); err == nil {
		t.Error("GasSpentSince with an out-of-range index should error")
	}
}
