package pvm

import "testing"

func TestExecutionTraceRecordsFetchesInOrder(t *testing.T) {
	c := newTestCore(t, []byte{OpFallthrough, OpTrap}, []bool{true, true}, 1000)
	c.Trace = NewExecutionTrace()
	out := c.Run()
	if out.Code != ResultPanic {
		t.Fatalf("result: got %s, want PANIC", out.Code)
	}
	if len(c.Trace.PCs) != 2 || c.Trace.PCs[0] != 0 || c.Trace.PCs[1] != 1 {
		t.Fatalf("PCs: got %v, want [0 1]", c.Trace.PCs)
	}
	if c.Trace.OpcodeCounts[OpFallthrough] != 1 || c.Trace.OpcodeCounts[OpTrap] != 1 {
		t.Fatalf("OpcodeCounts: got %v", c.Trace.OpcodeCounts)
	}
}

func TestExecutionTraceRecordGasAppendsObservations(t *testing.T) {
	tr := NewExecutionTrace()
	tr.RecordGas(100)
	tr.RecordGas(99)
	if len(tr.GasPerStep) != 2 || tr.GasPerStep[0] != 100 || tr.GasPerStep[1] != 99 {
		t.Fatalf("GasPerStep: got %v", tr.GasPerStep)
	}
}
