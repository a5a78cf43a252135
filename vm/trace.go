package vm

import (
	"github.com/vela-lang/vela/jit"
	"github.com/vela-lang/vela/opcodes"
)

// traceBackedge drives the hot-loop pipeline spec.md section 4.5 hangs
// off every backedge: count until hot, record one full iteration, hand
// the trace to the backend when the backedge returns to the recorded
// header, and poison the key when compilation declines so the loop is
// never re-candidated. Only called when hotspots is non-nil.
func (vm *VM) traceBackedge(frame *Frame, header int) {
	key := jit.BackedgeKey{Function: frame.fn.Name, IP: header}

	if recKey, active := vm.recorder.Key(); active {
		if recKey == key && frame == vm.recordingFrame {
			vm.finishTrace(key, vm.recorder.Finish())
		} else {
			// A different loop's backedge fired mid-recording: the
			// recorded loop's body left its straight-line path, so the
			// trace is abandoned and its key poisoned rather than
			// retried on every future pass.
			trace := vm.recorder.SideExit("backedge of a different loop")
			vm.recordingFrame = nil
			vm.hotspots.Poison(trace.Key)
		}
		return
	}

	if vm.hotspots.RecordBackedge(key) {
		vm.recorder.Start(key)
		vm.recordingFrame = frame
	}
}

// finishTrace hands a completed trace to the backend. Success caches the
// compiled entry keyed by (function, header IP); failure poisons the key
// per the spec's cheap-retry rule. With jit.NoBackend (the only backend
// in this repository) the failure path always runs.
func (vm *VM) finishTrace(key jit.BackedgeKey, trace *jit.Trace) {
	vm.recordingFrame = nil
	compiled, err := vm.backend.Compile(trace)
	if err != nil {
		vm.hotspots.Poison(key)
		return
	}
	vm.compiled[key] = compiled
}

// recordBranch feeds a conditional jump's outcome into the active trace
// ("every conditional branch inside the trace adds an entry"). Branches
// executed by frames other than the one being recorded — calls made from
// inside the loop body — are not part of the trace's own bytecode and
// are skipped.
func (vm *VM) recordBranch(frame *Frame, op opcodes.Op, taken bool) {
	if vm.hotspots == nil || frame != vm.recordingFrame {
		return
	}
	outcome := 0
	if taken {
		outcome = 1
	}
	vm.recorder.Record(op.String(), outcome)
}

// abortTrace ends any recording owned by frame: called when frame's run
// exits (return or unhandled throw) with its loop's trace still open,
// meaning the backedge will never fire again.
func (vm *VM) abortTrace(frame *Frame) {
	if vm.hotspots == nil || frame != vm.recordingFrame {
		return
	}
	trace := vm.recorder.SideExit("frame exited mid-trace")
	vm.recordingFrame = nil
	vm.hotspots.Poison(trace.Key)
}
