// Package async implements the event-loop half of spec.md section 4.4: a
// FIFO task queue standing in for the host's real event loop
// (`add_async_task`/`process_async_tasks`/`has_async_tasks`, spec.md §6.1)
// and the Promise state machine built on top of it. Grounded on
// _examples/original_source/crates/dash_vm/src/value/promise.rs for the
// Pending/Resolved/Rejected states and reaction bookkeeping, and on the
// teacher's own preference for a plain slice-backed queue over a channel
// for anything driven from a single goroutine (spec.md section 5: this
// engine is single-threaded and cooperative, so there is no producer
// thread to synchronize against).
package async

import (
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/values"
)

// Task is one pending unit of work: a callback plus the GC roots it
// closes over. Roots exists because a Task's Run closure is an opaque Go
// func the heap's mark pass can't see into; gc.Heap.Mark's own doc comment
// names "the async task queue" as a required root source, so Queue.Mark
// walks Roots on every still-pending Task to keep them alive across a
// collection triggered while tasks are queued. Run receives the scope the
// VM is draining the queue with, since a reaction callback needs the same
// heap/global access any other native call does.
type Task struct {
	Roots []gc.Handle
	Run   func(sc values.Scope)
}

// Queue is the FIFO task queue a VM drains via Process. Tasks queued
// while processing (a .then callback scheduling another one) run in the
// same drain, matching process_async_tasks' documented run-until-empty
// semantics rather than one-pass-per-call.
type Queue struct {
	tasks []Task

	// OnUnhandledException receives a thrown value no promise or handler
	// was left to absorb — spec.md §6.1's
	// unhandled_task_exception_callback. Nil drops such values silently.
	OnUnhandledException func(sc values.Scope, thrown values.Value)
}

func NewQueue() *Queue { return &Queue{} }

// ReportUnhandled forwards thrown to the host's unhandled-exception
// callback, if one is configured.
func (q *Queue) ReportUnhandled(sc values.Scope, thrown values.Value) {
	if q.OnUnhandledException != nil {
		q.OnUnhandledException(sc, thrown)
	}
}

// Add implements spec.md §6.1's add_async_task.
func (q *Queue) Add(t Task) { q.tasks = append(q.tasks, t) }

// Has implements has_async_tasks.
func (q *Queue) Has() bool { return len(q.tasks) > 0 }

// Len reports how many tasks are currently queued, for --timing/diagnostic
// output.
func (q *Queue) Len() int { return len(q.tasks) }

// Process implements process_async_tasks: run every queued task in FIFO
// order, including ones newly queued by a task that just ran, until the
// queue is empty.
func (q *Queue) Process(sc values.Scope) {
	for len(q.tasks) > 0 {
		t := q.tasks[0]
		q.tasks = q.tasks[1:]
		t.Run(sc)
	}
}

// Mark visits every handle kept alive by a still-pending task, the root
// category gc.Heap.Mark's doc comment calls out by name.
func (q *Queue) Mark(v *gc.Visitor) {
	for _, t := range q.tasks {
		for _, h := range t.Roots {
			v.Mark(h)
		}
	}
}
