package natives

import (
	"sync"
	"time"

	"github.com/vela-lang/vela/async"
	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

// TimerModule backs the "vela:timers" module. Grounded on
// _examples/original_source/crates/dash_rt_timers/src/lib.rs's
// TimersModule/set_timeout: that code spawns an async sleep on the Rust
// runtime's own executor, then sends an EventMessage::ScheduleCallback
// back across a channel so the callback actually runs on the single
// thread driving the VM, never on the sleeping task's own thread. This
// engine has no multi-message event enum, so the same handoff is done
// with a plain buffered channel (fired) carrying a closure to run; Drain
// moves anything that has fired onto the real async.Queue, the only
// point guaranteed not to race with script execution already in
// progress, matching spec.md section 5's single-threaded-cooperative
// rule for everything that touches the heap or a Scope.
type TimerModule struct {
	queue *async.Queue
	fired chan func(sc values.Scope)

	mu        sync.Mutex
	cancelled map[int64]bool
	nextID    int64
	running   int
}

func NewTimerModule(queue *async.Queue) *TimerModule {
	return &TimerModule{
		queue:     queue,
		fired:     make(chan func(sc values.Scope), 64),
		cancelled: make(map[int64]bool),
	}
}

// Install wires setTimeout/clearTimeout onto a fresh module object.
func (m *TimerModule) Install(sc values.Scope, env *statics.Env) values.ObjectHandle {
	mod := newObject(env)
	obj, _ := mod.Object()

	native(sc, env, obj, "setTimeout", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		cbVal := arg(args, 0)
		cb, ok := cbVal.Object()
		if !ok {
			return values.Undefined(), sc.NewError("TypeError", "setTimeout callback is not a function")
		}
		delayMs := arg(args, 1).Num()
		if delayMs < 0 {
			delayMs = 0
		}

		m.mu.Lock()
		m.nextID++
		id := m.nextID
		m.running++
		m.mu.Unlock()

		extra := make([]values.Value, 0)
		if len(args) > 2 {
			extra = append(extra, args[2:]...)
		}

		go func() {
			time.Sleep(time.Duration(delayMs) * time.Millisecond)
			m.mu.Lock()
			skip := m.cancelled[id]
			delete(m.cancelled, id)
			m.running--
			m.mu.Unlock()
			if skip {
				return
			}
			m.fired <- func(sc values.Scope) {
				if _, err := cb.Apply(sc, cbVal.Handle(), values.Undefined(), extra); err != nil {
					if thrown, ok := values.AsThrown(err); ok {
						m.queue.ReportUnhandled(sc, thrown)
					} else {
						m.queue.ReportUnhandled(sc, values.String(err.Error()))
					}
				}
			}
		}()

		return values.Number(float64(id)), nil
	})

	native(sc, env, obj, "clearTimeout", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		id := int64(arg(args, 0).Num())
		m.mu.Lock()
		m.cancelled[id] = true
		m.mu.Unlock()
		return values.Undefined(), nil
	})

	return mod
}

// Drain moves every timer that has already fired onto the real async
// queue without blocking; call between microtask-queue drains.
func (m *TimerModule) Drain() {
	for {
		select {
		case cb := <-m.fired:
			m.queue.Add(async.Task{Run: cb})
		default:
			return
		}
	}
}

// HasPending reports whether any timer is still sleeping or has fired
// but not yet been drained, letting a driver decide whether to keep the
// process alive waiting on real wall-clock time the way a real event
// loop would rather than exiting with timers still outstanding.
func (m *TimerModule) HasPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running > 0 || len(m.fired) > 0
}

// Wait blocks until the next timer fires and enqueues it, for a driver
// that has nothing else to do but wait on real time.
func (m *TimerModule) Wait() {
	cb := <-m.fired
	m.queue.Add(async.Task{Run: cb})
}
