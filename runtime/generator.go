package runtime

import (
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/values"
)

// GeneratorState tracks where a suspended generator frame currently is,
// mirroring _examples/original_source/crates/dash_vm/src/frame.rs's
// FrameState for generator/async functions.
type GeneratorState int

const (
	GeneratorSuspendedStart GeneratorState = iota
	GeneratorSuspendedYield
	GeneratorExecuting
	GeneratorCompleted
)

// Resumer is implemented by the vm package's generator driver: it resumes
// a suspended frame with a value sent via .next()/.throw()/.return() and
// runs until the next yield or completion. Defining the callback type here
// (rather than importing vm) keeps runtime free of a dependency on vm,
// which itself depends on runtime for the built-in object kinds.
type Resumer func(sc values.Scope, sent values.Value, mode ResumeMode) (value values.Value, done bool, err error)

// ResumeMode distinguishes the three ways script code can resume a
// generator, per spec.md section 4.4.
type ResumeMode int

const (
	ResumeNext ResumeMode = iota
	ResumeThrow
	ResumeReturn
)

// GeneratorObject is the object returned by calling a `function*`
// declaration. Its bytecode frame is owned by the vm package; this struct
// only holds the state machine bookkeeping and the Resumer hook that
// drives it.
type GeneratorObject struct {
	*values.NamedObject
	State   GeneratorState
	Resume  Resumer
	pinned  []gc.Handle
}

func NewGeneratorObject(prototype values.ObjectHandle, resume Resumer) *GeneratorObject {
	return &GeneratorObject{
		NamedObject: values.NewNamedObject(prototype, values.ObjectHandle{}),
		State:       GeneratorSuspendedStart,
		Resume:      resume,
	}
}

func (g *GeneratorObject) Trace(v *gc.Visitor) {
	g.NamedObject.Trace(v)
	for _, h := range g.pinned {
		v.Mark(h)
	}
}

func (g *GeneratorObject) AsAny() any { return g }

// Pin roots a handle for the lifetime of the generator object, used by
// the vm package to keep a suspended frame's locals alive between
// resumptions without re-rooting them on every call.
func (g *GeneratorObject) Pin(h gc.Handle) {
	g.pinned = append(g.pinned, h)
}

// drive runs one resumption and updates State. It is shared by Next,
// Throw, and Return since the only difference between them is ResumeMode.
func (g *GeneratorObject) drive(sc values.Scope, sent values.Value, mode ResumeMode) (values.Value, bool, error) {
	if g.State == GeneratorCompleted {
		return values.Undefined(), true, nil
	}
	if g.State == GeneratorExecuting {
		return values.Undefined(), false, sc.NewError("TypeError", "generator is already executing")
	}
	g.State = GeneratorExecuting
	value, done, err := g.Resume(sc, sent, mode)
	if err != nil {
		g.State = GeneratorCompleted
		return values.Undefined(), true, err
	}
	if done {
		g.State = GeneratorCompleted
	} else {
		g.State = GeneratorSuspendedYield
	}
	return value, done, nil
}

// Next resumes the generator with ResumeNext. Its signature differs from
// runtime.Iterator's Next; for-of and spread reach a generator through
// GeneratorIterator, which adapts it to that interface.
func (g *GeneratorObject) Next(sc values.Scope, sent values.Value) (values.Value, bool, error) {
	return g.drive(sc, sent, ResumeNext)
}

func (g *GeneratorObject) Throw(sc values.Scope, exception values.Value) (values.Value, bool, error) {
	return g.drive(sc, exception, ResumeThrow)
}

func (g *GeneratorObject) Return(sc values.Scope, value values.Value) (values.Value, bool, error) {
	return g.drive(sc, value, ResumeReturn)
}

// GeneratorIterator adapts a GeneratorObject to the Go-side Iterator
// interface for contexts (for-of, spread) that only know how to pull
// plain (value, done) pairs and have no exception/return channel to
// drive.
type GeneratorIterator struct {
	Scope values.Scope
	Gen   *GeneratorObject
}

func (it *GeneratorIterator) Next() (values.Value, bool) {
	v, done, err := it.Gen.Next(it.Scope, values.Undefined())
	if err != nil {
		return values.Undefined(), true
	}
	return v, done
}
