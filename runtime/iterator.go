package runtime

import "github.com/vela-lang/vela/values"

// Iterator is the Go-side shape every built-in iterator (ArrayIterator,
// GeneratorIterator, Map/Set iterators once added) exposes to the VM's
// for-of opcode, so the dispatcher does not need a type switch per
// iterator kind to drive iteration.
type Iterator interface {
	Next() (value values.Value, done bool)
}

