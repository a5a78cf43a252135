package runtime_test

import (
	"fmt"

	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/values"
)

// fakeRuntimeScope is a minimal values.Scope shared by this package's
// tests, standing in for the VM's real execution scope.
type fakeRuntimeScope struct {
	heap   *gc.Heap
	global values.ObjectHandle
}

func (f *fakeRuntimeScope) Heap() *gc.Heap             { return f.heap }
func (f *fakeRuntimeScope) Root(h gc.Handle) gc.Handle { return h }
func (f *fakeRuntimeScope) Global() values.ObjectHandle { return f.global }
func (f *fakeRuntimeScope) NewError(ctor string, format string, args ...any) error {
	return values.Throw(values.String(fmt.Sprintf("%s: %s", ctor, fmt.Sprintf(format, args...))))
}
