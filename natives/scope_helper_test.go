package natives_test

import (
	"fmt"

	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

// fakeScope is a minimal values.Scope built straight on a bootstrapped
// statics.Env, standing in for the VM's real execution scope the way
// runtime's own fakeRuntimeScope does for that package's tests.
type fakeScope struct {
	env *statics.Env
}

func (f fakeScope) Heap() *gc.Heap             { return f.env.Heap }
func (f fakeScope) Root(h gc.Handle) gc.Handle { return h }
func (f fakeScope) Global() values.ObjectHandle { return f.env.Global }
func (f fakeScope) NewError(ctor string, format string, args ...any) error {
	return values.Throw(values.String(fmt.Sprintf("%s: %s", ctor, fmt.Sprintf(format, args...))))
}
