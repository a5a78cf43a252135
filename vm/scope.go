package vm

import (
	"fmt"

	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

// execScope implements values.Scope by forwarding to the owning VM. It is
// handed to every Object method and native function call so built-ins
// never need a direct *VM import (values/runtime cannot import vm without
// cycling back into it).
type execScope struct {
	vm *VM
}

func (s *execScope) Heap() *gc.Heap { return s.vm.heap }

func (s *execScope) Root(h gc.Handle) gc.Handle {
	if cur := s.vm.scopeStack.Current(); cur != nil {
		cur.Add(h)
	}
	return h
}

func (s *execScope) NewError(ctor string, format string, args ...any) error {
	kind := runtime.ErrorKind(ctor)
	proto := s.vm.errorProtos.Prototype(kind)
	if proto.IsNil() {
		proto = s.vm.errorProtos.Prototype(runtime.ErrorKindError)
	}
	obj := runtime.NewErrorObject(proto, kind, fmt.Sprintf(format, args...))
	h := values.WrapHandle(s.vm.heap.Register(obj))
	return values.Throw(values.FromObject(h))
}

func (s *execScope) Global() values.ObjectHandle { return s.vm.global }
