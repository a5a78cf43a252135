package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/registry"
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

func TestNativeFunctionApplyInvokesClosure(t *testing.T) {
	sc := &fakeRuntimeScope{heap: gc.NewHeap()}
	fn := runtime.NewNativeFunction(values.ObjectHandle{}, "double", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		return values.Number(args[0].Num() * 2), nil
	})

	result, err := fn.Apply(sc, values.ObjectHandle{}, values.Undefined(), []values.Value{values.Number(21)})
	require.NoError(t, err)
	require.Equal(t, 42.0, result.Num())
	require.Equal(t, values.TypeofFunction, fn.TypeOf())
}

func TestUserFunctionApplyWithoutDispatcherThrows(t *testing.T) {
	sc := &fakeRuntimeScope{heap: gc.NewHeap()}
	descriptor := &registry.Function{Name: "f"}
	fn := runtime.NewUserFunction(values.ObjectHandle{}, descriptor, nil)

	_, err := fn.Apply(sc, values.ObjectHandle{}, values.Undefined(), nil)
	require.Error(t, err)
}

func TestUserFunctionApplyDispatchesThroughCall(t *testing.T) {
	sc := &fakeRuntimeScope{heap: gc.NewHeap()}
	descriptor := &registry.Function{Name: "f"}
	fn := runtime.NewUserFunction(values.ObjectHandle{}, descriptor, nil)
	fn.Call = func(sc values.Scope, fn *runtime.UserFunction, this values.Value, args []values.Value) (values.Value, error) {
		return values.String(fn.Descriptor.Name), nil
	}

	result, err := fn.Apply(sc, values.ObjectHandle{}, values.Undefined(), nil)
	require.NoError(t, err)
	require.Equal(t, "f", result.Str())
}

func TestBoundFunctionPrependsBoundArgs(t *testing.T) {
	heap := gc.NewHeap()
	sc := &fakeRuntimeScope{heap: heap}

	var seen []values.Value
	target := runtime.NewNativeFunction(values.ObjectHandle{}, "target", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		seen = args
		return values.Undefined(), nil
	})
	targetHandle := values.WrapHandle(heap.Register(target))

	bound := runtime.NewBoundFunction(values.ObjectHandle{}, targetHandle, values.Undefined(), []values.Value{values.Number(1)})
	_, err := bound.Apply(sc, values.ObjectHandle{}, values.Undefined(), []values.Value{values.Number(2)})
	require.NoError(t, err)
	require.Len(t, seen, 2)
	require.Equal(t, 1.0, seen[0].Num())
	require.Equal(t, 2.0, seen[1].Num())
}
