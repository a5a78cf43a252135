package statics_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

type testScope struct{ env *statics.Env }

func (s testScope) Heap() *gc.Heap              { return s.env.Heap }
func (s testScope) Root(h gc.Handle) gc.Handle  { return h }
func (s testScope) Global() values.ObjectHandle { return s.env.Global }
func (s testScope) NewError(ctor string, format string, args ...any) error {
	return values.Throw(values.String(ctor))
}

func TestBootstrapWiresWellKnownPrototypes(t *testing.T) {
	env := statics.Bootstrap()
	require.False(t, env.Global.IsNil())
	require.False(t, env.ObjectProto.IsNil())
	require.False(t, env.FunctionProto.IsNil())
	require.False(t, env.ArrayProto.IsNil())
	require.False(t, env.GeneratorProto.IsNil())
	require.NotNil(t, env.ErrorProtos)
}

func TestBootstrapBindsGlobalThis(t *testing.T) {
	env := statics.Bootstrap()
	sc := testScope{env: env}
	obj, ok := env.Global.Object()
	require.True(t, ok)
	v, err := obj.GetProperty(sc, values.StringKey("globalThis"))
	require.NoError(t, err)
	require.Equal(t, env.Global.Raw(), v.Handle().Raw())
}

func TestGeneratorProtoNextDrivesResumerAndWrapsResult(t *testing.T) {
	env := statics.Bootstrap()
	sc := testScope{env: env}

	// A scripted resumer standing in for the vm's goroutine driver:
	// yields 10, then finishes with 20.
	step := 0
	gen := runtime.NewGeneratorObject(env.GeneratorProto, func(sc values.Scope, sent values.Value, mode runtime.ResumeMode) (values.Value, bool, error) {
		step++
		if step == 1 {
			return values.Number(10), false, nil
		}
		return values.Number(20), true, nil
	})
	genHandle := values.WrapHandle(env.Heap.Register(gen))

	nextVal, err := gen.GetProperty(sc, values.StringKey("next"))
	require.NoError(t, err)
	nextFn, ok := nextVal.Object()
	require.True(t, ok)

	first, err := nextFn.Apply(sc, nextVal.Handle(), values.FromObject(genHandle), nil)
	require.NoError(t, err)
	firstObj, _ := first.Object()
	v, _ := firstObj.GetProperty(sc, values.StringKey("value"))
	d, _ := firstObj.GetProperty(sc, values.StringKey("done"))
	require.Equal(t, float64(10), v.Num())
	require.False(t, d.Bool())

	second, err := nextFn.Apply(sc, nextVal.Handle(), values.FromObject(genHandle), nil)
	require.NoError(t, err)
	secondObj, _ := second.Object()
	d2, _ := secondObj.GetProperty(sc, values.StringKey("done"))
	require.True(t, d2.Bool())
	require.Equal(t, runtime.GeneratorCompleted, gen.State)
}

func TestGeneratorProtoNextOnNonGeneratorThrows(t *testing.T) {
	env := statics.Bootstrap()
	sc := testScope{env: env}

	protoObj, _ := env.GeneratorProto.Object()
	nextVal, err := protoObj.GetProperty(sc, values.StringKey("next"))
	require.NoError(t, err)
	nextFn, _ := nextVal.Object()

	plain := values.WrapHandle(env.Heap.Register(values.NewNamedObject(env.ObjectProto, values.ObjectHandle{})))
	_, err = nextFn.Apply(sc, nextVal.Handle(), values.FromObject(plain), nil)
	require.Error(t, err)
}

func TestCompletedGeneratorNextReturnsDone(t *testing.T) {
	env := statics.Bootstrap()
	sc := testScope{env: env}

	gen := runtime.NewGeneratorObject(env.GeneratorProto, func(sc values.Scope, sent values.Value, mode runtime.ResumeMode) (values.Value, bool, error) {
		return values.Undefined(), true, nil
	})
	env.Heap.Register(gen)

	_, done, err := gen.Next(sc, values.Undefined())
	require.NoError(t, err)
	require.True(t, done)

	v, done, err := gen.Next(sc, values.Undefined())
	require.NoError(t, err)
	require.True(t, done)
	require.True(t, v.IsUndefined())
}
