package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

func TestGeneratorStartsSuspended(t *testing.T) {
	g := runtime.NewGeneratorObject(values.ObjectHandle{}, nil)
	require.Equal(t, runtime.GeneratorSuspendedStart, g.State)
}

func TestGeneratorNextDrivesResumerAndTransitionsState(t *testing.T) {
	sc := &fakeRuntimeScope{heap: gc.NewHeap()}
	calls := 0
	resume := func(sc values.Scope, sent values.Value, mode runtime.ResumeMode) (values.Value, bool, error) {
		calls++
		require.Equal(t, runtime.ResumeNext, mode)
		if calls == 1 {
			return values.Number(1), false, nil
		}
		return values.Undefined(), true, nil
	}
	g := runtime.NewGeneratorObject(values.ObjectHandle{}, resume)

	v, done, err := g.Next(sc, values.Undefined())
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, 1.0, v.Num())
	require.Equal(t, runtime.GeneratorSuspendedYield, g.State)

	_, done, err = g.Next(sc, values.Undefined())
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, runtime.GeneratorCompleted, g.State)
}

func TestGeneratorNextAfterCompletionIsNoop(t *testing.T) {
	sc := &fakeRuntimeScope{heap: gc.NewHeap()}
	g := runtime.NewGeneratorObject(values.ObjectHandle{}, func(sc values.Scope, sent values.Value, mode runtime.ResumeMode) (values.Value, bool, error) {
		return values.Undefined(), true, nil
	})

	_, _, err := g.Next(sc, values.Undefined())
	require.NoError(t, err)

	v, done, err := g.Next(sc, values.Undefined())
	require.NoError(t, err)
	require.True(t, done)
	require.True(t, v.IsUndefined())
}

func TestGeneratorIteratorAdaptsToIteratorInterface(t *testing.T) {
	sc := &fakeRuntimeScope{heap: gc.NewHeap()}
	calls := 0
	g := runtime.NewGeneratorObject(values.ObjectHandle{}, func(sc values.Scope, sent values.Value, mode runtime.ResumeMode) (values.Value, bool, error) {
		calls++
		if calls == 1 {
			return values.Number(7), false, nil
		}
		return values.Undefined(), true, nil
	})
	it := &runtime.GeneratorIterator{Scope: sc, Gen: g}

	v, done := it.Next()
	require.False(t, done)
	require.Equal(t, 7.0, v.Num())

	_, done = it.Next()
	require.True(t, done)
}
