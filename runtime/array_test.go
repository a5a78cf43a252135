package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/values"
)

func TestArrayLengthReflectsElementCount(t *testing.T) {
	sc := &fakeRuntimeScope{heap: gc.NewHeap()}
	a := runtime.NewArray(values.ObjectHandle{}, []values.Value{values.Number(1), values.Number(2)})

	length, err := a.GetProperty(sc, values.StringKey("length"))
	require.NoError(t, err)
	require.Equal(t, 2.0, length.Num())
}

func TestArraySetPropertyGrowsOnOutOfBoundsIndex(t *testing.T) {
	sc := &fakeRuntimeScope{heap: gc.NewHeap()}
	a := runtime.NewArray(values.ObjectHandle{}, nil)

	require.NoError(t, a.SetProperty(sc, values.StringKey("3"), values.StaticProperty(values.Number(9))))
	require.Len(t, a.Elements, 4)
	require.Equal(t, 9.0, a.Elements[3].Num())
	require.True(t, a.Elements[0].IsUndefined())
}

func TestArraySettingLengthTruncates(t *testing.T) {
	sc := &fakeRuntimeScope{heap: gc.NewHeap()}
	a := runtime.NewArray(values.ObjectHandle{}, []values.Value{values.Number(1), values.Number(2), values.Number(3)})

	require.NoError(t, a.SetProperty(sc, values.StringKey("length"), values.StaticProperty(values.Number(1))))
	require.Len(t, a.Elements, 1)
}

func TestArrayPushAndPop(t *testing.T) {
	a := runtime.NewArray(values.ObjectHandle{}, nil)
	require.Equal(t, 1, a.Push(values.Number(1)))
	require.Equal(t, 2, a.Push(values.Number(2)))

	v, ok := a.Pop()
	require.True(t, ok)
	require.Equal(t, 2.0, v.Num())
	require.Len(t, a.Elements, 1)
}

func TestArrayOwnKeysListsIndicesBeforeNamedProps(t *testing.T) {
	sc := &fakeRuntimeScope{heap: gc.NewHeap()}
	a := runtime.NewArray(values.ObjectHandle{}, []values.Value{values.Number(1)})
	require.NoError(t, a.SetProperty(sc, values.StringKey("extra"), values.StaticProperty(values.Number(1))))

	keys, err := a.OwnKeys()
	require.NoError(t, err)
	require.Equal(t, "0", keys[0].Str())
	require.Equal(t, "extra", keys[1].Str())
}

func TestArrayIteratorWalksElementsInOrder(t *testing.T) {
	a := runtime.NewArray(values.ObjectHandle{}, []values.Value{values.Number(1), values.Number(2)})
	it := runtime.NewArrayIterator(values.ObjectHandle{}, a)

	v, done := it.Next()
	require.False(t, done)
	require.Equal(t, 1.0, v.Num())

	v, done = it.Next()
	require.False(t, done)
	require.Equal(t, 2.0, v.Num())

	_, done = it.Next()
	require.True(t, done)
}
