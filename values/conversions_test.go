package values_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/values"
)

// fakeScope is a minimal values.Scope for exercising conversions in
// isolation from the VM.
type fakeScope struct {
	heap *gc.Heap
}

func newFakeScope() *fakeScope { return &fakeScope{heap: gc.NewHeap()} }

func (f *fakeScope) Heap() *gc.Heap        { return f.heap }
func (f *fakeScope) Root(h gc.Handle) gc.Handle { return h }
func (f *fakeScope) Global() values.ObjectHandle { return values.ObjectHandle{} }
func (f *fakeScope) NewError(ctor string, format string, args ...any) error {
	return values.Throw(values.String(fmt.Sprintf("%s: %s", ctor, fmt.Sprintf(format, args...))))
}

func TestNaNIsNeverEqualToItself(t *testing.T) {
	nan := values.Number(math.NaN())
	require.False(t, values.StrictEquals(nan, nan))
}

func TestPositiveAndNegativeZeroAreStrictEqual(t *testing.T) {
	require.True(t, values.StrictEquals(values.Number(0), values.Number(math.Copysign(0, -1))))
}

func TestToBooleanFalsyValues(t *testing.T) {
	require.False(t, values.ToBoolean(values.Undefined()))
	require.False(t, values.ToBoolean(values.Null()))
	require.False(t, values.ToBoolean(values.Number(0)))
	require.False(t, values.ToBoolean(values.Number(math.NaN())))
	require.False(t, values.ToBoolean(values.String("")))
	require.True(t, values.ToBoolean(values.String("0")))
}

func TestAbstractEqualityCoercesNumberAndString(t *testing.T) {
	sc := newFakeScope()
	eq, err := values.Equals(sc, values.Number(1), values.String("1"))
	require.NoError(t, err)
	require.True(t, eq)
}

func TestAbstractEqualityNullUndefined(t *testing.T) {
	sc := newFakeScope()
	eq, err := values.Equals(sc, values.Null(), values.Undefined())
	require.NoError(t, err)
	require.True(t, eq)
}

func TestToInt32Wraps(t *testing.T) {
	sc := newFakeScope()
	i, err := values.ToInt32(sc, values.Number(4294967296+5))
	require.NoError(t, err)
	require.Equal(t, int32(5), i)
}

func TestNumberToString(t *testing.T) {
	require.Equal(t, "NaN", values.NumberToString(math.NaN()))
	require.Equal(t, "Infinity", values.NumberToString(math.Inf(1)))
	require.Equal(t, "1.5", values.NumberToString(1.5))
}

func TestSymbolsWithSameDescriptionAreDistinct(t *testing.T) {
	a := values.NewSymbol("x")
	b := values.NewSymbol("x")
	require.False(t, a.Equal(b))
	require.True(t, a.Equal(a))
}
