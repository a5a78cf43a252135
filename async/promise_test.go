package async_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/async"
	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/values"
)

type fakeAsyncScope struct {
	heap   *gc.Heap
	global values.ObjectHandle
}

func (f *fakeAsyncScope) Heap() *gc.Heap              { return f.heap }
func (f *fakeAsyncScope) Root(h gc.Handle) gc.Handle  { return h }
func (f *fakeAsyncScope) Global() values.ObjectHandle { return f.global }
func (f *fakeAsyncScope) NewError(ctor string, format string, args ...any) error {
	return values.Throw(values.String(fmt.Sprintf("%s: %s", ctor, fmt.Sprintf(format, args...))))
}

func newAsyncScope() *fakeAsyncScope {
	heap := gc.NewHeap()
	global := values.WrapHandle(heap.Register(values.NullObject()))
	return &fakeAsyncScope{heap: heap, global: global}
}

func TestResolveSettlesOnce(t *testing.T) {
	sc := newAsyncScope()
	q := async.NewQueue()
	p := async.NewPromise(values.ObjectHandle{})
	sc.heap.Register(p)

	async.Resolve(sc, q, p, values.Number(1))
	require.Equal(t, async.Fulfilled, p.State)
	require.Equal(t, float64(1), p.Value.Num())

	// A second settle attempt of either polarity is ignored.
	async.Resolve(sc, q, p, values.Number(2))
	async.Reject(sc, q, p, values.Number(3))
	require.Equal(t, async.Fulfilled, p.State)
	require.Equal(t, float64(1), p.Value.Num())
}

func TestRejectIsMonotonic(t *testing.T) {
	sc := newAsyncScope()
	q := async.NewQueue()
	p := async.NewPromise(values.ObjectHandle{})
	sc.heap.Register(p)

	async.Reject(sc, q, p, values.String("boom"))
	require.Equal(t, async.Rejected, p.State)
	async.Resolve(sc, q, p, values.Number(1))
	require.Equal(t, async.Rejected, p.State)
}

func TestThenHandlersFireInRegistrationOrderAfterResolve(t *testing.T) {
	sc := newAsyncScope()
	q := async.NewQueue()
	p := async.NewPromise(values.ObjectHandle{})
	sc.heap.Register(p)

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		async.Then(q, sc.heap, p, func(sc values.Scope, v values.Value) (values.Value, error) {
			order = append(order, i)
			return v, nil
		}, nil, values.ObjectHandle{})
	}

	async.Resolve(sc, q, p, values.Number(7))
	for q.Has() {
		q.Process(sc)
	}
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestThenOnAlreadySettledPromiseStillFires(t *testing.T) {
	sc := newAsyncScope()
	q := async.NewQueue()
	p := async.NewPromise(values.ObjectHandle{})
	sc.heap.Register(p)
	async.Resolve(sc, q, p, values.Number(5))

	var got values.Value
	async.Then(q, sc.heap, p, func(sc values.Scope, v values.Value) (values.Value, error) {
		got = v
		return v, nil
	}, nil, values.ObjectHandle{})
	for q.Has() {
		q.Process(sc)
	}
	require.Equal(t, float64(5), got.Num())
}

func TestResolveAdoptsInnerPromiseState(t *testing.T) {
	sc := newAsyncScope()
	q := async.NewQueue()
	inner := async.NewPromise(values.ObjectHandle{})
	innerHandle := values.WrapHandle(sc.heap.Register(inner))
	outer := async.NewPromise(values.ObjectHandle{})
	sc.heap.Register(outer)

	async.Resolve(sc, q, outer, values.FromObject(innerHandle))
	require.Equal(t, async.Pending, outer.State)

	async.Resolve(sc, q, inner, values.Number(9))
	for q.Has() {
		q.Process(sc)
	}
	require.Equal(t, async.Fulfilled, outer.State)
	require.Equal(t, float64(9), outer.Value.Num())
}

func TestRejectionChainsThroughThen(t *testing.T) {
	sc := newAsyncScope()
	q := async.NewQueue()
	p := async.NewPromise(values.ObjectHandle{})
	sc.heap.Register(p)

	var caught values.Value
	async.Then(q, sc.heap, p, nil, func(sc values.Scope, v values.Value) (values.Value, error) {
		caught = v
		return values.Undefined(), nil
	}, values.ObjectHandle{})

	async.Reject(sc, q, p, values.String("nope"))
	for q.Has() {
		q.Process(sc)
	}
	require.Equal(t, "nope", caught.Str())
}

func TestUnhandledRejectionReachesHostCallback(t *testing.T) {
	sc := newAsyncScope()
	q := async.NewQueue()
	var reported values.Value
	q.OnUnhandledException = func(sc values.Scope, thrown values.Value) { reported = thrown }

	p := async.NewPromise(values.ObjectHandle{})
	sc.heap.Register(p)
	async.Then(q, sc.heap, p, func(sc values.Scope, v values.Value) (values.Value, error) {
		return values.Undefined(), values.Throw(values.String("kaboom"))
	}, nil, values.ObjectHandle{})

	async.Resolve(sc, q, p, values.Number(1))
	for q.Has() {
		q.Process(sc)
	}
	// Then always chains a result promise, so the throw settles that
	// promise instead of reaching the host callback.
	require.True(t, reported.IsUndefined() || reported.Kind == values.KindUndefined)

	// A direct task with no absorbing promise does reach it.
	q.Add(async.Task{Run: func(sc values.Scope) {
		q.ReportUnhandled(sc, values.String("kaboom"))
	}})
	for q.Has() {
		q.Process(sc)
	}
	require.Equal(t, "kaboom", reported.Str())
}
