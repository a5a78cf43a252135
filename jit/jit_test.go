package jit_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/jit"
)

func TestRecordBackedgeFiresOnceAtThreshold(t *testing.T) {
	d := jit.NewDetector(3)
	key := jit.BackedgeKey{Function: "loop", IP: 10}

	require.False(t, d.RecordBackedge(key))
	require.False(t, d.RecordBackedge(key))
	require.True(t, d.RecordBackedge(key))
	require.False(t, d.RecordBackedge(key))
	require.Equal(t, int64(4), d.CallCount(key))
}

func TestPoisonedKeyNeverReportsHot(t *testing.T) {
	d := jit.NewDetector(1)
	key := jit.BackedgeKey{Function: "loop", IP: 10}
	d.Poison(key)

	require.False(t, d.RecordBackedge(key))
	require.True(t, d.IsPoisoned(key))
}

func TestDistinctKeysCountedIndependently(t *testing.T) {
	d := jit.NewDetector(2)
	a := jit.BackedgeKey{Function: "f", IP: 1}
	b := jit.BackedgeKey{Function: "f", IP: 2}

	d.RecordBackedge(a)
	require.Equal(t, int64(1), d.CallCount(a))
	require.Equal(t, int64(0), d.CallCount(b))
}

func TestRecorderCapturesTraceUntilSideExit(t *testing.T) {
	r := jit.NewRecorder()
	key := jit.BackedgeKey{Function: "loop", IP: 10}
	r.Start(key)
	require.True(t, r.Recording())

	r.Record("Add", 0)
	r.Record("Lt", 0)

	trace := r.SideExit("type guard failed")
	require.NotNil(t, trace)
	require.Equal(t, key, trace.Key)
	require.Len(t, trace.Ops, 2)
	require.Equal(t, "type guard failed", trace.SideExit)
	require.False(t, r.Recording())
}

func TestRecorderFinishWithNoSideExit(t *testing.T) {
	r := jit.NewRecorder()
	r.Start(jit.BackedgeKey{Function: "loop", IP: 0})
	r.Record("BackJmp", 0)

	trace := r.Finish()
	require.Empty(t, trace.SideExit)
}

func TestNoBackendAlwaysDeclines(t *testing.T) {
	var b jit.Backend = jit.NoBackend{}
	_, err := b.Compile(&jit.Trace{})
	require.ErrorIs(t, err, jit.ErrNoBackend)
}

func TestRecorderKeyReportsActiveTrace(t *testing.T) {
	r := jit.NewRecorder()
	_, active := r.Key()
	require.False(t, active)

	key := jit.BackedgeKey{Function: "loop", IP: 4}
	r.Start(key)
	got, active := r.Key()
	require.True(t, active)
	require.Equal(t, key, got)

	r.Finish()
	_, active = r.Key()
	require.False(t, active)
}

func TestPoisonedKeysListsMarkedEntries(t *testing.T) {
	d := jit.NewDetector(1)
	require.Empty(t, d.PoisonedKeys())

	key := jit.BackedgeKey{Function: "f", IP: 7}
	d.Poison(key)
	require.Equal(t, []jit.BackedgeKey{key}, d.PoisonedKeys())
}
