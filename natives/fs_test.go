package natives_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vela-lang/vela/natives"
	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

func TestFSWriteThenReadRoundTrips(t *testing.T) {
	env := statics.Bootstrap()
	sc := fakeScope{env: env}
	mod := natives.InstallFS(sc, env)
	obj, _ := mod.Object()

	path := filepath.Join(t.TempDir(), "out.txt")

	writeFn, _ := obj.GetProperty(sc, values.StringKey("writeFileSync"))
	writeObj, _ := writeFn.Object()
	_, err := writeObj.Apply(sc, writeFn.Handle(), values.Undefined(), []values.Value{values.String(path), values.String("hello")})
	require.NoError(t, err)

	readFn, _ := obj.GetProperty(sc, values.StringKey("readFileSync"))
	readObj, _ := readFn.Object()
	v, err := readObj.Apply(sc, readFn.Handle(), values.Undefined(), []values.Value{values.String(path)})
	require.NoError(t, err)
	require.Equal(t, "hello", v.Str())
}

func TestFSReadFileSyncMissingFileThrows(t *testing.T) {
	env := statics.Bootstrap()
	sc := fakeScope{env: env}
	mod := natives.InstallFS(sc, env)
	obj, _ := mod.Object()

	readFn, _ := obj.GetProperty(sc, values.StringKey("readFileSync"))
	readObj, _ := readFn.Object()
	_, err := readObj.Apply(sc, readFn.Handle(), values.Undefined(), []values.Value{values.String(filepath.Join(t.TempDir(), "missing.txt"))})
	require.Error(t, err)
}

func TestFSExistsSync(t *testing.T) {
	env := statics.Bootstrap()
	sc := fakeScope{env: env}
	mod := natives.InstallFS(sc, env)
	obj, _ := mod.Object()

	path := filepath.Join(t.TempDir(), "present.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	existsFn, _ := obj.GetProperty(sc, values.StringKey("existsSync"))
	existsObj, _ := existsFn.Object()

	v, err := existsObj.Apply(sc, existsFn.Handle(), values.Undefined(), []values.Value{values.String(path)})
	require.NoError(t, err)
	require.True(t, v.Bool())

	v, err = existsObj.Apply(sc, existsFn.Handle(), values.Undefined(), []values.Value{values.String(path + ".nope")})
	require.NoError(t, err)
	require.False(t, v.Bool())
}
