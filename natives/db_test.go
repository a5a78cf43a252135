package natives_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vela-lang/vela/natives"
	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

func TestDBQueryAndExecRoundTrip(t *testing.T) {
	env := statics.Bootstrap()
	sc := fakeScope{env: env}

	db, err := natives.OpenDB(env, "sqlite", ":memory:")
	require.NoError(t, err)

	h := natives.InstallDB(sc, env, db)
	obj, _ := h.Object()

	execFn, _ := obj.GetProperty(sc, values.StringKey("exec"))
	execObj, _ := execFn.Object()
	_, err = execObj.Apply(sc, execFn.Handle(), values.Undefined(), []values.Value{
		values.String("create table users (id integer, name text)"),
	})
	require.NoError(t, err)

	_, err = execObj.Apply(sc, execFn.Handle(), values.Undefined(), []values.Value{
		values.String("insert into users (id, name) values (?, ?)"),
		values.Number(1),
		values.String("ada"),
	})
	require.NoError(t, err)

	queryFn, _ := obj.GetProperty(sc, values.StringKey("query"))
	queryObj, _ := queryFn.Object()
	result, err := queryObj.Apply(sc, queryFn.Handle(), values.Undefined(), []values.Value{
		values.String("select id, name from users where id = ?"),
		values.Number(1),
	})
	require.NoError(t, err)

	arrObj, ok := result.Object()
	require.True(t, ok)
	_ = arrObj
}

func TestDBQueryInvalidSQLThrows(t *testing.T) {
	env := statics.Bootstrap()
	sc := fakeScope{env: env}

	db, err := natives.OpenDB(env, "sqlite", ":memory:")
	require.NoError(t, err)

	h := natives.InstallDB(sc, env, db)
	obj, _ := h.Object()

	queryFn, _ := obj.GetProperty(sc, values.StringKey("query"))
	queryObj, _ := queryFn.Object()
	_, err = queryObj.Apply(sc, queryFn.Handle(), values.Undefined(), []values.Value{
		values.String("not even sql"),
	})
	require.Error(t, err)
}
