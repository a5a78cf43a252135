package natives

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

// DB wraps a database/sql handle as the "vela:db" module's connection
// value, exposing query/exec/close. Grounded on
// _examples/original_source/crates/dash_rt_sqlx/src/db.rs's Database
// (NamedObject plus a connection, most of its Object methods
// delegate!'d straight through) — collapsed here into direct Go methods
// instead of dash_rt_sqlx's mpsc::Sender-driven async executor, since
// Go's database/sql already serializes concurrent callers on its own
// connection pool and needs no hand-rolled dispatch goroutine to be used
// safely from a native function.
type DB struct {
	*values.NamedObject
	conn *sql.DB
}

func (d *DB) AsAny() any { return d }

// OpenDB opens driverName/dsn — "sqlite"/"mysql"/"postgres" per the
// drivers blank-imported above — without touching the connection until
// the first query, matching database/sql's own lazy-connect contract.
func OpenDB(env *statics.Env, driverName, dsn string) (*DB, error) {
	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{NamedObject: values.NewNamedObject(env.ObjectProto, values.ObjectHandle{}), conn: conn}, nil
}

// InstallDB wires db's query/exec/close methods onto a fresh object
// handle wrapping it, for a host to register under "vela:db" via
// modhost.StaticResolver.
func InstallDB(sc values.Scope, env *statics.Env, db *DB) values.ObjectHandle {
	h := values.WrapHandle(env.Heap.Register(db))
	obj, _ := h.Object()

	native(sc, env, obj, "query", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		query, err := values.ToString(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		params := goParams(sc, args[minInt(1, len(args)):])

		rows, err := db.conn.Query(query, params...)
		if err != nil {
			return values.Undefined(), sc.NewError("Error", "query failed: %s", err.Error())
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return values.Undefined(), sc.NewError("Error", "%s", err.Error())
		}

		var result []values.Value
		for rows.Next() {
			scanDest := make([]any, len(cols))
			scanPtrs := make([]any, len(cols))
			for i := range scanDest {
				scanPtrs[i] = &scanDest[i]
			}
			if err := rows.Scan(scanPtrs...); err != nil {
				return values.Undefined(), sc.NewError("Error", "%s", err.Error())
			}

			rowObj := values.NewNamedObject(env.ObjectProto, values.ObjectHandle{})
			rowHandle := values.WrapHandle(env.Heap.Register(rowObj))
			for i, col := range cols {
				rowObj.SetProperty(sc, values.StringKey(col), values.StaticProperty(goValueToJS(scanDest[i])))
			}
			result = append(result, values.FromObject(rowHandle))
		}
		if err := rows.Err(); err != nil {
			return values.Undefined(), sc.NewError("Error", "%s", err.Error())
		}

		arr := runtime.NewArray(env.ArrayProto, result)
		return values.FromObject(values.WrapHandle(env.Heap.Register(arr))), nil
	})

	native(sc, env, obj, "exec", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		query, err := values.ToString(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		params := goParams(sc, args[minInt(1, len(args)):])

		res, err := db.conn.Exec(query, params...)
		if err != nil {
			return values.Undefined(), sc.NewError("Error", "exec failed: %s", err.Error())
		}
		n, _ := res.RowsAffected()
		return values.Number(float64(n)), nil
	})

	native(sc, env, obj, "close", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		if err := db.conn.Close(); err != nil {
			return values.Undefined(), sc.NewError("Error", "%s", err.Error())
		}
		return values.Undefined(), nil
	})

	return h
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func goParams(sc values.Scope, args []values.Value) []any {
	params := make([]any, len(args))
	for i, a := range args {
		params[i] = goParam(sc, a)
	}
	return params
}

func goParam(sc values.Scope, v values.Value) any {
	switch v.Kind {
	case values.KindNumber:
		return v.Num()
	case values.KindString:
		return v.Str()
	case values.KindBoolean:
		return v.Bool()
	case values.KindNull, values.KindUndefined:
		return nil
	default:
		s, _ := values.ToString(sc, v)
		return s
	}
}

func goValueToJS(v any) values.Value {
	switch t := v.(type) {
	case nil:
		return values.Null()
	case int64:
		return values.Number(float64(t))
	case float64:
		return values.Number(t)
	case bool:
		return values.Bool(t)
	case []byte:
		return values.String(string(t))
	case string:
		return values.String(t)
	default:
		return values.String(fmt.Sprintf("%v", t))
	}
}
