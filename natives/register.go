package natives

import (
	"github.com/vela-lang/vela/async"
	"github.com/vela-lang/vela/modhost"
	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

// DefaultResolver builds the modhost.Resolver SPEC_FULL.md section 4.6
// calls for: a StaticResolver serving exactly the three native modules
// this package implements, registered under the specifiers the
// expansion's module table names ("vela:fs", "vela:timers", "vela:db").
// dbDriver/dbDSN select the database/sql backend "vela:db" opens; every
// resolution of "vela:db" opens a fresh *DB of its own rather than
// sharing one (empty dbDriver skips registering "vela:db" entirely,
// for an embedder that never needs it). The returned TimerModule must be
// drained by the caller's event loop the same way engine.drain in
// cmd/vela does, or a pending setTimeout will never run.
func DefaultResolver(env *statics.Env, queue *async.Queue, dbDriver, dbDSN string) (*modhost.StaticResolver, *TimerModule) {
	resolver := modhost.NewStaticResolver()
	tm := NewTimerModule(queue)

	resolver.Register("vela:fs", func(sc values.Scope) (values.Value, error) {
		return values.FromObject(InstallFS(sc, env)), nil
	})
	resolver.Register("vela:timers", func(sc values.Scope) (values.Value, error) {
		return values.FromObject(tm.Install(sc, env)), nil
	})
	if dbDriver != "" {
		resolver.Register("vela:db", func(sc values.Scope) (values.Value, error) {
			db, err := OpenDB(env, dbDriver, dbDSN)
			if err != nil {
				return values.Undefined(), sc.NewError("Error", "%s", err.Error())
			}
			return values.FromObject(InstallDB(sc, env, db)), nil
		})
	}

	return resolver, tm
}
