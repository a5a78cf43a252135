package stdlib

import (
	"fmt"
	"os"
	"strings"

	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

// installConsole builds the `console` global object with log/info/warn/
// error, each formatting its arguments the same way and differing only in
// which stream they write to — grounded on the teacher's
// runInteractiveShell (_examples/wudi-hey/cmd/hey/main.go) writing
// directly to os.Stdout/os.Stderr rather than through a logging library,
// since script-level console output is the program's own product, not
// engine diagnostics.
func installConsole(sc values.Scope, env *statics.Env) {
	console := newObject(env)
	obj, _ := console.Object()

	logTo := func(w *os.File) runtime.NativeFn {
		return func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				s, err := consoleFormat(sc, a)
				if err != nil {
					return values.Undefined(), err
				}
				parts[i] = s
			}
			fmt.Fprintln(w, strings.Join(parts, " "))
			return values.Undefined(), nil
		}
	}

	native(sc, env, obj, "log", logTo(os.Stdout))
	native(sc, env, obj, "info", logTo(os.Stdout))
	native(sc, env, obj, "warn", logTo(os.Stderr))
	native(sc, env, obj, "error", logTo(os.Stderr))

	setGlobal(sc, env, "console", values.FromObject(console))
}

// consoleFormat renders a value the way console.log displays it: strings
// print bare, everything else falls back to ToString (objects print
// "[object Object]" since no inspector/util.inspect-style deep printer is
// in scope here).
func consoleFormat(sc values.Scope, v values.Value) (string, error) {
	if v.Kind == values.KindString {
		return v.Str(), nil
	}
	return values.ToString(sc, v)
}
