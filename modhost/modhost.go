// Package modhost implements the module-loader contract spec.md section
// 6.2 and SPEC_FULL.md section 4.6 describe: a chain of Resolvers, tried
// in order, where the first to claim a specifier wins. Grounded on
// _examples/original_source/crates/dash_rt_timers/src/lib.rs's
// ModuleLoader::import trait (Result<Option<Value>, Value>: Ok(None)
// defers to the next loader, Ok(Some(v)) resolves, Err(v) throws) and
// _examples/original_source/crates/dash_vm/src/frame.rs's
// FrameState::Module(Exports) for what a resolved module value represents.
// The vm's EvaluateModule opcode calls into the Resolver configured via
// vm.Options.ModuleResolver to answer static `import` declarations; a
// host program can also call Resolve directly to hand a native module's
// exports object to script code (e.g. as a global).
package modhost

import "github.com/vela-lang/vela/values"

// Kind distinguishes a static (would be `import`) resolution from a
// dynamic (would be `import()`) one, since some hosts restrict dynamic
// imports (or disable them entirely, see errors/errors.go's
// KindImportDisabled) without restricting static ones.
type Kind int

const (
	Static Kind = iota
	Dynamic
)

// Resolver attempts to resolve specifier. found=false with a nil error
// means "not mine, try the next resolver in the chain" — the Go
// equivalent of Rust's Ok(None). A non-nil error is a value to throw
// (wrap it with values.Throw if it isn't already a thrown value), the Go
// equivalent of Err(v).
type Resolver interface {
	Resolve(sc values.Scope, kind Kind, specifier string) (v values.Value, found bool, err error)
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(sc values.Scope, kind Kind, specifier string) (values.Value, bool, error)

func (f ResolverFunc) Resolve(sc values.Scope, kind Kind, specifier string) (values.Value, bool, error) {
	return f(sc, kind, specifier)
}

// Chain tries each Resolver in order, returning the first one's match.
// An empty chain (or one where every resolver defers) throws
// ModuleNotFound, mirroring the error path errors/errors.go's
// KindModuleNotFound names for the static-import compile-time case.
type Chain struct {
	resolvers []Resolver
}

func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

func (c *Chain) Add(r Resolver) {
	c.resolvers = append(c.resolvers, r)
}

func (c *Chain) Resolve(sc values.Scope, kind Kind, specifier string) (values.Value, error) {
	for _, r := range c.resolvers {
		v, found, err := r.Resolve(sc, kind, specifier)
		if err != nil {
			return values.Undefined(), err
		}
		if found {
			return v, nil
		}
	}
	return values.Undefined(), sc.NewError("Error", "module not found: %s", specifier)
}

// StaticResolver serves a fixed table of specifier -> builder, the shape
// every native module in this package's sibling `natives` package is
// registered under (e.g. "vela:fs", "vela:timers", "vela:db"). A builder
// runs once per Resolve call: callers that want a singleton module
// instance (natives.TimerModule, for one) close over it themselves
// rather than this package caching anything.
type StaticResolver struct {
	modules map[string]func(sc values.Scope) (values.Value, error)
}

func NewStaticResolver() *StaticResolver {
	return &StaticResolver{modules: make(map[string]func(sc values.Scope) (values.Value, error))}
}

func (r *StaticResolver) Register(specifier string, build func(sc values.Scope) (values.Value, error)) {
	r.modules[specifier] = build
}

func (r *StaticResolver) Resolve(sc values.Scope, kind Kind, specifier string) (values.Value, bool, error) {
	build, ok := r.modules[specifier]
	if !ok {
		return values.Undefined(), false, nil
	}
	v, err := build(sc)
	if err != nil {
		return values.Undefined(), true, err
	}
	return v, true, nil
}
