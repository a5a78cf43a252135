package compiler

import "github.com/vela-lang/vela/errors"

// notImplemented records a compile-time NotImplemented diagnostic for a
// named feature, per SPEC_FULL.md's Open Question decision to leave
// dynamic import and other unimplemented stdlib surface as an explicit
// compile error rather than invented semantics.
func (c *Compiler) notImplemented(feature string) {
	c.errs.Add(errors.NewCompile(errors.KindNotImplemented, c.pos, "%s is not implemented", feature))
}

func (c *Compiler) errorf(kind errors.Kind, format string, args ...any) {
	c.errs.Add(errors.NewCompile(kind, c.pos, format, args...))
}
