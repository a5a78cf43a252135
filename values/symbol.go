package values

import "github.com/google/uuid"

// Symbol is a unique property key. Per spec.md section 3, two symbols with
// the same description are distinct values. A freshly minted UUID gives
// every Symbol a stable identity independent of the pointer that happens
// to back it at runtime (symbols are sometimes copied across frames as
// constants), which is what Equal compares rather than Go pointer
// identity. PropertyKey stores the *Symbol itself, so property-map
// lookups do go by pointer identity.
type Symbol struct {
	Description string
	id          uuid.UUID
}

func NewSymbol(description string) *Symbol {
	return &Symbol{Description: description, id: uuid.New()}
}

func (s *Symbol) Equal(o *Symbol) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.id == o.id
}

func (s *Symbol) String() string {
	return "Symbol(" + s.Description + ")"
}

// ID exposes the UUID that Equal compares; uuid.UUID is a fixed-size
// array and compares by value.
func (s *Symbol) ID() uuid.UUID { return s.id }

// SymbolIterator is the well-known Symbol.iterator used to look up a
// custom iteration protocol on a plain object (spec.md section 4.4's
// for-of desugaring). It is a single package-level instance rather than
// minted per VM so that two independently-compiled modules agree on the
// same well-known key, matching how ECMA-262 treats well-known symbols
// as process-wide singletons.
var SymbolIterator = NewSymbol("Symbol.iterator")
