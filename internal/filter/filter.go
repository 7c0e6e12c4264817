// Package filter compiles CEL expressions into row predicates and value
// getters. Expressions see the row as `item` and the caller's filter
// arguments as `args`.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/kvgrid/internal/item"
)

// Variable names bound in every expression.
const (
	ItemVar = "item"
	ArgsVar = "args"
)

// Predicate reports whether an item passes.
type Predicate func(it item.Item, args any) (bool, error)

// Getter derives a value from an item.
type Getter func(it item.Item) (any, error)

// Compiler owns a CEL environment.
type Compiler struct {
	env *cel.Env
}

// NewCompiler creates a compiler with the standard extension libraries.
// Additional options extend the environment.
func NewCompiler(opts ...cel.EnvOption) (*Compiler, error) {
	all := make([]cel.EnvOption, 0, 7+len(opts))
	all = append(all,
		cel.Variable(ItemVar, cel.DynType),
		cel.Variable(ArgsVar, cel.DynType),
		cel.CrossTypeNumericComparisons(true),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	all = append(all, opts...)
	env, err := cel.NewEnv(all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Compiler{env: env}, nil
}

// Environment returns the CEL environment for introspection.
func (c *Compiler) Environment() *cel.Env {
	return c.env
}

func (c *Compiler) program(expr string) (cel.Program, error) {
	ast, issues := c.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := c.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return prg, nil
}

// Compile turns expr into a Predicate. Evaluation errors and non-boolean
// results are returned to the caller.
func (c *Compiler) Compile(expr string) (Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty filter expression")
	}
	prg, err := c.program(expr)
	if err != nil {
		return nil, err
	}
	return func(it item.Item, args any) (bool, error) {
		out, _, err := prg.Eval(activation(it, args))
		if err != nil {
			return false, fmt.Errorf("eval %q: %w", expr, err)
		}
		b, ok := out.(types.Bool)
		if !ok {
			return false, fmt.Errorf("filter %q returned %s, want bool", expr, out.Type().TypeName())
		}
		return bool(b), nil
	}, nil
}

// CompileGetter turns expr into a Getter whose result is converted to Go
// values.
func (c *Compiler) CompileGetter(expr string) (Getter, error) {
	prg, err := c.program(strings.TrimSpace(expr))
	if err != nil {
		return nil, err
	}
	return func(it item.Item) (any, error) {
		out, _, err := prg.Eval(activation(it, nil))
		if err != nil {
			return nil, fmt.Errorf("eval %q: %w", expr, err)
		}
		return ToGo(out), nil
	}, nil
}

func activation(it item.Item, args any) map[string]any {
	return map[string]any{
		ItemVar: map[string]any(it),
		ArgsVar: args,
	}
}

// ToGo converts CEL values to Go values recursively.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}
	switch v := val.(type) {
	case types.Null:
		return nil
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	}

	valuer, ok := val.(interface{ Value() any })
	if !ok {
		return val
	}
	switch inner := valuer.Value().(type) {
	case []ref.Val:
		out := make([]any, len(inner))
		for i, e := range inner {
			out[i] = ToGo(e)
		}
		return out
	case []any:
		out := make([]any, len(inner))
		for i, e := range inner {
			out[i] = convert(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(inner))
		for k, e := range inner {
			out[k] = convert(e)
		}
		return out
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(inner))
		for k, e := range inner {
			out[item.Key(ToGo(k))] = ToGo(e)
		}
		return out
	default:
		return inner
	}
}

func convert(v any) any {
	if rv, ok := v.(ref.Val); ok {
		return ToGo(rv)
	}
	return v
}

var (
	macroCall = regexp.MustCompile(`\b(map|filter|all|exists|exists_one|has|size|dyn)\s*\(`)
	operators = []string{"==", "!=", "<=", ">=", "<", ">", "&&", "||", "!", "+", "*", "/", "?"}
)

// IsExpression reports whether s looks like a CEL expression rather than a
// plain field name, so flags can accept either.
func IsExpression(s string) bool {
	if strings.Contains(s, "[") || strings.HasPrefix(strings.TrimSpace(s), ItemVar+".") {
		return true
	}
	if macroCall.MatchString(s) {
		return true
	}
	for _, op := range operators {
		if strings.Contains(s, op) {
			return true
		}
	}
	return false
}
