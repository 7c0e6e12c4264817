// Package completion suggests CEL tokens for the filter prompt: item
// fields after "item.", methods after any other dot, and variables,
// keywords and global functions elsewhere.
package completion

import (
	"sort"
	"strings"
	"unicode"

	"github.com/google/cel-go/cel"

	"github.com/oakwood-commons/kvgrid/internal/filter"
)

// Kind is the type of a completion.
type Kind int

const (
	KindField Kind = iota
	KindVariable
	KindKeyword
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindVariable:
		return "variable"
	case KindKeyword:
		return "keyword"
	default:
		return "function"
	}
}

// Completion is one suggestion. Text replaces the token being typed.
type Completion struct {
	Text  string
	Label string
	Kind  Kind
}

var keywords = []string{"true", "false", "null", "in"}

// Engine completes filter expressions over a fixed set of fields.
type Engine struct {
	fields    []string
	functions []string
}

// NewEngine lists the functions of env and remembers fields. A nil env
// completes fields, variables and keywords only.
func NewEngine(env *cel.Env, fields []string) *Engine {
	e := &Engine{fields: append([]string(nil), fields...)}
	sort.Strings(e.fields)
	if env != nil {
		for name := range env.Functions() {
			if isIdent(name) {
				e.functions = append(e.functions, name)
			}
		}
		sort.Strings(e.functions)
	}
	return e
}

// ForCompiler builds an engine over the environment filters compile in.
func ForCompiler(c *filter.Compiler, fields []string) *Engine {
	if c == nil {
		return NewEngine(nil, fields)
	}
	return NewEngine(c.Environment(), fields)
}

// Token returns the trailing identifier path of input, the part a
// completion replaces.
func Token(input string) string {
	i := len(input)
	for i > 0 {
		r := rune(input[i-1])
		if r != '.' && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		i--
	}
	return input[i:]
}

// Complete returns the completions for the token at the end of input.
func (e *Engine) Complete(input string) []Completion {
	tok := Token(input)
	if tok == "" {
		return nil
	}
	base, partial, dotted := cutLast(tok)
	if !dotted {
		return e.globals(partial)
	}
	if base == filter.ItemVar {
		if out := e.fieldsWith(partial); len(out) > 0 {
			return out
		}
	}
	return e.methods(base, partial)
}

func cutLast(tok string) (base, partial string, dotted bool) {
	i := strings.LastIndexByte(tok, '.')
	if i < 0 {
		return "", tok, false
	}
	return tok[:i], tok[i+1:], true
}

func (e *Engine) fieldsWith(prefix string) []Completion {
	var out []Completion
	for _, f := range e.fields {
		if !strings.HasPrefix(f, prefix) {
			continue
		}
		text := filter.ItemVar + "." + f
		if !isIdent(f) || strings.Contains(f, ".") {
			text = filter.ItemVar + `["` + f + `"]`
		}
		out = append(out, Completion{Text: text, Label: f, Kind: KindField})
	}
	return out
}

func (e *Engine) methods(base, prefix string) []Completion {
	var out []Completion
	ns := base + "." + prefix
	for _, fn := range e.functions {
		switch {
		case strings.HasPrefix(fn, ns):
			out = append(out, Completion{Text: fn + "(", Label: fn + "()", Kind: KindFunction})
		case strings.HasPrefix(fn, prefix) && !strings.Contains(fn, "."):
			out = append(out, Completion{Text: base + "." + fn + "(", Label: fn + "()", Kind: KindFunction})
		}
	}
	return out
}

func (e *Engine) globals(prefix string) []Completion {
	var out []Completion
	for _, v := range []string{filter.ItemVar, filter.ArgsVar} {
		if strings.HasPrefix(v, prefix) {
			out = append(out, Completion{Text: v, Label: v, Kind: KindVariable})
		}
	}
	for _, k := range keywords {
		if strings.HasPrefix(k, prefix) {
			out = append(out, Completion{Text: k, Label: k, Kind: KindKeyword})
		}
	}
	for _, fn := range e.functions {
		if strings.HasPrefix(fn, prefix) {
			out = append(out, Completion{Text: fn + "(", Label: fn + "()", Kind: KindFunction})
		}
	}
	return out
}

// Apply replaces the trailing token of input with c.
func Apply(input string, c Completion) string {
	return strings.TrimSuffix(input, Token(input)) + c.Text
}

// CommonPrefix returns the longest text every completion starts with.
func CommonPrefix(cs []Completion) string {
	if len(cs) == 0 {
		return ""
	}
	p := cs[0].Text
	for _, c := range cs[1:] {
		for !strings.HasPrefix(c.Text, p) {
			p = p[:len(p)-1]
		}
	}
	return p
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		case i > 0 && r == '.':
		default:
			return false
		}
	}
	return true
}
