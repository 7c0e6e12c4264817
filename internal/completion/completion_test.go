package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvgrid/internal/filter"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	c, err := filter.NewCompiler()
	require.NoError(t, err)
	return ForCompiler(c, []string{"price", "name", "unit price", "cat"})
}

func texts(cs []Completion) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Text
	}
	return out
}

func TestToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"item.pr", "item.pr"},
		{"item.price > 1 && item.n", "item.n"},
		{"size(item.tags", "item.tags"},
		{"item.price > ", ""},
		{"item.name.sta", "item.name.sta"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Token(tt.in), tt.in)
	}
}

func TestCompleteFields(t *testing.T) {
	e := newTestEngine(t)

	cs := e.Complete("item.p")
	require.Len(t, cs, 1)
	assert.Equal(t, Completion{Text: "item.price", Label: "price", Kind: KindField}, cs[0])

	assert.Equal(t, []string{"item.cat", "item.name", "item.price", `item["unit price"]`}, texts(e.Complete("item.")))
}

func TestCompleteGlobals(t *testing.T) {
	e := newTestEngine(t)

	cs := e.Complete("ite")
	require.NotEmpty(t, cs)
	assert.Equal(t, Completion{Text: "item", Label: "item", Kind: KindVariable}, cs[0])

	assert.Contains(t, texts(e.Complete("si")), "size(")
	assert.Contains(t, texts(e.Complete("tr")), "true")
	assert.Empty(t, e.Complete("item.price > "))
}

func TestCompleteMethods(t *testing.T) {
	e := newTestEngine(t)

	assert.Contains(t, texts(e.Complete("item.name.startsW")), "item.name.startsWith(")
	assert.Contains(t, texts(e.Complete("item.zzz.lower")), "item.zzz.lowerAscii(")
	assert.Contains(t, texts(e.Complete("base64.enc")), "base64.encode(")
}

func TestApplyAndCommonPrefix(t *testing.T) {
	assert.Equal(t, "item.price > 1 && item.name", Apply("item.price > 1 && item.n", Completion{Text: "item.name"}))
	assert.Equal(t, "size(", Apply("si", Completion{Text: "size("}))

	assert.Equal(t, "item.", CommonPrefix([]Completion{{Text: "item.cat"}, {Text: "item.name"}}))
	assert.Equal(t, "item.na", CommonPrefix([]Completion{{Text: "item.name"}, {Text: "item.nap"}}))
	assert.Equal(t, "", CommonPrefix(nil))
}

func TestEngineWithoutEnvironment(t *testing.T) {
	e := NewEngine(nil, []string{"b", "a"})
	assert.Equal(t, []string{"item.a", "item.b"}, texts(e.Complete("item.")))
	assert.Equal(t, []string{"args"}, texts(e.Complete("ar")))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "field", KindField.String())
	assert.Equal(t, "variable", KindVariable.String())
	assert.Equal(t, "keyword", KindKeyword.String())
	assert.Equal(t, "function", KindFunction.String())
}
