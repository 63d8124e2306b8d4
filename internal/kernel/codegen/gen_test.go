package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderExpressions(t *testing.T) {
	tests := []struct {
		name string
		g    Gen
		want string
	}{
		{"ident", Ident("x"), "x"},
		{"negative literal", IntLit(-3), "-3"},
		{"binary", Add(Ident("a"), Mul(Ident("b"), IntLit(2))), "a + b * 2"},
		{"paren", Mul(Paren{X: Sub(Ident("a"), Ident("b"))}, IntLit(4)), "(a - b) * 4"},
		{"compare", And(Lt(Ident("x"), IntLit(8)), Ge(Ident("y"), IntLit(0))), "x < 8 && y >= 0"},
		{"call", Call{Func: "max", Args: []Gen{Ident("a"), IntLit(0)}}, "max(a, 0)"},
		{"empty call", Call{Func: "barrier"}, "barrier()"},
		{"method", Method{Recv: Args("src_tensor"), Name: "Read", Args: []Gen{Ident("x")}}, "args.src_tensor.Read(x)"},
		{"field", Field{X: Ident("v"), Name: Lanes[3]}, "v.w"},
		{"index", Index{X: Ident("c"), I: IntLit(5)}, "c[5]"},
		{"assign", Assign{X: Ident("a"), Y: Div(Ident("b"), IntLit(2))}, "a = b / 2"},
		{"add assign", AddAssign{X: Ident("r"), Y: Ident("t")}, "r += t"},
		{"stmt", Stmt{X: Ident("x")}, "x;"},
		{"return", Return{}, "return;"},
		{"seq", Seq{Ident("a"), Ident("b")}, "ab"},
		{"mod or", Or(Mod(Ident("i"), IntLit(2)), Ident("z")), "i % 2 || z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.g))
		})
	}
}

func TestRenderBlocks(t *testing.T) {
	block := Block{Depth: 1, Body: []Gen{
		Stmt{X: Ident("a")},
		If{Depth: 1, Cond: Ident("c"), Then: []Gen{Return{}}},
	}}
	assert.Equal(t, "  a;\n  if (c) {\n    return;\n  }\n", Render(block))

	lines := Lines{Ident("first"), Ident("second")}
	assert.Equal(t, "first\nsecond\n", Render(lines))
}

func TestCursor(t *testing.T) {
	var c Cursor
	assert.Equal(t, 0, c.Count())

	i, next := c.Next()
	assert.Equal(t, 0, i)
	j, next := next.Next()
	assert.Equal(t, 1, j)
	assert.Equal(t, 2, next.Count())

	// The original cursor is unchanged.
	assert.Equal(t, 0, c.Count())
}
