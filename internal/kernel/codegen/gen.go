// Package codegen builds kernel source text from small syntax nodes instead of
// ad hoc string concatenation. Every node appends its rendering to a byte slice;
// constructs whose spelling differs between kernel languages come from a Dialect.
package codegen

import "strconv"

const (
	indentUnit = "  "
	newline    = "\n"
	semicolon  = ";"
	space      = " "
)

// Gen is one piece of generated source.
type Gen interface {
	Append(to []byte) []byte
}

// Render returns the source text of g.
func Render(g Gen) string {
	return string(g.Append(nil))
}

// Ident is an identifier or any verbatim token.
type Ident string

func (i Ident) Append(to []byte) []byte {
	return append(to, i...)
}

// IntLit is a decimal integer literal.
type IntLit int

func (i IntLit) Append(to []byte) []byte {
	return strconv.AppendInt(to, int64(i), 10)
}

// Binary is "X op Y".
type Binary struct {
	Op   string
	X, Y Gen
}

func (b Binary) Append(to []byte) []byte {
	to = b.X.Append(to)
	to = append(to, space...)
	to = append(to, b.Op...)
	to = append(to, space...)
	return b.Y.Append(to)
}

// Add returns x + y.
func Add(x, y Gen) Gen { return Binary{Op: "+", X: x, Y: y} }

// Sub returns x - y.
func Sub(x, y Gen) Gen { return Binary{Op: "-", X: x, Y: y} }

// Mul returns x * y.
func Mul(x, y Gen) Gen { return Binary{Op: "*", X: x, Y: y} }

// Div returns x / y.
func Div(x, y Gen) Gen { return Binary{Op: "/", X: x, Y: y} }

// Mod returns x % y.
func Mod(x, y Gen) Gen { return Binary{Op: "%", X: x, Y: y} }

// Lt returns x < y.
func Lt(x, y Gen) Gen { return Binary{Op: "<", X: x, Y: y} }

// Ge returns x >= y.
func Ge(x, y Gen) Gen { return Binary{Op: ">=", X: x, Y: y} }

// And returns x && y.
func And(x, y Gen) Gen { return Binary{Op: "&&", X: x, Y: y} }

// Or returns x || y.
func Or(x, y Gen) Gen { return Binary{Op: "||", X: x, Y: y} }

// Assign is "X = Y".
type Assign struct {
	X, Y Gen
}

func (a Assign) Append(to []byte) []byte {
	return Binary{Op: "=", X: a.X, Y: a.Y}.Append(to)
}

// AddAssign is "X += Y".
type AddAssign struct {
	X, Y Gen
}

func (a AddAssign) Append(to []byte) []byte {
	return Binary{Op: "+=", X: a.X, Y: a.Y}.Append(to)
}

// Paren wraps an expression in parentheses.
type Paren struct {
	X Gen
}

func (p Paren) Append(to []byte) []byte {
	to = append(to, '(')
	to = p.X.Append(to)
	return append(to, ')')
}

// Call is "Func(Args...)".
type Call struct {
	Func string
	Args []Gen
}

func (c Call) Append(to []byte) []byte {
	to = append(to, c.Func...)
	return appendArgs(to, c.Args)
}

// Method is "Recv.Name(Args...)".
type Method struct {
	Recv Gen
	Name string
	Args []Gen
}

func (m Method) Append(to []byte) []byte {
	to = m.Recv.Append(to)
	to = append(to, '.')
	to = append(to, m.Name...)
	return appendArgs(to, m.Args)
}

func appendArgs(to []byte, args []Gen) []byte {
	to = append(to, '(')
	for i, a := range args {
		if i > 0 {
			to = append(to, ", "...)
		}
		to = a.Append(to)
	}
	return append(to, ')')
}

// Field is "X.Name", used for vector lanes and argument objects.
type Field struct {
	X    Gen
	Name string
}

func (f Field) Append(to []byte) []byte {
	to = f.X.Append(to)
	to = append(to, '.')
	return append(to, f.Name...)
}

// Index is "X[I]".
type Index struct {
	X, I Gen
}

func (i Index) Append(to []byte) []byte {
	to = i.X.Append(to)
	to = append(to, '[')
	to = i.I.Append(to)
	return append(to, ']')
}

// Lanes are the component names of a 4-wide vector.
var Lanes = [4]string{"x", "y", "z", "w"}

// Stmt terminates an expression or declaration with a semicolon.
type Stmt struct {
	X Gen
}

func (s Stmt) Append(to []byte) []byte {
	to = s.X.Append(to)
	return append(to, semicolon...)
}

// Return is a bare return statement.
type Return struct{}

func (Return) Append(to []byte) []byte {
	return append(to, "return;"...)
}

// Block renders each statement on its own line at the given depth.
type Block struct {
	Depth int
	Body  []Gen
}

func (b Block) Append(to []byte) []byte {
	for _, s := range b.Body {
		for i := 0; i < b.Depth; i++ {
			to = append(to, indentUnit...)
		}
		to = s.Append(to)
		to = append(to, newline...)
	}
	return to
}

// If is "if (Cond) {" followed by Then and a closing brace at Depth.
type If struct {
	Depth int
	Cond  Gen
	Then  []Gen
}

func (i If) Append(to []byte) []byte {
	to = append(to, "if ("...)
	to = i.Cond.Append(to)
	to = append(to, ") {\n"...)
	to = Block{Depth: i.Depth + 1, Body: i.Then}.Append(to)
	for d := 0; d < i.Depth; d++ {
		to = append(to, indentUnit...)
	}
	return append(to, '}')
}

// Lines joins top-level pieces, each followed by a newline.
type Lines []Gen

func (l Lines) Append(to []byte) []byte {
	for _, g := range l {
		to = g.Append(to)
		to = append(to, newline...)
	}
	return to
}

// Seq concatenates pieces with nothing between them.
type Seq []Gen

func (s Seq) Append(to []byte) []byte {
	for _, g := range s {
		to = g.Append(to)
	}
	return to
}
