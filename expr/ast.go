package expr

import (
	"fmt"

	"github.com/shopspring/decimal"

	impacts "github.com/pacificclimate/p2a-rule-engine"
)

// Node is an element of the syntax tree of a rule expression.
// The set of node types is closed: Literal, VariableRef, RuleRef, RegionRef,
// BinaryOp, UnaryNot and Ternary.
type Node interface {
	// Position is the byte offset of the node in the expression.
	Position() int

	// String returns the node in prefix notation, e.g. (+ 1 (* 2 3)).
	String() string

	node()
}

// Literal is a number written in the expression.
type Literal struct {
	Pos   int
	Value decimal.Decimal
}

// VariableRef refers to a climate variable.
type VariableRef struct {
	Pos  int
	Name string
}

// RuleRef refers to another rule by name.
type RuleRef struct {
	Pos  int
	Name string
}

// RegionRef is the region predicate.
type RegionRef struct {
	Pos int
}

type BinaryOp struct {
	Pos         int
	Op          Op
	Left, Right Node
}

type UnaryNot struct {
	Pos     int
	Operand Node
}

// Ternary is cond ? then : else.
type Ternary struct {
	Pos              int
	Cond, Then, Else Node
}

func (n *Literal) Position() int     { return n.Pos }
func (n *VariableRef) Position() int { return n.Pos }
func (n *RuleRef) Position() int     { return n.Pos }
func (n *RegionRef) Position() int   { return n.Pos }
func (n *BinaryOp) Position() int    { return n.Pos }
func (n *UnaryNot) Position() int    { return n.Pos }
func (n *Ternary) Position() int     { return n.Pos }

func (n *Literal) String() string     { return n.Value.String() }
func (n *VariableRef) String() string { return n.Name }
func (n *RuleRef) String() string     { return n.Name }
func (n *RegionRef) String() string   { return impacts.RegionSymbol }
func (n *BinaryOp) String() string    { return fmt.Sprintf("(%s %s %s)", n.Op, n.Left, n.Right) }
func (n *UnaryNot) String() string    { return fmt.Sprintf("(! %s)", n.Operand) }
func (n *Ternary) String() string {
	return fmt.Sprintf("(? %s %s %s)", n.Cond, n.Then, n.Else)
}

func (*Literal) node()     {}
func (*VariableRef) node() {}
func (*RuleRef) node()     {}
func (*RegionRef) node()   {}
func (*BinaryOp) node()    {}
func (*UnaryNot) node()    {}
func (*Ternary) node()     {}

// Op is a binary operator.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpGt
	OpLt
	OpGe
	OpLe
	OpEq
	OpAnd
	OpOr
)

var opSymbols = [...]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpGt:  ">",
	OpLt:  "<",
	OpGe:  ">=",
	OpLe:  "<=",
	OpEq:  "==",
	OpAnd: "&&",
	OpOr:  "||",
}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opSymbols) {
		return opSymbols[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// binaryOps maps infix token kinds to operators.
var binaryOps = map[Kind]Op{
	Plus:  OpAdd,
	Minus: OpSub,
	Star:  OpMul,
	Slash: OpDiv,
	Gt:    OpGt,
	Lt:    OpLt,
	Ge:    OpGe,
	Le:    OpLe,
	Eq:    OpEq,
	And:   OpAnd,
	Or:    OpOr,
}

// Program is a parsed rule expression.
type Program struct {
	Root Node

	// Distinct variables referenced by the expression, keyed by name.
	Variables map[string]impacts.Variable

	// impacts.RegionSymbol if the expression uses the region predicate.
	Region string

	Source string
}

// Walk calls fn for n and every node below it, parents first.
// If fn returns false, the children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch x := n.(type) {
	case *BinaryOp:
		Walk(x.Left, fn)
		Walk(x.Right, fn)
	case *UnaryNot:
		Walk(x.Operand, fn)
	case *Ternary:
		Walk(x.Cond, fn)
		Walk(x.Then, fn)
		Walk(x.Else, fn)
	}
}

// RuleRefs returns the names of the rules referenced by the program, in
// order of first appearance.
func (p *Program) RuleRefs() []string {
	var refs []string
	seen := map[string]bool{}
	Walk(p.Root, func(n Node) bool {
		if r, ok := n.(*RuleRef); ok && !seen[r.Name] {
			seen[r.Name] = true
			refs = append(refs, r.Name)
		}
		return true
	})
	return refs
}
