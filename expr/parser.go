package expr

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	impacts "github.com/pacificclimate/p2a-rule-engine"
)

// Binding powers, lowest to highest. All binary operators are left
// associative.
const (
	bpLowest  = 0
	bpTernary = 10 // ? :
	bpLogical = 20 // && ||
	bpCompare = 30 // > < >= <= ==
	bpSum     = 40 // + -
	bpProduct = 50 // * /
	bpPrefix  = 60 // !
)

var infixPowers = map[Kind]int{
	Question: bpTernary,
	And:      bpLogical,
	Or:       bpLogical,
	Gt:       bpCompare,
	Lt:       bpCompare,
	Ge:       bpCompare,
	Le:       bpCompare,
	Eq:       bpCompare,
	Plus:     bpSum,
	Minus:    bpSum,
	Star:     bpProduct,
	Slash:    bpProduct,
}

// Parse parses a rule expression. Lexical errors are returned as
// *impacts.LexError, all other errors as *impacts.SyntaxError.
func Parse(src string) (*Program, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{
		toks: toks,
		prog: &Program{
			Variables: map[string]impacts.Variable{},
			Source:    src,
		},
	}
	root, err := p.parseExpression(bpLowest)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.Kind != EOF {
		return nil, p.errorf(t, "unexpected %s after complete expression", t.Kind)
	}
	p.prog.Root = root
	return p.prog, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Program {
	p, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return p
}

type parser struct {
	toks []Token
	pos  int
	prog *Program
}

func (p *parser) peek() Token {
	return p.toks[p.pos]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(k Kind) (Token, error) {
	t := p.next()
	if t.Kind != k {
		return t, p.errorf(t, "expected %s, found %s", k, t.Kind)
	}
	return t, nil
}

func (p *parser) errorf(t Token, format string, args ...any) error {
	return &impacts.SyntaxError{Pos: t.Pos, Token: t.Text, Msg: fmt.Sprintf(format, args...)}
}

// parseExpression parses the longest expression whose operators all bind
// tighter than rbp.
func (p *parser) parseExpression(rbp int) (Node, error) {
	left, err := p.nud(p.next())
	if err != nil {
		return nil, err
	}
	return p.parseInfix(left, rbp)
}

func (p *parser) parseInfix(left Node, rbp int) (Node, error) {
	for rbp < p.infixPower(p.peek()) {
		var err error
		left, err = p.led(p.next(), left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *parser) infixPower(t Token) int {
	// "5 -6" lexes as two numbers; the second one is a subtraction.
	if t.Kind == Number && strings.HasPrefix(t.Text, "-") {
		return bpSum
	}
	return infixPowers[t.Kind]
}

// nud parses a token at the start of an expression.
func (p *parser) nud(t Token) (Node, error) {
	switch t.Kind {
	case Number:
		d, err := decimal.NewFromString(t.Text)
		if err != nil {
			return nil, p.errorf(t, "invalid number: %v", err)
		}
		return &Literal{Pos: t.Pos, Value: d}, nil

	case Variable:
		v, err := impacts.ParseVariable(t.Text)
		if err != nil {
			return nil, p.errorf(t, "%v", err)
		}
		p.prog.Variables[v.Name] = v
		return &VariableRef{Pos: t.Pos, Name: t.Text}, nil

	case RuleIdent:
		return &RuleRef{Pos: t.Pos, Name: t.Text}, nil

	case Region:
		p.prog.Region = impacts.RegionSymbol
		return &RegionRef{Pos: t.Pos}, nil

	case Not:
		operand, err := p.parseExpression(bpPrefix)
		if err != nil {
			return nil, err
		}
		return &UnaryNot{Pos: t.Pos, Operand: operand}, nil

	case LParen:
		inner, err := p.parseExpression(bpLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RParen); err != nil {
			return nil, err
		}
		return inner, nil

	case EOF:
		return nil, p.errorf(t, "unexpected end of expression")
	}
	return nil, p.errorf(t, "unexpected %s", t.Kind)
}

// led parses the operator t whose left operand has already been parsed.
func (p *parser) led(t Token, left Node) (Node, error) {
	switch t.Kind {
	case Question:
		then, err := p.parseExpression(bpLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Colon); err != nil {
			return nil, err
		}
		els, err := p.parseExpression(bpTernary)
		if err != nil {
			return nil, err
		}
		return &Ternary{Pos: t.Pos, Cond: left, Then: then, Else: els}, nil

	case Number:
		// A negative number in operator position: subtract its magnitude,
		// which may itself be the left operand of * or /.
		d, err := decimal.NewFromString(t.Text)
		if err != nil {
			return nil, p.errorf(t, "invalid number: %v", err)
		}
		right, err := p.parseInfix(&Literal{Pos: t.Pos + 1, Value: d.Neg()}, bpSum)
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Pos: t.Pos, Op: OpSub, Left: left, Right: right}, nil
	}

	op, ok := binaryOps[t.Kind]
	if !ok {
		return nil, p.errorf(t, "unexpected %s", t.Kind)
	}
	right, err := p.parseExpression(infixPowers[t.Kind])
	if err != nil {
		return nil, err
	}
	return &BinaryOp{Pos: t.Pos, Op: op, Left: left, Right: right}, nil
}
