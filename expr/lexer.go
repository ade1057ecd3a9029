package expr

import (
	"errors"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	impacts "github.com/pacificclimate/p2a-rule-engine"
)

// Rules are tried in order and the first match wins, so identifiers are
// matched before numbers, and numbers before operators: "-6" is a number,
// "- 6" is an operator followed by a number.
var ruleLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Ident", Pattern: `[a-zA-Z]+[^()\s]*`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Operator", Pattern: `&&|\|\||==|>=|<=|[-+*/><!?:()]`},
})

var (
	symbols     = ruleLexer.Symbols()
	tWhitespace = symbols["Whitespace"]
	tIdent      = symbols["Ident"]
	tNumber     = symbols["Number"]
	tOperator   = symbols["Operator"]
)

// A rule reference is rule_ followed by at least one alphanumeric character.
var ruleIdent = regexp.MustCompile(`^rule_[a-zA-Z0-9]`)

// Lex splits a rule expression into tokens. The last token is always EOF.
// If any part of the input is not a token, Lex returns a *impacts.LexError
// and no tokens.
func Lex(src string) ([]Token, error) {
	lex, err := ruleLexer.LexString("", src)
	if err != nil {
		return nil, lexError(src, err)
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, lexError(src, err)
	}

	toks := make([]Token, 0, len(raw))
	for _, t := range raw {
		pos := t.Pos.Offset
		switch t.Type {
		case tWhitespace:
			continue
		case lexer.EOF:
			toks = append(toks, Token{Kind: EOF, Pos: pos})
		case tIdent:
			toks = append(toks, Token{Kind: classify(t.Value), Text: t.Value, Pos: pos})
		case tNumber:
			toks = append(toks, Token{Kind: Number, Text: t.Value, Pos: pos})
		case tOperator:
			k, ok := operatorKinds[t.Value]
			if !ok {
				return nil, &impacts.LexError{Pos: pos, Text: t.Value, Msg: "unknown operator"}
			}
			toks = append(toks, Token{Kind: k, Text: t.Value, Pos: pos})
		default:
			return nil, &impacts.LexError{Pos: pos, Text: t.Value, Msg: "unexpected token"}
		}
	}
	return toks, nil
}

func classify(ident string) Kind {
	switch {
	case ident == impacts.RegionSymbol:
		return Region
	case ruleIdent.MatchString(ident):
		return RuleIdent
	}
	return Variable
}

func lexError(src string, err error) error {
	le := &impacts.LexError{Msg: err.Error()}
	var perr *lexer.Error
	if errors.As(err, &perr) {
		le.Pos = perr.Pos.Offset
		le.Msg = "unrecognized input"
	}
	if le.Pos >= 0 && le.Pos <= len(src) {
		le.Text = sample(src[le.Pos:])
	}
	return le
}

// sample returns the start of s up to the next whitespace, at most 16 bytes.
func sample(s string) string {
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		s = s[:i]
	}
	if len(s) > 16 {
		s = s[:16]
	}
	return s
}
