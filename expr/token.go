package expr

import "fmt"

// Kind is the type of a token.
type Kind int

const (
	EOF Kind = iota
	Number
	Variable
	RuleIdent
	Region
	And      // &&
	Or       // ||
	Eq       // ==
	Ge       // >=
	Le       // <=
	Gt       // >
	Lt       // <
	Plus     // +
	Minus    // -
	Star     // *
	Slash    // /
	Not      // !
	Question // ?
	Colon    // :
	LParen   // (
	RParen   // )
)

var kindNames = map[Kind]string{
	EOF:       "EOF",
	Number:    "NUMBER",
	Variable:  "VARIABLE",
	RuleIdent: "RULE",
	Region:    "REGION",
	And:       "&&",
	Or:        "||",
	Eq:        "==",
	Ge:        ">=",
	Le:        "<=",
	Gt:        ">",
	Lt:        "<",
	Plus:      "+",
	Minus:     "-",
	Star:      "*",
	Slash:     "/",
	Not:       "!",
	Question:  "?",
	Colon:     ":",
	LParen:    "(",
	RParen:    ")",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// operatorKinds maps operator text to its kind.
var operatorKinds = map[string]Kind{
	"&&": And,
	"||": Or,
	"==": Eq,
	">=": Ge,
	"<=": Le,
	">":  Gt,
	"<":  Lt,
	"+":  Plus,
	"-":  Minus,
	"*":  Star,
	"/":  Slash,
	"!":  Not,
	"?":  Question,
	":":  Colon,
	"(":  LParen,
	")":  RParen,
}

// A Token is one lexical element of a rule expression.
type Token struct {
	Kind Kind
	Text string
	Pos  int // byte offset in the expression
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Text, t.Pos)
}
