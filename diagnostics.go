package impacts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Delta456/box-cli-maker/v2"
	"github.com/alexeyco/simpletable"
)

// ValueSource tells where a value in a Diagnostics tree came from.
type ValueSource int

const (
	Input     ValueSource = iota // a variable or the region predicate
	Evaluated                    // computed by an operator or literal
	Reference                    // the result of a referenced rule
)

func (s ValueSource) String() string {
	switch s {
	case Input:
		return "Input"
	case Evaluated:
		return "Evaluated"
	case Reference:
		return "Reference"
	}
	return fmt.Sprintf("ValueSource(%d)", int(s))
}

// Diagnostics records the value of every sub-expression evaluated for a rule.
// Branches skipped by short-circuiting or by the ternary operator are absent.
type Diagnostics struct {
	Expr     string
	Value    Value
	Source   ValueSource
	Children []Diagnostics
	Offset   int
}

// AsString renders a report of the evaluation of rule r. vars, if not nil,
// is listed as the input data; when r is known only the variables it
// refers to are shown.
func (d *Diagnostics) AsString(r *Rule, vars map[string]Value) string {
	var s strings.Builder
	if r != nil {
		section(&s, "Rule", r.ID)
		section(&s, "Expression", wrap(r.Expr, 100))
	}
	section(&s, "Evaluation State", d.stateTable().String())
	if vars != nil {
		section(&s, "Input Data", inputTable(r, vars).String())
	}
	b := box.New(box.Config{Px: 2, Py: 1, Type: "Double", Color: "Cyan", TitlePos: "Top", ContentAlign: "Left"})
	return b.String("RULE EVALUATION DIAGNOSTIC REPORT", strings.TrimSuffix(s.String(), "\n\n"))
}

func section(s *strings.Builder, title, body string) {
	fmt.Fprintf(s, "%s:\n%s\n%s\n\n", title, strings.Repeat("-", len(title)+1), body)
}

func inputTable(r *Rule, vars map[string]Value) *simpletable.Table {
	names := sortedKeys(vars)
	if r != nil {
		names = names[:0:0]
		for _, n := range r.VariableNames() {
			if _, ok := vars[n]; ok {
				names = append(names, n)
			}
		}
		if _, ok := vars[RegionSymbol]; ok && r.Region != "" {
			names = append(names, RegionSymbol)
		}
	}

	t := simpletable.New()
	t.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "Name"},
			{Align: simpletable.AlignCenter, Text: "Value"},
		},
	}
	for _, n := range names {
		t.Body.Cells = append(t.Body.Cells, []*simpletable.Cell{
			{Text: n},
			{Align: simpletable.AlignRight, Text: vars[n].String()},
		})
	}
	t.SetStyle(simpletable.StyleUnicode)
	return t
}

type stateRow struct {
	d     *Diagnostics
	depth int
}

// stateRows returns the nodes of one rule's evaluation in source order. The
// nodes of a referenced rule follow its Reference node, in the referenced
// rule's own source order.
func stateRows(n *Diagnostics, depth int) []stateRow {
	var local []stateRow
	var walk func(m *Diagnostics, depth int)
	walk = func(m *Diagnostics, depth int) {
		local = append(local, stateRow{m, depth})
		if m.Source == Reference {
			return
		}
		for i := range m.Children {
			walk(&m.Children[i], depth+1)
		}
	}
	walk(n, depth)
	sort.SliceStable(local, func(i, j int) bool {
		return local[i].d.Offset < local[j].d.Offset
	})

	rows := make([]stateRow, 0, len(local))
	for _, r := range local {
		rows = append(rows, r)
		if r.d.Source != Reference {
			continue
		}
		for i := range r.d.Children {
			rows = append(rows, stateRows(&r.d.Children[i], r.depth+1)...)
		}
	}
	return rows
}

// stateTable lists every evaluated node in source order, indented by depth.
func (d *Diagnostics) stateTable() *simpletable.Table {
	var rows []stateRow
	if d != nil {
		rows = stateRows(d, 0)
	}

	t := simpletable.New()
	t.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "Offset"},
			{Align: simpletable.AlignCenter, Text: "Expression"},
			{Align: simpletable.AlignCenter, Text: "Type"},
			{Align: simpletable.AlignCenter, Text: "Value"},
			{Align: simpletable.AlignCenter, Text: "Source"},
		},
	}
	for _, r := range rows {
		var typ string
		if r.d.Value.Type != nil {
			typ = r.d.Value.Type.String()
		}
		t.Body.Cells = append(t.Body.Cells, []*simpletable.Cell{
			{Align: simpletable.AlignRight, Text: fmt.Sprint(r.d.Offset)},
			{Text: strings.Repeat("  ", r.depth) + r.d.Expr},
			{Text: typ},
			{Align: simpletable.AlignRight, Text: r.d.Value.String()},
			{Text: r.d.Source.String()},
		})
	}
	t.SetStyle(simpletable.StyleUnicode)
	return t
}

// Flatten returns d and all its descendants, depth first.
func (d *Diagnostics) Flatten() []Diagnostics {
	if d == nil {
		return nil
	}
	l := []Diagnostics{*d}
	for i := range d.Children {
		l = append(l, d.Children[i].Flatten()...)
	}
	return l
}

// wrap breaks text into lines of at most width bytes at whitespace.
// Words longer than width get a line of their own.
func wrap(text string, width int) string {
	var (
		b    strings.Builder
		line int
	)
	for _, w := range strings.Fields(text) {
		switch {
		case line == 0:
		case line+1+len(w) > width:
			b.WriteByte('\n')
			line = 0
		default:
			b.WriteByte(' ')
			line++
		}
		b.WriteString(w)
		line += len(w)
	}
	return b.String()
}
