package impacts

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Results of one resolution run.
type Results struct {
	// Identifies the run in logs and traces.
	RunID string

	// Result of every rule that compiled and evaluated.
	Values map[string]Value

	// Rules left out of Values, with the cause: compile errors and
	// evaluation errors alike.
	Skipped map[string]error

	// Number of rules supplied to the run.
	Attempted int

	// Distinct variables referenced by the compiled rules, and how many the
	// resolver supplied.
	VariablesRequested int
	VariablesCollected int

	// Diagnostic data per rule; only available if diagnostics are turned on.
	Diagnostics map[string]*Diagnostics
}

// Resolved is the number of rules with a value.
func (u *Results) Resolved() int {
	return len(u.Values)
}

// Summary returns "M/N rules resolved".
func (u *Results) Summary() string {
	return fmt.Sprintf("%d/%d rules resolved", u.Resolved(), u.Attempted)
}

// Native returns the result map with plain Go values, suitable for JSON.
func (u *Results) Native() map[string]any {
	m := make(map[string]any, len(u.Values))
	for k, v := range u.Values {
		m[k] = v.Native()
	}
	return m
}

// String produces a table of every rule attempted and its outcome.
func (u *Results) String() string {
	tw := table.NewWriter()
	tw.SetTitle("\nRESULT SUMMARY\n%s\n", u.Summary())
	tw.AppendHeader(table.Row{"\nRule", "\nType", "Output\nValue", "Diagnostics\nAvailable?", "\nSkipped"})

	for _, id := range sortedKeys(u.Values) {
		v := u.Values[id]
		_, diag := u.Diagnostics[id]
		tw.AppendRow(table.Row{id, fmt.Sprintf("%v", v.Type), v.String(), yes(diag), ""})
	}
	for _, id := range sortedKeys(u.Skipped) {
		tw.AppendRow(table.Row{id, "", "", "", u.Skipped[id].Error()})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, WidthMax: 60},
	})
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

func yes(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
