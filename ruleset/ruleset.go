// Package ruleset reads rule definitions and fixed variable values from
// files.
package ruleset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	impacts "github.com/pacificclimate/p2a-rule-engine"
)

// Load reads rules from a semicolon delimited CSV file with a header row.
// The first column is the rule id and the second the condition; other
// columns are ignored. Ids are given the rule prefix, so a row "1a;x > 0"
// defines rule_1a. A later row replaces an earlier one with the same id.
func Load(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	rules := map[string]string{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rules, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading rules: %w", err)
		}
		if len(row) < 2 {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected id and condition, got %d field(s)", line, len(row))
		}
		id := impacts.RulePrefix + strings.TrimSpace(row[0])
		rules[id] = strings.TrimSpace(row[1])
	}
}

// LoadFile reads rules from the CSV file at path.
func LoadFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rules, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// LoadValues reads a JSON object of variable name to number or boolean.
func LoadValues(r io.Reader) (impacts.StaticResolver, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding values: %w", err)
	}

	values := make(impacts.StaticResolver, len(raw))
	for name, msg := range raw {
		v, err := decodeValue(msg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		values[name] = v
	}
	return values, nil
}

// LoadValuesFile reads variable values from the JSON file at path.
func LoadValuesFile(path string) (impacts.StaticResolver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	values, err := LoadValues(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

func decodeValue(msg json.RawMessage) (impacts.Value, error) {
	d := json.NewDecoder(bytes.NewReader(msg))
	d.UseNumber()
	var x any
	if err := d.Decode(&x); err != nil {
		return impacts.Value{}, err
	}
	switch x := x.(type) {
	case bool:
		return impacts.BoolValue(x), nil
	case json.Number:
		return impacts.ParseNumber(x.String())
	}
	return impacts.Value{}, fmt.Errorf("%w: expected number or boolean, got %s", impacts.ErrTypeMismatch, msg)
}
