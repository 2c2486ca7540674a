package classifier

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ALEYI17/InfraSight_flops/pkg/types"
)

//go:embed rules/x86.rules
var builtinRules string

// Table maps mnemonics to classification rules. It is built once and never
// mutated afterwards, so it is safe for concurrent use.
type Table struct {
	iforms    map[string]types.ClassificationRule
	mnemonics map[string]types.ClassificationRule
	prefixes  []types.ClassificationRule
}

func newTable() *Table {
	return &Table{
		iforms:    make(map[string]types.ClassificationRule),
		mnemonics: make(map[string]types.ClassificationRule),
	}
}

// Builtin parses the embedded x86 table.
func Builtin() (*Table, error) {
	t := newTable()
	if err := t.parse(strings.NewReader(builtinRules), "rules/x86.rules"); err != nil {
		return nil, err
	}
	return t, nil
}

// Load parses the embedded table followed by each extra rules file.
func Load(extra ...string) (*Table, error) {
	t, err := Builtin()
	if err != nil {
		return nil, err
	}
	for _, path := range extra {
		if path == "" {
			continue
		}
		if err := t.parseFile(path); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Parse builds a table from r alone, without the embedded rows.
func Parse(r io.Reader, name string) (*Table, error) {
	t := newTable()
	if err := t.parse(r, name); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open rules file: %w", err)
	}
	defer f.Close()
	return t.parse(f, path)
}

func (t *Table) parse(r io.Reader, name string) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(trimComments(sc.Text()))
		if len(fields) == 0 {
			continue
		}
		rule, err := parseRule(fields)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
		t.add(rule)
	}
	return sc.Err()
}

func (t *Table) add(rule types.ClassificationRule) {
	switch rule.Match {
	case types.MatchIForm:
		t.iforms[rule.Key] = rule
	case types.MatchMnemonic:
		t.mnemonics[rule.Key] = rule
	case types.MatchPrefix:
		for i, p := range t.prefixes {
			if p.Key == rule.Key {
				t.prefixes[i] = rule
				return
			}
		}
		t.prefixes = append(t.prefixes, rule)
	}
}

// Len is the number of distinct keys in the table.
func (t *Table) Len() int {
	return len(t.iforms) + len(t.mnemonics) + len(t.prefixes)
}

func parseRule(fields []string) (types.ClassificationRule, error) {
	var rule types.ClassificationRule
	if len(fields) < 7 {
		return rule, fmt.Errorf("want at least 7 columns, got %d", len(fields))
	}

	switch fields[0] {
	case "iform":
		rule.Match = types.MatchIForm
	case "mnemonic":
		rule.Match = types.MatchMnemonic
	case "prefix":
		rule.Match = types.MatchPrefix
	default:
		return rule, fmt.Errorf("unknown match kind %q", fields[0])
	}

	rule.Key = fields[1]
	if rule.Match == types.MatchMnemonic {
		rule.Key = strings.ToUpper(rule.Key)
	}

	switch fields[2] {
	case "flop":
		rule.Kind = types.KindFlop
	case "load":
		rule.Kind = types.KindLoad
	case "store":
		rule.Kind = types.KindStore
	case "total":
		rule.Kind = types.KindTotal
	case "notflop":
		rule.Kind = types.KindNotFlop
	default:
		return rule, fmt.Errorf("unknown kind %q", fields[2])
	}

	switch fields[3] {
	case "single":
		rule.Precision = types.PrecisionSingle
	case "double":
		rule.Precision = types.PrecisionDouble
	case "-":
	default:
		return rule, fmt.Errorf("unknown precision %q", fields[3])
	}

	switch fields[4] {
	case "packed":
		rule.Packed = true
	case "scalar", "-":
	default:
		return rule, fmt.Errorf("unknown shape %q", fields[4])
	}

	if fields[5] != "-" {
		n, err := strconv.ParseUint(fields[5], 10, 64)
		if err != nil {
			return rule, fmt.Errorf("bad flops column %q: %w", fields[5], err)
		}
		rule.FLOPsPerElement = n
	}

	switch fields[6] {
	case "yes":
		rule.FMA = true
	case "no":
	default:
		return rule, fmt.Errorf("bad fma column %q", fields[6])
	}

	for _, flag := range fields[7:] {
		switch flag {
		case "experimental":
			rule.Experimental = true
		default:
			return rule, fmt.Errorf("unknown flag %q", flag)
		}
	}

	if rule.Kind == types.KindFlop {
		if rule.Precision == types.PrecisionNone {
			return rule, fmt.Errorf("flop rule %s needs a precision", rule.Key)
		}
		if rule.FLOPsPerElement == 0 {
			return rule, fmt.Errorf("flop rule %s needs a FLOP count", rule.Key)
		}
	}

	return rule, nil
}

func trimComments(line string) string {
	hash := strings.IndexByte(line, '#')
	if hash == -1 {
		return line
	}
	return line[:hash]
}
