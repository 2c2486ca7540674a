package classifier

import (
	"strconv"
	"strings"

	"github.com/ALEYI17/InfraSight_flops/pkg/types"
)

// Classify maps a record to its rule. Lookup order is exact iform, base
// mnemonic, then the longest matching prefix. Records matching nothing come
// back with Known == false and are not FLOPs.
func (t *Table) Classify(rec types.InstructionRecord) types.Classification {
	if rule, ok := t.iforms[rec.IForm]; ok {
		return t.resolve(rule, rec, "")
	}
	if rule, ok := t.mnemonics[strings.ToUpper(rec.Mnemonic)]; ok {
		return t.resolve(rule, rec, "")
	}

	best := -1
	for i, p := range t.prefixes {
		if !strings.HasPrefix(rec.IForm, p.Key) {
			continue
		}
		if best == -1 || len(p.Key) > len(t.prefixes[best].Key) {
			best = i
		}
	}
	if best >= 0 {
		rule := t.prefixes[best]
		return t.resolve(rule, rec, strings.TrimPrefix(rec.IForm, rule.Key))
	}

	return types.Classification{
		Operands: types.Operands{
			Width:    registerWidth(rec.Operands),
			Maskable: maskable(rec.Operands),
		},
	}
}

func (t *Table) resolve(rule types.ClassificationRule, rec types.InstructionRecord, rest string) types.Classification {
	c := types.Classification{
		Rule:     rule,
		Operands: resolveOperands(rule, rec.Operands),
		Known:    true,
	}
	if rest == "" {
		return c
	}

	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return c
	}
	switch rule.Kind {
	case types.KindLoad, types.KindStore:
		c.Operands.AccessBytes = n
	case types.KindFlop:
		c.Operands.Elements = n
	}
	return c
}

// Unclassified reports whether c is an unknown record that still looks like
// floating point work, i.e. a candidate for a new table row.
func Unclassified(rec types.InstructionRecord, c types.Classification) bool {
	return !c.Known && looksFloatingPoint(strings.ToUpper(rec.Mnemonic))
}
