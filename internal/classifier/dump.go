package classifier

import (
	"io"
	"sort"

	"github.com/ALEYI17/InfraSight_flops/pkg/types"
	"github.com/davecgh/go-spew/spew"
)

// Rules returns every rule, iforms first, then mnemonics, then prefixes,
// each group sorted by key.
func (t *Table) Rules() []types.ClassificationRule {
	ret := make([]types.ClassificationRule, 0, t.Len())
	for _, group := range []map[string]types.ClassificationRule{t.iforms, t.mnemonics} {
		keys := make([]string, 0, len(group))
		for k := range group {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ret = append(ret, group[k])
		}
	}
	prefixes := append([]types.ClassificationRule(nil), t.prefixes...)
	sort.Slice(prefixes, func(i, j int) bool {
		return prefixes[i].Key < prefixes[j].Key
	})
	return append(ret, prefixes...)
}

func (t *Table) Dump(w io.Writer) {
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	cfg.Fdump(w, t.Rules())
}
