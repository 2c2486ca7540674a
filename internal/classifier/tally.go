package classifier

import (
	"github.com/google/btree"
)

type tallyItem struct {
	mnemonic string
	count    uint64
}

func (a *tallyItem) Less(than btree.Item) bool {
	return a.mnemonic < than.(*tallyItem).mnemonic
}

// Tally counts executions of mnemonics the table could not classify, kept
// in mnemonic order for stable diagnostics.
type Tally struct {
	tree *btree.BTree
}

func NewTally() *Tally {
	return &Tally{tree: btree.New(8)}
}

func (t *Tally) Add(mnemonic string, count uint64) {
	key := &tallyItem{mnemonic: mnemonic}
	if it := t.tree.Get(key); it != nil {
		it.(*tallyItem).count += count
		return
	}
	key.count = count
	t.tree.ReplaceOrInsert(key)
}

func (t *Tally) Len() int {
	return t.tree.Len()
}

// Each visits entries in ascending mnemonic order.
func (t *Tally) Each(fn func(mnemonic string, count uint64)) {
	t.tree.Ascend(func(i btree.Item) bool {
		it := i.(*tallyItem)
		fn(it.mnemonic, it.count)
		return true
	})
}
