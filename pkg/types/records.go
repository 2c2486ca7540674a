package types

import "fmt"

type ThreadID struct {
	TID   uint32
	OSTID uint64
}

func (t ThreadID) String() string {
	return fmt.Sprintf("TID %d (OS-TID %d)", t.TID, t.OSTID)
}

// InstructionRecord is one iform or category line of the mix trace. A record
// with Header set carries no instruction: it marks the opening of a thread
// section, so threads without any records are still observed.
type InstructionRecord struct {
	Thread   ThreadID
	IForm    string
	Mnemonic string
	Operands []string
	Count    uint64
	Line     int
	Header   bool
}

func (r InstructionRecord) IsCategory() bool {
	return !r.Header && len(r.IForm) > 0 && r.IForm[0] == '*'
}

type ClassificationRule struct {
	Match           MatchKind
	Key             string
	Kind            RuleKind
	Precision       Precision
	Packed          bool
	FLOPsPerElement uint64
	FMA             bool
	Experimental    bool
}

// Operands is what the classifier resolved from a record's operand hints.
type Operands struct {
	Width       WidthClass
	Elements    uint64
	AccessBytes uint64
	Maskable    bool
}

type Classification struct {
	Rule     ClassificationRule
	Operands Operands
	// Known is false when no table row matched the record.
	Known bool
}

func (c Classification) IsFlop() bool {
	return c.Rule.Kind == KindFlop && c.Rule.Precision != PrecisionNone && c.Operands.Elements > 0
}

type LaneCount struct {
	Active      uint64
	Occurrences uint64
}

type MaskKey struct {
	TID   uint32
	Index int
}

type MaskProfileEntry struct {
	Key          MaskKey
	Mnemonic     string
	Disassembly  string
	Masked       bool
	VectorBits   uint64
	ElementBits  uint64
	Executions   uint64
	Computations uint64
	Lanes        []LaneCount
	Line         int
}

// ActiveLanes is the sum of active lanes over all executions.
func (e MaskProfileEntry) ActiveLanes() uint64 {
	var n uint64
	for _, l := range e.Lanes {
		n += l.Active * l.Occurrences
	}
	return n
}

type SummaryRow struct {
	MaskType     string
	VectorBits   uint64
	Elements     uint64
	ElementBits  uint64
	ElementType  string
	Instructions uint64
	Computations uint64
}

type MaskProfile struct {
	entries   map[MaskKey]MaskProfileEntry
	counts    map[uint32]int
	summaries map[uint32][]SummaryRow
	threads   []uint32
}

func NewMaskProfile() *MaskProfile {
	return &MaskProfile{
		entries:   make(map[MaskKey]MaskProfileEntry),
		counts:    make(map[uint32]int),
		summaries: make(map[uint32][]SummaryRow),
	}
}

func (p *MaskProfile) addThread(tid uint32) {
	if _, ok := p.counts[tid]; !ok {
		p.counts[tid] = 0
		p.threads = append(p.threads, tid)
	}
}

// Add appends e as the next occurrence of its thread and returns its index.
func (p *MaskProfile) Add(e MaskProfileEntry) int {
	p.addThread(e.Key.TID)
	e.Key.Index = p.counts[e.Key.TID]
	p.entries[e.Key] = e
	p.counts[e.Key.TID]++
	return e.Key.Index
}

func (p *MaskProfile) AddSummary(tid uint32, row SummaryRow) {
	p.addThread(tid)
	p.summaries[tid] = append(p.summaries[tid], row)
}

// Lookup is safe on a nil profile.
func (p *MaskProfile) Lookup(tid uint32, index int) (MaskProfileEntry, bool) {
	if p == nil {
		return MaskProfileEntry{}, false
	}
	e, ok := p.entries[MaskKey{TID: tid, Index: index}]
	return e, ok
}

func (p *MaskProfile) Summary(tid uint32) []SummaryRow {
	if p == nil {
		return nil
	}
	return p.summaries[tid]
}

func (p *MaskProfile) Threads() []uint32 {
	if p == nil {
		return nil
	}
	return p.threads
}

func (p *MaskProfile) Entries(tid uint32) int {
	if p == nil {
		return 0
	}
	return p.counts[tid]
}

func (p *MaskProfile) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}
