package aggregator

import (
	"strings"
	"sync"

	"github.com/ALEYI17/InfraSight_flops/internal/classifier"
	"github.com/ALEYI17/InfraSight_flops/pkg/logutil"
	"github.com/ALEYI17/InfraSight_flops/pkg/types"
	"go.uber.org/zap"
)

type Classifier interface {
	Classify(rec types.InstructionRecord) types.Classification
}

// Stats summarise how the mask join went over the whole run.
type Stats struct {
	Records           uint64
	Fallbacks         uint64
	CorrelationMisses uint64
	Joined            uint64
}

var _ types.Trace_collectors = (*FlopAggregator)(nil)

type FlopAggregator struct {
	classifier Classifier
	profile    *types.MaskProfile

	mu      sync.Mutex
	threads map[uint32]*ThreadState
	order   []uint32
	records uint64

	experimental map[string]struct{}
	tally        *classifier.Tally
}

// NewFlopAggregator joins records against profile, which may be nil when no
// mask profile was available.
func NewFlopAggregator(c Classifier, profile *types.MaskProfile) *FlopAggregator {
	return &FlopAggregator{
		classifier:   c,
		profile:      profile,
		threads:      make(map[uint32]*ThreadState),
		experimental: make(map[string]struct{}),
		tally:        classifier.NewTally(),
	}
}

func (fa *FlopAggregator) ensureThread(t types.ThreadID) *ThreadState {
	ts, ok := fa.threads[t.TID]
	if !ok {
		ts = &ThreadState{Thread: t}
		fa.threads[t.TID] = ts
		fa.order = append(fa.order, t.TID)
	}
	return ts
}

// Update applies one record. Each record must be applied exactly once and in
// trace order, since the mask join is positional. Header records only
// register their thread.
func (fa *FlopAggregator) Update(rec types.InstructionRecord) {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	ts := fa.ensureThread(rec.Thread)
	if rec.Header {
		return
	}
	fa.records++
	c := fa.classifier.Classify(rec)

	switch c.Rule.Kind {
	case types.KindTotal:
		ts.Counters.Instructions += rec.Count
		return
	case types.KindLoad:
		ts.Counters.BytesRead += c.Operands.AccessBytes * rec.Count
		return
	case types.KindStore:
		ts.Counters.BytesWritten += c.Operands.AccessBytes * rec.Count
		return
	}
	if rec.IsCategory() {
		return
	}

	var (
		entry  types.MaskProfileEntry
		joined bool
	)
	if c.Operands.Maskable {
		entry, joined = fa.join(ts, rec)
	}

	if !c.IsFlop() {
		if classifier.Unclassified(rec, c) {
			fa.tally.Add(strings.ToUpper(rec.Mnemonic), rec.Count)
		}
		return
	}

	if c.Rule.Experimental {
		fa.warnExperimental(rec)
	}
	if c.Rule.FMA {
		ts.Counters.FMAs += rec.Count
	}

	perElement := c.Rule.FLOPsPerElement
	elements := c.Operands.Elements

	if !joined {
		if c.Operands.Maskable {
			ts.Fallbacks++
		}
		ts.addUnmasked(c.Rule.Precision, perElement*elements*rec.Count)
		return
	}

	ts.Joined++
	lanes, covered := activeLanes(entry, elements, rec.Count)
	if entry.Masked {
		ts.addMasked(c.Rule.Precision, perElement*lanes)
	} else {
		ts.addUnmasked(c.Rule.Precision, perElement*lanes)
	}
	if covered < rec.Count {
		ts.addUnmasked(c.Rule.Precision, perElement*elements*(rec.Count-covered))
	}
}

// join hands rec the thread's next occurrence index and looks it up in the
// profile. An entry for a different mnemonic means the two traces drifted
// apart; the record is then counted as if no entry existed.
func (fa *FlopAggregator) join(ts *ThreadState, rec types.InstructionRecord) (types.MaskProfileEntry, bool) {
	idx := ts.next
	ts.next++

	entry, ok := fa.profile.Lookup(rec.Thread.TID, idx)
	if !ok {
		return entry, false
	}
	if entry.Mnemonic != strings.ToUpper(rec.Mnemonic) {
		ts.CorrelationMisses++
		logutil.GetLogger().Debug("Mask profile entry does not match record",
			zap.Uint32("tid", rec.Thread.TID),
			zap.Int("index", idx),
			zap.String("iform", rec.IForm),
			zap.Int("line", rec.Line),
			zap.String("entry", entry.Mnemonic),
			zap.Int("entry_line", entry.Line))
		return entry, false
	}
	return entry, true
}

// activeLanes sums the active lanes of at most count executions of entry,
// clamping each to the record's element count. covered is the number of
// executions the entry accounted for.
func activeLanes(entry types.MaskProfileEntry, elements, count uint64) (lanes, covered uint64) {
	for _, l := range entry.Lanes {
		if covered >= count {
			break
		}
		occ := l.Occurrences
		if occ > count-covered {
			occ = count - covered
		}
		active := l.Active
		if active > elements {
			active = elements
		}
		lanes += active * occ
		covered += occ
	}
	return lanes, covered
}

func (fa *FlopAggregator) warnExperimental(rec types.InstructionRecord) {
	m := strings.ToUpper(rec.Mnemonic)
	if _, ok := fa.experimental[m]; ok {
		return
	}
	fa.experimental[m] = struct{}{}
	logutil.GetLogger().Warn("Counting FLOPs of an experimental instruction, please verify the result",
		zap.String("mnemonic", m),
		zap.String("iform", rec.IForm))
}

// Flush builds the report. Threads appear in the order they were first
// observed and Sum is their element-wise sum. Flush does not reset state, so
// calling it twice yields the same report.
func (fa *FlopAggregator) Flush() *types.Report {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	report := &types.Report{Threads: make([]types.ThreadReport, 0, len(fa.order))}
	for _, tid := range fa.order {
		ts := fa.threads[tid]
		report.Threads = append(report.Threads, types.ThreadReport{
			Thread:   ts.Thread,
			Counters: ts.Counters,
		})
		report.Sum.Add(ts.Counters)
	}
	return report
}

func (fa *FlopAggregator) Stats() Stats {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	s := Stats{Records: fa.records}
	for _, ts := range fa.threads {
		s.Fallbacks += ts.Fallbacks
		s.CorrelationMisses += ts.CorrelationMisses
		s.Joined += ts.Joined
	}
	return s
}

// Unclassified lists FP-looking mnemonics no rule matched.
func (fa *FlopAggregator) Unclassified() *classifier.Tally {
	return fa.tally
}
