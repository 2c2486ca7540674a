package aggregator

import "github.com/ALEYI17/InfraSight_flops/pkg/types"

// ThreadState is the accumulator for one TID.
type ThreadState struct {
	Thread   types.ThreadID
	Counters types.ThreadCounters

	// next is the occurrence index handed to the next masking-capable record.
	next int

	// Diagnostics
	Fallbacks         uint64
	CorrelationMisses uint64
	Joined            uint64
}

func (ts *ThreadState) addUnmasked(p types.Precision, flops uint64) {
	switch p {
	case types.PrecisionSingle:
		ts.Counters.UnmaskedSingle += flops
	case types.PrecisionDouble:
		ts.Counters.UnmaskedDouble += flops
	}
}

func (ts *ThreadState) addMasked(p types.Precision, flops uint64) {
	switch p {
	case types.PrecisionSingle:
		ts.Counters.MaskedSingle += flops
	case types.PrecisionDouble:
		ts.Counters.MaskedDouble += flops
	}
}
