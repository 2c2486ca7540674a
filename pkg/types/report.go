package types

// ThreadCounters are integer accumulators; they only ever grow.
type ThreadCounters struct {
	UnmaskedSingle uint64
	MaskedSingle   uint64
	UnmaskedDouble uint64
	MaskedDouble   uint64
	Instructions   uint64
	FMAs           uint64
	BytesRead      uint64
	BytesWritten   uint64
}

func (c *ThreadCounters) Add(o ThreadCounters) {
	c.UnmaskedSingle += o.UnmaskedSingle
	c.MaskedSingle += o.MaskedSingle
	c.UnmaskedDouble += o.UnmaskedDouble
	c.MaskedDouble += o.MaskedDouble
	c.Instructions += o.Instructions
	c.FMAs += o.FMAs
	c.BytesRead += o.BytesRead
	c.BytesWritten += o.BytesWritten
}

func (c ThreadCounters) FLOPs() uint64 {
	return c.UnmaskedSingle + c.MaskedSingle + c.UnmaskedDouble + c.MaskedDouble
}

func (c ThreadCounters) BytesAccessed() uint64 {
	return c.BytesRead + c.BytesWritten
}

// ArithmeticIntensity reports ok=false when no bytes were accessed.
func (c ThreadCounters) ArithmeticIntensity() (float64, bool) {
	bytes := c.BytesAccessed()
	if bytes == 0 {
		return 0, false
	}
	return float64(c.FLOPs()) / float64(bytes), true
}

type ThreadReport struct {
	Thread   ThreadID
	Counters ThreadCounters
}

type Report struct {
	Threads []ThreadReport
	Sum     ThreadCounters
}
