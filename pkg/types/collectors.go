package types

// Trace_collectors consume classified records and produce a report.
type Trace_collectors interface {
	Update(rec InstructionRecord)
	Flush() *Report
}
