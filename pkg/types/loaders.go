package types

import "context"

// Trace_loaders parse one trace file. Run streams results until the file is
// exhausted; Err reports why the stream ended early.
type Trace_loaders interface {
	Close() error
	Err() error
}

type Mix_loaders interface {
	Trace_loaders
	Run(context.Context) <-chan InstructionRecord
}

// Mask_loaders tolerate a missing profile file; Present tells the two apart.
type Mask_loaders interface {
	Trace_loaders
	Present() bool
	Load(context.Context) (*MaskProfile, error)
}
