package aggregator

import (
	"context"

	"github.com/ALEYI17/InfraSight_flops/pkg/types"
)

// Run drains records into the aggregator until the channel is closed or ctx
// is cancelled.
func (fa *FlopAggregator) Run(ctx context.Context, records <-chan types.InstructionRecord) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-records:
			if !ok {
				return nil
			}
			fa.Update(rec)
		}
	}
}
