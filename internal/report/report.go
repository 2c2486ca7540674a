package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ALEYI17/InfraSight_flops/pkg/types"
)

const separator = "============================================="

// Write renders r as plain text: one block per thread, then the Sum block.
func Write(w io.Writer, r *types.Report) error {
	bw := bufio.NewWriter(w)
	for _, t := range r.Threads {
		fmt.Fprintf(bw, "TID: %d (OS-TID: %d):\n", t.Thread.TID, t.Thread.OSTID)
		writeCounters(bw, t.Counters)
	}
	fmt.Fprintln(bw, separator)
	fmt.Fprintln(bw, "Sum:")
	writeCounters(bw, r.Sum)
	return bw.Flush()
}

func writeCounters(w io.Writer, c types.ThreadCounters) {
	fmt.Fprintf(w, "\tUnmasked single prec. FLOPs: %d\n", c.UnmaskedSingle)
	fmt.Fprintf(w, "\tMasked single prec. FLOPs: %d\n", c.MaskedSingle)
	fmt.Fprintf(w, "\tUnmasked double prec. FLOPs: %d\n", c.UnmaskedDouble)
	fmt.Fprintf(w, "\tMasked double prec. FLOPs: %d\n", c.MaskedDouble)
	fmt.Fprintf(w, "\tInstructions executed: %d\n", c.Instructions)
	fmt.Fprintf(w, "\tFMA instructions executed: %d\n", c.FMAs)
	fmt.Fprintf(w, "\tTotal bytes written: %d\n", c.BytesWritten)
	fmt.Fprintf(w, "\tTotal bytes read: %d\n", c.BytesRead)
	if ai, ok := c.ArithmeticIntensity(); ok {
		fmt.Fprintf(w, "\tArithmetic intensity (approx.): %f (EXPERIMENTAL)\n", ai)
	} else {
		fmt.Fprintln(w, "\tArithmetic intensity (approx.): undefined (EXPERIMENTAL)")
	}
}
