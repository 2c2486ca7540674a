package aggregator

import "github.com/ALEYI17/InfraSight_flops/pkg/types"

// Mismatch is a thread whose masked floating point computations, summed over
// the instruction details, disagree with the profile's own summary table.
type Mismatch struct {
	TID         uint32
	ElementBits uint64
	Details     uint64
	Summary     uint64
}

// CrossCheck compares, per thread and element size, the computations of the
// masked entries with the masked fp rows of the summary table. Threads
// without a summary table are skipped.
func CrossCheck(profile *types.MaskProfile) []Mismatch {
	var out []Mismatch
	for _, tid := range profile.Threads() {
		rows := profile.Summary(tid)
		if len(rows) == 0 {
			continue
		}

		summary := map[uint64]uint64{}
		for _, row := range rows {
			if row.MaskType == "masked" && row.ElementType == "fp" {
				summary[row.ElementBits] += row.Computations
			}
		}

		details := map[uint64]uint64{}
		for idx := 0; idx < profile.Entries(tid); idx++ {
			e, ok := profile.Lookup(tid, idx)
			if !ok || !e.Masked || e.ElementBits == 0 {
				continue
			}
			details[e.ElementBits] += e.Computations
		}

		for _, bits := range []uint64{32, 64} {
			if summary[bits] != details[bits] {
				out = append(out, Mismatch{
					TID:         tid,
					ElementBits: bits,
					Details:     details[bits],
					Summary:     summary[bits],
				})
			}
		}
	}
	return out
}
