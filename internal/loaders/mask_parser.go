package loaders

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ALEYI17/InfraSight_flops/pkg/types"
)

var (
	reMaskThreadNumber = regexp.MustCompile(`^\s*<thread-number>\s*([^<\s]*)\s*</thread-number>`)
	reMaskDisassembly  = regexp.MustCompile(`^\s*<disassembly>\s*(.*?)\s*</disassembly>`)
	reMaskExecutions   = regexp.MustCompile(`^\s*<execution-counts>\s*([^<\s]*)`)
	reMaskComputations = regexp.MustCompile(`^\s*<computation-count>\s*([^<\s]*)`)
	reMaskOpmask       = regexp.MustCompile(`\{k[0-9]+\}`)
	reMaskRegister     = regexp.MustCompile(`\b([xyz])mm[0-9]+`)
	reMaskSummaryRow   = regexp.MustCompile(`^\s*(\S+)\s+mask\s+([0-9]+)b\s+([0-9]+)elem\s+([0-9]+)b\s+(\S+)\s*\|\s*([0-9]+)\s+([0-9]+)`)
)

type maskState uint8

const (
	maskIdle maskState = iota
	maskThread
	maskDetails
	maskSummary
)

// pendingEntry collects the fields of one <instruction-details> block.
type pendingEntry struct {
	entry        types.MaskProfileEntry
	executions   bool
	computations bool
}

type pendingThread struct {
	tid       uint32
	numbered  bool
	entries   []types.MaskProfileEntry
	summaries []types.SummaryRow
}

// ParseMaskProfile reads an SDE '-dyn_mask_profile' trace. An empty input
// yields an empty profile.
func ParseMaskProfile(r io.Reader, name string) (*types.MaskProfile, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	profile := types.NewMaskProfile()
	var (
		lineNo   int
		state    maskState
		thread   *pendingThread
		details  *pendingEntry
		numbers  int
		nonEmpty bool
	)

	fail := func(err error) (*types.MaskProfile, error) {
		return nil, &ParseError{File: name, Line: lineNo, Err: err}
	}

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		nonEmpty = true

		switch state {
		case maskIdle:
			if line == "<thread>" {
				thread = &pendingThread{}
				state = maskThread
				continue
			}
			if m := reMaskThreadNumber.FindStringSubmatch(line); m != nil {
				return fail(fmt.Errorf("%w: <thread-number> outside <thread>", ErrMalformed))
			}

		case maskThread:
			switch {
			case line == "<thread>":
				return fail(fmt.Errorf("%w: <thread> not closed", ErrTruncated))
			case line == "</thread>":
				if !thread.numbered {
					return fail(fmt.Errorf("%w: <thread> without <thread-number>", ErrMalformed))
				}
				for _, e := range thread.entries {
					e.Key.TID = thread.tid
					profile.Add(e)
				}
				for _, row := range thread.summaries {
					profile.AddSummary(thread.tid, row)
				}
				thread = nil
				state = maskIdle
			case strings.HasPrefix(line, "<instruction-details>"):
				details = &pendingEntry{entry: types.MaskProfileEntry{Line: lineNo}}
				state = maskDetails
			case strings.HasPrefix(line, "<summarytable>"):
				state = maskSummary
			default:
				if m := reMaskThreadNumber.FindStringSubmatch(line); m != nil {
					tid, err := strconv.ParseUint(m[1], 10, 32)
					if err != nil {
						return fail(fmt.Errorf("%w: bad thread number %q", ErrMalformed, m[1]))
					}
					thread.tid = uint32(tid)
					thread.numbered = true
					numbers++
				}
			}

		case maskDetails:
			switch {
			case strings.HasPrefix(line, "</instruction-details>"):
				e, err := finishEntry(details)
				if err != nil {
					return fail(err)
				}
				thread.entries = append(thread.entries, e)
				details = nil
				state = maskThread
			case strings.HasPrefix(line, "<instruction-details>"), line == "</thread>":
				return fail(fmt.Errorf("%w: <instruction-details> not closed", ErrTruncated))
			default:
				if err := details.field(line); err != nil {
					return fail(err)
				}
			}

		case maskSummary:
			switch {
			case strings.HasPrefix(line, "</summarytable>"):
				state = maskThread
			case line == "</thread>":
				return fail(fmt.Errorf("%w: <summarytable> not closed", ErrTruncated))
			default:
				if row, ok := parseSummaryRow(line); ok {
					thread.summaries = append(thread.summaries, row)
				}
			}
		}
	}

	if err := sc.Err(); err != nil {
		return fail(err)
	}
	if !nonEmpty {
		return profile, nil
	}
	if numbers == 0 {
		lineNo = 0
		return fail(ErrNotMaskProfile)
	}
	switch state {
	case maskThread:
		return fail(fmt.Errorf("%w: <thread> not closed", ErrTruncated))
	case maskDetails:
		return fail(fmt.Errorf("%w: <instruction-details> not closed", ErrTruncated))
	case maskSummary:
		return fail(fmt.Errorf("%w: <summarytable> not closed", ErrTruncated))
	}
	return profile, nil
}

func (p *pendingEntry) field(line string) error {
	if m := reMaskDisassembly.FindStringSubmatch(line); m != nil {
		p.entry.Disassembly = m[1]
		p.entry.Mnemonic, p.entry.Masked, p.entry.VectorBits, p.entry.ElementBits = decodeDisassembly(m[1])
		return nil
	}
	if m := reMaskExecutions.FindStringSubmatch(line); m != nil {
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: bad execution count %q", ErrMalformed, m[1])
		}
		p.entry.Executions = n
		p.executions = true
		return nil
	}
	if m := reMaskComputations.FindStringSubmatch(line); m != nil {
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: bad computation count %q", ErrMalformed, m[1])
		}
		p.entry.Computations = n
		p.computations = true
	}
	return nil
}

func finishEntry(p *pendingEntry) (types.MaskProfileEntry, error) {
	e := p.entry
	if !p.executions {
		return e, fmt.Errorf("%w: instruction without <execution-counts>", ErrMalformed)
	}
	if !p.computations {
		return e, fmt.Errorf("%w: instruction without <computation-count>", ErrMalformed)
	}

	if capacity := laneCapacity(e.VectorBits, e.ElementBits); capacity > 0 {
		if e.Computations > e.Executions*capacity {
			return e, fmt.Errorf("%w: %d computations exceed %d executions of %d lanes (%s)",
				ErrMalformed, e.Computations, e.Executions, capacity, e.Disassembly)
		}
	}
	e.Lanes = distributeLanes(e.Executions, e.Computations)
	return e, nil
}

// distributeLanes rebuilds the active-lane histogram of n executions that
// performed c element computations in total. The profile only keeps the two
// totals, so the lanes are spread as evenly as possible. Occurrences always
// sum to n.
func distributeLanes(n, c uint64) []types.LaneCount {
	if n == 0 {
		return nil
	}
	q, r := c/n, c%n
	lanes := []types.LaneCount{{Active: q, Occurrences: n - r}}
	if r > 0 {
		lanes = append(lanes, types.LaneCount{Active: q + 1, Occurrences: r})
	}
	return lanes
}

func laneCapacity(vectorBits, elementBits uint64) uint64 {
	if vectorBits == 0 || elementBits == 0 {
		return 0
	}
	return vectorBits / elementBits
}

func decodeDisassembly(text string) (mnemonic string, masked bool, vectorBits, elementBits uint64) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", false, 0, 0
	}
	mnemonic = strings.ToUpper(fields[0])
	operands := strings.Join(fields[1:], " ")

	masked = reMaskOpmask.MatchString(operands)

	if m := reMaskRegister.FindStringSubmatch(operands); m != nil {
		switch m[1] {
		case "x":
			vectorBits = 128
		case "y":
			vectorBits = 256
		case "z":
			vectorBits = 512
		}
	}

	// Integer forms (VPMINSD, VPADDD) share the suffixes.
	if strings.HasPrefix(mnemonic, "VP") {
		return
	}
	switch {
	case strings.HasSuffix(mnemonic, "PS"), strings.HasSuffix(mnemonic, "SS"):
		elementBits = 32
	case strings.HasSuffix(mnemonic, "PD"), strings.HasSuffix(mnemonic, "SD"):
		elementBits = 64
	}
	return mnemonic, masked, vectorBits, elementBits
}

func parseSummaryRow(line string) (types.SummaryRow, bool) {
	m := reMaskSummaryRow.FindStringSubmatch(line)
	if m == nil {
		return types.SummaryRow{}, false
	}
	vals := make([]uint64, 0, 5)
	for _, idx := range []int{2, 3, 4, 6, 7} {
		n, err := strconv.ParseUint(m[idx], 10, 64)
		if err != nil {
			return types.SummaryRow{}, false
		}
		vals = append(vals, n)
	}
	return types.SummaryRow{
		MaskType:     m[1],
		VectorBits:   vals[0],
		Elements:     vals[1],
		ElementBits:  vals[2],
		ElementType:  m[5],
		Instructions: vals[3],
		Computations: vals[4],
	}, true
}
