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
	reMixHeader  = regexp.MustCompile(`^#\s*EMIT_DYNAMIC_STATS FOR TID\s+([0-9]+)\s+OS-TID\s+([0-9]+)\s+EMIT`)
	reMixEnd     = regexp.MustCompile(`^#\s*END_DYNAMIC_STATS`)
	reMixDynamic = regexp.MustCompile(`^#\s*\$dynamic-counts\s*$`)
	reMixIform   = regexp.MustCompile(`^#\s+iform\s+count`)
	reMixRecord  = regexp.MustCompile(`^([*a-zA-Z0-9_-]+)\s+(\S+)\s*$`)
)

const mixHeaderPrefix = "EMIT_DYNAMIC_STATS FOR TID"

type mixState uint8

const (
	mixIdle mixState = iota
	mixThread
	mixCounts
	mixRecords
)

// MixParser reads an SDE '-mix -iform' trace top to bottom. It is a one-shot
// iterator: once Next has returned an error, including io.EOF, it keeps
// returning that error.
type MixParser struct {
	name    string
	sc      *bufio.Scanner
	line    int
	state   mixState
	thread  types.ThreadID
	headers int
	err     error
}

func NewMixParser(r io.Reader, name string) *MixParser {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &MixParser{name: name, sc: sc}
}

func (p *MixParser) fail(err error) error {
	p.err = &ParseError{File: p.name, Line: p.line, Err: err}
	return p.err
}

// Next returns the next record, or io.EOF after the last one. Every thread
// header yields a Header record before the section's instructions.
func (p *MixParser) Next() (types.InstructionRecord, error) {
	if p.err != nil {
		return types.InstructionRecord{}, p.err
	}

	for p.sc.Scan() {
		p.line++
		line := strings.TrimRight(p.sc.Text(), "\r")

		if strings.HasPrefix(line, "#") {
			opened, err := p.directive(line)
			if err != nil {
				return types.InstructionRecord{}, err
			}
			if opened {
				return types.InstructionRecord{Thread: p.thread, Line: p.line, Header: true}, nil
			}
			continue
		}

		m := reMixRecord.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		switch p.state {
		case mixIdle:
			if p.headers == 0 {
				return types.InstructionRecord{}, p.fail(ErrRecordBeforeHeader)
			}
			continue
		case mixThread, mixCounts:
			continue
		}

		count, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			return types.InstructionRecord{}, p.fail(fmt.Errorf("%w: bad count %q for %s", ErrMalformed, m[2], m[1]))
		}
		return p.record(m[1], count), nil
	}

	if err := p.sc.Err(); err != nil {
		return types.InstructionRecord{}, p.fail(err)
	}
	if p.headers == 0 {
		return types.InstructionRecord{}, p.fail(ErrNotMixTrace)
	}
	if p.state != mixIdle {
		return types.InstructionRecord{}, p.fail(fmt.Errorf("%w: END_DYNAMIC_STATS not found for %s", ErrTruncated, p.thread))
	}
	p.err = io.EOF
	return types.InstructionRecord{}, io.EOF
}

// directive handles a comment line. opened is true when it started a new
// thread section.
func (p *MixParser) directive(line string) (opened bool, err error) {
	if m := reMixHeader.FindStringSubmatch(line); m != nil {
		if p.state != mixIdle {
			return false, p.fail(fmt.Errorf("%w: END_DYNAMIC_STATS not found for %s", ErrTruncated, p.thread))
		}
		tid, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			return false, p.fail(fmt.Errorf("%w: bad TID %q", ErrMalformed, m[1]))
		}
		ostid, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			return false, p.fail(fmt.Errorf("%w: bad OS-TID %q", ErrMalformed, m[2]))
		}
		p.thread = types.ThreadID{TID: uint32(tid), OSTID: ostid}
		p.state = mixThread
		p.headers++
		return true, nil
	}
	if strings.Contains(line, mixHeaderPrefix) {
		return false, p.fail(fmt.Errorf("%w: truncated thread header", ErrMalformed))
	}

	switch {
	case reMixEnd.MatchString(line):
		if p.state == mixIdle {
			return false, p.fail(fmt.Errorf("%w: END_DYNAMIC_STATS without a thread header", ErrMalformed))
		}
		if p.state != mixRecords {
			return false, p.fail(fmt.Errorf("%w (%s)", ErrNoIform, p.thread))
		}
		p.state = mixIdle
	case reMixDynamic.MatchString(line):
		if p.state == mixThread {
			p.state = mixCounts
		}
	case reMixIform.MatchString(line):
		if p.state == mixCounts {
			p.state = mixRecords
		}
	}
	return false, nil
}

func (p *MixParser) record(name string, count uint64) types.InstructionRecord {
	rec := types.InstructionRecord{
		Thread: p.thread,
		IForm:  name,
		Count:  count,
		Line:   p.line,
	}
	if strings.HasPrefix(name, "*") {
		rec.Mnemonic = name
		return rec
	}
	parts := strings.Split(name, "_")
	rec.Mnemonic = parts[0]
	if len(parts) > 1 {
		rec.Operands = parts[1:]
	}
	return rec
}
