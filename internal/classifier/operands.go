package classifier

import (
	"strings"

	"github.com/ALEYI17/InfraSight_flops/pkg/types"
)

// registerWidth returns the width of the first vector register hint.
func registerWidth(hints []string) types.WidthClass {
	for _, h := range hints {
		switch {
		case strings.HasPrefix(h, "ZMM"):
			return types.Width512
		case strings.HasPrefix(h, "YMM"):
			return types.Width256
		case strings.HasPrefix(h, "XMM"):
			return types.Width128
		}
	}
	return types.WidthScalar
}

func maskable(hints []string) bool {
	for _, h := range hints {
		if strings.HasPrefix(h, "MASK") {
			return true
		}
	}
	return false
}

func resolveOperands(rule types.ClassificationRule, hints []string) types.Operands {
	ops := types.Operands{
		Width:    registerWidth(hints),
		Maskable: maskable(hints),
	}
	if rule.Kind != types.KindFlop {
		return ops
	}
	if !rule.Packed {
		ops.Elements = 1
		return ops
	}
	width := ops.Width
	if width == types.WidthScalar {
		// legacy SSE forms without a register hint operate on xmm
		width = types.Width128
		ops.Width = width
	}
	ops.Elements = uint64(width) / rule.Precision.Bits()
	return ops
}

// dataMovement are families that carry FP suffixes but never compute.
var dataMovement = []string{
	"MOV", "MASKMOV", "SHUF", "UNPCK", "AND", "OR", "XOR", "BLEND", "PERM",
	"BROADCAST", "INSERT", "EXTRACT", "GATHER", "SCATTER", "EXPAND", "COMPRESS",
}

// looksFloatingPoint guesses whether an unknown mnemonic is an FP operation
// worth a rule.
func looksFloatingPoint(mnemonic string) bool {
	if strings.HasPrefix(mnemonic, "*") {
		return false
	}
	base := strings.TrimPrefix(mnemonic, "V")
	for _, p := range dataMovement {
		if strings.HasPrefix(base, p) {
			return false
		}
	}
	if strings.Contains(mnemonic, "BF16") {
		return true
	}
	for _, suf := range []string{"PS", "PD", "SS", "SD", "PH", "SH"} {
		if strings.HasSuffix(mnemonic, suf) {
			return true
		}
	}
	return false
}
