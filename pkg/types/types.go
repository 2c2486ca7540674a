package types

const (
	TraceMix  = "mix"
	TraceMask = "mask"

	DefaultMixFile  = "sde-mix-out.txt"
	DefaultMaskFile = "sde-dyn-mask-profile.txt"
)

type Precision uint8

const (
	PrecisionNone Precision = iota
	PrecisionSingle
	PrecisionDouble
)

func (p Precision) Bits() uint64 {
	switch p {
	case PrecisionSingle:
		return 32
	case PrecisionDouble:
		return 64
	default:
		return 0
	}
}

func (p Precision) String() string {
	switch p {
	case PrecisionSingle:
		return "single"
	case PrecisionDouble:
		return "double"
	default:
		return "-"
	}
}

// WidthClass is the SIMD register width in bits, 0 for scalar forms.
type WidthClass uint16

const (
	WidthScalar WidthClass = 0
	Width128    WidthClass = 128
	Width256    WidthClass = 256
	Width512    WidthClass = 512
)

type RuleKind uint8

const (
	KindNotFlop RuleKind = iota
	KindFlop
	KindLoad
	KindStore
	KindTotal
)

func (k RuleKind) String() string {
	switch k {
	case KindFlop:
		return "flop"
	case KindLoad:
		return "load"
	case KindStore:
		return "store"
	case KindTotal:
		return "total"
	default:
		return "notflop"
	}
}

type MatchKind uint8

const (
	MatchIForm MatchKind = iota
	MatchMnemonic
	MatchPrefix
)

func (m MatchKind) String() string {
	switch m {
	case MatchIForm:
		return "iform"
	case MatchMnemonic:
		return "mnemonic"
	default:
		return "prefix"
	}
}
