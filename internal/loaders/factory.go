package loaders

import (
	"fmt"

	"github.com/ALEYI17/InfraSight_flops/pkg/types"
)

// DefaultBuffer is the depth of the mix record channel.
const DefaultBuffer = 256

func NewTraceLoader(kind, path string, buffer int) (types.Trace_loaders, error) {
	switch kind {
	case types.TraceMix:
		if buffer <= 0 {
			buffer = DefaultBuffer
		}
		ml, err := NewMixLoader(path, buffer)
		if err != nil {
			return nil, err
		}
		return ml, nil
	case types.TraceMask:
		ml, err := NewMaskLoader(path)
		if err != nil {
			return nil, err
		}
		return ml, nil
	default:
		return nil, fmt.Errorf("unsupported trace kind %q", kind)
	}
}
