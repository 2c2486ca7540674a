package loaders

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/ALEYI17/InfraSight_flops/pkg/logutil"
	"github.com/ALEYI17/InfraSight_flops/pkg/types"
	"go.uber.org/zap"
)

var _ types.Mask_loaders = (*MaskLoader)(nil)

type MaskLoader struct {
	Path string
	file *os.File

	mu  sync.Mutex
	err error
}

// NewMaskLoader opens the mask profile. Unlike the mix trace, a missing
// profile is not an error: Load then returns an empty profile and every
// masking-capable record is counted at full width.
func NewMaskLoader(path string) (*MaskLoader, error) {
	logger := logutil.GetLogger()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Mask profile not found, masked FLOPs will be counted at full width", zap.String("file", path))
			return &MaskLoader{Path: path}, nil
		}
		return nil, fmt.Errorf("failed to open mask profile: %w", err)
	}
	if err := adviseSequential(f); err != nil {
		logger.Debug("fadvise failed", zap.String("file", path), zap.Error(err))
	}

	return &MaskLoader{Path: path, file: f}, nil
}

// Present reports whether the profile file exists.
func (ml *MaskLoader) Present() bool {
	return ml.file != nil
}

func (ml *MaskLoader) Close() error {
	if ml.file == nil {
		return nil
	}
	err := ml.file.Close()
	ml.file = nil
	return err
}

func (ml *MaskLoader) Err() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.err
}

// Load parses the whole profile. It may only be called once.
func (ml *MaskLoader) Load(ctx context.Context) (*types.MaskProfile, error) {
	if ml.file == nil {
		return types.NewMaskProfile(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile, err := ParseMaskProfile(ml.file, ml.Path)

	ml.mu.Lock()
	ml.err = err
	ml.mu.Unlock()

	if err != nil {
		return nil, err
	}
	logutil.GetLogger().Debug("Mask profile loaded",
		zap.String("file", ml.Path),
		zap.Int("threads", len(profile.Threads())),
		zap.Int("entries", profile.Len()))
	return profile, nil
}
