package loaders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ALEYI17/InfraSight_flops/pkg/logutil"
	"github.com/ALEYI17/InfraSight_flops/pkg/types"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type MixLoader struct {
	Path   string
	file   *os.File
	parser *MixParser
	buffer int

	mu  sync.Mutex
	err error
}

// NewMixLoader opens the mix trace. A missing mix trace is always fatal.
func NewMixLoader(path string, buffer int) (*MixLoader, error) {
	logger := logutil.GetLogger()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mix trace: %w", err)
	}
	if err := adviseSequential(f); err != nil {
		logger.Debug("fadvise failed", zap.String("file", path), zap.Error(err))
	}

	return &MixLoader{
		Path:   path,
		file:   f,
		parser: NewMixParser(f, path),
		buffer: buffer,
	}, nil
}

func (ml *MixLoader) Close() error {
	if ml.file == nil {
		return nil
	}
	err := ml.file.Close()
	ml.file = nil
	return err
}

// Err is valid once the channel returned by Run has been closed.
func (ml *MixLoader) Err() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.err
}

func (ml *MixLoader) setErr(err error) {
	ml.mu.Lock()
	ml.err = multierr.Append(ml.err, err)
	ml.mu.Unlock()
}

// Run streams records in file order on a single goroutine, so thread and
// occurrence order are preserved for the consumer.
func (ml *MixLoader) Run(ctx context.Context) <-chan types.InstructionRecord {
	out := make(chan types.InstructionRecord, ml.buffer)

	logger := logutil.GetLogger()

	go func() {
		defer close(out)

		var n int
		for {
			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, stopping mix loader...")
				ml.setErr(ctx.Err())
				return
			default:
			}

			rec, err := ml.parser.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					logger.Debug("Mix trace exhausted", zap.String("file", ml.Path), zap.Int("records", n))
					return
				}
				ml.setErr(err)
				return
			}
			n++

			select {
			case out <- rec:
			case <-ctx.Done():
				ml.setErr(ctx.Err())
				return
			}
		}
	}()

	return out
}
