package collector

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ALEYI17/InfraSight_flops/internal/classifier"
	"github.com/ALEYI17/InfraSight_flops/internal/collector/aggregator"
	"github.com/ALEYI17/InfraSight_flops/internal/config"
	"github.com/ALEYI17/InfraSight_flops/internal/loaders"
	"github.com/ALEYI17/InfraSight_flops/pkg/logutil"
	"github.com/ALEYI17/InfraSight_flops/pkg/types"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrNoMaskProfile = errors.New("masking-capable FLOP instructions found but no mask profile was loaded")

type maskResult struct {
	profile *types.MaskProfile
	err     error
}

// Run parses both traces and aggregates them into a report. The mask profile
// is parsed while the mix loader is already filling its channel; records are
// only consumed once the profile is complete, since the join needs it.
func Run(ctx context.Context, cfg *config.Config) (report *types.Report, err error) {
	logger := logutil.With(zap.String("mix", cfg.MixPath))

	table, err := classifier.Load(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load classification rules: %w", err)
	}
	logger.Info("Classification rules loaded", zap.Int("rules", table.Len()), zap.String("extra", cfg.RulesPath))
	if cfg.DumpRules {
		w := cfg.DumpTo
		if w == nil {
			w = os.Stderr
		}
		table.Dump(w)
	}

	mixLoader, err := loaders.NewTraceLoader(types.TraceMix, cfg.MixPath, cfg.Buffer)
	if err != nil {
		return nil, err
	}
	maskLoader, err := loaders.NewTraceLoader(types.TraceMask, cfg.MaskPath, 0)
	if err != nil {
		return nil, multierr.Append(err, mixLoader.Close())
	}
	defer func() {
		err = multierr.Combine(err, mixLoader.Close(), maskLoader.Close())
		if err != nil {
			report = nil
		}
	}()

	mix, ok := mixLoader.(types.Mix_loaders)
	if !ok {
		return nil, fmt.Errorf("loader for %s cannot stream records", cfg.MixPath)
	}
	mask, ok := maskLoader.(types.Mask_loaders)
	if !ok {
		return nil, fmt.Errorf("loader for %s cannot load a profile", cfg.MaskPath)
	}
	present := mask.Present()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan maskResult, 1)
	go func() {
		profile, err := mask.Load(ctx)
		done <- maskResult{profile: profile, err: err}
	}()

	records := mix.Run(ctx)

	res := <-done
	if res.err != nil {
		cancel()
		for range records {
		}
		return nil, multierr.Append(res.err, ignoreCanceled(mix.Err()))
	}

	agg := aggregator.NewFlopAggregator(table, res.profile)
	if err := agg.Run(ctx, records); err != nil {
		cancel()
		for range records {
		}
		return nil, multierr.Append(err, ignoreCanceled(mix.Err()))
	}
	if err := mix.Err(); err != nil {
		return nil, err
	}

	stats := agg.Stats()
	logger.Info("Aggregation finished",
		zap.Uint64("records", stats.Records),
		zap.Uint64("mask_joined", stats.Joined),
		zap.Uint64("full_width_fallbacks", stats.Fallbacks),
		zap.Int("profile_entries", res.profile.Len()))

	if stats.CorrelationMisses > 0 {
		logger.Warn("Mask profile and mix trace disagree on some masked instructions, counted them at full width",
			zap.Uint64("misses", stats.CorrelationMisses))
	}
	if cfg.StrictMasking && stats.Fallbacks > 0 {
		if !present {
			return nil, fmt.Errorf("%w (%d records, %s not found)", ErrNoMaskProfile, stats.Fallbacks, cfg.MaskPath)
		}
		if res.profile.Len() == 0 {
			return nil, fmt.Errorf("%w (%d records, %s has no entries)", ErrNoMaskProfile, stats.Fallbacks, cfg.MaskPath)
		}
	}

	for _, m := range aggregator.CrossCheck(res.profile) {
		logger.Warn("Masked computations differ from the profile summary table",
			zap.Uint32("tid", m.TID),
			zap.Uint64("element_bits", m.ElementBits),
			zap.Uint64("details", m.Details),
			zap.Uint64("summary", m.Summary))
	}

	agg.Unclassified().Each(func(mnemonic string, count uint64) {
		logger.Info("Unclassified floating point mnemonic", zap.String("mnemonic", mnemonic), zap.Uint64("executions", count))
	})

	return agg.Flush(), nil
}

// ignoreCanceled drops the cancellation error a loader reports after Run
// itself cancelled it.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
